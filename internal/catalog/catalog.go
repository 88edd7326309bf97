// Package catalog holds the canonical accounting field definitions and the
// per-ERP synonym dictionaries the mapping engine matches column names
// against. Catalogs are immutable snapshots: the loader builds a new one on
// every (re)load and readers never observe a half-updated dictionary.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Synonym is a known alternate column name for a canonical field, scoped to
// one ERP system. ConfidenceBoost nudges the exact-match confidence up for
// names that are unambiguous in that ERP.
type Synonym struct {
	Name            string
	ConfidenceBoost float64
}

// Catalog is a read-only view of the field definitions plus their synonyms
// grouped by ERP system.
type Catalog struct {
	fields   map[Code]Field
	order    []Code
	synonyms map[Code]map[string][]Synonym // code -> erp -> synonyms
}

// NewCatalog builds a catalog from the given fields and synonym groups.
// Fields outside the canonical set are rejected.
func NewCatalog(fields []Field, synonyms map[Code]map[string][]Synonym) (*Catalog, error) {
	c := &Catalog{
		fields:   make(map[Code]Field, len(fields)),
		synonyms: make(map[Code]map[string][]Synonym, len(synonyms)),
	}
	for _, f := range fields {
		if !IsCanonical(f.Code) {
			return nil, fmt.Errorf("catalog: unknown field code %q", f.Code)
		}
		if _, dup := c.fields[f.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate field code %q", f.Code)
		}
		c.fields[f.Code] = f
		c.order = append(c.order, f.Code)
	}
	for code, byERP := range synonyms {
		if _, ok := c.fields[code]; !ok {
			return nil, fmt.Errorf("catalog: synonyms for undefined field %q", code)
		}
		for erp, syns := range byERP {
			if strings.TrimSpace(erp) == "" {
				return nil, fmt.Errorf("catalog: empty ERP system name for field %q", code)
			}
			for _, s := range syns {
				if strings.TrimSpace(s.Name) == "" {
					return nil, fmt.Errorf("catalog: empty synonym name for field %q (%s)", code, erp)
				}
				if s.ConfidenceBoost < 0 || s.ConfidenceBoost > 1 {
					return nil, fmt.Errorf("catalog: synonym %q boost %.2f out of range", s.Name, s.ConfidenceBoost)
				}
			}
		}
		c.synonyms[code] = byERP
	}
	return c, nil
}

// Default returns the built-in catalog: all core fields with the bundled
// Spanish/SAP/Oracle/Navision synonym sets. It is the fallback when no
// configuration file is supplied.
func Default() *Catalog {
	c, err := NewCatalog(coreFields, defaultSynonyms())
	if err != nil {
		panic(err) // built-in data, must be valid
	}
	return c
}

// Field returns the definition for a code.
func (c *Catalog) Field(code Code) (Field, bool) {
	f, ok := c.fields[code]
	return f, ok
}

// Fields returns all field definitions in declaration order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.fields[code])
	}
	return out
}

// SynonymsFor returns the synonyms of a field within one ERP system.
func (c *Catalog) SynonymsFor(code Code, erp string) []Synonym {
	byERP, ok := c.synonyms[code]
	if !ok {
		return nil
	}
	return byERP[erp]
}

// AllSynonyms returns every synonym of a field across all ERP systems.
func (c *Catalog) AllSynonyms(code Code) []Synonym {
	byERP, ok := c.synonyms[code]
	if !ok {
		return nil
	}
	erps := make([]string, 0, len(byERP))
	for erp := range byERP {
		erps = append(erps, erp)
	}
	sort.Strings(erps)
	var out []Synonym
	for _, erp := range erps {
		out = append(out, byERP[erp]...)
	}
	return out
}

// ERPSystems returns the sorted set of ERP systems present in the catalog.
func (c *Catalog) ERPSystems() []string {
	set := map[string]struct{}{}
	for _, byERP := range c.synonyms {
		for erp := range byERP {
			set[erp] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for erp := range set {
		out = append(out, erp)
	}
	sort.Strings(out)
	return out
}

// SynonymCount returns the total number of synonyms in the catalog.
func (c *Catalog) SynonymCount() int {
	n := 0
	for _, byERP := range c.synonyms {
		for _, syns := range byERP {
			n += len(syns)
		}
	}
	return n
}

const (
	// GenericES is the fallback ERP group for Spanish-language exports with
	// no recognizable vendor fingerprint.
	GenericES = "Generic_ES"
)

func defaultSynonyms() map[Code]map[string][]Synonym {
	return map[Code]map[string][]Synonym{
		JournalEntryID: {
			GenericES:  {{Name: "asiento", ConfidenceBoost: 0.9}, {Name: "num asiento", ConfidenceBoost: 0.8}, {Name: "numero asiento", ConfidenceBoost: 0.8}},
			"SAP":      {{Name: "belnr", ConfidenceBoost: 0.9}, {Name: "documento contable", ConfidenceBoost: 0.5}},
			"Oracle":   {{Name: "je_header_id", ConfidenceBoost: 0.9}, {Name: "journal id", ConfidenceBoost: 0.7}},
			"Navision": {{Name: "entry no_", ConfidenceBoost: 0.8}, {Name: "transaction no_", ConfidenceBoost: 0.4}},
		},
		LineNumber: {
			GenericES: {{Name: "linea", ConfidenceBoost: 0.8}, {Name: "num linea", ConfidenceBoost: 0.8}},
			"SAP":     {{Name: "buzei", ConfidenceBoost: 0.9}},
			"Oracle":  {{Name: "je_line_num", ConfidenceBoost: 0.9}},
		},
		Description: {
			GenericES: {{Name: "concepto", ConfidenceBoost: 0.7}, {Name: "descripcion cabecera", ConfidenceBoost: 0.9}},
			"SAP":     {{Name: "bktxt", ConfidenceBoost: 0.8}},
		},
		LineDescription: {
			GenericES: {{Name: "descripcion linea", ConfidenceBoost: 0.9}, {Name: "detalle", ConfidenceBoost: 0.5}},
			"SAP":     {{Name: "sgtxt", ConfidenceBoost: 0.8}},
		},
		PostingDate: {
			GenericES:  {{Name: "fecha", ConfidenceBoost: 0.7}, {Name: "fecha contable", ConfidenceBoost: 0.9}, {Name: "fecha asiento", ConfidenceBoost: 0.8}},
			"SAP":      {{Name: "budat", ConfidenceBoost: 0.9}},
			"Oracle":   {{Name: "effective_date", ConfidenceBoost: 0.8}},
			"Navision": {{Name: "posting date", ConfidenceBoost: 0.9}},
		},
		FiscalYear: {
			GenericES: {{Name: "ano", ConfidenceBoost: 0.7}, {Name: "ano fiscal", ConfidenceBoost: 0.9}, {Name: "ejercicio", ConfidenceBoost: 0.8}},
			"SAP":     {{Name: "gjahr", ConfidenceBoost: 0.9}},
		},
		PeriodNumber: {
			GenericES: {{Name: "periodo", ConfidenceBoost: 0.9}, {Name: "mes", ConfidenceBoost: 0.5}},
			"SAP":     {{Name: "monat", ConfidenceBoost: 0.9}},
			"Oracle":  {{Name: "period_name", ConfidenceBoost: 0.7}},
		},
		GLAccountNumber: {
			GenericES:  {{Name: "cuenta", ConfidenceBoost: 0.8}, {Name: "num cuenta", ConfidenceBoost: 0.8}, {Name: "cuenta contable", ConfidenceBoost: 0.9}},
			"SAP":      {{Name: "hkont", ConfidenceBoost: 0.9}, {Name: "saknr", ConfidenceBoost: 0.8}},
			"Oracle":   {{Name: "code_combination_id", ConfidenceBoost: 0.7}},
			"Navision": {{Name: "g_l account no_", ConfidenceBoost: 0.9}},
		},
		GLAccountName: {
			GenericES: {{Name: "nombre cuenta", ConfidenceBoost: 0.9}, {Name: "denominacion cuenta", ConfidenceBoost: 0.8}},
			"SAP":     {{Name: "txt50", ConfidenceBoost: 0.7}},
		},
		Amount: {
			GenericES:  {{Name: "importe", ConfidenceBoost: 0.9}, {Name: "saldo", ConfidenceBoost: 0.8}, {Name: "total", ConfidenceBoost: 0.5}},
			"SAP":      {{Name: "dmbtr", ConfidenceBoost: 0.9}, {Name: "wrbtr", ConfidenceBoost: 0.8}},
			"Navision": {{Name: "amount", ConfidenceBoost: 0.8}, {Name: "amount_lcy", ConfidenceBoost: 0.8}},
		},
		DebitAmount: {
			GenericES: {{Name: "debe", ConfidenceBoost: 0.9}, {Name: "importe debe", ConfidenceBoost: 0.9}},
			"Oracle":  {{Name: "entered_dr", ConfidenceBoost: 0.9}, {Name: "accounted_dr", ConfidenceBoost: 0.8}},
		},
		CreditAmount: {
			GenericES: {{Name: "haber", ConfidenceBoost: 0.9}, {Name: "importe haber", ConfidenceBoost: 0.9}},
			"Oracle":  {{Name: "entered_cr", ConfidenceBoost: 0.9}, {Name: "accounted_cr", ConfidenceBoost: 0.8}},
		},
		DebitCreditIndicator: {
			GenericES: {{Name: "debe haber", ConfidenceBoost: 0.8}, {Name: "indicador", ConfidenceBoost: 0.4}},
			"SAP":     {{Name: "shkzg", ConfidenceBoost: 0.9}},
		},
		PreparedBy: {
			GenericES: {{Name: "preparado por", ConfidenceBoost: 0.9}, {Name: "usuario", ConfidenceBoost: 0.5}, {Name: "introducido por", ConfidenceBoost: 0.9}},
			"SAP":     {{Name: "usnam", ConfidenceBoost: 0.9}},
		},
		EntryDate: {
			GenericES: {{Name: "fecha entrada", ConfidenceBoost: 0.9}, {Name: "fecha introduccion", ConfidenceBoost: 0.9}},
			"SAP":     {{Name: "cpudt", ConfidenceBoost: 0.9}},
		},
		EntryTime: {
			GenericES: {{Name: "hora", ConfidenceBoost: 0.7}, {Name: "hora entrada", ConfidenceBoost: 0.9}},
			"SAP":     {{Name: "cputm", ConfidenceBoost: 0.9}},
		},
		VendorID: {
			GenericES: {{Name: "proveedor", ConfidenceBoost: 0.7}, {Name: "id proveedor", ConfidenceBoost: 0.9}, {Name: "codigo proveedor", ConfidenceBoost: 0.9}},
			"SAP":     {{Name: "lifnr", ConfidenceBoost: 0.9}},
		},
		DocumentNumber: {
			GenericES:  {{Name: "documento", ConfidenceBoost: 0.7}, {Name: "num documento", ConfidenceBoost: 0.8}},
			"SAP":      {{Name: "xblnr", ConfidenceBoost: 0.8}},
			"Navision": {{Name: "document no_", ConfidenceBoost: 0.9}},
		},
	}
}
