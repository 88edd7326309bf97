// Package mapping assigns arbitrary export column names to canonical
// accounting fields. It combines synonym lookups, content heuristics and a
// balance-driven tie-break into a unique column-to-field assignment.
package mapping

import (
	"strings"
	"sync"
)

// accentFold maps the accented letters seen in Spanish, French, German and
// Portuguese exports to their plain ASCII equivalent.
var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"ñ", "n", "ç", "c", "à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
	"Ñ", "n", "Ç", "c", "À", "a", "È", "e", "Ì", "i", "Ò", "o", "Ù", "u",
)

// translations maps foreign column-name tokens (German, French, Italian,
// Portuguese) to the Spanish token the synonym dictionaries are keyed on.
// Ordered so longer tokens win before their substrings and translation is
// deterministic.
var translations = []struct {
	foreign, spanish string
}{
	// German
	{"kontoname", "nombrecuenta"},
	{"lieferant", "proveedor"},
	{"waehrung", "moneda"},
	{"buchung", "asiento"},
	{"datum", "fecha"},
	{"betrag", "importe"},
	{"konto", "cuenta"},
	{"soll", "debe"},
	{"haben", "haber"},
	{"beleg", "documento"},
	{"periode", "periodo"},

	// French
	{"nomcompte", "nombrecuenta"},
	{"fournisseur", "proveedor"},
	{"montant", "importe"},
	{"compte", "cuenta"},
	{"devise", "moneda"},
	{"ecriture", "asiento"},

	// Italian
	{"nomeconto", "nombrecuenta"},
	{"fornitore", "proveedor"},
	{"scrittura", "asiento"},
	{"importo", "importe"},
	{"valuta", "moneda"},
	{"conto", "cuenta"},
	{"dare", "debe"},
	{"avere", "haber"},

	// Portuguese
	{"nomeconta", "nombrecuenta"},
	{"fornecedor", "proveedor"},
	{"lancamento", "asiento"},
	{"conta", "cuenta"},
	{"moeda", "moneda"},
}

// Normalizer folds column names into a canonical comparison form: lowercase,
// accents folded, everything that is not an ASCII letter or digit stripped.
// Two names are the same column name iff their normalized forms are equal.
// Results are cached for the session; the cache is safe for concurrent reads
// and writes.
type Normalizer struct {
	mu    sync.Mutex
	cache map[string]string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{cache: make(map[string]string)}
}

// Normalize returns the canonical comparison form of name.
func (n *Normalizer) Normalize(name string) string {
	if name == "" {
		return ""
	}

	n.mu.Lock()
	if cached, ok := n.cache[name]; ok {
		n.mu.Unlock()
		return cached
	}
	n.mu.Unlock()

	folded := accentFold.Replace(strings.ToLower(name))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	normalized := b.String()

	n.mu.Lock()
	n.cache[name] = normalized
	n.mu.Unlock()
	return normalized
}

// Translate rewrites foreign-language tokens inside a normalized name to
// their Spanish equivalent so that e.g. "Belegdatum" can reach the Spanish
// synonym sets. Returns the input unchanged when no token matches.
func (n *Normalizer) Translate(name string) string {
	normalized := n.Normalize(name)
	for _, t := range translations {
		if strings.Contains(normalized, t.foreign) {
			return strings.ReplaceAll(normalized, t.foreign, t.spanish)
		}
	}
	return name
}

// CacheSize reports how many names have been normalized this session.
func (n *Normalizer) CacheSize() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.cache)
}
