package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when the loader has no file configured and no
// built-in fallback was requested.
var ErrNoConfig = errors.New("catalog: no configuration source")

// fileFormat mirrors the YAML layout of the catalog file:
//
//	fields:
//	  amount:
//	    display_name: Importe
//	    data_type: currency
//	    synonyms:
//	      Generic_ES:
//	        - name: importe
//	          boost: 0.9
type fileFormat struct {
	Fields map[string]fileField `yaml:"fields"`
}

type fileField struct {
	DisplayName string                   `yaml:"display_name"`
	DataType    string                   `yaml:"data_type"`
	Synonyms    map[string][]fileSynonym `yaml:"synonyms"`
}

type fileSynonym struct {
	Name  string  `yaml:"name"`
	Boost float64 `yaml:"boost"`
}

// Loader reads catalog configuration from a YAML file and hands out
// immutable snapshots. A failed reload keeps the last good catalog.
type Loader struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	current  *Catalog
	lastHash string
	reloads  int
	failures int
}

// NewLoader creates a loader for the given YAML file. An empty path means
// the built-in default catalog is used and reloads are no-ops.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger, current: Default()}
}

// Load performs the initial read. Missing file falls back to the built-in
// catalog; a malformed file is an error.
func (l *Loader) Load() error {
	if l.path == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("catalog file missing, using built-in defaults", slog.String("path", l.path))
			return nil
		}
		return fmt.Errorf("catalog: read %s: %w", l.path, err)
	}
	return l.apply(data)
}

// Reload re-reads the file if its content changed. Returns true when a new
// snapshot was installed.
func (l *Loader) Reload() (bool, error) {
	if l.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return false, fmt.Errorf("catalog: read %s: %w", l.path, err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	l.mu.RLock()
	unchanged := hash == l.lastHash
	l.mu.RUnlock()
	if unchanged {
		return false, nil
	}
	if err := l.apply(data); err != nil {
		l.mu.Lock()
		l.failures++
		l.mu.Unlock()
		// Last good snapshot stays installed.
		return false, err
	}
	return true, nil
}

func (l *Loader) apply(data []byte) error {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", l.path, err)
	}
	cat, err := buildCatalog(raw)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)

	l.mu.Lock()
	l.current = cat
	l.lastHash = hex.EncodeToString(sum[:])
	l.reloads++
	l.mu.Unlock()

	l.logger.Info("catalog loaded",
		slog.String("path", l.path),
		slog.Int("fields", len(cat.Fields())),
		slog.Int("synonyms", cat.SynonymCount()),
	)
	return nil
}

// Snapshot returns the current catalog. The returned value is immutable and
// safe to use for the whole duration of a mapping session even if a reload
// happens concurrently.
func (l *Loader) Snapshot() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Stats reports reload counters for diagnostics.
func (l *Loader) Stats() (reloads, failures int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reloads, l.failures
}

func buildCatalog(raw fileFormat) (*Catalog, error) {
	if len(raw.Fields) == 0 {
		return nil, errors.New("catalog: no fields defined")
	}
	// Walk core declaration order so catalogs are deterministic regardless
	// of YAML map ordering.
	var fields []Field
	synonyms := make(map[Code]map[string][]Synonym)
	for _, core := range coreFields {
		ff, ok := raw.Fields[string(core.Code)]
		if !ok {
			continue
		}
		f := core
		if ff.DisplayName != "" {
			f.DisplayName = ff.DisplayName
		}
		if ff.DataType != "" {
			f.DataType = DataType(ff.DataType)
		}
		fields = append(fields, f)
		if len(ff.Synonyms) > 0 {
			byERP := make(map[string][]Synonym, len(ff.Synonyms))
			for erp, syns := range ff.Synonyms {
				for _, s := range syns {
					byERP[erp] = append(byERP[erp], Synonym{Name: s.Name, ConfidenceBoost: s.Boost})
				}
			}
			synonyms[f.Code] = byERP
		}
	}
	for code := range raw.Fields {
		if !IsCanonical(Code(code)) {
			return nil, fmt.Errorf("catalog: unknown field code %q", code)
		}
	}
	return NewCatalog(fields, synonyms)
}
