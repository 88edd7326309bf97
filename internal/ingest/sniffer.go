// Package ingest turns raw CSV and Excel journal exports into the tabular
// model the mapping engine consumes. It detects the delimiter and header
// row automatically; ERP exports routinely carry report titles, company
// banners and empty lines before the real header.
package ingest

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// headerKeywords are column names typical of journal exports, across the
// languages and ERPs we see. A line containing several of these is almost
// certainly the header row.
var headerKeywords = []string{
	// Spanish
	"asiento", "fecha", "cuenta", "debe", "haber", "importe", "saldo",
	"concepto", "descripcion", "descripción", "documento", "periodo", "ejercicio",
	// English
	"journal", "date", "account", "debit", "credit", "amount", "balance",
	"description", "document", "period", "entry",
	// German
	"beleg", "konto", "soll", "haben", "betrag", "datum", "buchung",
	// SAP / Oracle column codes
	"belnr", "hkont", "budat", "dmbtr", "je_header_id", "entered_dr", "entered_cr",
}

// FileConfig is the detected shape of a delimited export file.
type FileConfig struct {
	Delimiter   rune
	SkipLines   int // metadata lines before the header
	Headers     []string
	Fingerprint string // sha256 of normalized headers, stable per export layout
}

// DetectOptions overrides auto-detection.
type DetectOptions struct {
	// HeaderRowIndex is a 0-based header row index, -1 to auto-detect.
	HeaderRowIndex int
	// Delimiter overrides the detected delimiter when non-zero.
	Delimiter rune
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// DetectConfig analyzes a delimited export and returns its configuration.
func DetectConfig(data []byte) (*FileConfig, error) {
	return DetectConfigWithOptions(data, nil)
}

// DetectConfigWithOptions analyzes a delimited export with optional overrides.
func DetectConfigWithOptions(data []byte, opts *DetectOptions) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	var (
		delimiter rune
		skipLines int
		err       error
	)
	if opts != nil && opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skipLines = opts.HeaderRowIndex
		delimiter = opts.Delimiter
		if delimiter == 0 {
			delimiter, _ = detectDelimiter(cleanLine(lines[skipLines], skipLines == 0))
			if delimiter == 0 {
				return nil, ErrInvalidDelimiter
			}
		}
	} else {
		delimiter, skipLines, err = findHeaderRow(lines)
		if err != nil {
			return nil, err
		}
		if opts != nil && opts.Delimiter != 0 {
			delimiter = opts.Delimiter
		}
	}

	headerLine := cleanLine(lines[skipLines], skipLines == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: fingerprint(headers),
	}, nil
}

// findHeaderRow scans the first 20 lines for the row that looks most like a
// header: many columns and several accounting keywords. Lines without
// keywords are only a fallback.
func findHeaderRow(lines []string) (rune, int, error) {
	keywordIndex, keywordCount := -1, 0
	keywordDelimiter := rune(0)
	bestScore := 0

	fallbackIndex, fallbackCount := -1, 0
	fallbackDelimiter := rune(0)

	for i, line := range lines {
		if i > 20 {
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		lineLower := strings.ToLower(line)
		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				matches++
			}
		}

		if matches > 0 {
			score := count*10 + matches
			if keywordIndex == -1 || score > bestScore {
				bestScore = score
				keywordCount = count
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 && keywordCount >= 2 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best, bestCount
}

// fingerprint hashes the normalized header names so a repeat export from
// the same system can be recognized.
func fingerprint(headers []string) string {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}
