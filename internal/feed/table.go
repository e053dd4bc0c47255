package feed

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Delimiter is the cell separator used by the MIMIT exports.
const Delimiter = ";"

// headerMarker identifies the true header row: the name of the station
// identifier column, matched case-insensitively anywhere in the joined row.
const headerMarker = "idimpianto"

// DecodeLatin1 converts the raw export bytes (ISO-8859-1) to UTF-8.
// Single-byte decoding is infallible: every byte maps to some character. If
// the upstream encoding assumption is ever wrong the text is garbled, not
// rejected; that is an accepted external-data risk.
func DecodeLatin1(b []byte) string {
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(out)
}

// ParseTable splits decoded text into rows of cells on newlines and the fixed
// delimiter. Empty lines are dropped. The function is pure: reparsing the
// same text yields the same rows.
func ParseTable(text string) [][]string {
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, Delimiter))
	}
	return rows
}

// ResolveHeader locates the header row by content and maps semantic fields to
// column indices.
//
// The exports open with a one-line extraction-timestamp banner, so the header
// is found by scanning for the first row containing the identifier-column
// marker rather than by position. If no row matches, the first row is treated
// as the header (degraded mode: field resolution may come up empty and
// surfaces downstream as missing values). Data rows with fewer than minCells
// cells are dropped.
func ResolveHeader(rows [][]string, minCells int) (header []string, data [][]string, cols Columns) {
	headerIdx := -1
	for i, row := range rows {
		if strings.Contains(strings.ToLower(strings.Join(row, Delimiter)), headerMarker) {
			headerIdx = i
			break
		}
	}

	if headerIdx >= 0 {
		header = rows[headerIdx]
	} else if len(rows) > 0 {
		header = rows[0]
	}

	start := headerIdx + 1
	if headerIdx < 0 {
		start = 1
	}
	for i := start; i < len(rows); i++ {
		if len(rows[i]) >= minCells {
			data = append(data, rows[i])
		}
	}

	cols = make(Columns, len(fieldPatterns))
	for field, pattern := range fieldPatterns {
		cols[field] = -1
		for i, cell := range header {
			if pattern.MatchString(cell) {
				cols[field] = i
				break
			}
		}
	}

	return header, data, cols
}

// ParseNumber parses a feed numeric cell, accepting the comma decimal
// separator used by the Italian exports. Empty or unparseable cells yield
// nil rather than an error.
func ParseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return nil
	}
	return &n
}
