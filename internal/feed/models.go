// Package feed parses the MIMIT fuel-price export: an ISO-8859-1,
// semicolon-delimited table published daily at a fixed URL.
package feed

import (
	"errors"
	"regexp"
)

// Feed errors.
var (
	ErrFetchFailed = errors.New("feed fetch failed")
)

// Record is a single normalized row of the price feed. Price is nil when the
// cell was empty or unparseable; the upstream feed is not contractually typed.
type Record struct {
	StationID string
	FuelType  string
	Price     *float64
}

// Field identifies a semantic column of a MIMIT export table.
type Field string

const (
	FieldStationID    Field = "station_id"
	FieldFuelDesc     Field = "fuel_desc"
	FieldPrice        Field = "price"
	FieldOwner        Field = "owner"
	FieldMunicipality Field = "municipality"
	FieldProvince     Field = "province"
	FieldPlantType    Field = "plant_type"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
)

// fieldPatterns maps each semantic field to the case-insensitive pattern used
// to locate its column in a discovered header row. Matching by content keeps
// the parser indifferent to column reordering across feed revisions.
var fieldPatterns = map[Field]*regexp.Regexp{
	FieldStationID:    regexp.MustCompile(`(?i)idimpianto`),
	FieldFuelDesc:     regexp.MustCompile(`(?i)desc.?carburante`),
	FieldPrice:        regexp.MustCompile(`(?i)prezzo`),
	FieldOwner:        regexp.MustCompile(`(?i)gestore`),
	FieldMunicipality: regexp.MustCompile(`(?i)comune`),
	FieldProvince:     regexp.MustCompile(`(?i)provincia`),
	FieldPlantType:    regexp.MustCompile(`(?i)tipo.?impianto`),
	FieldLatitude:     regexp.MustCompile(`(?i)lat`),
	FieldLongitude:    regexp.MustCompile(`(?i)lon`),
}

// Columns maps semantic fields to column indices in a resolved header.
// Absent fields map to -1.
type Columns map[Field]int

// Index returns the column index for a field, or -1 if the field was not
// present in the header.
func (c Columns) Index(f Field) int {
	if idx, ok := c[f]; ok {
		return idx
	}
	return -1
}

// Cell returns the cell for a field in the given row, or "" when the field is
// absent or the row is too short.
func (c Columns) Cell(row []string, f Field) string {
	idx := c.Index(f)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
