package feed

// minFeedCells is the minimum cell count for a well-formed price row
// (idImpianto;descCarburante;prezzo;isSelf;dtComu).
const minFeedCells = 5

// Normalize converts resolved data rows into typed records. Rows without a
// station identifier are dropped; the fuel description passes through as-is
// and the price cell goes through lenient numeric parsing.
func Normalize(data [][]string, cols Columns) []Record {
	records := make([]Record, 0, len(data))
	for _, row := range data {
		id := cols.Cell(row, FieldStationID)
		if id == "" {
			continue
		}
		records = append(records, Record{
			StationID: id,
			FuelType:  cols.Cell(row, FieldFuelDesc),
			Price:     ParseNumber(cols.Cell(row, FieldPrice)),
		})
	}
	return records
}

// ParseRecords runs the full parse chain over raw feed bytes: Latin-1 decode,
// table split, header discovery, and normalization.
func ParseRecords(raw []byte) []Record {
	rows := ParseTable(DecodeLatin1(raw))
	_, data, cols := ResolveHeader(rows, minFeedCells)
	return Normalize(data, cols)
}
