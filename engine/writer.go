package engine

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteRecords serializes logical rows with the given delimiter, normalizing
// every field on the way out.
func WriteRecords(w io.Writer, rows [][]string, delimiter Delimiter) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter.Rune()

	record := make([]string, 0, 16)
	for _, row := range rows {
		record = record[:0]
		for _, field := range row {
			record = append(record, NormalizeField(field))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
