package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// extractCSV renders header and rows as "a | b | c" lines, truncating
// after maxRows so a huge spreadsheet cannot flood the index.
func extractCSV(data []byte, maxRows int) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows []string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, strings.Join(record, " | "))
		if i >= maxRows {
			rows = append(rows, fmt.Sprintf("... (truncated, total rows > %d)", maxRows))
			break
		}
	}

	return strings.Join(rows, "\n"), nil
}
