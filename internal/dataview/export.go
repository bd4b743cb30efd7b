package dataview

import (
	"bufio"
	"io"
	"strings"
)

// WriteCSV writes a header row from the schema columns followed by one row per record.
// Every field is double-quoted and embedded quotes are doubled, so commas and line breaks
// survive inside a cell. Rows end with CRLF.
func WriteCSV[T any, K comparable](w io.Writer, schema Schema[T, K], records []T) error {
	buffered := bufio.NewWriter(w)

	headers := make([]string, 0, len(schema.Columns))
	for _, column := range schema.Columns {
		headers = append(headers, column.Header)
	}
	if err := writeCSVLine(buffered, headers); err != nil {
		return err
	}

	cells := make([]string, len(schema.Columns))
	for _, record := range records {
		for index, column := range schema.Columns {
			cells[index] = column.Value(record)
		}
		if err := writeCSVLine(buffered, cells); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

func writeCSVLine(w *bufio.Writer, cells []string) error {
	for index, cell := range cells {
		if index > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quoteCSV(cell)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func quoteCSV(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
