package template

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"catalog_srv/internal/domain/query"
)

// CSVRenderer implements TableRenderer for comma separated files.
type CSVRenderer struct{}

func NewCSV() CSVRenderer { return CSVRenderer{} }

func (CSVRenderer) Format() string   { return "csv" }
func (CSVRenderer) MimeType() string { return "text/csv" }

// Render writes a header line followed by one line per row. NULL cells are
// written as empty fields.
func (CSVRenderer) Render(_ string, table *query.Table) ([]byte, error) {
	if table == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, v := range row {
			if v == nil {
				record[i] = ""
				continue
			}
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
