package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is the tabular form fee reports are flattened into before
// rendering. Rows are keyed by header name so a report can reorder
// columns without touching the exporters.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders a fee report dataset into CSV bytes, suitable for
// download by bursars reconciling outstanding balances in a spreadsheet.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the report as CSV, headers first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
