package formatter

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatRows formats constructor rows as JSON.
func (f *JSONFormatter) FormatRows(w io.Writer, rows []Row, opts FormatOptions) error {
	output := map[string]any{
		"count":       len(rows),
		"definitions": filterRows(rows, opts.Columns),
	}
	return f.encode(w, output, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output, false)
}

// encode writes JSON to the writer.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// filterRows projects rows onto the requested columns. Without a column
// selection the typed rows marshal as-is, keeping field order stable.
func filterRows(rows []Row, columns []string) any {
	if len(columns) == 0 {
		return rows
	}

	result := make([]map[string]any, len(rows))
	for i, row := range rows {
		entry := make(map[string]any, len(columns))
		for _, col := range columns {
			if val := columnValue(row, col); val != nil {
				entry[col] = val
			}
		}
		result[i] = entry
	}
	return result
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
