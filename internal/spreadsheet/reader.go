// Package spreadsheet defines the collaborator contract for turning uploaded
// tabular bytes into header/row mappings. XLSX decoding is supplied by an
// external implementation; a CSV adapter ships here for plain-text sheets.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is the normalized form of one sheet: the header row plus one map per
// data row, keyed by header. Cells are kept as raw values so downstream
// parsing can distinguish empty cells from absent columns.
type Table struct {
	Headers []string
	Rows    []map[string]any
}

// Reader decodes spreadsheet bytes into a Table.
type Reader interface {
	Read(data []byte) (*Table, error)
}

// MissingColumns returns the required headers absent from the table, in the
// order given.
func (t *Table) MissingColumns(required []string) []string {
	present := make(map[string]struct{}, len(t.Headers))
	for _, h := range t.Headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// CSVReader reads comma-separated sheets. The first record is the header row;
// header cells are trimmed, data cells are kept verbatim.
type CSVReader struct{}

// Read implements Reader.
func (CSVReader) Read(data []byte) (*Table, error) {
	// Strip a UTF-8 BOM so the first header survives the comparison.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("planilha vazia")
	}
	if err != nil {
		return nil, fmt.Errorf("lendo cabeçalho: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lendo linha %d: %w", len(table.Rows)+2, err)
		}

		row := make(map[string]any, len(headers))
		for i, val := range record {
			if i < len(headers) {
				row[headers[i]] = val
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
