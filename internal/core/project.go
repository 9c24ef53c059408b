package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Projection maps column names to their values in row order. Key order is
// the order in which columns were first seen across the kept rows.
type Projection struct {
	names  []string
	values map[string][]Value
}

// Columns returns column names in first-seen order.
func (p Projection) Columns() []string {
	return append([]string(nil), p.names...)
}

// Values returns the values collected for column name.
func (p Projection) Values(name string) ([]Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of columns.
func (p Projection) Len() int {
	return len(p.names)
}

// MarshalJSON writes the columns as a JSON object in first-seen order.
func (p Projection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		vals, err := json.Marshal(p.values[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ProjectColumns folds the rows inside w into a column projection.
// Each cell goes to the header at its position; short rows contribute
// nothing for their missing trailing cells and cells past the last header
// are dropped. Columns that receive no value are absent. When a header
// repeats, the rightmost cell under it wins for that row.
func ProjectColumns(headers []string, rows [][]Value, w Window) Projection {
	p := Projection{values: make(map[string][]Value)}

	// Per-row header to cell mapping; a repeated header keeps its
	// rightmost cell so every column gets at most one value per row.
	var (
		rowNames []string
		rowCells = make(map[string]Value)
	)

	for i, row := range rows {
		if !w.Contains(i) {
			continue
		}

		rowNames = rowNames[:0]
		clear(rowCells)
		for col, cell := range row {
			if col >= len(headers) {
				break
			}
			name := headers[col]
			if _, seen := rowCells[name]; !seen {
				rowNames = append(rowNames, name)
			}
			rowCells[name] = cell
		}

		for _, name := range rowNames {
			if _, seen := p.values[name]; !seen {
				p.names = append(p.names, name)
			}
			p.values[name] = append(p.values[name], rowCells[name])
		}
	}

	return p
}

// cellString renders a raw cell as header text.
func cellString(v Value) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}
