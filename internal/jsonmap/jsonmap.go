// Package jsonmap evaluates one JSON path expression per declared output
// column against a decoded JSON document and assembles a row set by
// positional alignment: columns whose extracted list is shorter than the
// longest re-emit their last seen value. Grounded on
// Common/JsonDataMapper.py, using github.com/PaesslerAG/jsonpath as the Go
// analogue of the original's jsonpath_ng.
package jsonmap

import (
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
)

// ColumnMapping pairs an output column name with the JSON path expression
// that extracts its values from the response document.
type ColumnMapping struct {
	Column string
	Path   string
}

// Map evaluates each mapping's path against doc and assembles a frame by
// positional alignment across columns.
func Map(doc any, mappings []ColumnMapping) (*frame.Frame, error) {
	columns := make([]string, len(mappings))
	values := make([][]any, len(mappings))
	maxLen := 0

	for i, m := range mappings {
		columns[i] = m.Column

		vals, err := extractList(doc, m.Path)
		if err != nil {
			return nil, fmt.Errorf("evaluating json path %q for column %q: %w", m.Path, m.Column, err)
		}

		values[i] = vals
		if len(vals) > maxLen {
			maxLen = len(vals)
		}
	}

	out := frame.New(columns)
	out.Rows = make([]frame.Row, maxLen)

	for rowIdx := 0; rowIdx < maxLen; rowIdx++ {
		row := make(frame.Row, len(columns))

		for colIdx, col := range columns {
			vals := values[colIdx]
			if len(vals) == 0 {
				row[col] = nil

				continue
			}

			if rowIdx < len(vals) {
				row[col] = vals[rowIdx]
			} else {
				// Short columns pad by repeating their last value.
				row[col] = vals[len(vals)-1]
			}
		}

		out.Rows[rowIdx] = row
	}

	return out, nil
}

// extractList evaluates path against doc and normalizes the result to a
// slice: a path returning a single scalar yields a one-element slice, a
// path returning an array yields that array's elements, and a path that
// finds nothing yields an empty slice (rather than an error), matching the
// original's tolerant positional assembly.
func extractList(doc any, path string) ([]any, error) {
	result, err := jsonpath.Get(path, doc)
	if err != nil {
		return []any{}, nil //nolint:nilerr // a non-matching path yields no values, not a hard error
	}

	if list, ok := result.([]any); ok {
		return list, nil
	}

	return []any{result}, nil
}
