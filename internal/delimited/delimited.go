// Package delimited reads a delimited text file into a frame.Frame,
// standing in for Common/DataProcessor.py's
// polars.read_csv(..., separator=outbound_file_delimiter, infer_schema=False)
// call: every column comes back as a string, taken verbatim from the
// header row and from each subsequent row's cells.
package delimited

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
)

// Write serializes f as a delimited file to w, writing f.Columns as the
// header row in order. Used by extractors whose source payload is
// structured (JSON, a query result set) but whose landed inbound object
// must still be a delimited file, since bronze sub-stage B2 always parses
// inbound objects with Parse.
func Write(w io.Writer, f *frame.Frame, delim string) error {
	if delim == "" {
		delim = ","
	}

	if len(delim) != 1 {
		return fmt.Errorf("delimited: delimiter must be a single character, got %q", delim)
	}

	cw := csv.NewWriter(w)
	cw.Comma = rune(delim[0])

	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("delimited: writing header: %w", err)
	}

	record := make([]string, len(f.Columns))

	for _, row := range f.Rows {
		for i, col := range f.Columns {
			if v := row[col]; v != nil {
				record[i] = fmt.Sprintf("%v", v)
			} else {
				record[i] = ""
			}
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("delimited: writing row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Parse reads r as a delimited file whose first row is the header. delim
// defaults to "," when empty, matching file_delimiter's blank-means-comma
// convention elsewhere in the catalog.
func Parse(r io.Reader, delim string) (*frame.Frame, error) {
	if delim == "" {
		delim = ","
	}

	if len(delim) != 1 {
		return nil, fmt.Errorf("delimited: delimiter must be a single character, got %q", delim)
	}

	cr := csv.NewReader(r)
	cr.Comma = rune(delim[0])
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return frame.New(nil), nil
		}

		return nil, fmt.Errorf("delimited: reading header: %w", err)
	}

	f := frame.New(header)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("delimited: reading row: %w", err)
		}

		row := make(frame.Row, len(header))

		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}

		f.Rows = append(f.Rows, row)
	}

	return f, nil
}
