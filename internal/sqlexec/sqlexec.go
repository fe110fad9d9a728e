// Package sqlexec runs ad-hoc SQL predicates and queries against an
// internal/frame.Frame using an in-memory modernc.org/sqlite database,
// standing in for the polars `.sql("SELECT * FROM self WHERE ...")` calls
// scattered through SilverLayerScripts/DataQualityCheck.py and the
// GoldLayerScripts "custom" transform kind. Every column is staged as TEXT
// so arbitrary comparison/length/arithmetic predicates work the way the
// original's permissive dtype handling does; callers needing numeric
// comparisons should write predicates accordingly (e.g. CAST(col AS REAL)).
package sqlexec

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
)

const rowIndexColumn = "__row_idx"

func stageNamedTable(db *sql.DB, name string, f *frame.Frame) error {
	var cols []string
	for _, c := range f.Columns {
		cols = append(cols, quoteIdent(c)+" TEXT")
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s INTEGER, %s)", quoteIdent(name), rowIndexColumn, strings.Join(cols, ", "))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating staging table %s: %w", name, err)
	}

	placeholders := make([]string, len(f.Columns)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertCols := append([]string{rowIndexColumn}, quoteIdents(f.Columns)...)
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(insertCols, ", "), strings.Join(placeholders, ", "))

	stmt, err := db.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing staging insert for %s: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range f.Rows {
		args := make([]any, 0, len(f.Columns)+1)
		args = append(args, i)

		for _, c := range f.Columns {
			args = append(args, stringify(row[c]))
		}

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("staging row %d into %s: %w", i, name, err)
		}
	}

	return nil
}

func stageTable(db *sql.DB, f *frame.Frame) error {
	return stageNamedTable(db, "self", f)
}

func stringify(v any) any {
	if v == nil {
		return nil
	}

	return fmt.Sprintf("%v", v)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}

	return out
}

// FilterRows returns the subset of f's rows for which predicate (a SQL
// boolean expression referencing f's columns by name) evaluates true. An
// empty predicate is a no-op, matching the original's "if qc_filter:"
// guard.
func FilterRows(f *frame.Frame, predicate string) (*frame.Frame, error) {
	if strings.TrimSpace(predicate) == "" {
		return f, nil
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening staging db: %w", err)
	}
	defer db.Close()

	if err := stageTable(db, f); err != nil {
		return nil, err
	}

	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM self WHERE %s", rowIndexColumn, predicate))
	if err != nil {
		return nil, fmt.Errorf("evaluating predicate %q: %w", predicate, err)
	}
	defer rows.Close()

	keep := make(map[int]bool)

	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scanning predicate match: %w", err)
		}

		keep[idx] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating predicate matches: %w", err)
	}

	out := frame.New(f.Columns)

	for i, row := range f.Rows {
		if keep[i] {
			out.Rows = append(out.Rows, row)
		}
	}

	return out, nil
}

// Query registers each entry of tables as a named table and runs query
// against them, returning whatever columns/rows the query projects. Stands
// in for the custom gold transform kind's polars.SQLContext().register(...)
// + ctx.execute(custom_transformation_query) call, which runs one SQL
// statement over several named frames rather than filtering a single one.
func Query(tables map[string]*frame.Frame, query string) (*frame.Frame, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening staging db: %w", err)
	}
	defer db.Close()

	for name, f := range tables {
		if err := stageNamedTable(db, name, f); err != nil {
			return nil, err
		}
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("executing custom transformation query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading custom transformation result columns: %w", err)
	}

	var outCols []string
	for _, c := range cols {
		if c == rowIndexColumn {
			continue
		}

		outCols = append(outCols, c)
	}

	out := frame.New(outCols)

	for rows.Next() {
		scanDest := make([]any, len(cols))
		scanVals := make([]any, len(cols))

		for i := range scanDest {
			scanDest[i] = &scanVals[i]
		}

		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("scanning custom transformation result row: %w", err)
		}

		row := make(frame.Row, len(outCols))

		for i, c := range cols {
			if c == rowIndexColumn {
				continue
			}

			if v, ok := scanVals[i].([]byte); ok {
				row[c] = string(v)
			} else {
				row[c] = scanVals[i]
			}
		}

		out.Rows = append(out.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating custom transformation result: %w", err)
	}

	return out, nil
}
