package extract

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

// databaseConnectionConfig is the shape acquisition_connection_master.connection_json
// carries for a JDBC-style outbound source.
type databaseConnectionConfig struct {
	Driver string `json:"driver"` // mysql | postgres
	DSN    string `json:"dsn"`
}

// DatabaseExtractor runs acquisition_detail.query against a source
// database and writes the result set as one delimited file into the
// inbound location, grounded on Extractors/DatabaseExtractor.py.
type DatabaseExtractor struct {
	Open func(driver, dsn string) (*sql.DB, error)
}

func (e *DatabaseExtractor) Pull(ctx context.Context, req Request, dst objectstore.Store, bucket, prefix string) ([]Pulled, error) {
	var cfg databaseConnectionConfig
	if err := json.Unmarshal([]byte(req.Connection.ConnectionJSON), &cfg); err != nil {
		return nil, fmt.Errorf("extract: parsing database connection_json: %w", err)
	}

	open := e.Open
	if open == nil {
		open = sql.Open
	}

	db, err := open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("extract: opening %s connection: %w", cfg.Driver, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, req.Detail.Query)
	if err != nil {
		return nil, fmt.Errorf("extract: running acquisition query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	delimiter := req.Detail.Delimiter
	if delimiter == "" {
		delimiter = ","
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	w.Comma = []rune(delimiter)[0]

	if err := w.Write(columns); err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))

	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = stringifyCell(v)
		}

		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, err
	}

	sourceLocation := fmt.Sprintf("db://%s/pre-ingestion-dataset-%d", cfg.Driver, req.Detail.PreIngestionDatasetID)
	if req.Dedupe != nil && req.Dedupe.Contains(sourceLocation) {
		return nil, nil
	}

	name := fmt.Sprintf("dataset-%d-%s.csv", req.Detail.PreIngestionDatasetID, time.Now().UTC().Format("20060102150405"))
	inboundKey := strings.TrimSuffix(prefix, "/") + "/" + name

	if err := dst.Put(ctx, bucket, inboundKey, bytes.NewReader(buf.Bytes())); err != nil {
		return nil, fmt.Errorf("extract: writing inbound object %s: %w", inboundKey, err)
	}

	return []Pulled{{SourceLocation: sourceLocation, InboundKey: inboundKey}}, nil
}

func stringifyCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", t)
	}
}
