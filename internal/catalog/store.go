package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors, matching the teacher's internal/storage error style.
var (
	ErrNotFound     = errors.New("catalog: row not found")
	ErrUnsupportedDialect = errors.New("catalog: unsupported database dialect")
)

// Dialect names the three connection families spec.md §4.6 enumerates.
type Dialect string

const (
	DialectMySQL      Dialect = "mysql"
	DialectPostgreSQL Dialect = "postgresql"
	DialectSQLite     Dialect = "sqlite"
)

// Store is the session-scoped typed accessor over the control-plane
// tables. One typed selector per read pattern in spec.md §3, one typed
// insert per log table.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open wraps an already-connected *sql.DB. The caller owns opening the
// underlying driver connection (lib/pq, go-sql-driver/mysql, or
// modernc.org/sqlite) per §4.6's dialect dispatch; Store is dialect-aware
// only for placeholder syntax.
func Open(db *sql.DB, dialect Dialect) (*Store, error) {
	switch dialect {
	case DialectMySQL, DialectPostgreSQL, DialectSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	return &Store{db: db, dialect: dialect}, nil
}

// ph returns the n-th bind placeholder for the store's dialect ($1 for
// Postgres, ? for MySQL/SQLite).
func (s *Store) ph(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}

	return "?"
}

// DatasetMaster returns the dataset_master row for (processID, datasetID).
func (s *Store) DatasetMaster(ctx context.Context, processID, datasetID int) (*DatasetMaster, error) {
	q := fmt.Sprintf(`SELECT process_id, dataset_id, dataset_name, dataset_type, outbound_source_platform,
		outbound_source_system, outbound_source_file_pattern, outbound_source_file_pattern_static,
		inbound_location, inbound_file_pattern, file_delimiter, data_landing_location,
		landing_partition_columns, data_standardisation_location,
		data_standardisation_partition_columns, staging_location, staging_partition_columns,
		transformation_location, transformation_partition_columns
		FROM dataset_master WHERE process_id = %s AND dataset_id = %s`, s.ph(1), s.ph(2))

	row := s.db.QueryRowContext(ctx, q, processID, datasetID)

	var m DatasetMaster
	if err := row.Scan(&m.ProcessID, &m.DatasetID, &m.DatasetName, &m.DatasetType, &m.OutboundSourcePlatform,
		&m.OutboundSourceSystem, &m.OutboundSourceFilePattern, &m.OutboundSourceFilePatternStatic, &m.InboundLocation,
		&m.InboundFilePattern, &m.FileDelimiter, &m.DataLandingLocation, &m.LandingPartitionColumns,
		&m.DataStandardisationLocation, &m.DataStandardisationPartitionCols, &m.StagingLocation,
		&m.StagingPartitionColumns, &m.TransformationLocation, &m.TransformationPartitionColumns,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scanning dataset_master: %w", err)
	}

	return &m, nil
}

// DatasetMastersForProcess returns every dataset_master row for processID,
// used to enumerate the datasets a bronze/silver/gold layer fans out over.
func (s *Store) DatasetMastersForProcess(ctx context.Context, processID int) ([]DatasetMaster, error) {
	q := fmt.Sprintf(`SELECT process_id, dataset_id, dataset_name, dataset_type, outbound_source_platform,
		outbound_source_system, outbound_source_file_pattern, outbound_source_file_pattern_static,
		inbound_location, inbound_file_pattern, file_delimiter, data_landing_location,
		landing_partition_columns, data_standardisation_location,
		data_standardisation_partition_columns, staging_location, staging_partition_columns,
		transformation_location, transformation_partition_columns
		FROM dataset_master WHERE process_id = %s`, s.ph(1))

	rows, err := s.db.QueryContext(ctx, q, processID)
	if err != nil {
		return nil, fmt.Errorf("querying dataset_master: %w", err)
	}
	defer rows.Close()

	var out []DatasetMaster

	for rows.Next() {
		var m DatasetMaster
		if err := rows.Scan(&m.ProcessID, &m.DatasetID, &m.DatasetName, &m.DatasetType, &m.OutboundSourcePlatform,
			&m.OutboundSourceSystem, &m.OutboundSourceFilePattern, &m.OutboundSourceFilePatternStatic, &m.InboundLocation,
			&m.InboundFilePattern, &m.FileDelimiter, &m.DataLandingLocation, &m.LandingPartitionColumns,
			&m.DataStandardisationLocation, &m.DataStandardisationPartitionCols, &m.StagingLocation,
			&m.StagingPartitionColumns, &m.TransformationLocation, &m.TransformationPartitionColumns,
		); err != nil {
			return nil, fmt.Errorf("scanning dataset_master: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

// UnprocessedBatchIDs implements the "unprocessed at stage S" selector
// generalized across every stage transition: batch_ids present in
// predecessorTable with SUCCEEDED status for (processID, datasetID) that do
// not appear in successorTable with SUCCEEDED status, ordered by batch_id
// ASC. Grounded on
// Common/OrchestrationProcess.py's get_data_standardisation_unprocessed_files.
func (s *Store) UnprocessedBatchIDs(ctx context.Context, predecessorTable, successorTable string, processID, datasetID int) ([]int64, error) {
	q := fmt.Sprintf(`SELECT DISTINCT batch_id FROM %s
		WHERE process_id = %s AND dataset_id = %s AND status = 'SUCCEEDED'
		AND batch_id NOT IN (
			SELECT batch_id FROM %s
			WHERE process_id = %s AND dataset_id = %s AND status = 'SUCCEEDED'
		)
		ORDER BY batch_id ASC`,
		predecessorTable, s.ph(1), s.ph(2),
		successorTable, s.ph(3), s.ph(4),
	)

	rows, err := s.db.QueryContext(ctx, q, processID, datasetID, processID, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed batch ids (%s -> %s): %w", predecessorTable, successorTable, err)
	}
	defer rows.Close()

	var out []int64

	for rows.Next() {
		var b int64
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

// SucceededInboundLocations returns the dedupe set for (processID,
// preIngestionDatasetID): every inbound_file_location already logged
// SUCCEEDED in log_acquisition.
func (s *Store) SucceededInboundLocations(ctx context.Context, processID, preIngestionDatasetID int) (map[string]bool, error) {
	q := fmt.Sprintf(`SELECT inbound_file_location FROM log_acquisition
		WHERE process_id = %s AND pre_ingestion_dataset_id = %s AND status = 'SUCCEEDED'`,
		s.ph(1), s.ph(2))

	rows, err := s.db.QueryContext(ctx, q, processID, preIngestionDatasetID)
	if err != nil {
		return nil, fmt.Errorf("querying log_acquisition dedupe set: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}

	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}

		out[loc] = true
	}

	return out, rows.Err()
}

// SucceededRawProcessFiles returns the dedupe set for (processID,
// datasetID): every source_file already logged SUCCEEDED in
// log_raw_process, so sub-stage B2 does not re-land a file it already
// turned into a landing batch.
func (s *Store) SucceededRawProcessFiles(ctx context.Context, processID, datasetID int) (map[string]bool, error) {
	q := fmt.Sprintf(`SELECT source_file FROM log_raw_process
		WHERE process_id = %s AND dataset_id = %s AND status = 'SUCCEEDED'`,
		s.ph(1), s.ph(2))

	rows, err := s.db.QueryContext(ctx, q, processID, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying log_raw_process dedupe set: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}

	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}

		out[loc] = true
	}

	return out, rows.Err()
}

// UnprocessedTransformationBatches returns batch_ids SUCCEEDED in log_dqm
// for (processID, dependentDatasetID) that have no SUCCEEDED log_transformation
// row for (processID, datasetID), ordered by batch_id ASC. Gold's driving
// dependency (transformation_dependency_master row 0, in transformation_step
// order) and the gold dataset being produced carry different dataset_ids, so
// this cannot reuse UnprocessedBatchIDs' single-dataset-id shape. Grounded
// on OrchestrationProcess.py's get_unprocessed_transformation_files, adapted
// to scope the log_transformation lookup to the gold dataset itself rather
// than the dependent's id (the original scopes it globally across every
// gold dataset, which would wrongly skip a batch already consumed by an
// unrelated sibling transformation).
func (s *Store) UnprocessedTransformationBatches(ctx context.Context, processID, dependentDatasetID, datasetID int) ([]int64, error) {
	q := fmt.Sprintf(`SELECT DISTINCT batch_id FROM log_dqm
		WHERE process_id = %s AND dataset_id = %s AND status = 'SUCCEEDED'
		AND batch_id NOT IN (
			SELECT batch_id FROM log_transformation
			WHERE process_id = %s AND dataset_id = %s AND status = 'SUCCEEDED'
		)
		ORDER BY batch_id ASC`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4))

	rows, err := s.db.QueryContext(ctx, q, processID, dependentDatasetID, processID, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed transformation batches: %w", err)
	}
	defer rows.Close()

	var out []int64

	for rows.Next() {
		var b int64
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

// InsertLogAcquisition appends one log_acquisition row. log_* rows are
// immutable once inserted (spec.md §3 invariant) — there is no update
// method.
func (s *Store) InsertLogAcquisition(ctx context.Context, row LogAcquisition) error {
	q := fmt.Sprintf(`INSERT INTO log_acquisition
		(run_id, process_id, pre_ingestion_dataset_id, inbound_file_location, status, error_text)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))

	_, err := s.db.ExecContext(ctx, q, row.RunID, row.ProcessID, row.PreIngestionDatasetID,
		row.InboundFileLocation, row.Status, row.ErrorText)

	return err
}

// InsertLogRawProcess appends one log_raw_process row.
func (s *Store) InsertLogRawProcess(ctx context.Context, row LogRawProcess) error {
	q := fmt.Sprintf(`INSERT INTO log_raw_process
		(run_id, process_id, dataset_id, batch_id, source_file, status, error_text)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))

	_, err := s.db.ExecContext(ctx, q, row.RunID, row.ProcessID, row.DatasetID, row.BatchID,
		row.SourceFile, row.Status, row.ErrorText)

	return err
}

// InsertLogStandardization appends one log_standardization row.
func (s *Store) InsertLogStandardization(ctx context.Context, row LogStandardization) error {
	q := fmt.Sprintf(`INSERT INTO log_standardization
		(run_id, process_id, dataset_id, batch_id, status, error_text)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))

	_, err := s.db.ExecContext(ctx, q, row.RunID, row.ProcessID, row.DatasetID, row.BatchID,
		row.Status, row.ErrorText)

	return err
}

// InsertLogDQM appends one log_dqm row. Callers must source ProcessID from
// dataset_master.process_id, not dataset_master.dataset_id — spec.md §9
// names this confusion as a bug in the original to fix.
func (s *Store) InsertLogDQM(ctx context.Context, row LogDQM) error {
	q := fmt.Sprintf(`INSERT INTO log_dqm
		(run_id, process_id, dataset_id, qc_id, batch_id, total_count, error_count, status, error_text)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7), s.ph(8), s.ph(9))

	_, err := s.db.ExecContext(ctx, q, row.RunID, row.ProcessID, row.DatasetID, row.QCID, row.BatchID,
		row.TotalCount, row.ErrorCount, row.Status, row.ErrorText)

	return err
}

// InsertLogTransformation appends one log_transformation row.
func (s *Store) InsertLogTransformation(ctx context.Context, row LogTransformation) error {
	q := fmt.Sprintf(`INSERT INTO log_transformation
		(run_id, process_id, dataset_id, batch_id, status, error_text)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))

	_, err := s.db.ExecContext(ctx, q, row.RunID, row.ProcessID, row.DatasetID, row.BatchID,
		row.Status, row.ErrorText)

	return err
}

// InsertDatasetMaster inserts one dataset_master row, used by
// internal/catalogseed to bootstrap a development or test catalog from a
// YAML fixture rather than a migration-backed deployment.
func (s *Store) InsertDatasetMaster(ctx context.Context, m DatasetMaster) error {
	q := fmt.Sprintf(`INSERT INTO dataset_master
		(process_id, dataset_id, dataset_name, dataset_type, outbound_source_platform,
		 outbound_source_system, outbound_source_file_pattern, outbound_source_file_pattern_static,
		 inbound_location, inbound_file_pattern, file_delimiter, data_landing_location,
		 landing_partition_columns, data_standardisation_location,
		 data_standardisation_partition_columns, staging_location, staging_partition_columns,
		 transformation_location, transformation_partition_columns)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7), s.ph(8), s.ph(9), s.ph(10),
		s.ph(11), s.ph(12), s.ph(13), s.ph(14), s.ph(15), s.ph(16), s.ph(17), s.ph(18), s.ph(19))

	_, err := s.db.ExecContext(ctx, q, m.ProcessID, m.DatasetID, m.DatasetName, m.DatasetType,
		m.OutboundSourcePlatform, m.OutboundSourceSystem, m.OutboundSourceFilePattern,
		m.OutboundSourceFilePatternStatic, m.InboundLocation, m.InboundFilePattern, m.FileDelimiter,
		m.DataLandingLocation, m.LandingPartitionColumns, m.DataStandardisationLocation,
		m.DataStandardisationPartitionCols, m.StagingLocation, m.StagingPartitionColumns,
		m.TransformationLocation, m.TransformationPartitionColumns)

	return err
}

// InsertAcquisitionDetail inserts one acquisition_detail row, the
// acquisition-side counterpart to InsertDatasetMaster.
func (s *Store) InsertAcquisitionDetail(ctx context.Context, a AcquisitionDetail) error {
	q := fmt.Sprintf(`INSERT INTO acquisition_detail
		(process_id, pre_ingestion_dataset_id, source_location, source_file_pattern, delimiter, query, columns)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))

	_, err := s.db.ExecContext(ctx, q, a.ProcessID, a.PreIngestionDatasetID, a.SourceLocation,
		a.SourceFilePattern, a.Delimiter, a.Query, a.Columns)

	return err
}

// ColumnMetadataFor returns column_metadata rows for datasetID ordered by
// column_order.
func (s *Store) ColumnMetadataFor(ctx context.Context, datasetID int) ([]ColumnMetadata, error) {
	q := fmt.Sprintf(`SELECT dataset_id, column_name, source_column_name, column_data_type,
		date_format, column_json_mapping, column_order, dashboard_tag
		FROM column_metadata WHERE dataset_id = %s ORDER BY column_order ASC`, s.ph(1))

	rows, err := s.db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying column_metadata: %w", err)
	}
	defer rows.Close()

	var out []ColumnMetadata

	for rows.Next() {
		var c ColumnMetadata
		if err := rows.Scan(&c.DatasetID, &c.ColumnName, &c.SourceColumnName, &c.ColumnDataType,
			&c.DateFormat, &c.ColumnJSONPath, &c.ColumnOrder, &c.DashboardTag); err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

// StandardizationRulesFor returns standardization_dtl rows for datasetID
// ordered by seq_no, the order the rules must be applied in.
func (s *Store) StandardizationRulesFor(ctx context.Context, datasetID int) ([]StandardizationDtl, error) {
	q := fmt.Sprintf(`SELECT dataset_id, column_name, seq_no, function_name, params_json
		FROM standardization_dtl WHERE dataset_id = %s ORDER BY seq_no ASC`, s.ph(1))

	rows, err := s.db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying standardization_dtl: %w", err)
	}
	defer rows.Close()

	var out []StandardizationDtl

	for rows.Next() {
		var r StandardizationDtl
		if err := rows.Scan(&r.DatasetID, &r.ColumnName, &r.SeqNo, &r.FunctionName, &r.ParamsJSON); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// DQMRulesFor returns dqm_master_dtl rows for datasetID ordered by qc_id,
// the order rules must be evaluated in (spec.md §4.3 step 6).
func (s *Store) DQMRulesFor(ctx context.Context, datasetID int) ([]DQMMasterDtl, error) {
	q := fmt.Sprintf(`SELECT qc_id, process_id, dataset_id, column_name, qc_type, params_json,
		criticality, threshold FROM dqm_master_dtl WHERE dataset_id = %s ORDER BY qc_id ASC`, s.ph(1))

	rows, err := s.db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying dqm_master_dtl: %w", err)
	}
	defer rows.Close()

	var out []DQMMasterDtl

	for rows.Next() {
		var r DQMMasterDtl
		if err := rows.Scan(&r.QCID, &r.ProcessID, &r.DatasetID, &r.ColumnName, &r.QCType,
			&r.ParamsJSON, &r.Criticality, &r.Threshold); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// TransformationDependenciesFor returns transformation_dependency_master
// rows for (processID, datasetID) ordered by transformation_step.
func (s *Store) TransformationDependenciesFor(ctx context.Context, processID, datasetID int) ([]TransformationDependencyMaster, error) {
	q := fmt.Sprintf(`SELECT process_id, dataset_id, depedent_dataset_id, transformation_step,
		transformation_type, staging_table, join_how, left_table_columns, right_table_columns,
		extra_values, primary_keys, custom_transformation_query
		FROM transformation_dependency_master
		WHERE process_id = %s AND dataset_id = %s ORDER BY transformation_step ASC`, s.ph(1), s.ph(2))

	rows, err := s.db.QueryContext(ctx, q, processID, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying transformation_dependency_master: %w", err)
	}
	defer rows.Close()

	var out []TransformationDependencyMaster

	for rows.Next() {
		var r TransformationDependencyMaster
		if err := rows.Scan(&r.ProcessID, &r.DatasetID, &r.DependentDatasetID, &r.TransformationStep,
			&r.TransformationType, &r.StagingTable, &r.JoinHow, &r.LeftTableColumns, &r.RightTableColumns,
			&r.ExtraValues, &r.PrimaryKeys, &r.CustomTransformationQuery); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// AcquisitionDetailsFor returns acquisition_detail rows for processID.
func (s *Store) AcquisitionDetailsFor(ctx context.Context, processID int) ([]AcquisitionDetail, error) {
	q := fmt.Sprintf(`SELECT process_id, pre_ingestion_dataset_id, source_location,
		source_file_pattern, delimiter, query, columns
		FROM acquisition_detail WHERE process_id = %s`, s.ph(1))

	rows, err := s.db.QueryContext(ctx, q, processID)
	if err != nil {
		return nil, fmt.Errorf("querying acquisition_detail: %w", err)
	}
	defer rows.Close()

	var out []AcquisitionDetail

	for rows.Next() {
		var r AcquisitionDetail
		if err := rows.Scan(&r.ProcessID, &r.PreIngestionDatasetID, &r.SourceLocation,
			&r.SourceFilePattern, &r.Delimiter, &r.Query, &r.Columns); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// ConnectionFor returns the acquisition_connection_master row for
// (platform, system).
func (s *Store) ConnectionFor(ctx context.Context, platform, system string) (*AcquisitionConnectionMaster, error) {
	q := fmt.Sprintf(`SELECT platform, system, connection_json, private_key
		FROM acquisition_connection_master WHERE platform = %s AND system = %s`, s.ph(1), s.ph(2))

	row := s.db.QueryRowContext(ctx, q, platform, system)

	var c AcquisitionConnectionMaster
	if err := row.Scan(&c.Platform, &c.System, &c.ConnectionJSON, &c.PrivateKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("scanning acquisition_connection_master: %w", err)
	}

	return &c, nil
}

// APIWorkflowSteps returns api_connection_dtl rows for (processID,
// datasetID) ordered by seq_no, the workflow's step program.
func (s *Store) APIWorkflowSteps(ctx context.Context, processID, datasetID int) ([]APIConnectionDtl, error) {
	q := fmt.Sprintf(`SELECT seq_no, process_id, dataset_id, step_type, method, url, token_url,
		auth_type, token_type, token_path, client_id, client_secret, username, password, issuer,
		scope, private_key, headers_json, params_json, data_json, json_body, body_values
		FROM api_connection_dtl WHERE process_id = %s AND dataset_id = %s ORDER BY seq_no ASC`,
		s.ph(1), s.ph(2))

	rows, err := s.db.QueryContext(ctx, q, processID, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying api_connection_dtl: %w", err)
	}
	defer rows.Close()

	var out []APIConnectionDtl

	for rows.Next() {
		var r APIConnectionDtl
		if err := rows.Scan(&r.SeqNo, &r.ProcessID, &r.DatasetID, &r.StepType, &r.Method, &r.URL,
			&r.TokenURL, &r.AuthType, &r.TokenType, &r.TokenPath, &r.ClientID, &r.ClientSecret,
			&r.Username, &r.Password, &r.Issuer, &r.Scope, &r.PrivateKey, &r.HeadersJSON, &r.ParamsJSON,
			&r.DataJSON, &r.JSONBody, &r.BodyValues); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }
