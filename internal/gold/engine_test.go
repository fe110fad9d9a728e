package gold

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/tablestore"
)

const goldTestSchema = `
CREATE TABLE dataset_master (
	process_id INTEGER, dataset_id INTEGER, dataset_name TEXT, dataset_type TEXT,
	outbound_source_platform TEXT, outbound_source_system TEXT, outbound_source_file_pattern TEXT,
	outbound_source_file_pattern_static INTEGER, inbound_location TEXT,
	inbound_file_pattern TEXT, file_delimiter TEXT,
	data_landing_location TEXT, landing_partition_columns TEXT,
	data_standardisation_location TEXT, data_standardisation_partition_columns TEXT,
	staging_location TEXT, staging_partition_columns TEXT,
	transformation_location TEXT, transformation_partition_columns TEXT
);
CREATE TABLE column_metadata (
	dataset_id INTEGER, column_name TEXT, source_column_name TEXT,
	column_data_type TEXT, date_format TEXT, column_json_mapping TEXT,
	column_order INTEGER, dashboard_tag TEXT
);
CREATE TABLE dqm_master_dtl (
	qc_id INTEGER PRIMARY KEY AUTOINCREMENT, process_id INTEGER, dataset_id INTEGER,
	column_name TEXT, qc_type TEXT, params_json TEXT, criticality TEXT, threshold REAL
);
CREATE TABLE transformation_dependency_master (
	process_id INTEGER, dataset_id INTEGER, depedent_dataset_id INTEGER, transformation_step INTEGER,
	transformation_type TEXT, staging_table TEXT, join_how TEXT, left_table_columns TEXT,
	right_table_columns TEXT, extra_values TEXT, primary_keys TEXT, custom_transformation_query TEXT
);
CREATE TABLE log_dqm (
	seq_no INTEGER PRIMARY KEY AUTOINCREMENT, run_id TEXT, process_id INTEGER,
	dataset_id INTEGER, qc_id INTEGER, batch_id INTEGER, total_count INTEGER,
	error_count INTEGER, status TEXT, error_text TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE log_transformation (
	seq_no INTEGER PRIMARY KEY AUTOINCREMENT, run_id TEXT, process_id INTEGER,
	dataset_id INTEGER, batch_id INTEGER, status TEXT, error_text TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

func newGoldTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(goldTestSchema)
	require.NoError(t, err)

	return db
}

func insertDatasetMaster(t *testing.T, db *sql.DB, datasetID int, datasetType, stagingLocation, transformationLocation string) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO dataset_master
		(process_id, dataset_id, dataset_name, dataset_type, outbound_source_platform, outbound_source_system,
		 outbound_source_file_pattern, outbound_source_file_pattern_static, inbound_location,
		 inbound_file_pattern, file_delimiter, data_landing_location, landing_partition_columns,
		 data_standardisation_location, data_standardisation_partition_columns, staging_location,
		 staging_partition_columns, transformation_location, transformation_partition_columns)
		VALUES (1, ?, 'dataset', ?, '', '', '', 0, '', '', ',', '', '', '', '', ?, '', ?, '')`,
		datasetID, datasetType, stagingLocation, transformationLocation)
	require.NoError(t, err)
}

func seedGoldDirectDataset(t *testing.T, db *sql.DB, goldDatasetID, dependentDatasetID int) {
	t.Helper()

	insertDatasetMaster(t, db, dependentDatasetID, "SILVER", "lake/orders/staging", "")
	insertDatasetMaster(t, db, goldDatasetID, "GOLD", "lake/gold_orders/staging", "lake/gold_orders/gold")

	_, err := db.Exec(`INSERT INTO column_metadata
		(dataset_id, column_name, source_column_name, column_data_type, date_format, column_json_mapping, column_order, dashboard_tag)
		VALUES (?, 'order_id', 'order_id', 'string', '', '', 1, ''),
		       (?, 'region', 'region', 'string', '', '', 2, ''),
		       (?, 'amount', 'amount', 'double', '', '', 3, '')`,
		goldDatasetID, goldDatasetID, goldDatasetID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO transformation_dependency_master
		(process_id, dataset_id, depedent_dataset_id, transformation_step, transformation_type,
		 staging_table, join_how, left_table_columns, right_table_columns, extra_values,
		 primary_keys, custom_transformation_query)
		VALUES (1, ?, ?, 1, 'direct', 'orders', '', '', '', '', 'order_id', '')`,
		goldDatasetID, dependentDatasetID)
	require.NoError(t, err)
}

func fixedGoldNow() time.Time { return time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC) }

func ordersStagingFrame() *frame.Frame {
	f := frame.New([]string{"order_id", "region", "amount"})
	f.Rows = []frame.Row{
		{"order_id": "1", "region": "EAST", "amount": 12.5},
		{"order_id": "2", "region": "WEST", "amount": 3.0},
	}

	return f
}

func TestTransformDatasetDirectInitialAppend(t *testing.T) {
	ctx := context.Background()

	db := newGoldTestDB(t)
	seedGoldDirectDataset(t, db, 30, 10)

	_, err := db.Exec(`INSERT INTO log_dqm (run_id, process_id, dataset_id, qc_id, batch_id, total_count, error_count, status)
		VALUES ('run-0', 1, 10, 0, 20250101120000, 2, 0, 'SUCCEEDED')`)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	objects := objectstore.NewMemStore()

	staging := tablestore.New(objects, "dev-lake", "orders/staging")
	require.NoError(t, staging.Append(ctx, ordersStagingFrame(), 20250101120000, nil))

	engine := &Engine{Catalog: store, Objects: objects, Env: "dev", RunID: "run-1", Now: fixedGoldNow}

	require.NoError(t, engine.TransformDataset(ctx, 1, 30))

	gold := tablestore.New(objects, "dev-lake", "gold_orders/gold")
	out, err := gold.ReadFiltered(ctx, tablestore.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	for _, row := range out.Rows {
		require.Equal(t, tablestore.EffEndOpen, row["eff_end_dt"])
		require.Equal(t, "N", row["sys_del_flg"])
		require.NotEmpty(t, row["sys_checksum"])
	}

	goldStaging := tablestore.New(objects, "dev-lake", "gold_orders/staging")
	stagingOut, err := goldStaging.ReadFiltered(ctx, tablestore.ReadOptions{Latest: true})
	require.NoError(t, err)
	require.Equal(t, 2, stagingOut.Len())

	var transformCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM log_transformation WHERE status = 'SUCCEEDED'`).Scan(&transformCount))
	require.Equal(t, 1, transformCount)

	var dqmCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM log_dqm WHERE dataset_id = 30`).Scan(&dqmCount))
	require.Equal(t, 1, dqmCount)
}

func TestTransformDatasetMergesSCD2WhenGoldTableExists(t *testing.T) {
	ctx := context.Background()

	db := newGoldTestDB(t)
	seedGoldDirectDataset(t, db, 31, 11)

	_, err := db.Exec(`INSERT INTO log_dqm (run_id, process_id, dataset_id, qc_id, batch_id, total_count, error_count, status)
		VALUES ('run-0', 1, 11, 0, 20250102090000, 2, 0, 'SUCCEEDED')`)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	objects := objectstore.NewMemStore()

	staging := tablestore.New(objects, "dev-lake", "orders/staging")
	require.NoError(t, staging.Append(ctx, ordersStagingFrame(), 20250102090000, nil))

	gold := tablestore.New(objects, "dev-lake", "gold_orders/gold")
	existing := frame.New([]string{"order_id", "region", "amount", "data_date", "eff_strt_dt", "eff_end_dt", "sys_del_flg", "sys_created_ts", "sys_modified_ts", "sys_checksum"})
	existing.Rows = []frame.Row{
		{
			"order_id": "1", "region": "EAST", "amount": 1.0,
			"data_date": "2025-01-01", "eff_strt_dt": "2025-01-01", "eff_end_dt": tablestore.EffEndOpen,
			"sys_del_flg": "N", "sys_created_ts": "2025-01-01T00:00:00Z", "sys_modified_ts": "2025-01-01T00:00:00Z",
			"sys_checksum": "stale-checksum",
		},
	}
	require.NoError(t, gold.Publish(ctx, existing, 0))

	engine := &Engine{Catalog: store, Objects: objects, Env: "dev", RunID: "run-2", Now: fixedGoldNow}

	require.NoError(t, engine.TransformDataset(ctx, 1, 31))

	out, err := gold.ReadFiltered(ctx, tablestore.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	var closed, open int

	for _, row := range out.Rows {
		if row["order_id"] != "1" {
			continue
		}

		if row["eff_end_dt"] == tablestore.EffEndOpen {
			open++
		} else {
			closed++
			require.Equal(t, "Y", row["sys_del_flg"])
		}
	}

	require.Equal(t, 1, closed)
	require.Equal(t, 1, open)
}

func TestTransformDatasetWithNoUnprocessedBatchesReturnsEmptyWorkError(t *testing.T) {
	ctx := context.Background()

	db := newGoldTestDB(t)
	seedGoldDirectDataset(t, db, 32, 12)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	engine := &Engine{Catalog: store, Objects: objectstore.NewMemStore(), Env: "dev", RunID: "run-3", Now: fixedGoldNow}

	err = engine.TransformDataset(ctx, 1, 32)
	require.Error(t, err)
}
