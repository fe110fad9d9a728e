package engine

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
)

const engineTestSchema = `
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

func newEngineTestStore(t *testing.T) *catalog.Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(engineTestSchema)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	return store
}

func insertDataset(t *testing.T, store *catalog.Store, processID, datasetID int, datasetType string) {
	t.Helper()

	require.NoError(t, store.InsertDatasetMaster(context.Background(), catalog.DatasetMaster{
		ProcessID: processID, DatasetID: datasetID, DatasetName: "ds", DatasetType: datasetType,
		FileDelimiter: ",",
	}))
}

func TestRunWithNoDatasetsIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newEngineTestStore(t)

	err := Run(ctx, store, objectstore.NewMemStore(), "dev", "run-1", 1, 4)
	require.NoError(t, err)
}

func TestRunSurfacesGoldStageFailure(t *testing.T) {
	ctx := context.Background()
	store := newEngineTestStore(t)

	insertDataset(t, store, 1, 50, DatasetTypeGold)

	err := Run(ctx, store, objectstore.NewMemStore(), "dev", "run-2", 1, 4)
	require.Error(t, err)
}
