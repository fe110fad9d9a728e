package catalogseed

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
)

func TestLoadConfig_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".catalog.yaml")

	content := `
dataset_master:
  - process_id: 1
    dataset_id: 10
    dataset_name: orders
    dataset_type: SILVER
    staging_location: dev/orders/staging
acquisition_detail:
  - process_id: 1
    pre_ingestion_dataset_id: 1
    source_location: dev/orders/landing
    delimiter: ","
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "orders", cfg.Datasets[0].DatasetName)
	assert.Equal(t, "SILVER", cfg.Datasets[0].DatasetType)
	require.Len(t, cfg.Acquisitions, 1)
	assert.Equal(t, "dev/orders/landing", cfg.Acquisitions[0].SourceLocation)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/.catalog.yaml")

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Datasets)
	assert.Empty(t, cfg.Acquisitions)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".catalog.yaml")

	require.NoError(t, os.WriteFile(path, []byte("dataset_master: [invalid"), 0o644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Datasets)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".catalog.yaml")

	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Datasets)
	assert.Empty(t, cfg.Acquisitions)
}

const catalogSeedTestSchema = `
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
CREATE TABLE acquisition_detail (
	process_id INTEGER, pre_ingestion_dataset_id INTEGER, source_location TEXT,
	source_file_pattern TEXT, delimiter TEXT, query TEXT, columns TEXT
);
`

func TestApply_InsertsDatasetsAndAcquisitions(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(catalogSeedTestSchema)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	cfg := &Config{
		Datasets: []Dataset{
			{ProcessID: 1, DatasetID: 10, DatasetName: "orders", DatasetType: "SILVER", StagingLocation: "dev/orders/staging"},
		},
		Acquisitions: []Acquisition{
			{ProcessID: 1, PreIngestionDatasetID: 1, SourceLocation: "dev/orders/landing", Delimiter: ","},
		},
	}

	require.NoError(t, Apply(ctx, store, cfg))

	dm, err := store.DatasetMaster(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "orders", dm.DatasetName)
	assert.Equal(t, "dev/orders/staging", dm.StagingLocation)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM acquisition_detail`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestApply_RejectsInvalidDatasetType(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(catalogSeedTestSchema)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	cfg := &Config{
		Datasets: []Dataset{
			{ProcessID: 1, DatasetID: 10, DatasetName: "orders", DatasetType: "PLATINUM"},
		},
	}

	require.Error(t, Apply(ctx, store, cfg))
}

func TestApply_EmptyConfigIsNoop(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(catalogSeedTestSchema)
	require.NoError(t, err)

	store, err := catalog.Open(db, catalog.DialectSQLite)
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, store, &Config{}))
}
