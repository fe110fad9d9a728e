// Package catalogseed loads a development/test catalog bootstrap file,
// mirroring internal/aliasing's graceful-degradation YAML loading: a
// missing file is not an error, and invalid YAML logs a warning and
// falls back to an empty seed rather than failing startup. Production
// deployments populate dataset_master/acquisition_detail through the
// migration-backed catalog directly; this package exists so a developer
// or CI job can stand up a working catalog without hand-writing INSERTs.
package catalogseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
)

var validate = validator.New()

type (
	// Dataset is one dataset_master row as expressed in the bootstrap
	// file. Fields mirror catalog.DatasetMaster; yaml tags use the same
	// snake_case names as the underlying table columns.
	Dataset struct {
		ProcessID                        int    `yaml:"process_id"     validate:"required"`
		DatasetID                        int    `yaml:"dataset_id"     validate:"required"`
		DatasetName                      string `yaml:"dataset_name"   validate:"required"`
		DatasetType                      string `yaml:"dataset_type"   validate:"required,oneof=RAW BRONZE SILVER GOLD"`
		OutboundSourcePlatform           string `yaml:"outbound_source_platform"`
		OutboundSourceSystem             string `yaml:"outbound_source_system"`
		OutboundSourceFilePattern        string `yaml:"outbound_source_file_pattern"`
		OutboundSourceFilePatternStatic  bool   `yaml:"outbound_source_file_pattern_static"`
		InboundLocation                  string `yaml:"inbound_location"`
		InboundFilePattern               string `yaml:"inbound_file_pattern"`
		FileDelimiter                    string `yaml:"file_delimiter"`
		DataLandingLocation              string `yaml:"data_landing_location"`
		LandingPartitionColumns          string `yaml:"landing_partition_columns"`
		DataStandardisationLocation      string `yaml:"data_standardisation_location"`
		DataStandardisationPartitionCols string `yaml:"data_standardisation_partition_columns"`
		StagingLocation                  string `yaml:"staging_location"`
		StagingPartitionColumns          string `yaml:"staging_partition_columns"`
		TransformationLocation           string `yaml:"transformation_location"`
		TransformationPartitionColumns   string `yaml:"transformation_partition_columns"`
	}

	// Acquisition is one acquisition_detail row.
	Acquisition struct {
		ProcessID             int    `yaml:"process_id"              validate:"required"`
		PreIngestionDatasetID int    `yaml:"pre_ingestion_dataset_id" validate:"required"`
		SourceLocation        string `yaml:"source_location"         validate:"required"`
		SourceFilePattern     string `yaml:"source_file_pattern"`
		Delimiter             string `yaml:"delimiter"`
		Query                 string `yaml:"query"`
		Columns               string `yaml:"columns"`
	}

	// Config is the top-level shape of a .catalog.yaml bootstrap file.
	Config struct {
		Datasets     []Dataset     `yaml:"dataset_master"`
		Acquisitions []Acquisition `yaml:"acquisition_detail"`
	}
)

const (
	// DefaultConfigPath is where LoadConfig looks absent an override.
	DefaultConfigPath = ".catalog.yaml"

	// ConfigPathEnvVar overrides DefaultConfigPath.
	ConfigPathEnvVar = "CATALOG_SEED_PATH"
)

// LoadConfig reads path and parses it as a bootstrap Config. A missing
// file returns an empty Config and a nil error: seeding is optional, and
// a deployment relying on a migration-backed catalog should never fail
// startup for lacking one. Invalid YAML logs a warning and also falls
// back to an empty Config, for the same reason.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Datasets: []Dataset{}, Acquisitions: []Acquisition{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("catalog seed file not found, continuing without seed data", slog.String("path", path))
			return cfg, nil
		}

		slog.Warn("failed to read catalog seed file, continuing without seed data",
			slog.String("path", path), slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("failed to parse catalog seed file, continuing without seed data",
			slog.String("path", path), slog.String("error", err.Error()))

		return &Config{Datasets: []Dataset{}, Acquisitions: []Acquisition{}}, nil
	}

	return cfg, nil
}

// Apply inserts every dataset and acquisition row in cfg into store. It
// is the caller's job to run this only against a freshly migrated,
// empty catalog — Apply does not check for existing rows and relies on
// the underlying tables' primary keys to reject duplicates. Every row is
// struct-validated first, since a bootstrap file is hand-edited YAML and
// a typo (a missing dataset_type, an id left at zero) should fail loudly
// before it reaches the database rather than surface as a cryptic FK
// error three stages later.
func Apply(ctx context.Context, store *catalog.Store, cfg *Config) error {
	for i := range cfg.Datasets {
		if err := validate.Struct(cfg.Datasets[i]); err != nil {
			return fmt.Errorf("catalog seed dataset_master[%d]: %w", i, err)
		}
	}

	for i := range cfg.Acquisitions {
		if err := validate.Struct(cfg.Acquisitions[i]); err != nil {
			return fmt.Errorf("catalog seed acquisition_detail[%d]: %w", i, err)
		}
	}

	for _, d := range cfg.Datasets {
		m := catalog.DatasetMaster{
			ProcessID:                        d.ProcessID,
			DatasetID:                        d.DatasetID,
			DatasetName:                      d.DatasetName,
			DatasetType:                      d.DatasetType,
			OutboundSourcePlatform:           d.OutboundSourcePlatform,
			OutboundSourceSystem:             d.OutboundSourceSystem,
			OutboundSourceFilePattern:        d.OutboundSourceFilePattern,
			OutboundSourceFilePatternStatic:  d.OutboundSourceFilePatternStatic,
			InboundLocation:                  d.InboundLocation,
			InboundFilePattern:               d.InboundFilePattern,
			FileDelimiter:                    d.FileDelimiter,
			DataLandingLocation:              d.DataLandingLocation,
			LandingPartitionColumns:          d.LandingPartitionColumns,
			DataStandardisationLocation:      d.DataStandardisationLocation,
			DataStandardisationPartitionCols: d.DataStandardisationPartitionCols,
			StagingLocation:                  d.StagingLocation,
			StagingPartitionColumns:          d.StagingPartitionColumns,
			TransformationLocation:           d.TransformationLocation,
			TransformationPartitionColumns:   d.TransformationPartitionColumns,
		}

		if err := store.InsertDatasetMaster(ctx, m); err != nil {
			return err
		}
	}

	for _, a := range cfg.Acquisitions {
		row := catalog.AcquisitionDetail{
			ProcessID:             a.ProcessID,
			PreIngestionDatasetID: a.PreIngestionDatasetID,
			SourceLocation:        a.SourceLocation,
			SourceFilePattern:     a.SourceFilePattern,
			Delimiter:             a.Delimiter,
			Query:                 a.Query,
			Columns:               a.Columns,
		}

		if err := store.InsertAcquisitionDetail(ctx, row); err != nil {
			return err
		}
	}

	slog.Info("applied catalog seed",
		slog.Int("datasets", len(cfg.Datasets)), slog.Int("acquisitions", len(cfg.Acquisitions)))

	return nil
}
