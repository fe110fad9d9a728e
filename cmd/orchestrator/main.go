// Package main provides the lakehouse orchestrator CLI.
//
// It runs one process_id's bronze, silver, and gold stages to completion
// against the control-plane catalog, following the teacher's
// cmd/correlator flag-parsing and structured startup/shutdown logging
// shape.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalogseed"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/config"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engine"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engineerr"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/runlog"

	"github.com/google/uuid"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "orchestrator"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	processID := flag.Int("process-id", 0, "process_id to run (required)")
	seedPath := flag.String("catalog-seed", "", "optional .catalog.yaml bootstrap file (dev/test only)")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	if *processID <= 0 {
		log.Fatal("process-id is required and must be positive")
	}

	runConfig := config.LoadRunConfig()
	if err := runConfig.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, closeLog, err := runlog.New(runConfig.LakehouseFrameworkHome, *processID, config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo))
	if err != nil {
		log.Fatalf("failed to start logger: %v", err)
	}
	defer closeLog()

	runID := uuid.NewString()

	logger.Info("starting orchestrator run",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("run_id", runID),
		slog.Int("process_id", *processID),
		slog.String("config", runConfig.String()),
	)

	if err := run(context.Background(), logger, runConfig, runID, *processID, *seedPath); err != nil {
		logger.Error("orchestrator run failed",
			slog.String("run_id", runID),
			slog.Int("process_id", *processID),
			slog.String("error", err.Error()),
		)
		os.Exit(exitCode(err))
	}

	logger.Info("orchestrator run complete", slog.String("run_id", runID), slog.Int("process_id", *processID))
}

func run(ctx context.Context, logger *slog.Logger, runConfig *config.RunConfig, runID string, processID int, seedPath string) error {
	driver, dialect := dialectFor(runConfig.DatabaseURL())

	db, err := sql.Open(driver, runConfig.DatabaseURL())
	if err != nil {
		return fmt.Errorf("opening catalog database: %w", err)
	}
	defer db.Close()

	store, err := catalog.Open(db, dialect)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}

	if seedPath != "" {
		seed, err := catalogseed.LoadConfig(seedPath)
		if err != nil {
			return fmt.Errorf("loading catalog seed: %w", err)
		}

		if err := catalogseed.Apply(ctx, store, seed); err != nil {
			return fmt.Errorf("applying catalog seed: %w", err)
		}
	}

	objects, err := objectstore.NewS3Store(ctx, objectstore.Options{
		AccessKeyID:     runConfig.AWSKey,
		SecretAccessKey: runConfig.AWSSecret,
		Endpoint:        runConfig.AWSEndpoint,
	})
	if err != nil {
		return fmt.Errorf("opening object store: %w", err)
	}

	logger.Info("running stages", slog.Int("max_threads", runConfig.MaxThreads))

	return engine.Run(ctx, store, objects, runConfig.Env, runID, processID, runConfig.MaxThreads)
}

// dialectFor derives the sql.DB driver name and catalog.Dialect from the
// connection string's scheme, per spec.md §4.6's
// database_type ∈ {mysql, postgresql, sqlite} dispatch.
func dialectFor(databaseURL string) (string, catalog.Dialect) {
	switch {
	case strings.HasPrefix(databaseURL, "mysql://"):
		return "mysql", catalog.DialectMySQL
	case strings.HasPrefix(databaseURL, "sqlite://"), strings.HasSuffix(databaseURL, ".db"), databaseURL == ":memory:":
		return "sqlite", catalog.DialectSQLite
	default:
		return "postgres", catalog.DialectPostgreSQL
	}
}

// exitCode maps an engineerr.Kind to a distinct process exit status, so a
// caller scripting the orchestrator can distinguish a configuration
// mistake from a transient source outage without parsing log text.
func exitCode(err error) int {
	switch engineerr.KindOf(err) {
	case engineerr.Configuration:
		return 2
	case engineerr.SourceUnavailable:
		return 3
	case engineerr.CriticalDQM:
		return 4
	default:
		return 1
	}
}
