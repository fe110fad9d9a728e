// Package engine wires the bronze, silver, and gold stage engines into the
// single top-level Run a process invocation drives, grounded on
// MedallionProcess/__init__.py's orchestration entrypoint: every bronze
// dataset runs to completion before any silver dataset starts, and every
// silver dataset runs to completion before any gold dataset starts, per
// spec.md §4.1's stage-boundary fail-fast contract.
package engine

import (
	"context"
	"fmt"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/bronze"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/gold"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/silver"
)

// Dataset types as stamped in dataset_master.dataset_type. RAW datasets are
// acquisition-only placeholders with no standardize/transform stage of
// their own; they are driven entirely from within the bronze engine.
const (
	DatasetTypeRaw    = "RAW"
	DatasetTypeBronze = "BRONZE"
	DatasetTypeSilver = "SILVER"
	DatasetTypeGold   = "GOLD"
)

// Run fans bronze, then silver, then gold across every dataset of
// processID, using up to maxWorkers goroutines per stage. It returns the
// first error encountered at any stage boundary; a stage only begins once
// every dataset of the previous stage has succeeded.
func Run(ctx context.Context, store *catalog.Store, objects objectstore.Store, env, runID string, processID, maxWorkers int) error {
	datasets, err := store.DatasetMastersForProcess(ctx, processID)
	if err != nil {
		return fmt.Errorf("listing datasets for process %d: %w", processID, err)
	}

	var bronzeIDs, silverIDs, goldIDs []int

	for _, d := range datasets {
		switch d.DatasetType {
		case DatasetTypeBronze:
			bronzeIDs = append(bronzeIDs, d.DatasetID)
		case DatasetTypeSilver:
			silverIDs = append(silverIDs, d.DatasetID)
		case DatasetTypeGold:
			goldIDs = append(goldIDs, d.DatasetID)
		}
	}

	if len(bronzeIDs) > 0 {
		bronzeEngine := &bronze.Engine{Catalog: store, Objects: objects, Env: env, RunID: runID}
		if err := bronzeEngine.RunProcess(ctx, processID, bronzeIDs, maxWorkers); err != nil {
			return fmt.Errorf("bronze stage: %w", err)
		}
	}

	if len(silverIDs) > 0 {
		silverEngine := &silver.Engine{Catalog: store, Objects: objects, Env: env, RunID: runID}
		if err := silverEngine.RunProcess(ctx, processID, silverIDs, maxWorkers); err != nil {
			return fmt.Errorf("silver stage: %w", err)
		}
	}

	if len(goldIDs) > 0 {
		goldEngine := &gold.Engine{Catalog: store, Objects: objects, Env: env, RunID: runID}
		if err := goldEngine.RunProcess(ctx, processID, goldIDs, maxWorkers); err != nil {
			return fmt.Errorf("gold stage: %w", err)
		}
	}

	return nil
}
