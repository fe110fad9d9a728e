// Package gold runs the curated layer: materializing each gold dataset's
// dependency list into one frame, synthesizing an SCD-2 envelope, and
// publishing it (initial append or SCD-2 merge) into the transformation
// table, grounded on GoldLayerScripts/Transformation.py.
package gold

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/coordinator"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/dqm"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engineerr"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pathresolve"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/sqlexec"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/tablestore"
)

// Engine runs Transformation.py's four transform kinds against dependent
// datasets' staging snapshots, then the post-transform quality gate
// GoldLayer.py calls TransformationDataQualityCheck for.
type Engine struct {
	Catalog *catalog.Store
	Objects objectstore.Store
	Env     string
	RunID   string
	Now     func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}

	return time.Now()
}

// RunProcess transforms every dataset in datasetIDs, using up to
// maxWorkers goroutines.
func (e *Engine) RunProcess(ctx context.Context, processID int, datasetIDs []int, maxWorkers int) error {
	tasks := make([]coordinator.Task[int], len(datasetIDs))
	for i, id := range datasetIDs {
		tasks[i] = coordinator.Task[int]{Item: id, Run: func(ctx context.Context, datasetID int) error {
			return e.TransformDataset(ctx, processID, datasetID)
		}}
	}

	_, err := coordinator.Run(ctx, maxWorkers, tasks)

	return err
}

// TransformDataset runs every unprocessed batch of one gold dataset
// through materialize -> envelope -> publish -> quality gate, grounded on
// GoldLayer.py's _handle_gold_layer.
func (e *Engine) TransformDataset(ctx context.Context, processID, datasetID int) error {
	dm, err := e.Catalog.DatasetMaster(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	deps, err := e.Catalog.TransformationDependenciesFor(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	if len(deps) == 0 {
		return engineerr.New(engineerr.Configuration, fmt.Sprintf("no transformation_dependency_master rows for dataset %d", datasetID), nil)
	}

	kind := strings.ToLower(deps[0].TransformationType)

	batches, err := e.Catalog.UnprocessedTransformationBatches(ctx, processID, deps[0].DependentDatasetID, datasetID)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		return engineerr.New(engineerr.EmptyWork, fmt.Sprintf("no unprocessed transformation files for dataset %d", datasetID), nil)
	}

	columnMeta, err := e.Catalog.ColumnMetadataFor(ctx, datasetID)
	if err != nil {
		return err
	}

	declaredCols := make([]string, len(columnMeta))
	for i, c := range columnMeta {
		declaredCols[i] = c.ColumnName
	}

	dqmRules, err := e.Catalog.DQMRulesFor(ctx, datasetID)
	if err != nil {
		return err
	}

	goldLoc := pathresolve.Resolve(dm.TransformationLocation, e.Env)
	goldTable := tablestore.New(e.Objects, goldLoc.Bucket, goldLoc.Key)
	goldPartitionCols := splitNonEmpty(dm.TransformationPartitionColumns)

	stagingLoc := pathresolve.Resolve(dm.StagingLocation, e.Env)
	goldStagingTable := tablestore.New(e.Objects, stagingLoc.Bucket, stagingLoc.Key)
	stagingPartitionCols := splitNonEmpty(dm.StagingPartitionColumns)

	for _, batchID := range batches {
		if err := e.transformBatch(ctx, processID, datasetID, batchID, kind, deps, declaredCols,
			goldTable, goldPartitionCols, goldStagingTable, stagingPartitionCols, dqmRules); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) transformBatch(
	ctx context.Context,
	processID, datasetID int,
	batchID int64,
	kind string,
	deps []catalog.TransformationDependencyMaster,
	declaredCols []string,
	goldTable *tablestore.Table,
	goldPartitionCols []string,
	goldStagingTable *tablestore.Table,
	stagingPartitionCols []string,
	dqmRules []catalog.DQMMasterDtl,
) error {
	fail := func(cause error) error {
		_ = e.Catalog.InsertLogTransformation(ctx, catalog.LogTransformation{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
			Status: catalog.StatusFailed, ErrorText: engineerr.StackTrace(cause),
		})

		return cause
	}

	var (
		merged *frame.Frame
		err    error
	)

	switch kind {
	case "direct":
		merged, err = e.materializeDirect(ctx, processID, deps[0], batchID)
	case "union":
		merged, err = e.materializeUnion(ctx, processID, deps)
	case "join":
		merged, err = e.materializeJoin(ctx, processID, deps)
	case "custom":
		merged, err = e.materializeCustom(ctx, processID, deps)
	default:
		err = engineerr.New(engineerr.Configuration, fmt.Sprintf("unsupported transformation type %q", kind), nil)
	}

	if err != nil {
		return fail(err)
	}

	projected := merged.Select(declaredCols)

	now := e.now()
	enveloped := envelope(projected, declaredCols, now)

	exists, err := goldTable.Exists(ctx)
	if err != nil {
		return fail(err)
	}

	if !exists {
		if err := goldTable.Append(ctx, enveloped, batchID, goldPartitionCols); err != nil {
			return fail(err)
		}
	} else {
		staged := enveloped.WithLiteralColumn(tablestore.BatchIDColumn, batchID)

		primaryKeys := splitNonEmpty(deps[0].PrimaryKeys)
		if err := goldTable.MergeSCD2(ctx, staged, primaryKeys); err != nil {
			return fail(err)
		}
	}

	gated, err := e.runQualityGate(ctx, processID, datasetID, batchID, enveloped, dqmRules)
	if err != nil {
		return fail(err)
	}

	if err := goldStagingTable.Append(ctx, gated, batchID, stagingPartitionCols); err != nil {
		return fail(err)
	}

	return e.Catalog.InsertLogTransformation(ctx, catalog.LogTransformation{
		RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
		Status: catalog.StatusSucceeded,
	})
}

// runQualityGate re-runs the §4.3 taxonomy against the transformed frame,
// grounded on GoldLayer.py calling TransformationDataQualityCheck (absent
// from the retrieval pack) with the same dqm_master_dtl rule shape
// DataQualityCheck.py uses at silver; reusing internal/dqm.Evaluate avoids
// a second, parallel implementation of the same eight qc_type handlers.
func (e *Engine) runQualityGate(
	ctx context.Context,
	processID, datasetID int,
	batchID int64,
	current *frame.Frame,
	dqmRules []catalog.DQMMasterDtl,
) (*frame.Frame, error) {
	if len(dqmRules) == 0 {
		if err := e.Catalog.InsertLogDQM(ctx, catalog.LogDQM{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
			TotalCount: int64(current.Len()), Status: catalog.StatusSucceeded,
		}); err != nil {
			return nil, err
		}

		return current, nil
	}

	for _, rule := range dqmRules {
		outcome, err := dqm.Evaluate(current, dqm.Rule{
			ColumnName: rule.ColumnName, FunctionName: rule.QCType, ParamJSON: rule.ParamsJSON,
			Criticality: rule.Criticality, CriticalityThresholdPct: rule.Threshold,
		})
		if err != nil {
			return nil, err
		}

		if logErr := e.Catalog.InsertLogDQM(ctx, catalog.LogDQM{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, QCID: rule.QCID, BatchID: batchID,
			TotalCount: int64(current.Len()), ErrorCount: int64(outcome.ErrorCount),
			Status: catalog.Status(outcome.Status), ErrorText: outcome.FailMessage,
		}); logErr != nil {
			return nil, logErr
		}

		if outcome.Status == dqm.StatusFailed {
			return nil, engineerr.New(engineerr.CriticalDQM, outcome.FailMessage, nil)
		}

		current = outcome.Passed
	}

	return current, nil
}

func splitNonEmpty(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}
