package silver

import (
	"context"
	"fmt"
	"strings"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/caster"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/coordinator"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/dqm"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engineerr"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pathresolve"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/tablestore"
)

// Engine runs the silver standardize-then-check stage against the landing
// tables the bronze engine publishes, grounded on
// MedallionProcess/SilverLayer.py.
type Engine struct {
	Catalog *catalog.Store
	Objects objectstore.Store
	Env     string
	RunID   string
}

// RunProcess standardizes every dataset in datasetIDs, using up to
// maxWorkers goroutines, mirroring the bronze and gold engines' own
// RunProcess fan-out.
func (e *Engine) RunProcess(ctx context.Context, processID int, datasetIDs []int, maxWorkers int) error {
	tasks := make([]coordinator.Task[int], len(datasetIDs))
	for i, id := range datasetIDs {
		tasks[i] = coordinator.Task[int]{Item: id, Run: func(ctx context.Context, datasetID int) error {
			return e.ProcessDataset(ctx, processID, datasetID)
		}}
	}

	_, err := coordinator.Run(ctx, maxWorkers, tasks)

	return err
}

// ProcessDataset runs standardization and quality checks for every
// unprocessed landing batch of one dataset, grounded on
// SilverLayer.py's _handle_silver_process and
// DataStandardization.py's per-unprocessed-file loop.
func (e *Engine) ProcessDataset(ctx context.Context, processID, datasetID int) error {
	dm, err := e.Catalog.DatasetMaster(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	batches, err := e.Catalog.UnprocessedBatchIDs(ctx, "log_raw_process", "log_standardization", processID, datasetID)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		return engineerr.New(engineerr.EmptyWork, fmt.Sprintf("no unprocessed landing batches for dataset %d", datasetID), nil)
	}

	columnMeta, err := e.Catalog.ColumnMetadataFor(ctx, datasetID)
	if err != nil {
		return err
	}

	stdRules, err := e.Catalog.StandardizationRulesFor(ctx, datasetID)
	if err != nil {
		return err
	}

	dqmRules, err := e.Catalog.DQMRulesFor(ctx, datasetID)
	if err != nil {
		return err
	}

	rename := make(map[string]string, len(columnMeta))
	specs := make([]caster.ColumnSpec, 0, len(columnMeta))

	for _, c := range columnMeta {
		rename[c.SourceColumnName] = c.ColumnName
		specs = append(specs, caster.ColumnSpec{Name: c.ColumnName, Type: c.ColumnDataType, DateFormat: c.DateFormat})
	}

	rules := convertStandardizationRules(stdRules)

	landing := pathresolve.Resolve(dm.DataLandingLocation, e.Env)
	standardized := pathresolve.Resolve(dm.DataStandardisationLocation, e.Env)
	staging := pathresolve.Resolve(dm.StagingLocation, e.Env)

	landingTable := tablestore.New(e.Objects, landing.Bucket, landing.Key)
	standardTable := tablestore.New(e.Objects, standardized.Bucket, standardized.Key)
	stagingTable := tablestore.New(e.Objects, staging.Bucket, staging.Key)

	standardPartitionCols := splitNonEmpty(dm.DataStandardisationPartitionCols)
	stagingPartitionCols := splitNonEmpty(dm.StagingPartitionColumns)

	for _, batchID := range batches {
		if err := e.processBatch(ctx, processID, datasetID, batchID, landingTable, standardTable, stagingTable,
			standardPartitionCols, stagingPartitionCols, rename, specs, rules, dqmRules); err != nil {
			return err
		}
	}

	return nil
}

// processBatch carries one landing batch through standardization (steps
// 2-5) and the quality gate (steps 6-7). Standardization and staging are
// two distinct writes, grounded on SilverLayer.py calling DataStandardization
// (which writes data_standardisation_location) and DataQualityCheck (which
// reads that snapshot back and writes only the passing rows to the staging
// table) as separate steps rather than one combined write.
func (e *Engine) processBatch(
	ctx context.Context,
	processID, datasetID int,
	batchID int64,
	landingTable, standardTable, stagingTable *tablestore.Table,
	standardPartitionCols, stagingPartitionCols []string,
	rename map[string]string,
	specs []caster.ColumnSpec,
	rules []Rule,
	dqmRules []catalog.DQMMasterDtl,
) error {
	failStandardization := func(cause error) error {
		_ = e.Catalog.InsertLogStandardization(ctx, catalog.LogStandardization{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
			Status: catalog.StatusFailed, ErrorText: engineerr.StackTrace(cause),
		})

		return cause
	}

	raw, err := landingTable.ReadFiltered(ctx, tablestore.ReadOptions{BatchID: batchID})
	if err != nil {
		return failStandardization(err)
	}

	renamed := Rename(raw, rename)

	casted, err := caster.Cast(renamed, specs)
	if err != nil {
		return failStandardization(err)
	}

	standardized, err := Standardize(casted, rules)
	if err != nil {
		return failStandardization(err)
	}

	if err := standardTable.Append(ctx, standardized, batchID, standardPartitionCols); err != nil {
		return failStandardization(err)
	}

	if err := e.Catalog.InsertLogStandardization(ctx, catalog.LogStandardization{
		RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
		Status: catalog.StatusSucceeded,
	}); err != nil {
		return err
	}

	current, err := standardTable.ReadFiltered(ctx, tablestore.ReadOptions{BatchID: batchID})
	if err != nil {
		return err
	}

	if len(dqmRules) == 0 {
		if err := e.Catalog.InsertLogDQM(ctx, catalog.LogDQM{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
			TotalCount: int64(current.Len()), Status: catalog.StatusSucceeded,
		}); err != nil {
			return err
		}
	}

	for _, rule := range dqmRules {
		outcome, err := dqm.Evaluate(current, dqm.Rule{
			ColumnName: rule.ColumnName, FunctionName: rule.QCType, ParamJSON: rule.ParamsJSON,
			Criticality: rule.Criticality, CriticalityThresholdPct: rule.Threshold,
		})
		if err != nil {
			return err
		}

		if logErr := e.Catalog.InsertLogDQM(ctx, catalog.LogDQM{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, QCID: rule.QCID, BatchID: batchID,
			TotalCount: int64(current.Len()), ErrorCount: int64(outcome.ErrorCount),
			Status: catalog.Status(outcome.Status), ErrorText: outcome.FailMessage,
		}); logErr != nil {
			return logErr
		}

		if outcome.Status == dqm.StatusFailed {
			return engineerr.New(engineerr.CriticalDQM, outcome.FailMessage, nil)
		}

		current = outcome.Passed
	}

	return stagingTable.Append(ctx, current, batchID, stagingPartitionCols)
}

func convertStandardizationRules(rows []catalog.StandardizationDtl) []Rule {
	out := make([]Rule, len(rows))
	for i, r := range rows {
		out[i] = Rule{ColumnName: r.ColumnName, FunctionName: r.FunctionName, ParamsJSON: r.ParamsJSON}
	}

	return out
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
