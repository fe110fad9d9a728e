// Package bronze runs the lakehouse's first layer: pulling outbound
// source files into the inbound object store, then turning new inbound
// files into landing-table batches, grounded on
// MedallionProcess/BronzeLayer.py's start_extraction.
package bronze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/coordinator"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/dedupe"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/delimited"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engineerr"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/extract"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/objectstore"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pathresolve"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pattern"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/security"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/tablestore"
)

// Engine runs bronze sub-stage B1 (source to inbound) and sub-stage B2
// (inbound to landing) for one dataset at a time. RunProcess fans both
// sub-stages across every dataset of a process, matching
// BronzeLayer.py's start_extraction: every dataset's B1 runs to
// completion before any dataset's B2 begins.
type Engine struct {
	Catalog *catalog.Store
	Objects objectstore.Store
	Env     string
	RunID   string
	Now     func() time.Time
	// Dispatch resolves the extractor for a platform; defaults to
	// extract.Dispatch. Overridable in tests the same way extract's own
	// extractors expose NewSource/Dial/Open hooks.
	Dispatch func(platform string) (extract.Extractor, error)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}

	return time.Now()
}

func (e *Engine) dispatch(platform string) (extract.Extractor, error) {
	if e.Dispatch != nil {
		return e.Dispatch(platform)
	}

	return extract.Dispatch(platform)
}

// RunProcess extracts then lands every dataset in datasetIDs, using up to
// maxWorkers goroutines per sub-stage.
func (e *Engine) RunProcess(ctx context.Context, processID int, datasetIDs []int, maxWorkers int) error {
	extractTasks := make([]coordinator.Task[int], len(datasetIDs))
	for i, id := range datasetIDs {
		extractTasks[i] = coordinator.Task[int]{Item: id, Run: func(ctx context.Context, datasetID int) error {
			return e.ExtractDataset(ctx, processID, datasetID)
		}}
	}

	if _, err := coordinator.Run(ctx, maxWorkers, extractTasks); err != nil {
		return err
	}

	landTasks := make([]coordinator.Task[int], len(datasetIDs))
	for i, id := range datasetIDs {
		landTasks[i] = coordinator.Task[int]{Item: id, Run: func(ctx context.Context, datasetID int) error {
			return e.LandDataset(ctx, processID, datasetID)
		}}
	}

	_, err := coordinator.Run(ctx, maxWorkers, landTasks)

	return err
}

// ExtractDataset runs sub-stage B1 for one dataset: dispatch the
// platform-specific extractor, pull every not-yet-succeeded candidate into
// the inbound location, and log one log_acquisition row per attempt.
// Grounded on BronzeLayer.py's _handle_extraction.
func (e *Engine) ExtractDataset(ctx context.Context, processID, datasetID int) error {
	dm, err := e.Catalog.DatasetMaster(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	detail, err := e.acquisitionDetailFor(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	extractor, err := e.dispatch(dm.OutboundSourcePlatform)
	if err != nil {
		return engineerr.New(engineerr.Configuration, err.Error(), err)
	}

	var (
		conn  *catalog.AcquisitionConnectionMaster
		steps []catalog.APIConnectionDtl
	)

	if dm.OutboundSourcePlatform == "API" {
		steps, err = e.Catalog.APIWorkflowSteps(ctx, processID, datasetID)
		if err != nil {
			return err
		}
	} else {
		conn, err = e.Catalog.ConnectionFor(ctx, dm.OutboundSourcePlatform, dm.OutboundSourceSystem)
		if err != nil {
			return engineerr.New(engineerr.SourceUnavailable,
				fmt.Sprintf("no acquisition_connection_master for %s/%s", dm.OutboundSourcePlatform, dm.OutboundSourceSystem), err)
		}
	}

	columns, err := e.Catalog.ColumnMetadataFor(ctx, datasetID)
	if err != nil {
		return err
	}

	seeded, err := e.Catalog.SucceededInboundLocations(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	set := dedupe.New(seeded)

	inbound := pathresolve.Resolve(dm.InboundLocation, e.Env)

	req := extract.Request{
		Detail:     *detail,
		Connection: conn,
		APISteps:   steps,
		Columns:    columns,
		Dedupe:     set,
	}

	pulled, err := extractor.Pull(ctx, req, e.Objects, inbound.Bucket, inbound.Key)
	if err != nil {
		errText := security.RedactErrorText(engineerr.StackTrace(err), acquisitionSecrets(conn, steps)...)

		_ = e.Catalog.InsertLogAcquisition(ctx, catalog.LogAcquisition{
			RunID: e.RunID, ProcessID: processID, PreIngestionDatasetID: datasetID,
			Status: catalog.StatusFailed, ErrorText: errText,
		})

		return engineerr.New(engineerr.SourceUnavailable, "extraction failed", err)
	}

	if len(pulled) == 0 {
		return engineerr.New(engineerr.DuplicateWork, fmt.Sprintf("no new source files for dataset %d", datasetID), nil)
	}

	for _, p := range pulled {
		if err := e.Catalog.InsertLogAcquisition(ctx, catalog.LogAcquisition{
			RunID: e.RunID, ProcessID: processID, PreIngestionDatasetID: datasetID,
			InboundFileLocation: p.SourceLocation, Status: catalog.StatusSucceeded,
		}); err != nil {
			return err
		}

		set.Add(p.SourceLocation)
	}

	return nil
}

// acquisitionSecrets collects every raw credential value that might be
// echoed back verbatim in a transport error (an HTTP client typically
// includes the request it sent, headers and all, in its error text), so
// security.RedactErrorText can scrub them before the error reaches
// log_acquisition.error_text.
func acquisitionSecrets(conn *catalog.AcquisitionConnectionMaster, steps []catalog.APIConnectionDtl) []string {
	var secrets []string

	if conn != nil && conn.PrivateKey != "" {
		secrets = append(secrets, conn.PrivateKey)
	}

	for _, s := range steps {
		for _, v := range []string{s.ClientSecret, s.Password, s.PrivateKey} {
			if v != "" {
				secrets = append(secrets, v)
			}
		}
	}

	return secrets
}

func (e *Engine) acquisitionDetailFor(ctx context.Context, processID, datasetID int) (*catalog.AcquisitionDetail, error) {
	details, err := e.Catalog.AcquisitionDetailsFor(ctx, processID)
	if err != nil {
		return nil, err
	}

	for i := range details {
		if details[i].PreIngestionDatasetID == datasetID {
			return &details[i], nil
		}
	}

	return nil, engineerr.New(engineerr.Configuration, fmt.Sprintf("no acquisition_detail for dataset %d", datasetID), nil)
}

// LandDataset runs sub-stage B2 for one dataset: list the inbound
// location, keep files that are new (not already SUCCEEDED in
// log_raw_process) and match inbound_file_pattern, parse each as a
// delimited file, and append it to the landing table under a freshly
// minted batch ID. Grounded on BronzeLayer.py's _handle_raw_table_creation,
// including its behavior of stopping at the first file that fails to
// write rather than continuing to the rest of the batch.
func (e *Engine) LandDataset(ctx context.Context, processID, datasetID int) error {
	dm, err := e.Catalog.DatasetMaster(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	inbound := pathresolve.Resolve(dm.InboundLocation, e.Env)
	landing := pathresolve.Resolve(dm.DataLandingLocation, e.Env)

	keys, err := e.Objects.List(ctx, inbound.Bucket, inbound.Key)
	if err != nil {
		return engineerr.New(engineerr.SourceUnavailable, "listing inbound location", err)
	}

	landed, err := e.Catalog.SucceededRawProcessFiles(ctx, processID, datasetID)
	if err != nil {
		return err
	}

	landingTable := tablestore.New(e.Objects, landing.Bucket, landing.Key)
	partitionCols := splitNonEmpty(dm.LandingPartitionColumns)

	var newFiles []string

	for _, key := range keys {
		sourceFile := fmt.Sprintf("s3a://%s/%s", inbound.Bucket, key)
		if landed[sourceFile] {
			continue
		}

		name := key[strings.LastIndex(key, "/")+1:]

		ok, err := pattern.Validate(dm.InboundFilePattern, name, false)
		if err != nil {
			return err
		}

		if ok {
			newFiles = append(newFiles, sourceFile)
		}
	}

	if len(newFiles) == 0 {
		return engineerr.New(engineerr.EmptyWork, fmt.Sprintf("no new files to land for dataset %d", datasetID), nil)
	}

	for _, sourceFile := range newFiles {
		if err := e.landFile(ctx, processID, datasetID, sourceFile, inbound, landingTable, partitionCols, dm.FileDelimiter); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) landFile(
	ctx context.Context,
	processID, datasetID int,
	sourceFile string,
	inbound pathresolve.Location,
	landingTable *tablestore.Table,
	partitionCols []string,
	delimiter string,
) error {
	batchID := catalog.NewBatchID(e.now())

	key := strings.TrimPrefix(strings.TrimPrefix(sourceFile, "s3a://"+inbound.Bucket), "/")

	fail := func(cause error) error {
		_ = e.Catalog.InsertLogRawProcess(ctx, catalog.LogRawProcess{
			RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
			SourceFile: sourceFile, Status: catalog.StatusFailed, ErrorText: engineerr.StackTrace(cause),
		})

		return cause
	}

	rc, err := e.Objects.Get(ctx, inbound.Bucket, key)
	if err != nil {
		return fail(err)
	}
	defer rc.Close()

	f, err := delimited.Parse(rc, delimiter)
	if err != nil {
		return fail(err)
	}

	if err := landingTable.Append(ctx, f, batchID, partitionCols); err != nil {
		return fail(err)
	}

	return e.Catalog.InsertLogRawProcess(ctx, catalog.LogRawProcess{
		RunID: e.RunID, ProcessID: processID, DatasetID: datasetID, BatchID: batchID,
		SourceFile: sourceFile, Status: catalog.StatusSucceeded,
	})
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
