package gold

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/catalog"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/engineerr"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/pathresolve"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/sqlexec"
	"github.com/henry-richard7/lakehouse-orchestrator/internal/tablestore"
)

// dependentStaging resolves one dependency's staging table, grounded on
// direct_transformation/join_transformation/custom_transformation each
// re-deriving the dependent dataset's staging_location from its own
// dataset_master row rather than carrying a denormalized copy.
func (e *Engine) dependentStaging(ctx context.Context, processID, dependentDatasetID int) (*tablestore.Table, error) {
	dm, err := e.Catalog.DatasetMaster(ctx, processID, dependentDatasetID)
	if err != nil {
		return nil, err
	}

	loc := pathresolve.Resolve(dm.StagingLocation, e.Env)

	return tablestore.New(e.Objects, loc.Bucket, loc.Key), nil
}

// materializeDirect reads the single dependency's staging snapshot for
// exactly batchID and drops the source batch_id column, grounded on
// direct_transformation.
func (e *Engine) materializeDirect(ctx context.Context, processID int, dep catalog.TransformationDependencyMaster, batchID int64) (*frame.Frame, error) {
	table, err := e.dependentStaging(ctx, processID, dep.DependentDatasetID)
	if err != nil {
		return nil, err
	}

	f, err := table.ReadFiltered(ctx, tablestore.ReadOptions{BatchID: batchID})
	if err != nil {
		return nil, err
	}

	return f.DropColumn(tablestore.BatchIDColumn), nil
}

// materializeUnion reads every dependency's staging latest, applies each
// one's extra_values literal columns, and concatenates them, grounded on
// union_transformation.
func (e *Engine) materializeUnion(ctx context.Context, processID int, deps []catalog.TransformationDependencyMaster) (*frame.Frame, error) {
	frames := make([]*frame.Frame, 0, len(deps))

	for _, dep := range deps {
		table, err := e.dependentStaging(ctx, processID, dep.DependentDatasetID)
		if err != nil {
			return nil, err
		}

		f, err := table.ReadFiltered(ctx, tablestore.ReadOptions{Latest: true})
		if err != nil {
			return nil, err
		}

		if strings.TrimSpace(dep.ExtraValues) != "" {
			f, err = withExtraValues(f, dep.ExtraValues)
			if err != nil {
				return nil, err
			}
		}

		frames = append(frames, f)
	}

	return frame.Concat(frames...), nil
}

// withExtraValues adds union_transformation's extra_values literal columns,
// one "column='value'" pair per comma-separated entry; single quotes around
// the value are stripped.
func withExtraValues(f *frame.Frame, extraValues string) (*frame.Frame, error) {
	out := f

	for _, item := range strings.Split(extraValues, ",") {
		kv := strings.SplitN(item, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed extra_values entry %q", item)
		}

		col := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), "'")
		out = out.WithLiteralColumn(col, val)
	}

	return out, nil
}

// materializeJoin reads every dependency's staging latest (dropping the
// source batch_id column), then sequentially joins the remainder onto the
// first using each dependency's join_how/left_table_columns/
// right_table_columns, grounded on join_transformation.
func (e *Engine) materializeJoin(ctx context.Context, processID int, deps []catalog.TransformationDependencyMaster) (*frame.Frame, error) {
	sources := make([]*frame.Frame, len(deps))

	for i, dep := range deps {
		table, err := e.dependentStaging(ctx, processID, dep.DependentDatasetID)
		if err != nil {
			return nil, err
		}

		f, err := table.ReadFiltered(ctx, tablestore.ReadOptions{Latest: true})
		if err != nil {
			return nil, err
		}

		sources[i] = f.DropColumn(tablestore.BatchIDColumn)
	}

	base := sources[0]

	for i := 1; i < len(deps); i++ {
		leftOn := splitNonEmpty(deps[i].LeftTableColumns)
		rightOn := splitNonEmpty(deps[i].RightTableColumns)

		if len(leftOn) != len(rightOn) {
			return nil, engineerr.New(engineerr.Configuration,
				fmt.Sprintf("join key count mismatch: %v vs %v", leftOn, rightOn), nil)
		}

		joined, err := base.Join(sources[i], strings.ToLower(deps[i].JoinHow), leftOn, rightOn)
		if err != nil {
			return nil, err
		}

		base = joined
	}

	return base, nil
}

// materializeCustom reads every dependency's staging latest into a named
// frame keyed by its staging_table, then runs the last dependency's
// custom_transformation_query against all of them at once, grounded on
// custom_transformation's polars.SQLContext().register/execute pair.
func (e *Engine) materializeCustom(ctx context.Context, processID int, deps []catalog.TransformationDependencyMaster) (*frame.Frame, error) {
	tables := make(map[string]*frame.Frame, len(deps))

	for _, dep := range deps {
		table, err := e.dependentStaging(ctx, processID, dep.DependentDatasetID)
		if err != nil {
			return nil, err
		}

		f, err := table.ReadFiltered(ctx, tablestore.ReadOptions{Latest: true})
		if err != nil {
			return nil, err
		}

		tables[dep.StagingTable] = f.DropColumn(tablestore.BatchIDColumn)
	}

	query := deps[len(deps)-1].CustomTransformationQuery

	return sqlexec.Query(tables, query)
}

// envelope attaches the SCD-2 system columns every transform kind appends
// before publishing: data_date/eff_strt_dt pinned to now's date, an open
// eff_end_dt, sys_del_flg='N', both system timestamps, and a per-row
// sys_checksum over the declared columns in order.
func envelope(f *frame.Frame, declaredCols []string, now time.Time) *frame.Frame {
	dataDate := now.Format("2006-01-02")
	nowTS := now.Format(time.RFC3339)

	cols := append(append([]string{}, f.Columns...),
		"data_date", "eff_strt_dt", "eff_end_dt", "sys_del_flg", "sys_created_ts", "sys_modified_ts", "sys_checksum")

	out := frame.New(cols)
	out.Rows = make([]frame.Row, len(f.Rows))

	for i, r := range f.Rows {
		cp := make(frame.Row, len(cols))
		for k, v := range r {
			cp[k] = v
		}

		cp["data_date"] = dataDate
		cp["eff_strt_dt"] = dataDate
		cp["eff_end_dt"] = tablestore.EffEndOpen
		cp["sys_del_flg"] = "N"
		cp["sys_created_ts"] = nowTS
		cp["sys_modified_ts"] = nowTS
		cp["sys_checksum"] = tablestore.Checksum(r, declaredCols)

		out.Rows[i] = cp
	}

	return out
}
