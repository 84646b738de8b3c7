// Copyright 2024 Risk UQ

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uncertainty

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/riskuq/riskuq/frame"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
)

// Canonical role names of the impact computation.
const (
	RoleExposure      = "exposure"
	RoleVulnerability = "vulnerability"
	RoleHazard        = "hazard"
)

// Metric table names.
const (
	MetricAggregate    = "aggregate"
	MetricReturnPeriod = "return_period"
	MetricPerLocation  = "per_location"
	MetricPerEvent     = "per_event"
)

// DefaultReturnPeriods used when MetricsRequest.ReturnPeriods is empty.
var DefaultReturnPeriods = []float64{5, 10, 20, 50, 100, 250}

// ImpactResult is the outcome of one impact computation. The per-location and
// per-event metrics are optional: implementations that do not track them
// return ok=false.
type ImpactResult interface {
	// Aggregate annual impact metric.
	Aggregate() float64
	// ReturnPeriodCurve evaluates the impact exceeded at each of the given
	// return periods.
	ReturnPeriodCurve(rp []float64) ([]float64, error)
	// PerLocation impact metric vector, if available.
	PerLocation() ([]float64, bool)
	// PerEvent impact metric vector, if available.
	PerEvent() ([]float64, bool)
}

// ImpactComputer is the externally supplied impact computation. It must be
// deterministic and safe for concurrent use: the pipeline may invoke it from
// parallel workers.
type ImpactComputer interface {
	Compute(exposure, vulnerability, hazard interface{}) (ImpactResult, error)
}

// NewImpactSpace creates a ParameterSpace with the three canonical roles of
// the impact computation.
func NewImpactSpace(exposure, vulnerability, hazard RoleInput) (*ParameterSpace, error) {
	return NewParameterSpace([]Role{
		{Name: RoleExposure, Input: exposure},
		{Name: RoleVulnerability, Input: vulnerability},
		{Name: RoleHazard, Input: hazard},
	})
}

// MetricsRequest selects the metrics to extract from each impact result.
type MetricsRequest struct {
	ReturnPeriods []float64 // default: DefaultReturnPeriods
	PerLocation   bool      // extract the per-location metric vector
	PerEvent      bool      // extract the per-event metric vector
}

// EvalOptions configure the evaluation pipeline.
type EvalOptions struct {
	// Workers is the number of parallel workers; <= 1 evaluates sequentially,
	// with identical results.
	Workers int
	// ChunkSize is the maximum number of rows dispatched as one parallel task;
	// 0 derives it from the sample size and worker count. Either way it is
	// capped at 100 rows to avoid pathological imbalance.
	ChunkSize int
	// ContinueOnError records failed rows instead of failing fast. Failed rows
	// are NaN-filled in every metric table, preserving row alignment, and
	// reported by MetricSet.FailedRows.
	ContinueOnError bool
}

const maxChunkRows = 100

// MetricSet holds the metric tables extracted from one evaluation sweep, each
// aligned row-for-row with the sample. Unrequested optional metrics are
// absent: Table returns ok=false for them, never an empty table.
type MetricSet struct {
	sample *SampleSet
	names  []string
	tables map[string]*frame.Frame
	failed []int
}

// Sample that produced the metrics.
func (m *MetricSet) Sample() *SampleSet { return m.sample }

// Names of the computed metric tables, in a fixed order.
func (m *MetricSet) Names() []string { return m.names }

// Table returns the named metric table, or ok=false if it was not computed.
func (m *MetricSet) Table(name string) (*frame.Frame, bool) {
	t, ok := m.tables[name]
	return t, ok
}

// Computed reports whether the named metric was computed.
func (m *MetricSet) Computed(name string) bool {
	_, ok := m.tables[name]
	return ok
}

// FailedRows returns the sorted indices of rows that failed to evaluate.
// Always empty unless EvalOptions.ContinueOnError was set.
func (m *MetricSet) FailedRows() []int { return m.failed }

// rowResult is the fixed-shape outcome of evaluating one sample row. It
// carries its own row index so that results can be joined back in sample
// order regardless of worker completion order.
type rowResult struct {
	row       int
	aggregate float64
	rpCurve   []float64
	perLoc    []float64
	perEvent  []float64
	err       error
}

type evaluator struct {
	sample   *SampleSet
	computer ImpactComputer
	req      MetricsRequest
	colIdx   map[string]int
}

// rowParams returns all parameter values of row i, keyed by label.
func (e *evaluator) rowParams(i int) Params {
	row := e.sample.Frame().Row(i)
	params := make(Params, len(row))
	for label, j := range e.colIdx {
		params[label] = row[j]
	}
	return params
}

// roleParams slices row i's values down to the role variable's parameters.
func (e *evaluator) roleParams(v *Variable, i int) Params {
	row := e.sample.Frame().Row(i)
	params := make(Params, len(v.ParamNames()))
	for _, name := range v.ParamNames() {
		params[name] = row[e.colIdx[name]]
	}
	return params
}

func (e *evaluator) evalRole(role string, i int) (interface{}, error) {
	v := e.sample.Space().Variable(role)
	obj, err := v.Evaluate(e.roleParams(v, i))
	if err != nil {
		return nil, errors.Annotate(err, "failed to evaluate %s", role)
	}
	return obj, nil
}

// evalRow evaluates sample row i: role generators, then the impact
// computation, then metric extraction.
func (e *evaluator) evalRow(i int) rowResult {
	res := rowResult{row: i}
	fail := func(err error) rowResult {
		res.err = err
		return res
	}
	exposure, err := e.evalRole(RoleExposure, i)
	if err != nil {
		return fail(err)
	}
	vulnerability, err := e.evalRole(RoleVulnerability, i)
	if err != nil {
		return fail(err)
	}
	hazard, err := e.evalRole(RoleHazard, i)
	if err != nil {
		return fail(err)
	}
	impact, err := e.computer.Compute(exposure, vulnerability, hazard)
	if err != nil {
		return fail(errors.Annotate(err, "impact computation failed"))
	}
	res.aggregate = impact.Aggregate()
	res.rpCurve, err = impact.ReturnPeriodCurve(e.req.ReturnPeriods)
	if err != nil {
		return fail(errors.Annotate(err, "failed to compute return-period curve"))
	}
	if len(res.rpCurve) != len(e.req.ReturnPeriods) {
		return fail(errors.Reason("return-period curve size [%d] != requested [%d]",
			len(res.rpCurve), len(e.req.ReturnPeriods)))
	}
	if e.req.PerLocation {
		v, ok := impact.PerLocation()
		if !ok {
			return fail(errors.Reason(
				"per-location metric requested but not available"))
		}
		res.perLoc = v
	}
	if e.req.PerEvent {
		v, ok := impact.PerEvent()
		if !ok {
			return fail(errors.Reason("per-event metric requested but not available"))
		}
		res.perEvent = v
	}
	return res
}

// Evaluate runs the impact computation once per sample row and assembles the
// requested metrics into tables aligned row-for-row with the sample.
//
// By default a failing row fails the whole evaluation with a *RowError
// carrying the row index and its parameter values: silently dropping a row
// would corrupt the row alignment required by sensitivity analysis. Callers
// needing partial results opt in with EvalOptions.ContinueOnError.
func Evaluate(ctx context.Context, sample *SampleSet, computer ImpactComputer, req MetricsRequest, opts EvalOptions) (*MetricSet, error) {
	if sample == nil {
		return nil, ErrMissingSample
	}
	if computer == nil {
		return nil, errors.Reason("impact computer must not be nil")
	}
	for _, role := range []string{RoleExposure, RoleVulnerability, RoleHazard} {
		if sample.Space().Variable(role) == nil {
			return nil, errors.Reason(
				"the sample's parameter space has no %q role; "+
					"construct it with NewImpactSpace", role)
		}
	}
	if len(req.ReturnPeriods) == 0 {
		req.ReturnPeriods = DefaultReturnPeriods
	}
	colIdx := make(map[string]int, len(sample.Frame().Labels()))
	for j, label := range sample.Frame().Labels() {
		colIdx[label] = j
	}
	e := &evaluator{sample: sample, computer: computer, req: req, colIdx: colIdx}

	nRuns := sample.NumRuns()
	results := make([]rowResult, nRuns)
	present := make([]bool, nRuns)

	record := func(r rowResult) {
		results[r.row] = r
		present[r.row] = true
	}

	if opts.Workers <= 1 {
		for i := 0; i < nRuns; i++ {
			r := e.evalRow(i)
			if r.err != nil && !opts.ContinueOnError {
				return nil, &RowError{Row: i, Params: e.rowParams(i), Err: r.err}
			}
			record(r)
		}
	} else {
		chunkSize := opts.ChunkSize
		if chunkSize <= 0 {
			chunkSize = nRuns / opts.Workers
		}
		if chunkSize < 1 {
			chunkSize = 1
		}
		if chunkSize > maxChunkRows {
			chunkSize = maxChunkRows
		}
		var chunks [][2]int
		for start := 0; start < nRuns; start += chunkSize {
			end := start + chunkSize
			if end > nRuns {
				end = nRuns
			}
			chunks = append(chunks, [2]int{start, end})
		}
		f := func(c [2]int) []rowResult {
			rs := make([]rowResult, 0, c[1]-c[0])
			for i := c[0]; i < c[1]; i++ {
				r := e.evalRow(i)
				rs = append(rs, r)
				if r.err != nil && !opts.ContinueOnError {
					break // the remaining rows of the chunk are moot
				}
			}
			return rs
		}
		pm := iterator.ParallelMap(ctx, opts.Workers, iterator.FromSlice(chunks), f)
		defer pm.Close()
		all := iterator.Reduce[[]rowResult, [][]rowResult](
			pm, [][]rowResult{}, func(rs []rowResult, acc [][]rowResult) [][]rowResult {
				return append(acc, rs)
			})
		for _, rs := range all {
			for _, r := range rs {
				record(r)
			}
		}
		if !opts.ContinueOnError {
			for i := 0; i < nRuns; i++ {
				if present[i] && results[i].err != nil {
					return nil, &RowError{
						Row: i, Params: e.rowParams(i), Err: results[i].err}
				}
			}
		}
	}

	return assembleMetrics(ctx, e, results, present, opts)
}

// assembleMetrics joins per-row results into fixed-width metric tables in
// sample row order. Failed rows (ContinueOnError only) are NaN-filled.
func assembleMetrics(ctx context.Context, e *evaluator, results []rowResult, present []bool, opts EvalOptions) (*MetricSet, error) {
	var failed []int
	var first *rowResult
	for i := range results {
		if present[i] && results[i].err == nil {
			if first == nil {
				first = &results[i]
			}
			continue
		}
		failed = append(failed, i)
	}
	if first == nil {
		return nil, errors.Reason("all %d rows failed to evaluate", len(results))
	}
	for _, i := range failed {
		if present[i] && results[i].err != nil {
			logging.Warningf(ctx, "row %d failed: %s", i, results[i].err.Error())
		}
	}
	sort.Ints(failed)

	nLoc := len(first.perLoc)
	nEvent := len(first.perEvent)
	for i := range results {
		if !present[i] || results[i].err != nil {
			continue
		}
		if len(results[i].perLoc) != nLoc {
			return nil, errors.Reason(
				"per-location metric size drift at row %d: [%d] != [%d]",
				i, len(results[i].perLoc), nLoc)
		}
		if len(results[i].perEvent) != nEvent {
			return nil, errors.Reason(
				"per-event metric size drift at row %d: [%d] != [%d]",
				i, len(results[i].perEvent), nEvent)
		}
	}

	nan := func(n int) []float64 {
		vs := make([]float64, n)
		for i := range vs {
			vs[i] = math.NaN()
		}
		return vs
	}

	m := &MetricSet{
		sample: e.sample,
		tables: make(map[string]*frame.Frame),
		failed: failed,
	}
	addTable := func(name string, labels []string, row func(r *rowResult) []float64) error {
		f := frame.NewFrame(labels...)
		for i := range results {
			values := nan(len(labels))
			if present[i] && results[i].err == nil {
				values = row(&results[i])
			}
			if err := f.AddRow(values...); err != nil {
				return errors.Annotate(err, "failed to add %s row %d", name, i)
			}
		}
		m.names = append(m.names, name)
		m.tables[name] = f
		return nil
	}

	if err := addTable(MetricAggregate, []string{"aggregate"},
		func(r *rowResult) []float64 { return []float64{r.aggregate} }); err != nil {
		return nil, err
	}
	rpLabels := make([]string, len(e.req.ReturnPeriods))
	for i, rp := range e.req.ReturnPeriods {
		rpLabels[i] = fmt.Sprintf("rp%g", rp)
	}
	if err := addTable(MetricReturnPeriod, rpLabels,
		func(r *rowResult) []float64 { return r.rpCurve }); err != nil {
		return nil, err
	}
	if e.req.PerLocation {
		labels := make([]string, nLoc)
		for i := range labels {
			labels[i] = fmt.Sprintf("loc%d", i)
		}
		if err := addTable(MetricPerLocation, labels,
			func(r *rowResult) []float64 { return r.perLoc }); err != nil {
			return nil, err
		}
	}
	if e.req.PerEvent {
		labels := make([]string, nEvent)
		for i := range labels {
			labels[i] = fmt.Sprintf("event%d", i)
		}
		if err := addTable(MetricPerEvent, labels,
			func(r *rowResult) []float64 { return r.perEvent }); err != nil {
			return nil, err
		}
	}
	return m, nil
}
