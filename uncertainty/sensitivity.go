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
	"runtime"

	"github.com/riskuq/riskuq/frame"
	"github.com/riskuq/riskuq/gsa"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
)

// SensitivityResult maps each metric column to its sensitivity indices, as
// returned by the analysis method. It is recomputed fully on each Analyze
// call, never partially merged.
type SensitivityResult struct {
	method  string
	columns []string
	indices map[string]gsa.Indices
}

// Method is the analysis method name that produced the result.
func (r *SensitivityResult) Method() string { return r.method }

// Columns lists the analyzed metric columns in a fixed order.
func (r *SensitivityResult) Columns() []string { return r.columns }

// Indices of the given metric column.
func (r *SensitivityResult) Indices(column string) (gsa.Indices, bool) {
	ind, ok := r.indices[column]
	return ind, ok
}

// Table assembles the named sensitivity index (e.g. "S1" or "ST") across all
// analyzed metric columns into a Frame: one labeled row per metric column,
// one column per parameter (or parameter pair for interaction indices).
func (r *SensitivityResult) Table(index string, paramNames []string) (*frame.Frame, error) {
	labels := paramNames
	if index == "S2" || index == "S2_conf" {
		labels = gsa.PairLabels(paramNames)
	}
	f := frame.NewFrame(labels...)
	for _, col := range r.columns {
		values, ok := r.indices[col][index]
		if !ok {
			return nil, errors.Reason("no index %q for column %q", index, col)
		}
		if err := f.AddLabeledRow(col, values...); err != nil {
			return nil, errors.Annotate(err, "failed to add row for column %q", col)
		}
	}
	return f, nil
}

// Analyze decomposes the variance of every metric column into per-parameter
// sensitivity indices using the named analysis method. It requires both a
// sample and its metric tables; the metrics must have been computed from the
// given sample. Columns are analyzed independently.
//
// Note that a small negative index is a valid result: for "sobol" it
// indicates that the estimator has not converged, and the caller should
// re-run with a larger sample.
func Analyze(ctx context.Context, sample *SampleSet, metrics *MetricSet, method string, opts gsa.AnalyzeOptions) (*SensitivityResult, error) {
	if sample == nil {
		return nil, ErrMissingSample
	}
	if metrics == nil {
		return nil, ErrMissingMetrics
	}
	if metrics.Sample() != sample {
		return nil, errors.Reason(
			"the metrics were not computed from the given sample")
	}
	analyzer, err := gsa.Analyzer(method)
	if err != nil {
		return nil, err
	}
	if !gsa.Pairs(sample.Method(), method) {
		logging.Warningf(ctx,
			"analysis method %q is not the recommended pairing for "+
				"sampling method %q; the indices may not be meaningful",
			method, sample.Method())
	}
	opts.SecondOrder = sample.Options().SecondOrder
	problem := sample.Space().Problem()

	type column struct {
		name string
		y    []float64
	}
	var columns []column
	for _, name := range metrics.Names() {
		t, _ := metrics.Table(name)
		for j, label := range t.Labels() {
			columns = append(columns, column{name: label, y: t.ColumnAt(j)})
		}
	}

	type result struct {
		name    string
		indices gsa.Indices
		err     error
	}
	f := func(c column) result {
		ind, err := analyzer(problem, c.y, opts)
		if err != nil {
			return result{name: c.name, err: errors.Annotate(
				err, "failed to analyze column %q", c.name)}
		}
		return result{name: c.name, indices: ind}
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(columns), f)
	defer pm.Close()
	results := iterator.Reduce[result, map[string]result](
		pm, map[string]result{}, func(r result, acc map[string]result) map[string]result {
			acc[r.name] = r
			return acc
		})

	res := &SensitivityResult{
		method:  method,
		indices: make(map[string]gsa.Indices),
	}
	for _, c := range columns {
		r := results[c.name]
		if r.err != nil {
			return nil, r.err
		}
		res.columns = append(res.columns, c.name)
		res.indices[c.name] = r.indices
	}
	return res, nil
}
