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

package gsa

import (
	"github.com/riskuq/riskuq/stats"
	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// saltelliLayout holds the output vector split back into the blocks of the
// saltelli design: a[i] and b[i] are the outputs of the base rows, ab[j][i]
// of the AB_j rows, and ba[j][i] of the BA_j rows (second order only).
type saltelliLayout struct {
	n      int
	a, b   []float64
	ab, ba [][]float64
}

// splitSaltelli recovers the design blocks from the flat output vector. The
// output must come from evaluating a "saltelli" design generated with the
// same SecondOrder setting.
func splitSaltelli(p Problem, y []float64, secondOrder bool) (*saltelliLayout, error) {
	step := p.NumVars + 2
	if secondOrder {
		step = 2*p.NumVars + 2
	}
	if len(y) == 0 || len(y)%step != 0 {
		return nil, errors.Reason(
			"output length %d is not a multiple of %d; "+
				"the outputs must come from a \"saltelli\" design with matching "+
				"second-order setting", len(y), step)
	}
	n := len(y) / step
	l := &saltelliLayout{
		n:  n,
		a:  make([]float64, n),
		b:  make([]float64, n),
		ab: make([][]float64, p.NumVars),
	}
	for j := range l.ab {
		l.ab[j] = make([]float64, n)
	}
	if secondOrder {
		l.ba = make([][]float64, p.NumVars)
		for j := range l.ba {
			l.ba[j] = make([]float64, n)
		}
	}
	for i := 0; i < n; i++ {
		l.a[i] = y[i*step]
		for j := 0; j < p.NumVars; j++ {
			l.ab[j][i] = y[i*step+1+j]
		}
		if secondOrder {
			for j := 0; j < p.NumVars; j++ {
				l.ba[j][i] = y[i*step+1+p.NumVars+j]
			}
		}
		l.b[i] = y[i*step+step-1]
	}
	return l, nil
}

// normalize shifts and scales the layout in place to zero mean and unit
// standard deviation of the full output, which improves the numerical
// conditioning of the estimators. A constant output is left as is.
func (l *saltelliLayout) normalize(y []float64) {
	s := stats.NewSample(y)
	mean, sigma := s.Mean(), s.Sigma()
	if sigma == 0 {
		return
	}
	norm := func(v []float64) {
		for i := range v {
			v[i] = (v[i] - mean) / sigma
		}
	}
	norm(l.a)
	norm(l.b)
	for _, v := range l.ab {
		norm(v)
	}
	for _, v := range l.ba {
		norm(v)
	}
}

// outputVariance is the variance of the combined A and B blocks, restricted
// to the given row indices.
func (l *saltelliLayout) outputVariance(idx []int) float64 {
	data := make([]float64, 0, 2*len(idx))
	for _, i := range idx {
		data = append(data, l.a[i], l.b[i])
	}
	return stats.NewSample(data).Variance()
}

func meanOver(idx []int, f func(i int) float64) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += f(i)
	}
	return sum / float64(len(idx))
}

// firstOrder is the Saltelli (2010) first-order estimator for parameter j.
func (l *saltelliLayout) firstOrder(j int, idx []int) float64 {
	v := l.outputVariance(idx)
	return meanOver(idx, func(i int) float64 {
		return l.b[i] * (l.ab[j][i] - l.a[i])
	}) / v
}

// totalOrder is the Jansen total-order estimator for parameter j.
func (l *saltelliLayout) totalOrder(j int, idx []int) float64 {
	v := l.outputVariance(idx)
	return 0.5 * meanOver(idx, func(i int) float64 {
		d := l.a[i] - l.ab[j][i]
		return d * d
	}) / v
}

// firstOrderJansen is the Jansen (1999) first-order estimator for parameter j.
func (l *saltelliLayout) firstOrderJansen(j int, idx []int) float64 {
	v := l.outputVariance(idx)
	return 1.0 - 0.5*meanOver(idx, func(i int) float64 {
		d := l.b[i] - l.ab[j][i]
		return d * d
	})/v
}

// secondOrder is the closed second-order interaction estimator for the
// parameter pair (j, k); requires the BA blocks.
func (l *saltelliLayout) secondOrder(j, k int, idx []int) float64 {
	v := l.outputVariance(idx)
	vjk := meanOver(idx, func(i int) float64 {
		return l.ba[j][i]*l.ab[k][i] - l.a[i]*l.b[i]
	}) / v
	return vjk - l.firstOrder(j, idx) - l.firstOrder(k, idx)
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// bootstrapConf estimates the confidence interval half-width of an estimator
// by bootstrap resampling of the base rows.
func bootstrapConf(r *rand.Rand, n, resamples int, conf float64, est func(idx []int) float64) float64 {
	z := distuv.UnitNormal.Quantile(0.5 + conf/2.0)
	values := make([]float64, resamples)
	idx := make([]int, n)
	for k := 0; k < resamples; k++ {
		for i := range idx {
			idx[i] = r.Intn(n)
		}
		values[k] = est(idx)
	}
	return z * stat.StdDev(values, nil)
}

func analyzeDefaults(opts AnalyzeOptions) AnalyzeOptions {
	if opts.Resamples <= 0 {
		opts.Resamples = 100
	}
	if opts.ConfLevel == 0 {
		opts.ConfLevel = 0.95
	}
	return opts
}

// sobolAnalyze computes first-order, total-order and (with SecondOrder)
// pairwise interaction Sobol' indices from the outputs of a "saltelli"
// design, with bootstrap confidence intervals. Negative estimates indicate
// that the estimator has not converged for the given sample size and are
// reported unmodified.
func sobolAnalyze(p Problem, y []float64, opts AnalyzeOptions) (Indices, error) {
	if err := p.check(); err != nil {
		return nil, errors.Annotate(err, "invalid problem")
	}
	opts = analyzeDefaults(opts)
	l, err := splitSaltelli(p, y, opts.SecondOrder)
	if err != nil {
		return nil, errors.Annotate(err, "failed to split outputs")
	}
	l.normalize(y)
	r := newRand(opts.Seed)
	idx := allRows(l.n)

	res := Indices{
		"S1":      make([]float64, p.NumVars),
		"S1_conf": make([]float64, p.NumVars),
		"ST":      make([]float64, p.NumVars),
		"ST_conf": make([]float64, p.NumVars),
	}
	for j := 0; j < p.NumVars; j++ {
		j := j
		res["S1"][j] = l.firstOrder(j, idx)
		res["S1_conf"][j] = bootstrapConf(r, l.n, opts.Resamples, opts.ConfLevel,
			func(idx []int) float64 { return l.firstOrder(j, idx) })
		res["ST"][j] = l.totalOrder(j, idx)
		res["ST_conf"][j] = bootstrapConf(r, l.n, opts.Resamples, opts.ConfLevel,
			func(idx []int) float64 { return l.totalOrder(j, idx) })
	}
	if opts.SecondOrder {
		var s2, s2conf []float64
		for j := 0; j < p.NumVars; j++ {
			for k := j + 1; k < p.NumVars; k++ {
				j, k := j, k
				s2 = append(s2, l.secondOrder(j, k, idx))
				s2conf = append(s2conf, bootstrapConf(
					r, l.n, opts.Resamples, opts.ConfLevel,
					func(idx []int) float64 { return l.secondOrder(j, k, idx) }))
			}
		}
		res["S2"] = s2
		res["S2_conf"] = s2conf
	}
	return res, nil
}

// jansenAnalyze computes first-order and total-order indices using the
// Jansen (1999) estimators over the outputs of a "saltelli" design. It does
// not estimate interaction indices; with SecondOrder it only expects the
// wider design layout.
func jansenAnalyze(p Problem, y []float64, opts AnalyzeOptions) (Indices, error) {
	if err := p.check(); err != nil {
		return nil, errors.Annotate(err, "invalid problem")
	}
	opts = analyzeDefaults(opts)
	l, err := splitSaltelli(p, y, opts.SecondOrder)
	if err != nil {
		return nil, errors.Annotate(err, "failed to split outputs")
	}
	l.normalize(y)
	r := newRand(opts.Seed)
	idx := allRows(l.n)

	res := Indices{
		"S1":      make([]float64, p.NumVars),
		"S1_conf": make([]float64, p.NumVars),
		"ST":      make([]float64, p.NumVars),
		"ST_conf": make([]float64, p.NumVars),
	}
	for j := 0; j < p.NumVars; j++ {
		j := j
		res["S1"][j] = l.firstOrderJansen(j, idx)
		res["S1_conf"][j] = bootstrapConf(r, l.n, opts.Resamples, opts.ConfLevel,
			func(idx []int) float64 { return l.firstOrderJansen(j, idx) })
		res["ST"][j] = l.totalOrder(j, idx)
		res["ST_conf"][j] = bootstrapConf(r, l.n, opts.Resamples, opts.ConfLevel,
			func(idx []int) float64 { return l.totalOrder(j, idx) })
	}
	return res, nil
}
