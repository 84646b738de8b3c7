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
	"github.com/riskuq/riskuq/frame"
	"github.com/stockparfait/errors"
)

func checkSampleArgs(p Problem, n int) error {
	if err := p.check(); err != nil {
		return errors.Annotate(err, "invalid problem")
	}
	if n <= 0 {
		return errors.Reason("sample size N=%d must be positive", n)
	}
	return nil
}

// saltelliSample generates the cross-sampling design for Sobol' index
// estimation. For each of the n base points it emits the row blocks
// A, AB_1..AB_P, (BA_1..BA_P when SecondOrder,) B, where AB_j is the A row
// with column j taken from B, and vice versa for BA_j. The total number of
// rows is n*(P+2), or n*(2P+2) with SecondOrder.
func saltelliSample(p Problem, n int, opts SampleOptions) (*frame.Frame, error) {
	if err := checkSampleArgs(p, n); err != nil {
		return nil, err
	}
	r := newRand(opts.Seed)
	a := make([][]float64, n)
	b := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, p.NumVars)
		for j := range a[i] {
			a[i][j] = scale(p, j, r.Float64())
		}
	}
	for i := 0; i < n; i++ {
		b[i] = make([]float64, p.NumVars)
		for j := range b[i] {
			b[i][j] = scale(p, j, r.Float64())
		}
	}

	cross := func(base, other []float64, j int) []float64 {
		row := append([]float64{}, base...)
		row[j] = other[j]
		return row
	}

	f := frame.NewFrame(p.Names...)
	for i := 0; i < n; i++ {
		if err := f.AddRow(a[i]...); err != nil {
			return nil, errors.Annotate(err, "failed to add A row")
		}
		for j := 0; j < p.NumVars; j++ {
			if err := f.AddRow(cross(a[i], b[i], j)...); err != nil {
				return nil, errors.Annotate(err, "failed to add AB row")
			}
		}
		if opts.SecondOrder {
			for j := 0; j < p.NumVars; j++ {
				if err := f.AddRow(cross(b[i], a[i], j)...); err != nil {
					return nil, errors.Annotate(err, "failed to add BA row")
				}
			}
		}
		if err := f.AddRow(b[i]...); err != nil {
			return nil, errors.Annotate(err, "failed to add B row")
		}
	}
	return f, nil
}

// latinSample generates a Latin hypercube design of exactly n rows: each
// column is stratified into n equal intervals, each containing exactly one
// point.
func latinSample(p Problem, n int, opts SampleOptions) (*frame.Frame, error) {
	if err := checkSampleArgs(p, n); err != nil {
		return nil, err
	}
	r := newRand(opts.Seed)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, p.NumVars)
	}
	for j := 0; j < p.NumVars; j++ {
		perm := r.Perm(n)
		for i := 0; i < n; i++ {
			u := (float64(perm[i]) + r.Float64()) / float64(n)
			rows[i][j] = scale(p, j, u)
		}
	}
	f := frame.NewFrame(p.Names...)
	for _, row := range rows {
		if err := f.AddRow(row...); err != nil {
			return nil, errors.Annotate(err, "failed to add row")
		}
	}
	return f, nil
}

// montecarloSample generates n independent uniform rows.
func montecarloSample(p Problem, n int, opts SampleOptions) (*frame.Frame, error) {
	if err := checkSampleArgs(p, n); err != nil {
		return nil, err
	}
	r := newRand(opts.Seed)
	f := frame.NewFrame(p.Names...)
	for i := 0; i < n; i++ {
		row := make([]float64, p.NumVars)
		for j := range row {
			row[j] = scale(p, j, r.Float64())
		}
		if err := f.AddRow(row...); err != nil {
			return nil, errors.Annotate(err, "failed to add row")
		}
	}
	return f, nil
}
