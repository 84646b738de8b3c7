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

// Package gsa implements sampling designs and variance-decomposition
// analyzers for global sensitivity analysis, selected by name from registries.
// Sampling-design names are expected to be paired with a compatible analyzer
// name (e.g. "saltelli" with "sobol"); Pairs reports compatibility so that
// callers can warn on mismatched pairings.
package gsa

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskuq/riskuq/frame"
	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
)

// Problem describes the parameter space of a design: the number of
// parameters, their names, and per-parameter sampling bounds.
type Problem struct {
	NumVars int
	Names   []string
	Bounds  [][2]float64
}

// UnitProblem creates a Problem over the unit hypercube [0, 1]^len(names).
// Distribution quantile transforms are expected to map the unit interval back
// into native parameter values.
func UnitProblem(names []string) Problem {
	bounds := make([][2]float64, len(names))
	for i := range bounds {
		bounds[i] = [2]float64{0.0, 1.0}
	}
	return Problem{NumVars: len(names), Names: names, Bounds: bounds}
}

func (p Problem) check() error {
	if p.NumVars <= 0 {
		return errors.Reason("num_vars=%d must be positive", p.NumVars)
	}
	if len(p.Names) != p.NumVars {
		return errors.Reason("len(names)=%d != num_vars=%d",
			len(p.Names), p.NumVars)
	}
	if len(p.Bounds) != p.NumVars {
		return errors.Reason("len(bounds)=%d != num_vars=%d",
			len(p.Bounds), p.NumVars)
	}
	for i, b := range p.Bounds {
		if b[0] >= b[1] {
			return errors.Reason("bounds[%d]=[%g, %g] must be a proper interval",
				i, b[0], b[1])
		}
	}
	return nil
}

// SampleOptions configure a sampling design.
type SampleOptions struct {
	Seed        uint64 // 0 = seed from the current time
	SecondOrder bool   // also sample for second-order interaction indices
}

// AnalyzeOptions configure a sensitivity analyzer.
type AnalyzeOptions struct {
	Seed        uint64  // for bootstrap resampling; 0 = current time
	SecondOrder bool    // the design was generated with SecondOrder
	Resamples   int     // bootstrap resamples for confidence intervals; default 100
	ConfLevel   float64 // confidence level; default 0.95
}

// Indices maps a sensitivity index name (such as "S1", "ST", "S1_conf") to
// its per-parameter values. Interaction indices ("S2", "S2_conf") are
// flattened pairs in PairLabels order. Values are reported exactly as
// estimated: a small negative index signals insufficient sample size and is
// never clamped to zero.
type Indices map[string][]float64

// PairLabels returns the labels of flattened parameter pairs, in the order
// used by interaction indices: (0,1), (0,2), ..., (1,2), ...
func PairLabels(names []string) []string {
	var labels []string
	for j := 0; j < len(names); j++ {
		for k := j + 1; k < len(names); k++ {
			labels = append(labels, names[j]+":"+names[k])
		}
	}
	return labels
}

// SamplerFunc generates a design of the given size within the problem bounds.
// The number of rows of the result is a method-specific function of n and the
// number of parameters; see Runs.
type SamplerFunc func(p Problem, n int, opts SampleOptions) (*frame.Frame, error)

// AnalyzerFunc decomposes the variance of the output vector y (in design row
// order) into per-parameter sensitivity indices.
type AnalyzerFunc func(p Problem, y []float64, opts AnalyzeOptions) (Indices, error)

// UnsupportedMethodError indicates that a requested sampling or analysis
// method name is not registered.
type UnsupportedMethodError struct {
	Kind string // "sampling" or "analysis"
	Name string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported %s method: %q", e.Kind, e.Name)
}

type samplerEntry struct {
	fn   SamplerFunc
	runs func(n, numVars int, opts SampleOptions) int
}

var samplers = map[string]samplerEntry{
	"saltelli": {
		fn: saltelliSample,
		runs: func(n, numVars int, opts SampleOptions) int {
			if opts.SecondOrder {
				return n * (2*numVars + 2)
			}
			return n * (numVars + 2)
		},
	},
	"latin": {
		fn:   latinSample,
		runs: func(n, numVars int, opts SampleOptions) int { return n },
	},
	"montecarlo": {
		fn:   montecarloSample,
		runs: func(n, numVars int, opts SampleOptions) int { return n },
	},
}

var analyzers = map[string]AnalyzerFunc{
	"sobol":  sobolAnalyze,
	"jansen": jansenAnalyze,
}

// pairings lists the analyzers compatible with each sampling design.
var pairings = map[string][]string{
	"saltelli": {"sobol", "jansen"},
}

// Sampler returns the sampling design registered under the given name.
func Sampler(name string) (SamplerFunc, error) {
	e, ok := samplers[name]
	if !ok {
		return nil, &UnsupportedMethodError{Kind: "sampling", Name: name}
	}
	return e.fn, nil
}

// Analyzer returns the analysis method registered under the given name.
func Analyzer(name string) (AnalyzerFunc, error) {
	fn, ok := analyzers[name]
	if !ok {
		return nil, &UnsupportedMethodError{Kind: "analysis", Name: name}
	}
	return fn, nil
}

// Runs returns the effective number of design rows generated by the method
// for the requested size n and number of parameters.
func Runs(method string, n, numVars int, opts SampleOptions) (int, error) {
	e, ok := samplers[method]
	if !ok {
		return 0, &UnsupportedMethodError{Kind: "sampling", Name: method}
	}
	return e.runs(n, numVars, opts), nil
}

// Pairs reports whether the analysis method is the recommended pairing for
// the sampling design. Mismatched pairings are permitted but should be
// surfaced to the caller as a warning.
func Pairs(sampleMethod, analyzeMethod string) bool {
	for _, a := range pairings[sampleMethod] {
		if a == analyzeMethod {
			return true
		}
	}
	return false
}

// SamplerNames returns the registered sampling design names, sorted.
func SamplerNames() []string {
	names := make([]string, 0, len(samplers))
	for n := range samplers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AnalyzerNames returns the registered analysis method names, sorted.
func AnalyzerNames() []string {
	names := make([]string, 0, len(analyzers))
	for n := range analyzers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// newRand creates a seeded random generator; seed=0 falls back to the current
// time, matching the distribution constructors in the stats package.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// scale maps a unit-interval value into the bounds of the i'th parameter.
func scale(p Problem, i int, u float64) float64 {
	return p.Bounds[i][0] + u*(p.Bounds[i][1]-p.Bounds[i][0])
}
