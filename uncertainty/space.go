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

	"github.com/riskuq/riskuq/frame"
	"github.com/riskuq/riskuq/gsa"
	"github.com/riskuq/riskuq/stats"
	"github.com/stockparfait/errors"
)

// ParameterSpace merges the parameter distributions of several named role
// variables into one flat, order-stable parameter list. A parameter name
// declared by more than one role is treated as a single shared parameter; it
// is the caller's responsibility to avoid unintended collisions.
type ParameterSpace struct {
	roles  []Role
	vars   map[string]*Variable
	labels []string // deduplicated, order-stable across all roles
	distr  map[string]stats.Distribution
}

// NewParameterSpace creates a ParameterSpace from the given roles. Role names
// must be unique and every input must wrap a Variable.
func NewParameterSpace(roles []Role) (*ParameterSpace, error) {
	if len(roles) == 0 {
		return nil, errors.Reason("at least one role is required")
	}
	s := &ParameterSpace{
		roles: roles,
		vars:  make(map[string]*Variable),
		distr: make(map[string]stats.Distribution),
	}
	for _, role := range roles {
		if role.Name == "" {
			return nil, errors.Reason("role name must not be empty")
		}
		v := role.Input.Variable()
		if v == nil {
			return nil, errors.Reason("role %q has no input; use Fixed or Parametrized",
				role.Name)
		}
		if _, ok := s.vars[role.Name]; ok {
			return nil, errors.Reason("duplicate role name: %q", role.Name)
		}
		s.vars[role.Name] = v
		for _, name := range v.ParamNames() {
			if _, ok := s.distr[name]; ok {
				continue // shared parameter, first declaration wins
			}
			s.distr[name] = v.Distribution(name)
			s.labels = append(s.labels, name)
		}
	}
	return s, nil
}

// Labels returns all parameter names: the deduplicated, order-stable
// concatenation of the constituent variables' parameter names.
func (s *ParameterSpace) Labels() []string { return s.labels }

// Roles returns the roles in construction order.
func (s *ParameterSpace) Roles() []Role { return s.roles }

// Variable returns the normalized Variable of the named role, or nil.
func (s *ParameterSpace) Variable(role string) *Variable { return s.vars[role] }

// Distribution of the named parameter, or nil if not declared by any role.
func (s *ParameterSpace) Distribution(label string) stats.Distribution {
	return s.distr[label]
}

// Problem returns the unit-hypercube problem descriptor of the space: the
// sampling designs operate on [0, 1] per parameter, and the distribution
// quantile functions back-transform into native values.
func (s *ParameterSpace) Problem() gsa.Problem {
	return gsa.UnitProblem(s.labels)
}

// SampleSet is a realized parameter sample: one row per simulated scenario,
// one column per parameter label, values in each parameter's native units.
// Row order is significant and fixed once generated; every downstream metric
// table is aligned row-for-row with the sample.
type SampleSet struct {
	space  *ParameterSpace
	frame  *frame.Frame
	method string
	n      int
	opts   gsa.SampleOptions
}

// Space that generated the sample.
func (s *SampleSet) Space() *ParameterSpace { return s.space }

// Frame of realized parameter values.
func (s *SampleSet) Frame() *frame.Frame { return s.frame }

// Method is the sampling design name used to generate the sample.
func (s *SampleSet) Method() string { return s.method }

// Options used to generate the sample.
func (s *SampleSet) Options() gsa.SampleOptions { return s.opts }

// Size is the requested design size N.
func (s *SampleSet) Size() int { return s.n }

// NumRuns is the effective number of scenarios realized by the design.
func (s *SampleSet) NumRuns() int { return s.frame.NumRows() }

// BuildSample draws a quasi-random design of size n with the named sampling
// method over the unit hypercube, then inverse-transforms every column
// through its parameter's quantile function. Given a fixed method, fixed
// options (including an explicit seed) and fixed n, the resulting sample is
// bit-for-bit reproducible.
func (s *ParameterSpace) BuildSample(ctx context.Context, n int, method string, opts gsa.SampleOptions) (*SampleSet, error) {
	sampler, err := gsa.Sampler(method)
	if err != nil {
		return nil, err
	}
	unit, err := sampler(s.Problem(), n, opts)
	if err != nil {
		return nil, errors.Annotate(err, "failed to sample the unit hypercube")
	}
	f := frame.NewFrame(s.labels...)
	for i := 0; i < unit.NumRows(); i++ {
		row := unit.Row(i)
		values := make([]float64, len(row))
		for j, label := range s.labels {
			values[j] = s.distr[label].Quantile(row[j])
		}
		if err := f.AddRow(values...); err != nil {
			return nil, errors.Annotate(err, "failed to add sample row")
		}
	}
	return &SampleSet{space: s, frame: f, method: method, n: n, opts: opts}, nil
}
