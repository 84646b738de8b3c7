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

// Package uncertainty implements global uncertainty and sensitivity analysis
// over a deterministic impact computation: parametrized generators of domain
// objects with distributions over their parameters, quasi-random sampling of
// the joint parameter space, parallel evaluation of the impact computation
// over the sample, and variance decomposition of the resulting metrics.
package uncertainty

import (
	"sort"

	"github.com/riskuq/riskuq/stats"
	"github.com/stockparfait/errors"
)

// Params is a concrete assignment of values to named parameters.
type Params map[string]float64

// Generator builds a fully specified domain object (an exposure, a
// vulnerability function set, or a hazard event set) from concrete parameter
// values. Generators must be deterministic, side-effect free, and safe to
// call concurrently: the evaluation pipeline may run them from parallel
// workers.
type Generator func(Params) (interface{}, error)

// Variable wraps a parametrized generator together with the probability
// distributions of its parameters. A Variable with no parameters wraps a
// constant, already-concrete domain object.
//
// Variables are immutable after construction and may be evaluated arbitrarily
// many times, once per sample row.
type Variable struct {
	generator Generator
	distr     map[string]stats.Distribution
	names     []string // keys of distr, sorted for a stable order
}

// NewVariable creates a Variable from a generator and the distributions of
// its parameters, keyed by parameter name.
func NewVariable(gen Generator, distr map[string]stats.Distribution) (*Variable, error) {
	if gen == nil {
		return nil, errors.Reason("generator must not be nil")
	}
	names := make([]string, 0, len(distr))
	for name, d := range distr {
		if d == nil {
			return nil, errors.Reason("distribution for %q must not be nil", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Variable{generator: gen, distr: distr, names: names}, nil
}

// ParamNames returns the variable's parameter names in a stable order.
func (v *Variable) ParamNames() []string { return v.names }

// Distribution of the named parameter, or nil if not declared.
func (v *Variable) Distribution(name string) stats.Distribution {
	return v.distr[name]
}

// Evaluate runs the generator with the given parameter values. The value keys
// must match the declared parameter names exactly; extra or missing keys are
// a contract violation reported as *InvalidParameterSetError.
func (v *Variable) Evaluate(values Params) (interface{}, error) {
	if len(values) != len(v.names) {
		return nil, newInvalidParameterSetError(v.names, values)
	}
	for _, name := range v.names {
		if _, ok := values[name]; !ok {
			return nil, newInvalidParameterSetError(v.names, values)
		}
	}
	obj, err := v.generator(values)
	if err != nil {
		return nil, errors.Annotate(err, "generator failed")
	}
	return obj, nil
}

// RoleInput is a union of a fixed, already-concrete domain object and a
// parametrized Variable. Both normalize to a Variable: the fixed case becomes
// a constant generator with an empty parameter set.
type RoleInput struct {
	v *Variable
}

// Fixed wraps a concrete domain object as a zero-parameter role input.
func Fixed(obj interface{}) RoleInput {
	v, _ := NewVariable(func(Params) (interface{}, error) { return obj, nil }, nil)
	return RoleInput{v: v}
}

// Parametrized wraps an uncertainty Variable as a role input.
func Parametrized(v *Variable) RoleInput {
	return RoleInput{v: v}
}

// Variable returns the normalized Variable, or nil for a zero RoleInput.
func (r RoleInput) Variable() *Variable { return r.v }

// Role is a named slot of the impact computation (exposure, vulnerability,
// hazard) together with its input.
type Role struct {
	Name  string
	Input RoleInput
}
