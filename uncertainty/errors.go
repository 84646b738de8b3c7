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
	"fmt"
	"sort"
	"strings"

	"github.com/stockparfait/errors"
)

// ErrMissingSample is returned when an operation requires a parameter sample
// which has not been built yet.
var ErrMissingSample = errors.Reason(
	"no sample found; build one with ParameterSpace.BuildSample first")

// ErrMissingMetrics is returned when sensitivity analysis is requested before
// any metrics have been computed.
var ErrMissingMetrics = errors.Reason(
	"no metrics found; compute them with Evaluate first")

// InvalidParameterSetError indicates that a Variable was evaluated with
// parameter keys not matching its declared distributions.
type InvalidParameterSetError struct {
	Expected []string // the declared parameter names, sorted
	Got      []string // the supplied parameter names, sorted
}

func (e *InvalidParameterSetError) Error() string {
	return fmt.Sprintf("parameter set mismatch: expected [%s], got [%s]",
		strings.Join(e.Expected, ", "), strings.Join(e.Got, ", "))
}

func newInvalidParameterSetError(expected []string, got Params) *InvalidParameterSetError {
	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &InvalidParameterSetError{Expected: expected, Got: keys}
}

// RowError attributes an evaluation failure to a specific sample row. It
// carries the row index and the row's parameter values, enough to reproduce
// the failure.
type RowError struct {
	Row    int
	Params Params
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d failed with parameters %v: %s",
		e.Row, e.Params, e.Err.Error())
}

func (e *RowError) Unwrap() error { return e.Err }
