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
	"github.com/riskuq/riskuq/frame"
	"github.com/riskuq/riskuq/stats"
	"github.com/stockparfait/errors"
)

// Summary computes distribution statistics of every metric column across the
// sample: one labeled row per column with its mean, standard deviation, mean
// absolute deviation, minimum and maximum.
func Summary(metrics *MetricSet) (*frame.Frame, error) {
	if metrics == nil {
		return nil, ErrMissingMetrics
	}
	f := frame.NewFrame("mean", "std", "mad", "min", "max")
	for _, name := range metrics.Names() {
		t, _ := metrics.Table(name)
		for j, label := range t.Labels() {
			s := stats.NewSample(t.ColumnAt(j))
			err := f.AddLabeledRow(label, s.Mean(), s.Sigma(), s.MAD(), s.Min(), s.Max())
			if err != nil {
				return nil, errors.Annotate(err, "failed to add summary row for %q", label)
			}
		}
	}
	return f, nil
}
