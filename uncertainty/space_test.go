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
	"testing"

	"github.com/riskuq/riskuq/gsa"
	"github.com/riskuq/riskuq/stats"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParameterSpace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	paramVar := func(names ...string) *Variable {
		distr := make(map[string]stats.Distribution)
		for _, n := range names {
			distr[n] = stats.NewUniformDistribution(0.0, 1.0)
		}
		v, err := NewVariable(func(p Params) (interface{}, error) {
			return p, nil
		}, distr)
		So(err, ShouldBeNil)
		return v
	}

	Convey("NewParameterSpace works correctly", t, func() {
		Convey("requires at least one role", func() {
			_, err := NewParameterSpace(nil)
			So(err, ShouldNotBeNil)
		})

		Convey("requires role names", func() {
			_, err := NewParameterSpace([]Role{{Input: Fixed(1.0)}})
			So(err, ShouldNotBeNil)
		})

		Convey("requires role inputs", func() {
			_, err := NewParameterSpace([]Role{{Name: "r"}})
			So(err, ShouldNotBeNil)
		})

		Convey("rejects duplicate role names", func() {
			_, err := NewParameterSpace([]Role{
				{Name: "r", Input: Fixed(1.0)},
				{Name: "r", Input: Fixed(2.0)},
			})
			So(err, ShouldNotBeNil)
		})

		Convey("labels are deduplicated and order-stable", func() {
			s, err := NewParameterSpace([]Role{
				{Name: "first", Input: Parametrized(paramVar("b", "a"))},
				{Name: "second", Input: Parametrized(paramVar("a", "c"))},
				{Name: "third", Input: Fixed(1.0)},
			})
			So(err, ShouldBeNil)
			So(s.Labels(), ShouldResemble, []string{"a", "b", "c"})
			So(s.Distribution("a"), ShouldEqual, s.Variable("first").Distribution("a"))
			So(s.Distribution("nonexistent"), ShouldBeNil)
			So(s.Variable("third").ParamNames(), ShouldBeEmpty)
			So(len(s.Roles()), ShouldEqual, 3)

			p := s.Problem()
			So(p.Names, ShouldResemble, []string{"a", "b", "c"})
			So(p.Bounds, ShouldResemble, [][2]float64{
				{0.0, 1.0}, {0.0, 1.0}, {0.0, 1.0}})
		})
	})

	Convey("BuildSample works correctly", t, func() {
		expVar, err := NewVariable(func(p Params) (interface{}, error) {
			return p["a"], nil
		}, map[string]stats.Distribution{
			"a": stats.NewUniformDistribution(2.0, 4.0)})
		So(err, ShouldBeNil)
		hazVar, err := NewVariable(func(p Params) (interface{}, error) {
			return p["b"], nil
		}, func() map[string]stats.Distribution {
			d, err := stats.NewUniformIntDistribution(0, 5)
			So(err, ShouldBeNil)
			return map[string]stats.Distribution{"b": d}
		}())
		So(err, ShouldBeNil)

		s, err := NewImpactSpace(
			Parametrized(expVar), Fixed(1.0), Parametrized(hazVar))
		So(err, ShouldBeNil)
		So(s.Labels(), ShouldResemble, []string{"a", "b"})

		Convey("unknown sampling method", func() {
			_, err := s.BuildSample(ctx, 4, "bogus", gsa.SampleOptions{})
			So(err, ShouldNotBeNil)
		})

		Convey("sample values are within each parameter's support", func() {
			sample, err := s.BuildSample(ctx, 4, "saltelli", gsa.SampleOptions{Seed: 42})
			So(err, ShouldBeNil)
			So(sample.Method(), ShouldEqual, "saltelli")
			So(sample.Size(), ShouldEqual, 4)
			So(sample.NumRuns(), ShouldEqual, 4*(2+2))
			So(sample.Frame().Labels(), ShouldResemble, []string{"a", "b"})
			So(sample.Space(), ShouldEqual, s)

			for i := 0; i < sample.NumRuns(); i++ {
				row := sample.Frame().Row(i)
				So(row[0], ShouldBeGreaterThanOrEqualTo, 2.0)
				So(row[0], ShouldBeLessThan, 4.0)
				So(row[1], ShouldEqual, float64(int(row[1])))
				So(row[1], ShouldBeGreaterThanOrEqualTo, 0.0)
				So(row[1], ShouldBeLessThan, 5.0)
			}
		})

		Convey("reproducible with an explicit seed", func() {
			s1, err := s.BuildSample(ctx, 8, "latin", gsa.SampleOptions{Seed: 7})
			So(err, ShouldBeNil)
			s2, err := s.BuildSample(ctx, 8, "latin", gsa.SampleOptions{Seed: 7})
			So(err, ShouldBeNil)
			So(s1.Frame(), ShouldResemble, s2.Frame())
		})
	})
}
