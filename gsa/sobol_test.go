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
	"testing"

	"github.com/riskuq/riskuq/frame"

	. "github.com/smartystreets/goconvey/convey"
)

// evalDesign applies f to every design row.
func evalDesign(d *frame.Frame, f func(row []float64) float64) []float64 {
	y := make([]float64, d.NumRows())
	for i := range y {
		y[i] = f(d.Row(i))
	}
	return y
}

func TestSobol(t *testing.T) {
	t.Parallel()
	p := UnitProblem([]string{"x", "y"})

	Convey("splitSaltelli rejects mismatched outputs", t, func() {
		_, err := splitSaltelli(p, nil, false)
		So(err, ShouldNotBeNil)
		_, err = splitSaltelli(p, make([]float64, 7), false)
		So(err, ShouldNotBeNil)
		// A first-order output vector analyzed as second-order.
		_, err = splitSaltelli(p, make([]float64, 4*4), true)
		So(err, ShouldNotBeNil)

		l, err := splitSaltelli(p, make([]float64, 3*4), false)
		So(err, ShouldBeNil)
		So(l.n, ShouldEqual, 3)
		So(len(l.ab), ShouldEqual, 2)
		So(l.ba, ShouldBeNil)
	})

	Convey("splitSaltelli recovers the design blocks", t, func() {
		// One base point, P=2: rows A, AB_1, AB_2, B.
		y := []float64{1.0, 2.0, 3.0, 4.0}
		l, err := splitSaltelli(p, y, false)
		So(err, ShouldBeNil)
		So(l.a, ShouldResemble, []float64{1.0})
		So(l.ab[0], ShouldResemble, []float64{2.0})
		So(l.ab[1], ShouldResemble, []float64{3.0})
		So(l.b, ShouldResemble, []float64{4.0})
	})

	Convey("additive model", t, func() {
		// f = x + 2y over the unit square: the analytic first-order indices
		// are 0.2 and 0.8, with no interaction.
		n := 512
		d, err := saltelliSample(p, n, SampleOptions{Seed: 42})
		So(err, ShouldBeNil)
		y := evalDesign(d, func(row []float64) float64 {
			return row[0] + 2.0*row[1]
		})

		Convey("sobol estimates the analytic indices", func() {
			res, err := sobolAnalyze(p, y, AnalyzeOptions{Seed: 42})
			So(err, ShouldBeNil)
			So(res["S1"][0], ShouldAlmostEqual, 0.2, 0.1)
			So(res["S1"][1], ShouldAlmostEqual, 0.8, 0.1)
			So(res["ST"][0], ShouldAlmostEqual, 0.2, 0.1)
			So(res["ST"][1], ShouldAlmostEqual, 0.8, 0.1)
			So(res["S1"][0]+res["S1"][1], ShouldBeLessThan, 1.1)
			So(res["S1_conf"][0], ShouldBeGreaterThan, 0.0)
			So(res["ST_conf"][1], ShouldBeGreaterThan, 0.0)
			So(res, ShouldNotContainKey, "S2")
		})

		Convey("jansen agrees with sobol on the additive model", func() {
			res, err := jansenAnalyze(p, y, AnalyzeOptions{Seed: 42})
			So(err, ShouldBeNil)
			So(res["S1"][0], ShouldAlmostEqual, 0.2, 0.1)
			So(res["S1"][1], ShouldAlmostEqual, 0.8, 0.1)
			So(res["ST"][0], ShouldAlmostEqual, 0.2, 0.1)
			So(res["ST"][1], ShouldAlmostEqual, 0.8, 0.1)
			So(res, ShouldNotContainKey, "S2")
		})

		Convey("analysis is reproducible with the same seed", func() {
			r1, err := sobolAnalyze(p, y, AnalyzeOptions{Seed: 42})
			So(err, ShouldBeNil)
			r2, err := sobolAnalyze(p, y, AnalyzeOptions{Seed: 42})
			So(err, ShouldBeNil)
			So(r1, ShouldResemble, r2)
		})
	})

	Convey("interacting model with second-order indices", t, func() {
		// f = x*y: S1 = 3/7 for both parameters and S2 = 1/7.
		n := 1024
		opts := SampleOptions{Seed: 42, SecondOrder: true}
		d, err := saltelliSample(p, n, opts)
		So(err, ShouldBeNil)
		y := evalDesign(d, func(row []float64) float64 {
			return row[0] * row[1]
		})

		res, err := sobolAnalyze(p, y, AnalyzeOptions{Seed: 42, SecondOrder: true})
		So(err, ShouldBeNil)
		So(res["S1"][0], ShouldAlmostEqual, 3.0/7.0, 0.12)
		So(res["S1"][1], ShouldAlmostEqual, 3.0/7.0, 0.12)
		So(res["ST"][0], ShouldAlmostEqual, 4.0/7.0, 0.12)
		So(res["ST"][1], ShouldAlmostEqual, 4.0/7.0, 0.12)
		So(len(res["S2"]), ShouldEqual, 1)
		So(res["S2"][0], ShouldAlmostEqual, 1.0/7.0, 0.12)
		So(len(res["S2_conf"]), ShouldEqual, 1)
	})
}
