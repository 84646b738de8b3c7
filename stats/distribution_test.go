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

package stats

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDistribution(t *testing.T) {
	seed := uint64(42)

	Convey("Uniform distribution", t, func() {
		d := NewUniformDistribution(2.0, 4.0)
		d.Seed(seed)

		Convey("Quantile maps the unit interval onto the support", func() {
			So(d.Quantile(0.0), ShouldEqual, 2.0)
			So(d.Quantile(0.5), ShouldEqual, 3.0)
			So(d.Quantile(1.0), ShouldEqual, 4.0)
		})

		Convey("Moments", func() {
			So(d.Mean(), ShouldEqual, 3.0)
			So(d.Variance(), ShouldAlmostEqual, 1.0/3.0, 1e-12)
		})

		Convey("Rand stays within the support", func() {
			for i := 0; i < 100; i++ {
				x := d.Rand()
				So(x, ShouldBeGreaterThanOrEqualTo, 2.0)
				So(x, ShouldBeLessThan, 4.0)
			}
		})

		Convey("Copy preserves the shape", func() {
			cp := d.Copy()
			So(cp.Mean(), ShouldEqual, d.Mean())
			So(cp.Quantile(0.25), ShouldEqual, d.Quantile(0.25))
		})
	})

	Convey("Normal distribution", t, func() {
		d := NewNormalDistribution(1.0, 2.0)
		d.Seed(seed)

		So(d.Quantile(0.5), ShouldEqual, 1.0)
		So(d.Mean(), ShouldEqual, 1.0)
		So(d.Variance(), ShouldEqual, 4.0)
		So(d.CDF(1.0), ShouldEqual, 0.5)
		So(d.Copy().Mean(), ShouldEqual, 1.0)
	})

	Convey("Triangle distribution", t, func() {
		Convey("rejects an invalid shape", func() {
			_, err := NewTriangleDistribution(1.0, 0.0, 0.5)
			So(err, ShouldNotBeNil)
			_, err = NewTriangleDistribution(0.0, 1.0, 2.0)
			So(err, ShouldNotBeNil)
			_, err = NewTriangleDistribution(1.0, 1.0, 1.0)
			So(err, ShouldNotBeNil)
		})

		Convey("quantiles of a symmetric shape", func() {
			d, err := NewTriangleDistribution(0.0, 2.0, 1.0)
			So(err, ShouldBeNil)
			d.Seed(seed)
			So(d.Quantile(0.5), ShouldEqual, 1.0)
			So(d.Quantile(0.0), ShouldEqual, 0.0)
			So(d.Quantile(1.0), ShouldEqual, 2.0)
			So(d.Mean(), ShouldEqual, 1.0)
		})

		Convey("Copy preserves the shape", func() {
			d, err := NewTriangleDistribution(0.0, 3.0, 2.0)
			So(err, ShouldBeNil)
			cp := d.Copy()
			So(cp.Mean(), ShouldEqual, d.Mean())
			So(cp.Quantile(0.5), ShouldEqual, d.Quantile(0.5))
		})

		Convey("Copy derives its source from the seeded state", func() {
			d, err := NewTriangleDistribution(0.0, 3.0, 2.0)
			So(err, ShouldBeNil)
			d.Seed(seed)
			x := d.Copy().Rand()
			d.Seed(seed)
			So(d.Copy().Rand(), ShouldEqual, x)
		})
	})

	Convey("UniformInt distribution", t, func() {
		Convey("rejects an empty support", func() {
			_, err := NewUniformIntDistribution(5, 5)
			So(err, ShouldNotBeNil)
			_, err = NewUniformIntDistribution(5, 3)
			So(err, ShouldNotBeNil)
		})

		d, err := NewUniformIntDistribution(0, 5)
		So(err, ShouldBeNil)
		d.Seed(seed)

		Convey("Quantile covers exactly [low, high)", func() {
			So(d.Quantile(0.0), ShouldEqual, 0.0)
			So(d.Quantile(0.2), ShouldEqual, 1.0)
			So(d.Quantile(0.9), ShouldEqual, 4.0)
			So(d.Quantile(1.0), ShouldEqual, 4.0) // never yields high
		})

		Convey("Rand yields integers within the support", func() {
			for i := 0; i < 100; i++ {
				x := d.Rand()
				So(x, ShouldEqual, float64(int(x)))
				So(x, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(x, ShouldBeLessThan, 5.0)
			}
		})

		Convey("Prob is the point mass on integers", func() {
			So(d.Prob(2.0), ShouldEqual, 0.2)
			So(d.Prob(2.5), ShouldEqual, 0.0)
			So(d.Prob(5.0), ShouldEqual, 0.0)
			So(d.Prob(-1.0), ShouldEqual, 0.0)
		})

		Convey("CDF", func() {
			So(d.CDF(-0.5), ShouldEqual, 0.0)
			So(d.CDF(0.0), ShouldEqual, 0.2)
			So(d.CDF(2.5), ShouldEqual, 0.6)
			So(d.CDF(4.0), ShouldEqual, 1.0)
			So(d.CDF(100.0), ShouldEqual, 1.0)
		})

		Convey("Moments", func() {
			So(d.Mean(), ShouldEqual, 2.0)
			So(d.Variance(), ShouldEqual, 2.0)
		})

		Convey("Copy preserves the support", func() {
			cp := d.Copy()
			So(cp.Mean(), ShouldEqual, 2.0)
			So(cp.Quantile(0.99), ShouldEqual, 4.0)
		})
	})
}
