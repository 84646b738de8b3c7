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
	"time"

	"github.com/stockparfait/errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution API for uncertain parameters. Quantile is the inverse CDF used
// to map unit-hypercube designs into parameter values; Prob is the p.d.f. (or
// p.m.f. for discrete distributions).
type Distribution interface {
	distuv.Rander
	distuv.Quantiler
	Prob(x float64) float64
	CDF(x float64) float64
	Mean() float64
	Variance() float64
	Copy() Distribution // shallow-copy with a new instance of rand.Source
	// Set random seed. Mostly used in tests.
	Seed(uint64)
}

// Uniform distribution over [Min, Max].
type Uniform struct {
	distuv.Uniform
}

var _ Distribution = &Uniform{}

func (d *Uniform) Copy() Distribution {
	return &Uniform{distuv.Uniform{
		Min: d.Min,
		Max: d.Max,
		Src: rand.NewSource(d.Src.Uint64()),
	}}
}

func (d *Uniform) Seed(seed uint64) {
	d.Uniform.Src = rand.NewSource(seed)
}

// NewUniformDistribution creates a continuous uniform distribution over
// [min, max].
func NewUniformDistribution(min, max float64) *Uniform {
	return &Uniform{distuv.Uniform{
		Min: min,
		Max: max,
		Src: rand.NewSource(uint64(time.Now().UnixNano())),
	}}
}

// Normal distribution.
type Normal struct {
	distuv.Normal
}

var _ Distribution = &Normal{}

func (d *Normal) Mean() float64 {
	return d.Mu
}

func (d *Normal) Copy() Distribution {
	return &Normal{distuv.Normal{
		Mu:    d.Mu,
		Sigma: d.Sigma,
		Src:   rand.NewSource(d.Src.Uint64()),
	}}
}

func (d *Normal) Seed(seed uint64) {
	d.Normal.Src = rand.NewSource(seed)
}

// NewNormalDistribution creates a normal distribution with the given mean and
// standard deviation.
func NewNormalDistribution(mu, sigma float64) *Normal {
	return &Normal{distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
		Src:   rand.NewSource(uint64(time.Now().UnixNano())),
	}}
}

// Triangle distribution over [a, b] with mode c.
type Triangle struct {
	distuv.Triangle
	a, b, c float64
	src     *rand.Rand
}

var _ Distribution = &Triangle{}

func (d *Triangle) Copy() Distribution {
	src := rand.New(rand.NewSource(d.src.Uint64()))
	return &Triangle{
		Triangle: distuv.NewTriangle(d.a, d.b, d.c, src),
		a:        d.a,
		b:        d.b,
		c:        d.c,
		src:      src,
	}
}

func (d *Triangle) Seed(seed uint64) {
	d.src = rand.New(rand.NewSource(seed))
	d.Triangle = distuv.NewTriangle(d.a, d.b, d.c, d.src)
}

// NewTriangleDistribution creates a triangle distribution over [a, b] with
// the mode at c. Requires a <= c <= b and a < b.
func NewTriangleDistribution(a, b, c float64) (*Triangle, error) {
	if !(a <= c && c <= b && a < b) {
		return nil, errors.Reason(
			"triangle requires a <= c <= b and a < b, got a=%g b=%g c=%g", a, b, c)
	}
	src := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	return &Triangle{
		Triangle: distuv.NewTriangle(a, b, c, src),
		a:        a,
		b:        b,
		c:        c,
		src:      src,
	}, nil
}

// UniformInt is a discrete uniform distribution over the integers in
// [low, high). Quantile never yields high, so designs mapped through it stay
// strictly within the support.
type UniformInt struct {
	low, high int
	rand      *rand.Rand
}

var _ Distribution = &UniformInt{}

// NewUniformIntDistribution creates a discrete uniform distribution over
// [low, high). Requires low < high.
func NewUniformIntDistribution(low, high int) (*UniformInt, error) {
	if low >= high {
		return nil, errors.Reason("low=%d must be < high=%d", low, high)
	}
	return &UniformInt{
		low:  low,
		high: high,
		rand: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}, nil
}

func (d *UniformInt) size() int { return d.high - d.low }

func (d *UniformInt) Rand() float64 {
	return float64(d.low + d.rand.Intn(d.size()))
}

func (d *UniformInt) Quantile(p float64) float64 {
	i := int(p * float64(d.size()))
	if i >= d.size() {
		i = d.size() - 1
	}
	if i < 0 {
		i = 0
	}
	return float64(d.low + i)
}

func (d *UniformInt) Prob(x float64) float64 {
	i := int(x)
	if float64(i) != x || i < d.low || i >= d.high {
		return 0.0
	}
	return 1.0 / float64(d.size())
}

func (d *UniformInt) CDF(x float64) float64 {
	if x < float64(d.low) {
		return 0.0
	}
	if x >= float64(d.high-1) {
		return 1.0
	}
	n := int(x) - d.low + 1
	return float64(n) / float64(d.size())
}

func (d *UniformInt) Mean() float64 {
	return float64(d.low+d.high-1) / 2.0
}

func (d *UniformInt) Variance() float64 {
	n := float64(d.size())
	return (n*n - 1.0) / 12.0
}

func (d *UniformInt) Copy() Distribution {
	return &UniformInt{
		low:  d.low,
		high: d.high,
		rand: rand.New(rand.NewSource(d.rand.Uint64())),
	}
}

func (d *UniformInt) Seed(seed uint64) {
	d.rand = rand.New(rand.NewSource(seed))
}
