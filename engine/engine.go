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

// Package engine implements a reference event-loss impact model: exposed
// values per location, a vulnerability curve mapping hazard intensity to a
// mean damage ratio, and a set of hazard events with annual frequencies. It
// implements the impact-computation interface of the uncertainty package.
package engine

import (
	"sort"

	"github.com/riskuq/riskuq/uncertainty"
	"github.com/stockparfait/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Exposure holds the exposed value at each location.
type Exposure struct {
	Values []float64
}

// Validate the exposure.
func (e *Exposure) Validate() error {
	if len(e.Values) == 0 {
		return errors.Reason("exposure must have at least one location")
	}
	for i, v := range e.Values {
		if v < 0 {
			return errors.Reason("exposure value [%d]=%g must be >= 0", i, v)
		}
	}
	return nil
}

// VulnFunc is a vulnerability function: a piecewise-linear mean damage ratio
// as a function of hazard intensity. Outside the given intensity range the
// ratio is clamped to the end values.
type VulnFunc struct {
	Intensity []float64 // strictly increasing
	MDR       []float64 // mean damage ratio in [0, 1] at each intensity
}

// Validate the vulnerability function.
func (v *VulnFunc) Validate() error {
	if len(v.Intensity) == 0 {
		return errors.Reason("vulnerability curve must have at least one point")
	}
	if len(v.Intensity) != len(v.MDR) {
		return errors.Reason("len(intensity)=%d != len(mdr)=%d",
			len(v.Intensity), len(v.MDR))
	}
	for i := 1; i < len(v.Intensity); i++ {
		if v.Intensity[i] <= v.Intensity[i-1] {
			return errors.Reason("intensity must be strictly increasing at [%d]", i)
		}
	}
	for i, r := range v.MDR {
		if r < 0 || r > 1 {
			return errors.Reason("mdr[%d]=%g must be within [0, 1]", i, r)
		}
	}
	return nil
}

// RatioAt returns the mean damage ratio at intensity x.
func (v *VulnFunc) RatioAt(x float64) float64 {
	n := len(v.Intensity)
	if x <= v.Intensity[0] {
		return v.MDR[0]
	}
	if x >= v.Intensity[n-1] {
		return v.MDR[n-1]
	}
	i := sort.SearchFloat64s(v.Intensity, x) // Intensity[i-1] < x <= Intensity[i]
	t := (x - v.Intensity[i-1]) / (v.Intensity[i] - v.Intensity[i-1])
	return v.MDR[i-1] + t*(v.MDR[i]-v.MDR[i-1])
}

// Hazard is a set of events with annual frequencies and per-location
// intensities.
type Hazard struct {
	Frequency []float64  // annual frequency of each event, > 0
	Intensity *mat.Dense // events x locations
}

// Validate the hazard set.
func (h *Hazard) Validate() error {
	if h.Intensity == nil {
		return errors.Reason("hazard intensity matrix must not be nil")
	}
	events, _ := h.Intensity.Dims()
	if len(h.Frequency) != events {
		return errors.Reason("len(frequency)=%d != number of events [%d]",
			len(h.Frequency), events)
	}
	for i, f := range h.Frequency {
		if f <= 0 {
			return errors.Reason("frequency[%d]=%g must be > 0", i, f)
		}
	}
	return nil
}

// Impact is the result of one impact computation.
type Impact struct {
	aggregate   float64
	perLocation []float64 // expected annual impact at each location
	perEvent    []float64 // impact of each event
	frequency   []float64 // annual frequency of each event
}

var _ uncertainty.ImpactResult = &Impact{}

// Aggregate is the expected annual impact summed over all locations.
func (im *Impact) Aggregate() float64 { return im.aggregate }

// PerLocation returns the expected annual impact at each location.
func (im *Impact) PerLocation() ([]float64, bool) { return im.perLocation, true }

// PerEvent returns the impact of each event.
func (im *Impact) PerEvent() ([]float64, bool) { return im.perEvent, true }

// ReturnPeriodCurve evaluates the impact exceedance curve at the given return
// periods: the impact magnitude whose annual exceedance frequency is 1/rp,
// linearly interpolated between observed events and clamped at the ends.
func (im *Impact) ReturnPeriodCurve(rp []float64) ([]float64, error) {
	for i, p := range rp {
		if p <= 0 {
			return nil, errors.Reason("return period [%d]=%g must be > 0", i, p)
		}
	}
	// Sort event impacts in descending order and accumulate frequencies to get
	// the exceedance frequency of each impact level.
	type eventPoint struct {
		impact float64
		freq   float64
	}
	points := make([]eventPoint, len(im.perEvent))
	for i := range points {
		points[i] = eventPoint{impact: im.perEvent[i], freq: im.frequency[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].impact > points[j].impact })
	freqs := make([]float64, len(points))
	for i, p := range points {
		freqs[i] = p.freq
	}
	exceed := make([]float64, len(points))
	floats.CumSum(exceed, freqs)

	// Ascending return-period axis with its impact values.
	periods := make([]float64, len(points))
	impacts := make([]float64, len(points))
	for i := range points {
		j := len(points) - 1 - i
		periods[i] = 1.0 / exceed[j]
		impacts[i] = points[j].impact
	}

	curve := make([]float64, len(rp))
	for i, p := range rp {
		curve[i] = interp(p, periods, impacts)
	}
	return curve, nil
}

// interp linearly interpolates y(x) over the points (xs, ys) with xs
// ascending, clamping to the end values outside the range.
func interp(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x) // xs[i-1] < x <= xs[i]
	t := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + t*(ys[i]-ys[i-1])
}

// Model computes impacts of the reference event-loss model. The zero value is
// ready to use and safe for concurrent use.
type Model struct{}

var _ uncertainty.ImpactComputer = Model{}

// Compute the impact of the hazard on the exposure through the vulnerability
// function. The domain objects must be *Exposure, *VulnFunc and *Hazard with
// consistent dimensions.
func (Model) Compute(exposure, vulnerability, hazard interface{}) (uncertainty.ImpactResult, error) {
	exp, ok := exposure.(*Exposure)
	if !ok {
		return nil, errors.Reason("exposure has unexpected type %T", exposure)
	}
	vuln, ok := vulnerability.(*VulnFunc)
	if !ok {
		return nil, errors.Reason("vulnerability has unexpected type %T", vulnerability)
	}
	haz, ok := hazard.(*Hazard)
	if !ok {
		return nil, errors.Reason("hazard has unexpected type %T", hazard)
	}
	if err := exp.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid exposure")
	}
	if err := vuln.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid vulnerability function")
	}
	if err := haz.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid hazard")
	}
	events, locations := haz.Intensity.Dims()
	if len(exp.Values) != locations {
		return nil, errors.Reason(
			"exposure has %d locations, hazard has %d", len(exp.Values), locations)
	}

	// Mean damage ratio per (event, location).
	damage := mat.NewDense(events, locations, nil)
	damage.Apply(func(i, j int, v float64) float64 {
		return vuln.RatioAt(v)
	}, haz.Intensity)

	values := mat.NewVecDense(locations, exp.Values)
	perEvent := mat.NewVecDense(events, nil)
	perEvent.MulVec(damage, values)

	freq := mat.NewVecDense(events, haz.Frequency)
	expectedDamage := mat.NewVecDense(locations, nil)
	expectedDamage.MulVec(damage.T(), freq)
	perLocation := make([]float64, locations)
	for l := 0; l < locations; l++ {
		perLocation[l] = exp.Values[l] * expectedDamage.AtVec(l)
	}

	return &Impact{
		aggregate:   floats.Dot(haz.Frequency, perEvent.RawVector().Data),
		perLocation: perLocation,
		perEvent:    append([]float64{}, perEvent.RawVector().Data...),
		frequency:   append([]float64{}, haz.Frequency...),
	}, nil
}
