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

// Command riskuq-sens runs an uncertainty and sensitivity analysis of the
// event-loss impact model configured in a TOML file, and prints the metric
// summary and sensitivity index tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/riskuq/riskuq/engine"
	"github.com/riskuq/riskuq/frame"
	"github.com/riskuq/riskuq/gsa"
	"github.com/riskuq/riskuq/stats"
	"github.com/riskuq/riskuq/uncertainty"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/mat"
)

type Flags struct {
	LogLevel logging.Level
	Config   string // config file
	CSV      bool   // dump CSV format; default: text.
	Out      string // output file; default: stdout.
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("riskuq-sens", flag.ExitOnError)
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.Config, "conf", "", "config file (required)")
	fs.BoolVar(&flags.CSV, "csv", false, "print tables in CSV format; default: text")
	fs.StringVar(&flags.Out, "out", "", "output file; default: stdout")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Config == "" {
		return nil, errors.Reason("missing required -conf argument")
	}
	return &flags, err
}

// DistConfig configures one input parameter's distribution.
type DistConfig struct {
	Dist  string  `toml:"dist"` // uniform | normal | triangle | uniformint
	Low   float64 `toml:"low"`
	High  float64 `toml:"high"`
	Mode  float64 `toml:"mode"`  // triangle only
	Mean  float64 `toml:"mean"`  // normal only
	Sigma float64 `toml:"sigma"` // normal only
}

// Distribution instantiates the configured distribution.
func (c DistConfig) Distribution() (stats.Distribution, error) {
	switch c.Dist {
	case "uniform":
		if c.Low >= c.High {
			return nil, errors.Reason("uniform: low=%g must be < high=%g", c.Low, c.High)
		}
		return stats.NewUniformDistribution(c.Low, c.High), nil
	case "normal":
		if c.Sigma <= 0 {
			return nil, errors.Reason("normal: sigma=%g must be > 0", c.Sigma)
		}
		return stats.NewNormalDistribution(c.Mean, c.Sigma), nil
	case "triangle":
		d, err := stats.NewTriangleDistribution(c.Low, c.High, c.Mode)
		if err != nil {
			return nil, errors.Annotate(err, "triangle")
		}
		return d, nil
	case "uniformint":
		d, err := stats.NewUniformIntDistribution(int(c.Low), int(c.High))
		if err != nil {
			return nil, errors.Annotate(err, "uniformint")
		}
		return d, nil
	default:
		return nil, errors.Reason("unsupported distribution: %q", c.Dist)
	}
}

// ExposureConfig is the base exposure: value at each location.
type ExposureConfig struct {
	Values []float64 `toml:"values"`
}

// VulnConfig is the base vulnerability curve.
type VulnConfig struct {
	Intensity []float64 `toml:"intensity"`
	MDR       []float64 `toml:"mdr"`
}

// HazardConfig is the base hazard event set. Intensity rows are events,
// columns are locations.
type HazardConfig struct {
	Frequency []float64   `toml:"frequency"`
	Intensity [][]float64 `toml:"intensity"`
}

// Config is the top-level app configuration.
type Config struct {
	Samples         int       `toml:"samples"`  // base sample size N
	Method          string    `toml:"method"`   // default: "saltelli"
	Analyzer        string    `toml:"analyzer"` // default: "sobol"
	Seed            uint64    `toml:"seed"`     // 0 = current time
	SecondOrder     bool      `toml:"second_order"`
	Workers         int       `toml:"workers"` // <= 1 = sequential
	ContinueOnError bool      `toml:"continue_on_error"`
	ReturnPeriods   []float64 `toml:"return_periods"` // empty = default periods
	PerLocation     bool      `toml:"per_location"`
	PerEvent        bool      `toml:"per_event"`

	Exposure      ExposureConfig        `toml:"exposure"`
	Vulnerability VulnConfig            `toml:"vulnerability"`
	Hazard        HazardConfig          `toml:"hazard"`
	Distributions map[string]DistConfig `toml:"distributions"`
}

func readConfig(fileName string) (*Config, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open %q", fileName)
	}
	defer f.Close()

	config := Config{Method: "saltelli", Analyzer: "sobol"}
	dec := toml.NewDecoder(f)
	if err := dec.Decode(&config); err != nil {
		return nil, errors.Annotate(err, "failed to decode %q", fileName)
	}
	if config.Samples <= 0 {
		return nil, errors.Reason("samples=%d must be positive", config.Samples)
	}
	return &config, nil
}

// Parameter names recognized by each role's generator.
var (
	exposureParams = []string{"exposure_scale"}
	vulnParams     = []string{"vuln_scale", "vuln_shift"}
	hazardParams   = []string{"hazard_events", "hazard_freq_scale", "hazard_intensity_add"}
)

// splitDistributions partitions the configured distributions among the three
// roles, rejecting unrecognized parameter names.
func splitDistributions(configs map[string]DistConfig) (exp, vuln, haz map[string]stats.Distribution, err error) {
	exp = map[string]stats.Distribution{}
	vuln = map[string]stats.Distribution{}
	haz = map[string]stats.Distribution{}
	role := map[string]map[string]stats.Distribution{}
	for _, n := range exposureParams {
		role[n] = exp
	}
	for _, n := range vulnParams {
		role[n] = vuln
	}
	for _, n := range hazardParams {
		role[n] = haz
	}
	for name, dc := range configs {
		m, ok := role[name]
		if !ok {
			return nil, nil, nil, errors.Reason("unrecognized parameter: %q", name)
		}
		d, err := dc.Distribution()
		if err != nil {
			return nil, nil, nil, errors.Annotate(err, "parameter %q", name)
		}
		m[name] = d
	}
	return exp, vuln, haz, nil
}

func (c *Config) exposureInput(distr map[string]stats.Distribution) (uncertainty.RoleInput, error) {
	base := &engine.Exposure{Values: c.Exposure.Values}
	if err := base.Validate(); err != nil {
		return uncertainty.RoleInput{}, errors.Annotate(err, "invalid [exposure]")
	}
	if len(distr) == 0 {
		return uncertainty.Fixed(base), nil
	}
	gen := func(p uncertainty.Params) (interface{}, error) {
		out := &engine.Exposure{Values: append([]float64{}, base.Values...)}
		if s, ok := p["exposure_scale"]; ok {
			for i := range out.Values {
				out.Values[i] *= s
			}
		}
		return out, nil
	}
	v, err := uncertainty.NewVariable(gen, distr)
	if err != nil {
		return uncertainty.RoleInput{}, err
	}
	return uncertainty.Parametrized(v), nil
}

func (c *Config) vulnInput(distr map[string]stats.Distribution) (uncertainty.RoleInput, error) {
	base := &engine.VulnFunc{Intensity: c.Vulnerability.Intensity, MDR: c.Vulnerability.MDR}
	if err := base.Validate(); err != nil {
		return uncertainty.RoleInput{}, errors.Annotate(err, "invalid [vulnerability]")
	}
	if len(distr) == 0 {
		return uncertainty.Fixed(base), nil
	}
	gen := func(p uncertainty.Params) (interface{}, error) {
		out := &engine.VulnFunc{
			Intensity: append([]float64{}, base.Intensity...),
			MDR:       append([]float64{}, base.MDR...),
		}
		if s, ok := p["vuln_scale"]; ok {
			for i := range out.MDR {
				out.MDR[i] *= s
				if out.MDR[i] > 1 {
					out.MDR[i] = 1
				}
				if out.MDR[i] < 0 {
					out.MDR[i] = 0
				}
			}
		}
		if s, ok := p["vuln_shift"]; ok {
			for i := range out.Intensity {
				out.Intensity[i] += s
			}
		}
		return out, nil
	}
	v, err := uncertainty.NewVariable(gen, distr)
	if err != nil {
		return uncertainty.RoleInput{}, err
	}
	return uncertainty.Parametrized(v), nil
}

func (c *Config) hazardInput(distr map[string]stats.Distribution) (uncertainty.RoleInput, error) {
	events := len(c.Hazard.Intensity)
	if events == 0 {
		return uncertainty.RoleInput{}, errors.Reason("invalid [hazard]: no events")
	}
	locations := len(c.Hazard.Intensity[0])
	flat := make([]float64, 0, events*locations)
	for i, row := range c.Hazard.Intensity {
		if len(row) != locations {
			return uncertainty.RoleInput{}, errors.Reason(
				"invalid [hazard]: intensity row %d has %d values, want %d",
				i, len(row), locations)
		}
		flat = append(flat, row...)
	}
	base := &engine.Hazard{
		Frequency: c.Hazard.Frequency,
		Intensity: mat.NewDense(events, locations, flat),
	}
	if err := base.Validate(); err != nil {
		return uncertainty.RoleInput{}, errors.Annotate(err, "invalid [hazard]")
	}
	if len(distr) == 0 {
		return uncertainty.Fixed(base), nil
	}
	gen := func(p uncertainty.Params) (interface{}, error) {
		keep := events
		if k, ok := p["hazard_events"]; ok {
			keep = int(k)
			if keep < 1 || keep > events {
				return nil, errors.Reason(
					"hazard_events=%d out of range [1..%d]", keep, events)
			}
		}
		out := &engine.Hazard{
			Frequency: append([]float64{}, base.Frequency[:keep]...),
			Intensity: mat.DenseCopyOf(base.Intensity.Slice(0, keep, 0, locations)),
		}
		if s, ok := p["hazard_freq_scale"]; ok {
			for i := range out.Frequency {
				out.Frequency[i] *= s
			}
		}
		if s, ok := p["hazard_intensity_add"]; ok {
			out.Intensity.Apply(func(i, j int, v float64) float64 {
				return v + s
			}, out.Intensity)
		}
		return out, nil
	}
	v, err := uncertainty.NewVariable(gen, distr)
	if err != nil {
		return uncertainty.RoleInput{}, err
	}
	return uncertainty.Parametrized(v), nil
}

// Space builds the parameter space of the configured model.
func (c *Config) Space() (*uncertainty.ParameterSpace, error) {
	expDistr, vulnDistr, hazDistr, err := splitDistributions(c.Distributions)
	if err != nil {
		return nil, err
	}
	exposure, err := c.exposureInput(expDistr)
	if err != nil {
		return nil, err
	}
	vulnerability, err := c.vulnInput(vulnDistr)
	if err != nil {
		return nil, err
	}
	hazard, err := c.hazardInput(hazDistr)
	if err != nil {
		return nil, err
	}
	return uncertainty.NewImpactSpace(exposure, vulnerability, hazard)
}

func writeFrame(w io.Writer, f *frame.Frame, title string, csv bool) error {
	if _, err := fmt.Fprintf(w, "%s:\n", title); err != nil {
		return errors.Annotate(err, "failed to write title")
	}
	if csv {
		if err := f.WriteCSV(w, frame.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
	} else {
		if err := f.WriteText(w, frame.Params{}); err != nil {
			return errors.Annotate(err, "failed to print text")
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// sampleSummary tabulates the realized distribution of every sampled
// parameter.
func sampleSummary(sample *uncertainty.SampleSet) (*frame.Frame, error) {
	f := frame.NewFrame("mean", "std", "mad", "min", "max")
	for j, label := range sample.Frame().Labels() {
		s := stats.NewSample(sample.Frame().ColumnAt(j))
		err := f.AddLabeledRow(label, s.Mean(), s.Sigma(), s.MAD(), s.Min(), s.Max())
		if err != nil {
			return nil, errors.Annotate(err, "failed to add row for %q", label)
		}
	}
	return f, nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := readConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to read config '%s'", flags.Config)
	}
	space, err := config.Space()
	if err != nil {
		return errors.Annotate(err, "failed to build the parameter space")
	}
	sample, err := space.BuildSample(ctx, config.Samples, config.Method, gsa.SampleOptions{
		Seed:        config.Seed,
		SecondOrder: config.SecondOrder,
	})
	if err != nil {
		return errors.Annotate(err, "failed to build the sample")
	}
	logging.Infof(ctx, "sampled %d runs over %d parameters with %q",
		sample.NumRuns(), len(space.Labels()), config.Method)
	params, err := sampleSummary(sample)
	if err != nil {
		return errors.Annotate(err, "failed to summarize the sample")
	}
	if err := writeFrame(w, params, "Parameters", flags.CSV); err != nil {
		return err
	}

	metrics, err := uncertainty.Evaluate(ctx, sample, engine.Model{}, uncertainty.MetricsRequest{
		ReturnPeriods: config.ReturnPeriods,
		PerLocation:   config.PerLocation,
		PerEvent:      config.PerEvent,
	}, uncertainty.EvalOptions{
		Workers:         config.Workers,
		ContinueOnError: config.ContinueOnError,
	})
	if err != nil {
		return errors.Annotate(err, "failed to compute metrics")
	}
	if failed := metrics.FailedRows(); len(failed) > 0 {
		logging.Warningf(ctx, "%d of %d runs failed", len(failed), sample.NumRuns())
	}

	summary, err := uncertainty.Summary(metrics)
	if err != nil {
		return errors.Annotate(err, "failed to summarize metrics")
	}
	if err := writeFrame(w, summary, "Metrics", flags.CSV); err != nil {
		return err
	}

	result, err := uncertainty.Analyze(ctx, sample, metrics, config.Analyzer,
		gsa.AnalyzeOptions{Seed: config.Seed})
	if err != nil {
		return errors.Annotate(err, "failed to analyze sensitivities")
	}
	indexNames := []string{"S1", "S1_conf", "ST", "ST_conf"}
	if cols := result.Columns(); len(cols) > 0 {
		if ind, ok := result.Indices(cols[0]); ok {
			if _, ok := ind["S2"]; ok {
				indexNames = append(indexNames, "S2", "S2_conf")
			}
		}
	}
	for _, name := range indexNames {
		tbl, err := result.Table(name, space.Labels())
		if err != nil {
			return errors.Annotate(err, "failed to build the %q table", name)
		}
		if err := writeFrame(w, tbl, name, flags.CSV); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	var w io.Writer = os.Stdout
	if flags.Out != "" {
		f, err := os.Create(flags.Out)
		if err != nil {
			logging.Errorf(ctx, "failed to create output file '%s': %s",
				flags.Out, err.Error())
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := run(ctx, flags, w); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
