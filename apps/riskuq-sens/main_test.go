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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/logging"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_riskuq_sens")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	writeConfig := func(name, contents string) string {
		fileName := filepath.Join(tmpdir, name)
		So(os.WriteFile(fileName, []byte(contents), 0644), ShouldBeNil)
		return fileName
	}

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-conf", "path/to/config", "-log-level", "warning", "-csv",
			"-out", "out.txt"})
		So(err, ShouldBeNil)
		So(flags.Config, ShouldEqual, "path/to/config")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
		So(flags.CSV, ShouldBeTrue)
		So(flags.Out, ShouldEqual, "out.txt")

		_, err = parseFlags([]string{})
		So(err, ShouldNotBeNil)
	})

	Convey("run works", t, func() {
		ctx := context.Background()
		confFile := writeConfig("config.toml", `
samples = 8
method = "saltelli"
analyzer = "sobol"
seed = 42
return_periods = [10.0, 100.0]

[exposure]
values = [100.0, 200.0]

[vulnerability]
intensity = [0.0, 10.0]
mdr = [0.0, 1.0]

[hazard]
frequency = [0.5, 0.1]
intensity = [[0.0, 5.0], [10.0, 10.0]]

[distributions.exposure_scale]
dist = "uniform"
low = 0.9
high = 1.1

[distributions.hazard_freq_scale]
dist = "uniform"
low = 0.5
high = 1.5
`)

		Convey("text output", func() {
			var buf bytes.Buffer
			flags, err := parseFlags([]string{"-conf", confFile})
			So(err, ShouldBeNil)
			So(run(ctx, flags, &buf), ShouldBeNil)
			out := buf.String()
			So(out, ShouldContainSubstring, "Parameters:")
			So(out, ShouldContainSubstring, "Metrics:")
			So(out, ShouldContainSubstring, "aggregate")
			So(out, ShouldContainSubstring, "rp10")
			So(out, ShouldContainSubstring, "S1:")
			So(out, ShouldContainSubstring, "ST_conf:")
			So(out, ShouldContainSubstring, "exposure_scale")
			So(out, ShouldNotContainSubstring, "S2:")
		})

		Convey("CSV output", func() {
			var buf bytes.Buffer
			flags, err := parseFlags([]string{"-conf", confFile, "-csv"})
			So(err, ShouldBeNil)
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, ",exposure_scale,hazard_freq_scale")
		})

		Convey("second-order config prints interaction tables", func() {
			confFile := writeConfig("config2.toml", `
samples = 4
seed = 42
second_order = true
return_periods = [10.0]

[exposure]
values = [100.0]

[vulnerability]
intensity = [0.0, 10.0]
mdr = [0.0, 1.0]

[hazard]
frequency = [0.5]
intensity = [[5.0]]

[distributions.exposure_scale]
dist = "uniform"
low = 0.9
high = 1.1

[distributions.hazard_intensity_add]
dist = "normal"
mean = 0.0
sigma = 1.0
`)
			var buf bytes.Buffer
			flags, err := parseFlags([]string{"-conf", confFile})
			So(err, ShouldBeNil)
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "S2:")
			So(buf.String(), ShouldContainSubstring,
				"exposure_scale:hazard_intensity_add")
		})
	})

	Convey("run surfaces config errors", t, func() {
		ctx := context.Background()

		badConfigs := map[string]string{
			"missing.toml":   "", // file written below only for the others
			"nosamples.toml": "[exposure]\nvalues = [1.0]\n",
			"badparam.toml":  "samples = 4\n\n[distributions.bogus]\ndist = \"uniform\"\nlow = 0.0\nhigh = 1.0\n",
			"baddist.toml":   "samples = 4\n\n[distributions.exposure_scale]\ndist = \"cauchy\"\n",
			"badbase.toml":   "samples = 4\n\n[distributions.exposure_scale]\ndist = \"uniform\"\nlow = 0.0\nhigh = 1.0\n",
			"badintensity.toml": `
samples = 4

[exposure]
values = [1.0, 2.0]

[vulnerability]
intensity = [0.0, 1.0]
mdr = [0.0, 1.0]

[hazard]
frequency = [0.5]
intensity = [[1.0, 2.0], [3.0]]

[distributions.exposure_scale]
dist = "uniform"
low = 0.0
high = 1.0
`,
		}
		for name, contents := range badConfigs {
			flags := &Flags{Config: filepath.Join(tmpdir, name)}
			if name != "missing.toml" {
				flags = &Flags{Config: writeConfig(name, contents)}
			}
			var buf bytes.Buffer
			So(run(ctx, flags, &buf), ShouldNotBeNil)
		}
	})
}
