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

// Package frame implements a labeled numeric table. Row order is significant
// and fixed once a row is added: all pipeline artifacts (parameter samples,
// metric tables, summaries) are row-aligned Frames.
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
)

// Frame is a numeric table with ordered column labels, an optional label per
// row, and one float64 value per (row, column).
type Frame struct {
	header    []string
	rowLabels []string // non-empty iff rows were added with AddLabeledRow
	rows      [][]float64
}

// NewFrame creates an empty Frame with the given column labels.
func NewFrame(header ...string) *Frame {
	return &Frame{header: header}
}

// Labels returns the column labels in order.
func (f *Frame) Labels() []string { return f.header }

// NumRows in the Frame.
func (f *Frame) NumRows() int { return len(f.rows) }

// NumCols in the Frame.
func (f *Frame) NumCols() int { return len(f.header) }

// AddRow appends a row. The number of values must match the number of column
// labels, and the Frame must not contain labeled rows.
func (f *Frame) AddRow(values ...float64) error {
	if len(values) != len(f.header) {
		return errors.Reason("row size [%d] != number of columns [%d]",
			len(values), len(f.header))
	}
	if len(f.rowLabels) > 0 {
		return errors.Reason("cannot mix labeled and unlabeled rows")
	}
	f.rows = append(f.rows, values)
	return nil
}

// AddLabeledRow appends a row with a row label. All rows of a Frame must then
// be labeled.
func (f *Frame) AddLabeledRow(label string, values ...float64) error {
	if len(values) != len(f.header) {
		return errors.Reason("row size [%d] != number of columns [%d]",
			len(values), len(f.header))
	}
	if len(f.rows) != len(f.rowLabels) {
		return errors.Reason("cannot mix labeled and unlabeled rows")
	}
	f.rowLabels = append(f.rowLabels, label)
	f.rows = append(f.rows, values)
	return nil
}

// Row returns the i'th row. The slice is not copied; the caller must not
// modify it.
func (f *Frame) Row(i int) []float64 { return f.rows[i] }

// RowLabel returns the label of the i'th row, or "" for unlabeled Frames.
func (f *Frame) RowLabel(i int) string {
	if i >= len(f.rowLabels) {
		return ""
	}
	return f.rowLabels[i]
}

// ColumnAt returns a copy of the j'th column in row order.
func (f *Frame) ColumnAt(j int) []float64 {
	col := make([]float64, len(f.rows))
	for i, r := range f.rows {
		col[i] = r[j]
	}
	return col
}

// Column returns a copy of the column with the given label in row order.
func (f *Frame) Column(label string) ([]float64, error) {
	for j, l := range f.header {
		if l == label {
			return f.ColumnAt(j), nil
		}
	}
	return nil, errors.Reason("no such column: %s", label)
}

// Copy deep-copies the Frame.
func (f *Frame) Copy() *Frame {
	cp := &Frame{
		header:    append([]string{}, f.header...),
		rowLabels: append([]string{}, f.rowLabels...),
		rows:      make([][]float64, len(f.rows)),
	}
	for i, r := range f.rows {
		cp.rows[i] = append([]float64{}, r...)
	}
	return cp
}

// Params are parameters for pretty-printing or CSV export of Frame data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

func (f *Frame) labeled() bool { return len(f.rowLabels) > 0 }

func (f *Frame) headerStrings() []string {
	if !f.labeled() {
		return f.header
	}
	return append([]string{""}, f.header...)
}

func (f *Frame) rowStrings(i int, prec int) []string {
	var row []string
	if f.labeled() {
		row = append(row, f.rowLabels[i])
	}
	for _, v := range f.rows[i] {
		row = append(row, strconv.FormatFloat(v, 'g', prec, 64))
	}
	return row
}

// WriteCSV writes the entire Frame to w in CSV format.
func (f *Frame) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(f.header) > 0 {
		if err := cw.Write(f.headerStrings()); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i := range f.rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := cw.Write(f.rowStrings(i, -1)); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the Frame as a text table formatted for ease of reading.
func (f *Frame) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	var widths []int
	update := func(row []string) error {
		if len(row) == 0 {
			return errors.Reason("row size = 0")
		}
		if len(widths) == 0 {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(row), len(widths))
		}
		for i := range widths {
			if widths[i] < len(row[i]) {
				widths[i] = len(row[i])
				if p.MaxColWidth > 0 && widths[i] > p.MaxColWidth {
					widths[i] = p.MaxColWidth
				}
			}
		}
		return nil
	}

	write := func(row []string) error {
		trimmed := make([]string, len(row))
		for i, s := range row {
			trimmed[i] = s
			if len([]rune(s)) > widths[i] {
				r := []rune(s)[:widths[i]-2]
				trimmed[i] = string(r) + ".."
			}
			trimmed[i] = fmt.Sprintf("%[2]*[1]s", trimmed[i], widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(trimmed, " | "))
		return err
	}

	dashes := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('-')
		}
		return string(b)
	}

	dashedRow := func() []string {
		row := make([]string, len(widths))
		for i, w := range widths {
			row[i] = dashes(w)
		}
		return row
	}

	const prec = 6

	if !p.NoHeader && len(f.header) > 0 {
		if err := update(f.headerStrings()); err != nil {
			return errors.Annotate(err, "failed to update header widths")
		}
	}
	for i := range f.rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := update(f.rowStrings(i, prec)); err != nil {
			return errors.Annotate(err, "failed to update row widths")
		}
	}

	if !p.NoHeader && len(f.header) > 0 {
		if err := write(f.headerStrings()); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		if err := write(dashedRow()); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for i := range f.rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := write(f.rowStrings(i, prec)); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
