// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/csvutil"
	"gonum.org/v1/gonum/floats"
)

// LoadTimeBase reads a time base from the provided io.Reader.
// LoadTimeBase expects a single column of samples.
func LoadTimeBase(r io.Reader) ([]float32, error) {
	vs, err := loadColumn(r)
	if err != nil {
		return nil, errors.Wrap(err, "ddww: could not load time base")
	}
	return vs, nil
}

// LoadArea reads an area base from the provided io.Reader.
// LoadArea expects a single column of values.
func LoadArea(r io.Reader) ([]float32, error) {
	vs, err := loadColumn(r)
	if err != nil {
		return nil, errors.Wrap(err, "ddww: could not load area base")
	}
	return vs, nil
}

func loadColumn(r io.Reader) ([]float32, error) {
	tbl := &csvutil.Table{
		Reader: csv.NewReader(bufio.NewReader(r)),
	}
	defer tbl.Close()

	rows, err := tbl.ReadRows(0, -1)
	if err != nil {
		return nil, errors.Wrap(err, "could not read rows")
	}
	defer rows.Close()

	var vs []float32
	for rows.Next() {
		var v float64
		err = rows.Scan(&v)
		if err != nil {
			return nil, errors.Wrapf(err, "could not scan row %d", len(vs))
		}
		vs = append(vs, float32(v))
	}

	if err := rows.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "error while processing rows")
	}

	return vs, nil
}

// LoadSignal reads a signal group from the provided io.Reader.
// Each line holds the blk values of one time index.
func LoadSignal(r io.Reader, blk int) ([][]float32, error) {
	if blk <= 0 {
		return nil, errors.Errorf("ddww: invalid signal block size %d", blk)
	}

	tbl := &csvutil.Table{
		Reader: csv.NewReader(bufio.NewReader(r)),
	}
	defer tbl.Close()

	rows, err := tbl.ReadRows(0, -1)
	if err != nil {
		return nil, errors.Wrap(err, "ddww: could not read signal rows")
	}
	defer rows.Close()

	var (
		vs  = make([]float64, blk)
		dst = make([]interface{}, blk)
		out [][]float32
	)
	for i := range vs {
		dst[i] = &vs[i]
	}
	for rows.Next() {
		err = rows.Scan(dst...)
		if err != nil {
			return nil, errors.Wrapf(err, "ddww: could not scan signal row %d", len(out))
		}
		row := make([]float32, blk)
		for i, v := range vs {
			row[i] = float32(v)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "ddww: error while processing signal rows")
	}

	return out, nil
}

// Synthetic returns a data set of n time indices with blocks of blk
// values: a linear time base over [0, 1) s, blk radial positions over
// [1.6, 2.2] m and a decaying electron temperature profile.
//
// Synthetic returns an empty Data, which fails Validate, unless n and
// blk are positive.
func Synthetic(n, blk int) Data {
	if n < 1 || blk < 1 {
		return Data{}
	}
	ts := floats.Span(make([]float64, n+1), 0, 1)[:n]
	rs := []float64{1.6}
	if blk > 1 {
		rs = floats.Span(make([]float64, blk), 1.6, 2.2)
	}

	data := Data{
		Time:   make([]float32, n),
		Area:   make([]float32, blk),
		Sizes:  [3]int32{int32(blk), 0, 0},
		Signal: make([][]float32, n),
	}
	for i, r := range rs {
		data.Area[i] = float32(r)
	}
	for k, t := range ts {
		data.Time[k] = float32(t)
		row := make([]float32, blk)
		for i, r := range rs {
			x := (r - rs[0]) / 0.6
			row[i] = float32(2000 * (1 - x*x) * (1 + 0.2*math.Sin(2*math.Pi*5*t)))
		}
		data.Signal[k] = row
	}
	return data
}
