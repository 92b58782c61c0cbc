// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot plots the written signal group and the cross-signal read back
// from the shotfile on the provided canvas.
func Plot(dc draw.Canvas, rb Readback, data Data) error {
	var err error

	err = topPlot(dc, rb, data)
	if err != nil {
		return err
	}

	err = bottomPlot(dc, rb, data)
	if err != nil {
		return err
	}

	return nil
}

func topPlot(dc draw.Canvas, rb Readback, data Data) error {
	var (
		pt     = dc.Size()
		height = pt.Y
		width  = pt.X
	)

	top := draw.Canvas{
		Canvas: dc,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: 0, Y: 0.6 * height},
			Max: vg.Point{X: width, Y: height},
		},
	}

	p := hplot.New()
	p.Title.Text = fmt.Sprintf("%s:%s:%d (edition=%d)", rb.Exp, rb.Diag, rb.Shot, rb.Edition)
	p.X.Label.Text = "time"
	p.Y.Label.Text = rb.CrossCalib.PhysDim

	col := crossColumn(rb, data)
	if col >= 0 && len(data.Time) > 1 {
		line, err := hplot.NewLine(hplot.ZipXY(toF64(data.Time), written(rb, data, col)))
		if err != nil {
			return errors.Wrap(err, "ddww: could not create written-signal line")
		}
		line.LineStyle.Color = color.RGBA{R: 255, A: 255}
		p.Add(line)
	}

	if n := len(rb.Cross); n > 0 {
		xs := make([]float64, n)
		for i := range xs {
			k := int(rb.K1) - 1 + i
			switch {
			case k < len(data.Time):
				xs[i] = float64(data.Time[k])
			default:
				xs[i] = float64(k)
			}
		}
		pts, err := plotter.NewScatter(hplot.ZipXY(xs, toF64(rb.Cross)))
		if err != nil {
			return errors.Wrap(err, "ddww: could not create cross-signal scatter")
		}
		pts.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
		pts.GlyphStyle.Radius = vg.Points(3)
		p.Add(pts)
	}

	p.Add(hplot.NewGrid())
	p.Draw(top)

	return nil
}

func bottomPlot(dc draw.Canvas, rb Readback, data Data) error {
	var (
		pt     = dc.Size()
		height = pt.Y
		width  = pt.X
	)

	bottom := draw.Canvas{
		Canvas: dc,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: 0, Y: 0},
			Max: vg.Point{X: width, Y: 0.6 * height},
		},
	}

	grid := signalGrid{data}
	c, r := grid.Dims()
	if c < 2 || r < 2 {
		return nil
	}

	p := hplot.New()
	p.X.Label.Text = "time"
	p.Y.Label.Text = "area base"
	pal := palette.Rainbow(255, 0, 1, 1, 1, 1)
	hmap := plotter.NewHeatMap(grid, pal)
	hmap.NaN = color.Black
	p.Add(hmap)
	p.Draw(bottom)

	return nil
}

// crossColumn returns the block column selected by the cross-signal
// index, or -1.
func crossColumn(rb Readback, data Data) int {
	col := int(rb.CrossIndex[0]) - 1
	if col < 0 || col >= data.Block() {
		return -1
	}
	return col
}

// signalGrid presents a signal group as a time × area-base grid.
type signalGrid struct {
	data Data
}

func (g signalGrid) Dims() (c, r int)   { return len(g.data.Signal), g.data.Block() }
func (g signalGrid) Z(c, r int) float64 { return float64(g.data.Signal[c][r]) }
func (g signalGrid) X(c int) float64    { return float64(g.data.Time[c]) }
func (g signalGrid) Y(r int) float64 {
	if len(g.data.Area) == g.data.Block() {
		return float64(g.data.Area[r])
	}
	return float64(r)
}

func toF64(vs []float32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

// written returns, for every time index, the value stored at column
// col of the signal group.
func written(rb Readback, data Data, col int) []float64 {
	out := make([]float64, len(data.Signal))
	for i, row := range data.Signal {
		if rb.Repeat {
			row = data.Signal[0]
		}
		out[i] = float64(row[col])
	}
	return out
}

var (
	_ plotter.GridXYZ = (*signalGrid)(nil)
)
