// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww_test

import (
	"bytes"
	"testing"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func TestPlot(t *testing.T) {
	for _, tc := range []struct {
		name   string
		n, blk int
		k2     int32
	}{
		{"profile", 50, 16, 20},
		{"single-index", 1, 16, 1},
		{"single-channel", 10, 1, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.K2 = tc.k2
			data := ddww.Synthetic(tc.n, tc.blk)

			rb, err := ddww.Run(ddmem.New(), cfg, data)
			require.NoError(t, err)

			c := vgimg.PngCanvas{Canvas: vgimg.New(10*vg.Centimeter, 15*vg.Centimeter)}
			err = ddww.Plot(draw.New(c), rb, data)
			require.NoError(t, err)

			buf := new(bytes.Buffer)
			_, err = c.WriteTo(buf)
			require.NoError(t, err)
			require.NotZero(t, buf.Len())
		})
	}
}
