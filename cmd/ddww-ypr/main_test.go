// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	lib, err := open("mem", "")
	require.NoError(t, err)
	require.IsType(t, &ddmem.Lib{}, lib)

	lib, err = open("h5", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, lib)

	_, err = open("oracle", "")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	data, err := load("", "", "", 5, 3)
	require.NoError(t, err)
	require.Len(t, data.Time, 5)
	require.Equal(t, 3, data.Block())

	dir := t.TempDir()
	write := func(name, content string) string {
		fname := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fname, []byte(content), 0644))
		return fname
	}
	tname := write("time.csv", "0\n1\n")
	aname := write("rp.csv", "1.6\n1.9\n2.2\n")
	sname := write("te.csv", "1,2,3\n4,5,6\n")

	data, err = load(tname, aname, sname, 100, 3)
	require.NoError(t, err)
	require.Equal(t, []float32{0, 1}, data.Time)
	require.Equal(t, [3]int32{3, 0, 0}, data.Sizes)
	require.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, data.Signal)

	_, err = load(tname, "", sname, 100, 3)
	require.Error(t, err)

	_, err = load(tname, aname, filepath.Join(dir, "missing.csv"), 100, 3)
	require.Error(t, err)

	short := write("short.csv", "0\n")
	_, err = load(short, aname, sname, 100, 3)
	require.Error(t, err)

	data, err = load(tname, aname, sname, 0, 3)
	require.NoError(t, err, "synthetic shape unused with input files")
	require.Len(t, data.Time, 2)

	require.NotPanics(t, func() {
		_, err = load(tname, aname, sname, 100, 0)
	})
	require.Error(t, err)

	for _, shape := range [][2]int{{0, 16}, {4, 0}} {
		require.NotPanics(t, func() {
			_, err = load("", "", "", shape[0], shape[1])
		})
		require.Error(t, err, "shape %v", shape)
	}
}

func TestCheckFlags(t *testing.T) {
	require.NoError(t, checkFlags(map[string]int{"shot": 5010, "k2": 223}))
	require.Error(t, checkFlags(map[string]int{"shot": 4294972306}))
	require.Error(t, checkFlags(map[string]int{"k1": 0}))
	require.Error(t, checkFlags(map[string]int{"cross": -1}))
}

func TestOutputs(t *testing.T) {
	cfg := ddww.DefaultConfig()
	cfg.Log = nil
	cfg.K2 = 4
	data := ddww.Synthetic(8, 4)

	rb, err := ddww.Run(ddmem.New(), cfg, data)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, dump(filepath.Join(dir, "out.csv"), rb))
	require.NoError(t, plot(filepath.Join(dir, "out.png"), rb, data))

	raw, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "# exp=AUGD"))

	fi, err := os.Stat(filepath.Join(dir, "out.png"))
	require.NoError(t, err)
	require.NotZero(t, fi.Size())
}
