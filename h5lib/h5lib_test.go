// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package h5lib_test

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/ipp-aug/ddww/h5lib"
	"github.com/stretchr/testify/require"
)

var key = ddmem.Key{Exp: "AUGD", Diag: "YPR", Shot: 5010}

func shotfile(ed int32) *ddmem.Shotfile {
	sf := ddmem.NewShotfile(key, ed)
	sf.Date = "15Oct2026;10:11:12"
	sf.ID = "0b5a7e46-3f0e-4c0e-9d55-1f6e0c3a2b11"
	sf.Locked = true
	sf.Space = ddww.SpaceMax
	sf.TimeBases["time"] = []float32{0, 0.5, 1}
	sf.Areas["rp"] = &ddmem.Area{K1: 1, K2: 1, Sizes: [3]int32{2, 0, 0}, Data: []float32{1.6, 2.2}}
	sf.Groups["Te"] = &ddmem.Group{
		Block: 2,
		Blocks: map[int32][]float32{
			1: {10, 20},
			2: {11, 21},
			3: {12, 22},
		},
	}
	return sf
}

func TestSaveLoad(t *testing.T) {
	st := h5lib.New(t.TempDir())

	want := shotfile(1)
	require.NoError(t, st.Save(want))

	_, err := os.Stat(st.Path(key, 1))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(st.Root, "AUGD", "YPR", "5010.1.h5"), st.Path(key, 1))

	got, err := st.Load(key, 1)
	require.NoError(t, err)
	require.Equal(t, want, got)

	err = st.Save(want)
	require.Error(t, err, "editions are never overwritten")

	_, err = st.Load(key, 2)
	require.Error(t, err)
}

func TestEditions(t *testing.T) {
	st := h5lib.New(t.TempDir())

	eds, err := st.Editions(key)
	require.NoError(t, err)
	require.Empty(t, eds)

	for _, ed := range []int32{2, 1, 10} {
		require.NoError(t, st.Save(shotfile(ed)))
	}

	eds, err = st.Editions(key)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 10}, eds)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := ddww.DefaultConfig()
	cfg.Log = log.New(io.Discard, "", 0)
	cfg.K1, cfg.K2 = 2, 5
	cfg.Cross = ddww.Index{4, 0, 0}
	data := ddww.Synthetic(12, 8)

	want, err := ddww.Run(h5lib.Open(dir), cfg, data)
	require.NoError(t, err)
	require.Equal(t, int32(1), want.Edition)

	// a fresh library only sees the files on disk.
	lib := h5lib.Open(dir)
	got, err := ddww.Read(lib, cfg, ddww.LatestEdition)
	require.NoError(t, err)
	require.Equal(t, want, got)

	ed, err := ddww.Write(lib, cfg, data)
	require.NoError(t, err)
	require.Equal(t, int32(2), ed.Edition)

	eds, err := h5lib.New(dir).Editions(key)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2}, eds)
}

func TestInvalidKey(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	st := h5lib.New(root)

	for _, bad := range []ddmem.Key{
		{Exp: "../../outside", Diag: "YPR", Shot: 5010},
		{Exp: "AUGD", Diag: "..", Shot: 5010},
		{Exp: "AUGD", Diag: "a/b", Shot: 5010},
		{Exp: "", Diag: "YPR", Shot: 5010},
	} {
		sf := shotfile(1)
		sf.Key = bad
		require.Error(t, st.Save(sf), "key %v", bad)

		_, err := st.Load(bad, 1)
		require.Error(t, err)

		_, err = st.Editions(bad)
		require.Error(t, err)
	}

	_, err := os.Stat(root)
	require.True(t, os.IsNotExist(err), "nothing written")

	cfg := ddww.DefaultConfig()
	cfg.Log = log.New(io.Discard, "", 0)
	cfg.Exp = "../../outside"
	_, err = ddww.Run(h5lib.Open(root), cfg, ddww.Synthetic(4, 4))
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(root, cfg.Exp))
	require.True(t, os.IsNotExist(err), "nothing written outside the store")
}
