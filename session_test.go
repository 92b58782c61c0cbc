// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww_test

import (
	"testing"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWriterStickyError(t *testing.T) {
	lib := ddmem.New()
	cfg := testConfig()

	w, err := ddww.Create(lib, cfg.Shotfile, cfg.Mode, cfg.Log)
	require.NoError(t, err)

	err = w.TimeBase("nosuchobject", []float32{1, 2, 3})
	require.Error(t, err)
	require.Equal(t, ddmem.CodeNoObject, ddww.Code(err))

	n := len(lib.Ops())
	err2 := w.Insert("Te", make([]float32, 16), ddww.Index{1, 0, 0})
	require.Equal(t, err, err2)
	require.Equal(t, err, w.Err())
	require.Len(t, lib.Ops(), n, "no library call after the first error")

	require.Equal(t, err, w.Close(cfg.Disp, cfg.Space))
	require.Equal(t, "wwclose", lib.Ops()[len(lib.Ops())-1])

	err = w.Close(cfg.Disp, cfg.Space)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already closed")
}

func TestWriterAreaBaseChecks(t *testing.T) {
	lib := ddmem.New()
	cfg := testConfig()

	for _, tc := range []struct {
		name   string
		k1, k2 int32
		n      int
	}{
		{"range", 2, 1, 16},
		{"zero", 0, 1, 16},
		{"size", 1, 1, 15},
		{"multi", 1, 2, 16},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, err := ddww.Create(lib, cfg.Shotfile, cfg.Mode, cfg.Log)
			require.NoError(t, err)
			defer w.Close(cfg.Disp, cfg.Space)

			n := len(lib.Ops())
			err = w.AreaBase("rp", tc.k1, tc.k2, make([]float32, tc.n), [3]int32{16, 0, 0})
			require.Error(t, err)
			require.Len(t, lib.Ops(), n)
		})
	}
}

func TestReaderDoubleClose(t *testing.T) {
	lib := ddmem.New()
	cfg := testConfig()

	ed, err := ddww.Write(lib, cfg, ddww.Synthetic(2, 4))
	require.NoError(t, err)

	sf := cfg.Shotfile
	sf.Edition = ed.Edition
	r, err := ddww.Open(lib, sf, cfg.Log)
	require.NoError(t, err)
	require.Equal(t, ed.Edition, r.Info().Edition)

	require.NoError(t, r.Close())
	require.Error(t, r.Close())

	_, err = r.ArrayInfo("Te")
	require.Error(t, err)
}

func TestReaderLatestEdition(t *testing.T) {
	lib := ddmem.New()
	cfg := testConfig()

	for i := 0; i < 3; i++ {
		_, err := ddww.Write(lib, cfg, ddww.Synthetic(2, 4))
		require.NoError(t, err)
	}

	sf := cfg.Shotfile
	sf.Edition = ddww.LatestEdition
	r, err := ddww.Open(lib, sf, cfg.Log)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, int32(3), r.Info().Edition)
}

func TestOpenMissing(t *testing.T) {
	lib := ddmem.New()
	cfg := testConfig()

	sf := cfg.Shotfile
	sf.Edition = 4
	_, err := ddww.Open(lib, sf, cfg.Log)
	require.Error(t, err)
	require.Equal(t, ddmem.CodeNoFile, ddww.Code(err))
	require.Equal(t, []string{"ddopen"}, lib.Ops())
}

func TestError(t *testing.T) {
	e := &ddww.Error{Op: "wwopen", Code: 12, Severity: ddww.SevWarning, Text: "diag not found"}
	require.Equal(t, "wwopen: warning code 12: diag not found", e.Error())
	require.True(t, ddww.IsWarning(errors.Wrap(e, "ctx")))
	require.Equal(t, int32(12), ddww.Code(errors.Wrap(e, "ctx")))

	e = &ddww.Error{Op: "ddclose", Code: 3}
	require.Equal(t, "ddclose: error code 3", e.Error())
	require.False(t, ddww.IsWarning(e))

	require.False(t, ddww.IsWarning(errors.New("boom")))
	require.Equal(t, int32(0), ddww.Code(errors.New("boom")))
	require.Equal(t, "float32", ddww.TypeFloat32.String())
	require.Equal(t, "Type(9)", ddww.Type(9).String())
}
