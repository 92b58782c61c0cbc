// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	cfg := testConfig()
	cfg.K1, cfg.K2 = 2, 4

	rb, err := ddww.Run(ddmem.New(), cfg, ddww.Synthetic(10, 16))
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	err = ddww.Dump(buf, rb)
	require.NoError(t, err)

	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, line)
	}
	require.Contains(t, buf.String(), "# exp=AUGD diag=YPR shot=5010 edition=1")
	require.Contains(t, buf.String(), `physdim="eV"`)
	require.Len(t, rows, 3)
	for i, row := range rows {
		fields := strings.Split(row, "\t")
		require.Len(t, fields, 2+16)
		require.Equal(t, []string{"2", "3", "4"}[i], fields[0])
	}
}

func TestDumpInconsistent(t *testing.T) {
	rb := ddww.Readback{K1: 1, K2: 2, Calibrated: make([]float32, 3)}
	require.Error(t, ddww.Dump(new(bytes.Buffer), rb))
}
