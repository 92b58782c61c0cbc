// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/csvutil"
)

// Dump writes rb to w as a tab-separated table.
//
// Comment lines carry the shotfile identity and the area base.
// Each following row holds a time index, the cross-signal value at
// that index and the calibrated block.
func Dump(w io.Writer, rb Readback) error {
	hdr := new(strings.Builder)
	fmt.Fprintf(hdr, "# exp=%s diag=%s shot=%d edition=%d date=%q\n", rb.Exp, rb.Diag, rb.Shot, rb.Edition, rb.Date)
	fmt.Fprintf(hdr, "# sizes=%v dims=%v index=%d\n", rb.Info.Sizes, rb.Info.Dims, rb.Info.Index)
	fmt.Fprintf(hdr, "# ncal=%d physdim=%q\n", rb.Calib.NCal, rb.Calib.PhysDim)
	fmt.Fprintf(hdr, "# group=%v\n", rb.Group)
	_, err := io.WriteString(w, hdr.String())
	if err != nil {
		return errors.Wrap(err, "ddww: could not write header")
	}

	tbl := &csvutil.Table{
		Writer: csv.NewWriter(w),
	}
	defer tbl.Close()

	tbl.Writer.Comma = '\t'

	nt := int(rb.K2 - rb.K1 + 1)
	if nt <= 0 || len(rb.Calibrated)%nt != 0 {
		return errors.Errorf("ddww: inconsistent readback (range=[%d, %d], values=%d)", rb.K1, rb.K2, len(rb.Calibrated))
	}
	blk := len(rb.Calibrated) / nt

	for i := 0; i < nt; i++ {
		args := make([]interface{}, 0, 2+blk)
		args = append(args, int(rb.K1)+i)
		switch {
		case i < len(rb.Cross):
			args = append(args, rb.Cross[i])
		default:
			args = append(args, "")
		}
		for _, v := range rb.Calibrated[i*blk : (i+1)*blk] {
			args = append(args, v)
		}
		err = tbl.WriteRow(args...)
		if err != nil {
			return errors.Wrapf(err, "ddww: could not write row %d", i)
		}
	}

	err = tbl.Close()
	if err != nil {
		return errors.Wrap(err, "ddww: could not flush table")
	}
	return nil
}
