// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww

import (
	"log"

	"github.com/pkg/errors"
)

// Config describes a level-1 write/read round trip.
type Config struct {
	Shotfile

	TimeBase string // name of the time base object
	AreaBase string // name of the area base object
	Signal   string // name of the signal group

	Mode  string // open mode for writing
	Disp  string // disposition on close
	Space string // space policy on close

	K1, K2 int32 // time index range of the read back
	Cross  Index // index of the cross-signal

	// Repeat writes the first signal row at every time index instead
	// of row k at index k.
	Repeat bool

	Log *log.Logger
}

// DefaultConfig returns the YPR configuration for shot 5010.
func DefaultConfig() Config {
	return Config{
		Shotfile: Shotfile{
			Exp:     "AUGD",
			Diag:    "YPR",
			Shot:    5010,
			Edition: NewEdition,
		},
		TimeBase: "time",
		AreaBase: "rp",
		Signal:   "Te",
		Mode:     ModeNew,
		Disp:     DispLock,
		Space:    SpaceMax,
		K1:       1,
		K2:       1,
		Cross:    Index{1, 0, 0},
	}
}

// Data holds the buffers written to a level-1 shotfile.
type Data struct {
	Time   []float32   // time base, one sample per time index
	Area   []float32   // area base
	Sizes  [3]int32    // shape of the area base
	Signal [][]float32 // one block per time index
}

// Block returns the number of values of a signal block.
func (d Data) Block() int {
	if len(d.Signal) == 0 {
		return 0
	}
	return len(d.Signal[0])
}

// Validate checks that the buffer sizes agree with each other.
func (d Data) Validate() error {
	if len(d.Time) == 0 {
		return errors.Errorf("ddww: empty time base")
	}
	if len(d.Area) != volume(d.Sizes) {
		return errors.Errorf("ddww: area base has %d values, sizes %v want %d", len(d.Area), d.Sizes, volume(d.Sizes))
	}
	if len(d.Signal) != len(d.Time) {
		return errors.Errorf("ddww: signal has %d rows, time base has %d samples", len(d.Signal), len(d.Time))
	}
	blk := d.Block()
	if blk == 0 {
		return errors.Errorf("ddww: empty signal block")
	}
	for i, row := range d.Signal {
		if len(row) != blk {
			return errors.Errorf("ddww: signal row %d has %d values, want %d", i, len(row), blk)
		}
	}
	return nil
}

// Readback holds what was read back from a level-1 shotfile.
type Readback struct {
	Shotfile
	Date string

	Info  ArrayInfo
	Group []float32 // area base of the signal group over K1..K2

	Calibrated []float32 // calibrated signal group over K1..K2
	Calib      Calib

	Cross      []float32 // calibrated cross-signal over K1..K2
	CrossCalib Calib
	CrossIndex Index

	K1, K2 int32
	Repeat bool // first signal row was written at every time index
}

// Write writes data to a new level-1 shotfile and returns the edition
// created by the library.
//
// Write stops at the first error. The shotfile is closed whenever it
// was opened.
func Write(lib Lib, cfg Config, data Data) (ed OpenInfo, err error) {
	err = cfg.Shotfile.Validate()
	if err != nil {
		return ed, err
	}

	err = data.Validate()
	if err != nil {
		return ed, err
	}

	w, err := Create(lib, cfg.Shotfile, cfg.Mode, cfg.Log)
	if err != nil {
		return ed, err
	}
	defer func() {
		e := w.Close(cfg.Disp, cfg.Space)
		if err == nil {
			err = e
		}
	}()

	ed = w.Info()
	logger(cfg.Log).Printf("writing %s:%s:%d edition=%d", cfg.Exp, cfg.Diag, cfg.Shot, ed.Edition)

	err = w.TimeBase(cfg.TimeBase, data.Time)
	if err != nil {
		return ed, err
	}

	err = w.AreaBase(cfg.AreaBase, 1, 1, data.Area, data.Sizes)
	if err != nil {
		return ed, err
	}

	for k := range data.Time {
		row := data.Signal[k]
		if cfg.Repeat {
			row = data.Signal[0]
		}
		err = w.Insert(cfg.Signal, row, Index{int32(1 + k), 0, 0})
		if err != nil {
			return ed, err
		}
	}

	return ed, nil
}

// Read reads back the signal group of cfg from the given edition.
func Read(lib Lib, cfg Config, edition int32) (rb Readback, err error) {
	sf := cfg.Shotfile
	sf.Edition = edition

	err = sf.Validate()
	if err != nil {
		return rb, err
	}

	r, err := Open(lib, sf, cfg.Log)
	if err != nil {
		return rb, err
	}
	defer func() {
		e := r.Close()
		if err == nil {
			err = e
		}
	}()

	info := r.Info()
	rb.Shotfile = sf
	rb.Edition = info.Edition
	rb.Date = info.Date
	rb.K1 = cfg.K1
	rb.K2 = cfg.K2
	rb.CrossIndex = cfg.Cross
	rb.Repeat = cfg.Repeat

	rb.Info, err = r.ArrayInfo(cfg.Signal)
	if err != nil {
		return rb, err
	}

	nt := int(cfg.K2 - cfg.K1 + 1)
	if cfg.K1 < 1 || nt < 1 {
		return rb, errors.Errorf("ddww: invalid read range [%d, %d]", cfg.K1, cfg.K2)
	}
	if ntime := timeLen(rb.Info); cfg.K2 > ntime {
		return rb, errors.Errorf("ddww: read range [%d, %d] beyond the %d time indices of %q", cfg.K1, cfg.K2, ntime, cfg.Signal)
	}

	rb.Group, err = r.Group(cfg.Signal, cfg.K1, cfg.K2, make([]float32, nt*volume(rb.Info.Sizes)))
	if err != nil {
		return rb, err
	}

	rb.Calibrated, rb.Calib, err = r.CalibratedGroup(cfg.Signal, cfg.K1, cfg.K2, make([]float32, nt*blockOf(rb.Info)))
	if err != nil {
		return rb, err
	}

	rb.Cross, rb.CrossCalib, err = r.CrossSignal(cfg.Signal, cfg.K1, cfg.K2, cfg.Cross, make([]float32, nt))
	if err != nil {
		return rb, err
	}

	return rb, nil
}

// Run writes data to a new edition and reads it back.
func Run(lib Lib, cfg Config, data Data) (Readback, error) {
	ed, err := Write(lib, cfg, data)
	if err != nil {
		return Readback{}, err
	}
	return Read(lib, cfg, ed.Edition)
}

// timeLen returns the number of time indices of a signal group with
// the given shape.
func timeLen(info ArrayInfo) int32 {
	if info.Index < 1 || int(info.Index) > len(info.Dims) {
		return 0
	}
	return info.Dims[info.Index-1]
}

// blockOf returns the number of values per time index of a signal
// group with the given shape.
func blockOf(info ArrayInfo) int {
	n := 1
	for i, v := range info.Dims {
		if int32(i+1) == info.Index || v <= 0 {
			continue
		}
		n *= int(v)
	}
	return n
}
