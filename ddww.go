// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ddww writes and reads level-1 shotfiles through a shotfile
// library (the vendor libddww, or one of the in-repo substitutes).
//
// The library owns the on-disk format, the indexing scheme and the
// calibration. This package only sequences the calls, checks every
// returned code and stops at the first error.
package ddww

import (
	"fmt"

	"github.com/pkg/errors"
)

// Ref is a handle to an open shotfile (the library's diaref).
type Ref int32

// Type is the data type code of a buffer exchanged with the library.
type Type int32

const (
	TypeInt32   Type = 1
	TypeFloat32 Type = 2
	TypeFloat64 Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	}
	return fmt.Sprintf("Type(%d)", int32(t))
}

// Index addresses a block inside a signal group.
// Indices are 1-based; a zero entry is unused.
type Index [3]int32

const (
	// NewEdition requests the creation of a new edition on write.
	NewEdition int32 = -1
	// LatestEdition selects the most recent edition on read.
	LatestEdition int32 = 0
)

// Open modes, dispositions and space policies understood by the library.
const (
	ModeNew = "new"

	DispLock   = "lock"
	DispUnlock = "unlock"

	SpaceMax = "maxspace"
	SpaceMin = "minspace"
)

// OpenInfo describes the shotfile edition selected by an open call.
type OpenInfo struct {
	Ref     Ref
	Edition int32
	Date    string // creation date, as reported by the library
}

// ArrayInfo is the shape information of a signal group.
type ArrayInfo struct {
	Sizes [3]int32 // sizes of the related area base
	Dims  [3]int32 // dimensions of the signal group
	Index int32    // position of the time dimension (1-based)
}

// Calib describes the calibration applied by a calibrated read.
type Calib struct {
	NCal    int32  // number of calibration steps applied
	PhysDim string // physical unit of the calibrated values
}

// Lib is the function surface of a shotfile library.
//
// Methods mirror the foreign routines one to one. Every method returns
// a non-nil error when the library reports a non-zero code; library
// codes are reported as *Error.
type Lib interface {
	// WWOpen opens a shotfile for writing (wwopen).
	WWOpen(exp, diag string, shot int32, mode string, edition int32) (OpenInfo, error)
	// WWTBase writes a time base (wwtbase).
	WWTBase(ref Ref, name string, typ Type, data []float32, stride int32) error
	// WWAInsert inserts an area base for time indices k1..k2 (wwainsert).
	WWAInsert(ref Ref, name string, k1, k2 int32, typ Type, data []float32, sizes [3]int32) error
	// WWInsert writes one indexed block of a signal group (wwinsert).
	WWInsert(ref Ref, name string, typ Type, data []float32, stride int32, ind Index) error
	// WWClose closes a shotfile opened for writing (wwclose).
	WWClose(ref Ref, disp, space string) error

	// DDOpen opens a shotfile for reading (ddopen).
	DDOpen(exp, diag string, shot, edition int32) (OpenInfo, error)
	// DDAInfo returns the shape of a signal group (ddainfo).
	DDAInfo(ref Ref, name string) (ArrayInfo, error)
	// DDAGroup reads the area base of a signal group for time indices
	// k1..k2 into buf and returns the number of values read (ddagroup).
	DDAGroup(ref Ref, name string, k1, k2 int32, typ Type, buf []float32) (int32, error)
	// DDCSGrp reads the calibrated signal group for time indices k1..k2
	// into buf (ddcsgrp).
	DDCSGrp(ref Ref, name string, k1, k2 int32, typ Type, buf []float32) (int32, Calib, error)
	// DDCXSig reads the calibrated cross-signal at ind for time indices
	// k1..k2 into buf (ddcxsig).
	DDCXSig(ref Ref, name string, k1, k2 int32, ind Index, typ Type, buf []float32) (int32, Calib, error)
	// DDClose closes a shotfile opened for reading (ddclose).
	DDClose(ref Ref) error
}

// Severity classifies a library code.
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	if s == SevWarning {
		return "warning"
	}
	return "error"
}

// Error is a non-zero code returned by a library call.
type Error struct {
	Op       string // library routine, e.g. "wwopen"
	Code     int32
	Severity Severity
	Text     string // message from the library's error reporter
}

func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s: %s code %d", e.Op, e.Severity, e.Code)
	}
	return fmt.Sprintf("%s: %s code %d: %s", e.Op, e.Severity, e.Code, e.Text)
}

// IsWarning reports whether err is a library code of warning severity.
func IsWarning(err error) bool {
	e, ok := errors.Cause(err).(*Error)
	return ok && e.Severity == SevWarning
}

// Code returns the library code carried by err, or 0.
func Code(err error) int32 {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Code
	}
	return 0
}
