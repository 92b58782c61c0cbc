// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package libddww binds the vendor shotfile library (libddww8).
//
// The binding is only compiled with cgo and the libddww build tag:
//
//	go build -tags libddww ./...
//
// Without it, New returns ErrUnavailable.
package libddww

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by New when the binding was not compiled in.
var ErrUnavailable = errors.New("libddww: binding not compiled in (build with cgo and -tags libddww)")

// Lengths of the fixed-size character buffers of the library.
const (
	dateLen    = 18
	physDimLen = 12
	textLen    = 255
)

// trim converts a blank-padded Fortran string to Go.
func trim(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), " ")
}
