// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !cgo || !libddww

package libddww

import "github.com/ipp-aug/ddww"

// New returns ErrUnavailable: this build does not link libddww8.
func New() (ddww.Lib, error) {
	return nil, ErrUnavailable
}
