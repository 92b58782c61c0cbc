// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !cgo || !libddww

package libddww

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUnavailable(t *testing.T) {
	lib, err := New()
	require.Nil(t, lib)
	require.Equal(t, ErrUnavailable, err)
}

func TestTrim(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"eV          ", "eV"},
		{"15Oct2026;10:11:12", "15Oct2026;10:11:12"},
		{"keV\x00garbage", "keV"},
		{"            ", ""},
	} {
		require.Equal(t, tc.want, trim([]byte(tc.in)))
	}
}
