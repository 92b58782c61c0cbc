// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo && libddww

package libddww

/*
#cgo LDFLAGS: -lddww8
#include <stdlib.h>
#include <string.h>
#include <ddwwansic.h>

static int go_wwopen(char *exp, char *diag, int shot, char *mode, int *ed, int *diaref, char *tim) {
	int err = 0;
	wwopen_(&err, exp, diag, &shot, mode, ed, diaref, tim, strlen(exp), strlen(diag), strlen(mode), 18);
	return err;
}

static int go_wwtbase(int diaref, char *name, int typ, int length, float *data, int stride) {
	int err = 0;
	wwtbase_(&err, &diaref, name, &typ, &length, data, &stride, strlen(name));
	return err;
}

static int go_wwainsert(int diaref, char *name, int k1, int k2, int typ, float *data, int *sizes) {
	int err = 0;
	wwainsert_(&err, &diaref, name, &k1, &k2, &typ, data, sizes, strlen(name));
	return err;
}

static int go_wwinsert(int diaref, char *name, int typ, int length, float *data, int stride, int *ind) {
	int err = 0;
	wwinsert_(&err, &diaref, name, &typ, &length, data, &stride, ind, strlen(name));
	return err;
}

static int go_wwclose(int diaref, char *disp, char *space) {
	int err = 0;
	wwclose_(&err, &diaref, disp, space, strlen(disp), strlen(space));
	return err;
}

static int go_ddopen(char *exp, char *diag, int shot, int *ed, int *diaref, char *tim) {
	int err = 0;
	ddopen_(&err, exp, diag, &shot, ed, diaref, tim, strlen(exp), strlen(diag), 18);
	return err;
}

static int go_ddainfo(int diaref, char *name, int *sizes, int *adim, int *index) {
	int err = 0;
	ddainfo_(&err, &diaref, name, sizes, adim, index, strlen(name));
	return err;
}

static int go_ddagroup(int diaref, char *name, int k1, int k2, int typ, int length, float *data, int *rt) {
	int err = 0;
	ddagroup_(&err, &diaref, name, &k1, &k2, &typ, &length, data, rt, strlen(name));
	return err;
}

static int go_ddcsgrp(int diaref, char *name, int k1, int k2, int typ, int length, float *data, int *rt, int *ncal, char *physdim) {
	int err = 0;
	ddcsgrp_(&err, &diaref, name, &k1, &k2, &typ, &length, data, rt, ncal, physdim, strlen(name), 12);
	return err;
}

static int go_ddcxsig(int diaref, char *name, int k1, int k2, int *ind, int typ, int length, float *data, int *rt, int *ncal, char *physdim) {
	int err = 0;
	ddcxsig_(&err, &diaref, name, &k1, &k2, ind, &typ, &length, data, rt, ncal, physdim, strlen(name), 12);
	return err;
}

static int go_ddclose(int diaref) {
	int err = 0;
	ddclose_(&err, &diaref);
	return err;
}

static int go_xxsev(int err) { return xxsev_(&err); }
static int go_xxwarn(int err) { return xxwarn_(&err); }

static void go_xxerrprt(int err, char *text, int ltext) {
	int unit = -1;
	unsigned int ctrl = 3;
	xxerrprt_(&unit, text, &err, &ctrl, "", ltext, 0);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/ipp-aug/ddww"
)

// lib calls into libddww8. The library keeps global state, so calls
// are serialized.
type lib struct {
	mu sync.Mutex
}

// New returns the native shotfile library.
func New() (ddww.Lib, error) {
	return &lib{}, nil
}

// check converts a library code to an error.
func check(op string, code C.int) error {
	if code == 0 {
		return nil
	}
	e := &ddww.Error{Op: op, Code: int32(code), Severity: ddww.SevError}
	switch {
	case C.go_xxsev(code) == 1:
	case C.go_xxwarn(code) == 1:
		e.Severity = ddww.SevWarning
	}
	text := make([]byte, textLen)
	for i := range text {
		text[i] = ' '
	}
	C.go_xxerrprt(code, (*C.char)(unsafe.Pointer(&text[0])), C.int(len(text)))
	e.Text = trim(text)
	return e
}

func cstr(s string) *C.char { return C.CString(s) }

func free(ps ...*C.char) {
	for _, p := range ps {
		C.free(unsafe.Pointer(p))
	}
}

func fptr(vs []float32) *C.float {
	if len(vs) == 0 {
		return nil
	}
	return (*C.float)(unsafe.Pointer(&vs[0]))
}

func cints(vs [3]int32) [3]C.int {
	return [3]C.int{C.int(vs[0]), C.int(vs[1]), C.int(vs[2])}
}

func (l *lib) WWOpen(exp, diag string, shot int32, mode string, edition int32) (ddww.OpenInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		cexp, cdiag, cmode = cstr(exp), cstr(diag), cstr(mode)
		ed                 = C.int(edition)
		ref                C.int
		date               [dateLen + 1]byte
	)
	defer free(cexp, cdiag, cmode)

	code := C.go_wwopen(cexp, cdiag, C.int(shot), cmode, &ed, &ref, (*C.char)(unsafe.Pointer(&date[0])))
	info := ddww.OpenInfo{Ref: ddww.Ref(ref), Edition: int32(ed), Date: trim(date[:dateLen])}
	return info, check("wwopen", code)
}

func (l *lib) WWTBase(ref ddww.Ref, name string, typ ddww.Type, data []float32, stride int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	n := len(data)
	if stride > 1 {
		n = (n + int(stride) - 1) / int(stride)
	}
	code := C.go_wwtbase(C.int(ref), cname, C.int(typ), C.int(n), fptr(data), C.int(stride))
	return check("wwtbase", code)
}

func (l *lib) WWAInsert(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, data []float32, sizes [3]int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	csz := cints(sizes)
	code := C.go_wwainsert(C.int(ref), cname, C.int(k1), C.int(k2), C.int(typ), fptr(data), &csz[0])
	return check("wwainsert", code)
}

func (l *lib) WWInsert(ref ddww.Ref, name string, typ ddww.Type, data []float32, stride int32, ind ddww.Index) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	n := len(data)
	if stride > 1 {
		n = (n + int(stride) - 1) / int(stride)
	}
	cind := cints(ind)
	code := C.go_wwinsert(C.int(ref), cname, C.int(typ), C.int(n), fptr(data), C.int(stride), &cind[0])
	return check("wwinsert", code)
}

func (l *lib) WWClose(ref ddww.Ref, disp, space string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cdisp, cspace := cstr(disp), cstr(space)
	defer free(cdisp, cspace)

	return check("wwclose", C.go_wwclose(C.int(ref), cdisp, cspace))
}

func (l *lib) DDOpen(exp, diag string, shot, edition int32) (ddww.OpenInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		cexp, cdiag = cstr(exp), cstr(diag)
		ed          = C.int(edition)
		ref         C.int
		date        [dateLen + 1]byte
	)
	defer free(cexp, cdiag)

	code := C.go_ddopen(cexp, cdiag, C.int(shot), &ed, &ref, (*C.char)(unsafe.Pointer(&date[0])))
	info := ddww.OpenInfo{Ref: ddww.Ref(ref), Edition: int32(ed), Date: trim(date[:dateLen])}
	return info, check("ddopen", code)
}

func (l *lib) DDAInfo(ref ddww.Ref, name string) (ddww.ArrayInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	var (
		sizes, adim [3]C.int
		index       C.int
	)
	code := C.go_ddainfo(C.int(ref), cname, &sizes[0], &adim[0], &index)
	info := ddww.ArrayInfo{Index: int32(index)}
	for i := range sizes {
		info.Sizes[i] = int32(sizes[i])
		info.Dims[i] = int32(adim[i])
	}
	return info, check("ddainfo", code)
}

func (l *lib) DDAGroup(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, buf []float32) (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	var rt C.int
	code := C.go_ddagroup(C.int(ref), cname, C.int(k1), C.int(k2), C.int(typ), C.int(len(buf)), fptr(buf), &rt)
	return clamp(rt, buf), check("ddagroup", code)
}

func (l *lib) DDCSGrp(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, buf []float32) (int32, ddww.Calib, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	var (
		rt, ncal C.int
		phys     [physDimLen + 1]byte
	)
	code := C.go_ddcsgrp(C.int(ref), cname, C.int(k1), C.int(k2), C.int(typ), C.int(len(buf)), fptr(buf), &rt, &ncal, (*C.char)(unsafe.Pointer(&phys[0])))
	cal := ddww.Calib{NCal: int32(ncal), PhysDim: trim(phys[:physDimLen])}
	return clamp(rt, buf), cal, check("ddcsgrp", code)
}

func (l *lib) DDCXSig(ref ddww.Ref, name string, k1, k2 int32, ind ddww.Index, typ ddww.Type, buf []float32) (int32, ddww.Calib, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cname := cstr(name)
	defer free(cname)

	var (
		rt, ncal C.int
		phys     [physDimLen + 1]byte
		cind     = cints(ind)
	)
	code := C.go_ddcxsig(C.int(ref), cname, C.int(k1), C.int(k2), &cind[0], C.int(typ), C.int(len(buf)), fptr(buf), &rt, &ncal, (*C.char)(unsafe.Pointer(&phys[0])))
	cal := ddww.Calib{NCal: int32(ncal), PhysDim: trim(phys[:physDimLen])}
	return clamp(rt, buf), cal, check("ddcxsig", code)
}

func (l *lib) DDClose(ref ddww.Ref) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return check("ddclose", C.go_ddclose(C.int(ref)))
}

// clamp bounds the returned length by the buffer capacity.
func clamp(rt C.int, buf []float32) int32 {
	switch n := int(rt); {
	case n < 0:
		return 0
	case n > len(buf):
		return int32(len(buf))
	default:
		return int32(n)
	}
}
