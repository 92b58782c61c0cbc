// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddww

import (
	"log"
	"strings"

	"github.com/pkg/errors"
)

// Shotfile identifies a shotfile edition.
type Shotfile struct {
	Exp     string // experiment, e.g. "AUGD"
	Diag    string // diagnostic, e.g. "YPR"
	Shot    int32
	Edition int32
}

// Validate checks that sf names a shot with plain experiment and
// diagnostic names. Names are used as path segments by file-backed
// libraries.
func (sf Shotfile) Validate() error {
	for _, v := range []struct{ field, name string }{
		{"experiment", sf.Exp},
		{"diagnostic", sf.Diag},
	} {
		if err := CheckName(v.name); err != nil {
			return errors.Wrapf(err, "ddww: invalid %s", v.field)
		}
	}
	if sf.Shot <= 0 {
		return errors.Errorf("ddww: invalid shot number %d", sf.Shot)
	}
	return nil
}

// CheckName reports an error if name is empty or could address
// anything but a single path element.
func CheckName(name string) error {
	switch {
	case name == "":
		return errors.Errorf("empty name")
	case name == "." || strings.Contains(name, ".."):
		return errors.Errorf("name %q contains a relative path element", name)
	case strings.ContainsAny(name, "/\\\x00:"):
		return errors.Errorf("name %q contains a path separator", name)
	}
	return nil
}

// session holds the state shared by Writer and Reader.
// The first error is sticky: later calls return it without
// reaching the library.
type session struct {
	lib    Lib
	info   OpenInfo
	msg    *log.Logger
	err    error
	closed bool
}

// check filters warnings out of err, logging them.
func (s *session) check(err error) error {
	if err == nil {
		return nil
	}
	if IsWarning(err) {
		s.msg.Printf("%v", err)
		return nil
	}
	return err
}

func (s *session) do(fn func() error) error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		return errors.Errorf("ddww: shotfile ref=%d already closed", s.info.Ref)
	}
	s.err = s.check(fn())
	return s.err
}

// finish runs the close call and reports the first error seen by the
// session. A close failure after an earlier error is logged.
func (s *session) finish(op string, fn func() error) error {
	if s.closed {
		return errors.Errorf("ddww: shotfile ref=%d already closed", s.info.Ref)
	}
	s.closed = true
	err := s.check(fn())
	switch {
	case s.err != nil && err != nil:
		s.msg.Printf("%s after earlier failure: %v", op, err)
		return s.err
	case s.err != nil:
		return s.err
	case err != nil:
		s.err = errors.Wrapf(err, "ddww: could not %s shotfile", op)
		return s.err
	}
	return nil
}

func logger(msg *log.Logger) *log.Logger {
	if msg == nil {
		return log.Default()
	}
	return msg
}

// Writer is a shotfile opened for writing.
type Writer struct {
	session
}

// Create opens sf for writing with the given mode.
// The returned Writer must be closed even if a write fails.
func Create(lib Lib, sf Shotfile, mode string, msg *log.Logger) (*Writer, error) {
	w := &Writer{session{lib: lib, msg: logger(msg)}}
	info, err := lib.WWOpen(sf.Exp, sf.Diag, sf.Shot, mode, sf.Edition)
	if err = w.check(err); err != nil {
		return nil, errors.Wrapf(err, "ddww: could not open %s:%s:%d for writing", sf.Exp, sf.Diag, sf.Shot)
	}
	w.info = info
	return w, nil
}

// Info returns the edition opened by Create.
func (w *Writer) Info() OpenInfo { return w.info }

// Err returns the first error met by w.
func (w *Writer) Err() error { return w.err }

// TimeBase writes the time base name.
func (w *Writer) TimeBase(name string, data []float32) error {
	return w.do(func() error {
		if len(data) == 0 {
			return errors.Errorf("ddww: empty time base %q", name)
		}
		err := w.lib.WWTBase(w.info.Ref, name, TypeFloat32, data, 1)
		return errors.Wrapf(err, "ddww: could not write time base %q", name)
	})
}

// AreaBase inserts the area base name for time indices k1..k2.
// len(data) must match sizes.
func (w *Writer) AreaBase(name string, k1, k2 int32, data []float32, sizes [3]int32) error {
	return w.do(func() error {
		if k1 < 1 || k2 < k1 {
			return errors.Errorf("ddww: invalid area base %q range [%d, %d]", name, k1, k2)
		}
		if want := int(k2-k1+1) * volume(sizes); want != len(data) {
			return errors.Errorf("ddww: area base %q: got %d values, want %d", name, len(data), want)
		}
		err := w.lib.WWAInsert(w.info.Ref, name, k1, k2, TypeFloat32, data, sizes)
		return errors.Wrapf(err, "ddww: could not insert area base %q", name)
	})
}

// Insert writes one block of the signal group name at ind.
func (w *Writer) Insert(name string, data []float32, ind Index) error {
	return w.do(func() error {
		if len(data) == 0 {
			return errors.Errorf("ddww: empty block for %q at %v", name, ind)
		}
		err := w.lib.WWInsert(w.info.Ref, name, TypeFloat32, data, 1, ind)
		return errors.Wrapf(err, "ddww: could not insert %q at %v", name, ind)
	})
}

// Close closes the shotfile with the given disposition and space policy.
// Close always reaches the library, and returns the first error seen
// during the session.
func (w *Writer) Close(disp, space string) error {
	return w.finish("close", func() error {
		return w.lib.WWClose(w.info.Ref, disp, space)
	})
}

// Reader is a shotfile opened for reading.
type Reader struct {
	session
}

// Open opens sf for reading.
// The returned Reader must be closed even if a read fails.
func Open(lib Lib, sf Shotfile, msg *log.Logger) (*Reader, error) {
	r := &Reader{session{lib: lib, msg: logger(msg)}}
	info, err := lib.DDOpen(sf.Exp, sf.Diag, sf.Shot, sf.Edition)
	if err = r.check(err); err != nil {
		return nil, errors.Wrapf(err, "ddww: could not open %s:%s:%d (edition=%d) for reading", sf.Exp, sf.Diag, sf.Shot, sf.Edition)
	}
	r.info = info
	return r, nil
}

// Info returns the edition opened by Open.
func (r *Reader) Info() OpenInfo { return r.info }

// Err returns the first error met by r.
func (r *Reader) Err() error { return r.err }

// ArrayInfo returns the shape of the signal group name.
func (r *Reader) ArrayInfo(name string) (ArrayInfo, error) {
	var info ArrayInfo
	err := r.do(func() error {
		var err error
		info, err = r.lib.DDAInfo(r.info.Ref, name)
		return errors.Wrapf(err, "ddww: could not get info of %q", name)
	})
	return info, err
}

// Group reads the area base related to the signal group name for
// time indices k1..k2.
func (r *Reader) Group(name string, k1, k2 int32, buf []float32) ([]float32, error) {
	var n int32
	err := r.do(func() error {
		if err := checkRange(name, k1, k2); err != nil {
			return err
		}
		var err error
		n, err = r.lib.DDAGroup(r.info.Ref, name, k1, k2, TypeFloat32, buf)
		return errors.Wrapf(err, "ddww: could not read group %q", name)
	})
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// CalibratedGroup reads the calibrated signal group name for time
// indices k1..k2.
func (r *Reader) CalibratedGroup(name string, k1, k2 int32, buf []float32) ([]float32, Calib, error) {
	var (
		n   int32
		cal Calib
	)
	err := r.do(func() error {
		if err := checkRange(name, k1, k2); err != nil {
			return err
		}
		var err error
		n, cal, err = r.lib.DDCSGrp(r.info.Ref, name, k1, k2, TypeFloat32, buf)
		return errors.Wrapf(err, "ddww: could not read calibrated group %q", name)
	})
	if err != nil {
		return nil, cal, err
	}
	return buf[:n], cal, nil
}

// CrossSignal reads the calibrated cross-signal of name at ind for
// time indices k1..k2.
func (r *Reader) CrossSignal(name string, k1, k2 int32, ind Index, buf []float32) ([]float32, Calib, error) {
	var (
		n   int32
		cal Calib
	)
	err := r.do(func() error {
		if err := checkRange(name, k1, k2); err != nil {
			return err
		}
		var err error
		n, cal, err = r.lib.DDCXSig(r.info.Ref, name, k1, k2, ind, TypeFloat32, buf)
		return errors.Wrapf(err, "ddww: could not read cross-signal %q at %v", name, ind)
	})
	if err != nil {
		return nil, cal, err
	}
	return buf[:n], cal, nil
}

// Close closes the shotfile and returns the first error seen during
// the session.
func (r *Reader) Close() error {
	return r.finish("close", func() error {
		return r.lib.DDClose(r.info.Ref)
	})
}

func checkRange(name string, k1, k2 int32) error {
	if k1 < 1 || k2 < k1 {
		return errors.Errorf("ddww: invalid range [%d, %d] for %q", k1, k2, name)
	}
	return nil
}

// volume returns the number of values described by sizes,
// ignoring zero (unused) dimensions.
func volume(sizes [3]int32) int {
	n := 1
	for _, v := range sizes {
		if v > 0 {
			n *= int(v)
		}
	}
	return n
}
