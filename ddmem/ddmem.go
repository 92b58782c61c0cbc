// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ddmem provides an in-memory shotfile library.
//
// Shotfiles are kept as plain Go values keyed by experiment,
// diagnostic, shot and edition. The package does not implement the
// vendor on-disk format: calibration is the identity and a closed
// edition is handed to an optional Persister.
package ddmem

import (
	"fmt"
	"sort"
	"sync"
	"time"

	uuid "github.com/hashicorp/go-uuid"
	"github.com/ipp-aug/ddww"
)

// Library codes returned by Lib.
const (
	CodeNoFile    int32 = 1001 + iota // shotfile or edition not found
	CodeBadRef                        // unknown or closed handle
	CodeNoObject                      // object not declared or not written
	CodeBadType                       // unsupported data type
	CodeBadSize                       // buffer length does not match the shape
	CodeBadIndex                      // index outside the written range
	CodeLocked                        // edition exists or is locked
	CodeBadMode                       // unsupported mode, disposition or space policy
	CodeReadOnly                      // write call on a read handle (or the reverse)
	CodeBuffer                        // output buffer too small
	CodeStore                         // persistence failure
	CodeIncomplete                    // signal group does not cover its time base
)

// DateLayout is the layout of the creation date reported on open.
const DateLayout = "02Jan2006;15:04:05"

// Key identifies a shot of a diagnostic.
type Key struct {
	Exp  string
	Diag string
	Shot int32
}

// Area is an area base written for time indices K1..K2.
type Area struct {
	K1, K2 int32
	Sizes  [3]int32
	Data   []float32
}

// Group is a signal group: one block per written index.
type Group struct {
	Block  int
	Blocks map[int32][]float32
}

// Len returns the highest written index.
func (g *Group) Len() int32 {
	var n int32
	for k := range g.Blocks {
		if k > n {
			n = k
		}
	}
	return n
}

// Shotfile is one edition of a shotfile.
type Shotfile struct {
	Key
	Edition int32
	Date    string
	ID      string
	Locked  bool
	Space   string

	TimeBases map[string][]float32
	Areas     map[string]*Area
	Groups    map[string]*Group
}

// NewShotfile returns an empty edition.
func NewShotfile(key Key, edition int32) *Shotfile {
	return &Shotfile{
		Key:       key,
		Edition:   edition,
		TimeBases: make(map[string][]float32),
		Areas:     make(map[string]*Area),
		Groups:    make(map[string]*Group),
	}
}

// Persister stores closed editions.
type Persister interface {
	Save(sf *Shotfile) error
	Load(key Key, edition int32) (*Shotfile, error)
	Editions(key Key) ([]int32, error)
}

// Call is one recorded library call.
type Call struct {
	Op    string
	Ref   ddww.Ref
	Name  string
	Index ddww.Index
	Data  []float32 // copy of the buffer passed to a write call
}

type fault struct {
	nth  int // 0 fails every call
	code int32
	sev  ddww.Severity
}

type handle struct {
	sf    *Shotfile
	write bool
}

// Lib is an in-memory shotfile library.
// Lib is safe for concurrent use.
type Lib struct {
	mu      sync.Mutex
	schemas map[string]Schema
	files   map[Key]map[int32]*Shotfile
	open    map[ddww.Ref]*handle
	next    ddww.Ref
	store   Persister
	now     func() time.Time

	trace  []Call
	counts map[string]int
	faults map[string]fault
}

// Option configures a Lib.
type Option func(*Lib)

// WithSchema declares the objects of a diagnostic.
func WithSchema(s Schema) Option {
	return func(l *Lib) { l.schemas[s.Diag] = s }
}

// WithPersister sets the store receiving closed editions.
func WithPersister(p Persister) Option {
	return func(l *Lib) { l.store = p }
}

// WithClock sets the clock used to date new editions.
func WithClock(now func() time.Time) Option {
	return func(l *Lib) { l.now = now }
}

// New returns an empty library knowing the YPR diagnostic.
func New(opts ...Option) *Lib {
	l := &Lib{
		schemas: make(map[string]Schema),
		files:   make(map[Key]map[int32]*Shotfile),
		open:    make(map[ddww.Ref]*handle),
		now:     time.Now,
		counts:  make(map[string]int),
		faults:  make(map[string]fault),
	}
	WithSchema(YPR())(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fail makes the nth call (1-based) of op return code with the given
// severity. nth == 0 fails every call of op.
func (l *Lib) Fail(op string, nth int, code int32, sev ddww.Severity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[op] = fault{nth: nth, code: code, sev: sev}
}

// Trace returns the calls made so far.
func (l *Lib) Trace() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.trace))
	copy(out, l.trace)
	return out
}

// Ops returns the operation names of the calls made so far.
func (l *Lib) Ops() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.trace))
	for i, c := range l.trace {
		out[i] = c.Op
	}
	return out
}

// Editions returns the known editions of key in increasing order.
func (l *Lib) Editions(key Key) ([]int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editions(key)
}

func (l *Lib) editions(key Key) ([]int32, error) {
	seen := make(map[int32]struct{})
	for ed := range l.files[key] {
		seen[ed] = struct{}{}
	}
	if l.store != nil {
		eds, err := l.store.Editions(key)
		if err != nil {
			return nil, err
		}
		for _, ed := range eds {
			seen[ed] = struct{}{}
		}
	}
	out := make([]int32, 0, len(seen))
	for ed := range seen {
		out = append(out, ed)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// record appends a call to the trace and applies injected faults.
func (l *Lib) record(c Call) error {
	if c.Data != nil {
		c.Data = append([]float32(nil), c.Data...)
	}
	l.trace = append(l.trace, c)
	l.counts[c.Op]++

	f, ok := l.faults[c.Op]
	if !ok {
		return nil
	}
	if f.nth != 0 && f.nth != l.counts[c.Op] {
		return nil
	}
	return &ddww.Error{Op: c.Op, Code: f.code, Severity: f.sev, Text: "injected fault"}
}

func (l *Lib) handle(op string, ref ddww.Ref, write bool) (*handle, error) {
	h, ok := l.open[ref]
	if !ok {
		return nil, errorf(op, CodeBadRef, "unknown shotfile ref=%d", ref)
	}
	if h.write != write {
		return nil, errorf(op, CodeReadOnly, "ref=%d not open for this call", ref)
	}
	return h, nil
}

func (l *Lib) object(op string, sf *Shotfile, name string, kind Kind) (Object, error) {
	schema, ok := l.schemas[sf.Diag]
	if !ok {
		return Object{}, errorf(op, CodeNoObject, "no schema for diagnostic %q", sf.Diag)
	}
	obj, ok := schema.Object(name)
	if !ok {
		return obj, errorf(op, CodeNoObject, "object %q not declared for %s", name, sf.Diag)
	}
	if obj.Kind != kind {
		return obj, errorf(op, CodeNoObject, "object %q is a %v, not a %v", name, obj.Kind, kind)
	}
	return obj, nil
}

func (l *Lib) register(sf *Shotfile, write bool) ddww.Ref {
	l.next++
	l.open[l.next] = &handle{sf: sf, write: write}
	return l.next
}

// WWOpen implements ddww.Lib.
func (l *Lib) WWOpen(exp, diag string, shot int32, mode string, edition int32) (ddww.OpenInfo, error) {
	const op = "wwopen"
	l.mu.Lock()
	defer l.mu.Unlock()

	var info ddww.OpenInfo
	if err := l.record(Call{Op: op, Name: diag}); err != nil {
		return info, err
	}
	if mode != ddww.ModeNew {
		return info, errorf(op, CodeBadMode, "unsupported open mode %q", mode)
	}
	if _, ok := l.schemas[diag]; !ok {
		return info, errorf(op, CodeNoObject, "unknown diagnostic %q", diag)
	}
	if err := ddww.CheckName(exp); err != nil || shot <= 0 {
		return info, errorf(op, CodeNoFile, "invalid shotfile %q:%s:%d", exp, diag, shot)
	}

	key := Key{Exp: exp, Diag: diag, Shot: shot}
	eds, err := l.editions(key)
	if err != nil {
		return info, errorf(op, CodeStore, "could not list editions: %v", err)
	}
	switch {
	case edition == ddww.NewEdition:
		edition = 1
		if n := len(eds); n > 0 {
			edition = eds[n-1] + 1
		}
		for _, h := range l.open {
			if h.write && h.sf.Key == key && h.sf.Edition >= edition {
				edition = h.sf.Edition + 1
			}
		}
	case edition <= 0:
		return info, errorf(op, CodeNoFile, "invalid edition %d", edition)
	default:
		for _, ed := range eds {
			if ed == edition {
				return info, errorf(op, CodeLocked, "edition %d of %s:%s:%d exists", edition, exp, diag, shot)
			}
		}
	}
	for _, h := range l.open {
		if h.write && h.sf.Key == key && h.sf.Edition == edition {
			return info, errorf(op, CodeLocked, "edition %d of %s:%s:%d is being written", edition, exp, diag, shot)
		}
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return info, errorf(op, CodeStore, "could not generate edition id: %v", err)
	}

	sf := NewShotfile(key, edition)
	sf.Date = l.now().Format(DateLayout)
	sf.ID = id

	info.Ref = l.register(sf, true)
	info.Edition = edition
	info.Date = sf.Date
	return info, nil
}

// WWTBase implements ddww.Lib.
func (l *Lib) WWTBase(ref ddww.Ref, name string, typ ddww.Type, data []float32, stride int32) error {
	const op = "wwtbase"
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record(Call{Op: op, Ref: ref, Name: name, Data: data}); err != nil {
		return err
	}
	h, err := l.handle(op, ref, true)
	if err != nil {
		return err
	}
	if _, err := l.object(op, h.sf, name, TimeBase); err != nil {
		return err
	}
	if typ != ddww.TypeFloat32 {
		return errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	if stride < 1 || len(data) == 0 {
		return errorf(op, CodeBadSize, "invalid time base (len=%d, stride=%d)", len(data), stride)
	}

	vs := make([]float32, 0, (len(data)+int(stride)-1)/int(stride))
	for i := 0; i < len(data); i += int(stride) {
		vs = append(vs, data[i])
	}
	h.sf.TimeBases[name] = vs
	return nil
}

// WWAInsert implements ddww.Lib.
func (l *Lib) WWAInsert(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, data []float32, sizes [3]int32) error {
	const op = "wwainsert"
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record(Call{Op: op, Ref: ref, Name: name, Index: ddww.Index{k1, k2, 0}, Data: data}); err != nil {
		return err
	}
	h, err := l.handle(op, ref, true)
	if err != nil {
		return err
	}
	if _, err := l.object(op, h.sf, name, AreaBase); err != nil {
		return err
	}
	if typ != ddww.TypeFloat32 {
		return errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	if k1 < 1 || k2 < k1 {
		return errorf(op, CodeBadIndex, "invalid range [%d, %d]", k1, k2)
	}
	if want := int(k2-k1+1) * volume(sizes); want != len(data) || want == 0 {
		return errorf(op, CodeBadSize, "area base %q: got %d values, sizes %v want %d", name, len(data), sizes, want)
	}

	h.sf.Areas[name] = &Area{
		K1:    k1,
		K2:    k2,
		Sizes: sizes,
		Data:  append([]float32(nil), data...),
	}
	return nil
}

// WWInsert implements ddww.Lib.
func (l *Lib) WWInsert(ref ddww.Ref, name string, typ ddww.Type, data []float32, stride int32, ind ddww.Index) error {
	const op = "wwinsert"
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record(Call{Op: op, Ref: ref, Name: name, Index: ind, Data: data}); err != nil {
		return err
	}
	h, err := l.handle(op, ref, true)
	if err != nil {
		return err
	}
	if _, err := l.object(op, h.sf, name, SignalGroup); err != nil {
		return err
	}
	if typ != ddww.TypeFloat32 {
		return errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	if ind[0] < 1 || ind[1] != 0 || ind[2] != 0 {
		return errorf(op, CodeBadIndex, "unsupported index %v", ind)
	}
	if stride < 1 || len(data) == 0 {
		return errorf(op, CodeBadSize, "invalid block (len=%d, stride=%d)", len(data), stride)
	}

	blk := make([]float32, 0, (len(data)+int(stride)-1)/int(stride))
	for i := 0; i < len(data); i += int(stride) {
		blk = append(blk, data[i])
	}

	grp, ok := h.sf.Groups[name]
	if !ok {
		grp = &Group{Block: len(blk), Blocks: make(map[int32][]float32)}
		h.sf.Groups[name] = grp
	}
	if len(blk) != grp.Block {
		return errorf(op, CodeBadSize, "block of %q at %v has %d values, want %d", name, ind, len(blk), grp.Block)
	}
	grp.Blocks[ind[0]] = blk
	return nil
}

// WWClose implements ddww.Lib.
//
// The handle is released even when the close fails; the edition is
// then discarded. An edition whose signal groups do not cover their
// time base is still committed, and reported with a warning.
func (l *Lib) WWClose(ref ddww.Ref, disp, space string) error {
	const op = "wwclose"
	l.mu.Lock()
	defer l.mu.Unlock()

	fault := l.record(Call{Op: op, Ref: ref, Name: disp + "," + space})
	h, err := l.handle(op, ref, true)
	if fault != nil {
		if err == nil {
			delete(l.open, ref)
		}
		return fault
	}
	if err != nil {
		return err
	}
	delete(l.open, ref)

	switch disp {
	case ddww.DispLock, ddww.DispUnlock:
	default:
		return errorf(op, CodeBadMode, "unsupported disposition %q", disp)
	}
	switch space {
	case ddww.SpaceMax, ddww.SpaceMin:
	default:
		return errorf(op, CodeBadMode, "unsupported space policy %q", space)
	}

	sf := h.sf
	sf.Locked = disp == ddww.DispLock
	sf.Space = space

	if l.store != nil {
		err := l.store.Save(sf)
		if err != nil {
			return errorf(op, CodeStore, "could not save edition %d: %v", sf.Edition, err)
		}
	}
	if l.files[sf.Key] == nil {
		l.files[sf.Key] = make(map[int32]*Shotfile)
	}
	l.files[sf.Key][sf.Edition] = sf

	return l.coverage(op, sf)
}

// coverage checks that every signal group has one block per sample of
// its time base.
func (l *Lib) coverage(op string, sf *Shotfile) error {
	schema := l.schemas[sf.Diag]
	for name, grp := range sf.Groups {
		obj, _ := schema.Object(name)
		tb, ok := sf.TimeBases[obj.TimeBase]
		if !ok {
			continue
		}
		if n := int32(len(tb)); grp.Len() != n || int32(len(grp.Blocks)) != n {
			return &ddww.Error{
				Op:       op,
				Code:     CodeIncomplete,
				Severity: ddww.SevWarning,
				Text:     fmt.Sprintf("signal group %q has %d blocks, time base %q has %d samples", name, len(grp.Blocks), obj.TimeBase, n),
			}
		}
	}
	return nil
}

// DDOpen implements ddww.Lib.
func (l *Lib) DDOpen(exp, diag string, shot, edition int32) (ddww.OpenInfo, error) {
	const op = "ddopen"
	l.mu.Lock()
	defer l.mu.Unlock()

	var info ddww.OpenInfo
	if err := l.record(Call{Op: op, Name: diag}); err != nil {
		return info, err
	}

	if err := ddww.CheckName(exp); err != nil {
		return info, errorf(op, CodeNoFile, "invalid experiment %q", exp)
	}

	key := Key{Exp: exp, Diag: diag, Shot: shot}
	if edition == ddww.LatestEdition {
		eds, err := l.editions(key)
		if err != nil {
			return info, errorf(op, CodeStore, "could not list editions: %v", err)
		}
		if len(eds) == 0 {
			return info, errorf(op, CodeNoFile, "no shotfile %s:%s:%d", exp, diag, shot)
		}
		edition = eds[len(eds)-1]
	}

	sf, ok := l.files[key][edition]
	if !ok && l.store != nil {
		var err error
		sf, err = l.store.Load(key, edition)
		if err != nil {
			return info, errorf(op, CodeNoFile, "could not load %s:%s:%d edition %d: %v", exp, diag, shot, edition, err)
		}
		if l.files[key] == nil {
			l.files[key] = make(map[int32]*Shotfile)
		}
		l.files[key][edition] = sf
		ok = true
	}
	if !ok {
		return info, errorf(op, CodeNoFile, "no edition %d of %s:%s:%d", edition, exp, diag, shot)
	}

	info.Ref = l.register(sf, false)
	info.Edition = sf.Edition
	info.Date = sf.Date
	return info, nil
}

// DDAInfo implements ddww.Lib.
func (l *Lib) DDAInfo(ref ddww.Ref, name string) (ddww.ArrayInfo, error) {
	const op = "ddainfo"
	l.mu.Lock()
	defer l.mu.Unlock()

	var info ddww.ArrayInfo
	if err := l.record(Call{Op: op, Ref: ref, Name: name}); err != nil {
		return info, err
	}
	h, err := l.handle(op, ref, false)
	if err != nil {
		return info, err
	}
	obj, grp, err := l.group(op, h.sf, name)
	if err != nil {
		return info, err
	}
	if area, ok := h.sf.Areas[obj.AreaBase]; ok {
		info.Sizes = area.Sizes
	}
	info.Dims = [3]int32{grp.Len(), int32(grp.Block), 0}
	info.Index = 1
	return info, nil
}

func (l *Lib) group(op string, sf *Shotfile, name string) (Object, *Group, error) {
	obj, err := l.object(op, sf, name, SignalGroup)
	if err != nil {
		return obj, nil, err
	}
	grp, ok := sf.Groups[name]
	if !ok {
		return obj, nil, errorf(op, CodeNoObject, "signal group %q not written", name)
	}
	return obj, grp, nil
}

func (l *Lib) block(op string, grp *Group, name string, k int32) ([]float32, error) {
	blk, ok := grp.Blocks[k]
	if !ok {
		return nil, errorf(op, CodeBadIndex, "no block of %q at time index %d", name, k)
	}
	return blk, nil
}

// DDAGroup implements ddww.Lib.
//
// An area base written for a single time index applies to every time
// index of its signal group.
func (l *Lib) DDAGroup(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, buf []float32) (int32, error) {
	const op = "ddagroup"
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record(Call{Op: op, Ref: ref, Name: name, Index: ddww.Index{k1, k2, 0}}); err != nil {
		return 0, err
	}
	h, err := l.handle(op, ref, false)
	if err != nil {
		return 0, err
	}
	if typ != ddww.TypeFloat32 {
		return 0, errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	obj, grp, err := l.group(op, h.sf, name)
	if err != nil {
		return 0, err
	}
	area, ok := h.sf.Areas[obj.AreaBase]
	if !ok {
		return 0, errorf(op, CodeNoObject, "area base %q of %q not written", obj.AreaBase, name)
	}
	if k1 < 1 || k2 < k1 || k2 > grp.Len() {
		return 0, errorf(op, CodeBadIndex, "invalid range [%d, %d] for %q", k1, k2, name)
	}

	sz := volume(area.Sizes)
	n := int(k2-k1+1) * sz
	if len(buf) < n {
		return 0, errorf(op, CodeBuffer, "buffer of %d values, need %d", len(buf), n)
	}
	for k := k1; k <= k2; k++ {
		j := k
		switch {
		case area.K1 == area.K2:
			j = area.K1
		case k < area.K1 || k > area.K2:
			return 0, errorf(op, CodeBadIndex, "no area base %q at time index %d", obj.AreaBase, k)
		}
		off := int(j-area.K1) * sz
		copy(buf[int(k-k1)*sz:], area.Data[off:off+sz])
	}
	return int32(n), nil
}

// DDCSGrp implements ddww.Lib.
func (l *Lib) DDCSGrp(ref ddww.Ref, name string, k1, k2 int32, typ ddww.Type, buf []float32) (int32, ddww.Calib, error) {
	const op = "ddcsgrp"
	l.mu.Lock()
	defer l.mu.Unlock()

	var cal ddww.Calib
	if err := l.record(Call{Op: op, Ref: ref, Name: name, Index: ddww.Index{k1, k2, 0}}); err != nil {
		return 0, cal, err
	}
	h, err := l.handle(op, ref, false)
	if err != nil {
		return 0, cal, err
	}
	if typ != ddww.TypeFloat32 {
		return 0, cal, errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	obj, grp, err := l.group(op, h.sf, name)
	if err != nil {
		return 0, cal, err
	}
	if k1 < 1 || k2 < k1 {
		return 0, cal, errorf(op, CodeBadIndex, "invalid range [%d, %d] for %q", k1, k2, name)
	}

	n := int(k2-k1+1) * grp.Block
	if len(buf) < n {
		return 0, cal, errorf(op, CodeBuffer, "buffer of %d values, need %d", len(buf), n)
	}
	for k := k1; k <= k2; k++ {
		blk, err := l.block(op, grp, name, k)
		if err != nil {
			return 0, cal, err
		}
		copy(buf[int(k-k1)*grp.Block:], blk)
	}
	cal.PhysDim = obj.PhysDim
	return int32(n), cal, nil
}

// DDCXSig implements ddww.Lib.
//
// ind[0] selects the (1-based) position inside the block; the values
// at that position are returned for time indices k1..k2.
func (l *Lib) DDCXSig(ref ddww.Ref, name string, k1, k2 int32, ind ddww.Index, typ ddww.Type, buf []float32) (int32, ddww.Calib, error) {
	const op = "ddcxsig"
	l.mu.Lock()
	defer l.mu.Unlock()

	var cal ddww.Calib
	if err := l.record(Call{Op: op, Ref: ref, Name: name, Index: ind}); err != nil {
		return 0, cal, err
	}
	h, err := l.handle(op, ref, false)
	if err != nil {
		return 0, cal, err
	}
	if typ != ddww.TypeFloat32 {
		return 0, cal, errorf(op, CodeBadType, "unsupported type %v", typ)
	}
	obj, grp, err := l.group(op, h.sf, name)
	if err != nil {
		return 0, cal, err
	}
	if k1 < 1 || k2 < k1 {
		return 0, cal, errorf(op, CodeBadIndex, "invalid range [%d, %d] for %q", k1, k2, name)
	}
	if ind[0] < 1 || int(ind[0]) > grp.Block || ind[1] != 0 || ind[2] != 0 {
		return 0, cal, errorf(op, CodeBadIndex, "invalid cross index %v for %q", ind, name)
	}

	n := int(k2 - k1 + 1)
	if len(buf) < n {
		return 0, cal, errorf(op, CodeBuffer, "buffer of %d values, need %d", len(buf), n)
	}
	for k := k1; k <= k2; k++ {
		blk, err := l.block(op, grp, name, k)
		if err != nil {
			return 0, cal, err
		}
		buf[k-k1] = blk[ind[0]-1]
	}
	cal.PhysDim = obj.PhysDim
	return int32(n), cal, nil
}

// DDClose implements ddww.Lib.
func (l *Lib) DDClose(ref ddww.Ref) error {
	const op = "ddclose"
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record(Call{Op: op, Ref: ref}); err != nil {
		return err
	}
	if _, err := l.handle(op, ref, false); err != nil {
		return err
	}
	delete(l.open, ref)
	return nil
}

func errorf(op string, code int32, format string, args ...interface{}) error {
	return &ddww.Error{
		Op:       op,
		Code:     code,
		Severity: ddww.SevError,
		Text:     fmt.Sprintf(format, args...),
	}
}

func volume(sizes [3]int32) int {
	n := 1
	for _, v := range sizes {
		if v > 0 {
			n *= int(v)
		}
	}
	return n
}

var (
	_ ddww.Lib = (*Lib)(nil)
)
