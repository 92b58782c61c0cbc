// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package h5lib mirrors shotfile editions as HDF5 files.
//
// Each closed edition is stored as <root>/<EXP>/<DIAG>/<shot>.<edition>.h5.
// Every object is a float32 dataset named after the object, with an
// int32 <name>.shape dataset describing it:
//
//	[kind, k1, k2, s0, s1, s2]
//
// kind is 1 for a time base (s0 samples), 2 for an area base (sizes
// s0,s1,s2 for time indices k1..k2) and 3 for a signal group (s1 blocks
// of s0 values, written indices in <name>.index).
// The /edition dataset holds [edition, locked, space] and carries the
// "date" and "uuid" attributes.
package h5lib

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/pkg/errors"
	"github.com/scigolib/hdf5"
)

const (
	kindTimeBase    = 1
	kindAreaBase    = 2
	kindSignalGroup = 3

	shapeSuffix = ".shape"
	indexSuffix = ".index"
	editionName = "edition"
)

// Store persists shotfile editions under a root directory.
type Store struct {
	Root string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Root: dir}
}

// Open returns an in-memory library backed by a store rooted at dir.
func Open(dir string, opts ...ddmem.Option) *ddmem.Lib {
	opts = append([]ddmem.Option{ddmem.WithPersister(New(dir))}, opts...)
	return ddmem.New(opts...)
}

// checkKey rejects keys whose names would leave the store root.
func checkKey(key ddmem.Key) error {
	sf := ddww.Shotfile{Exp: key.Exp, Diag: key.Diag, Shot: key.Shot}
	err := sf.Validate()
	if err != nil {
		return errors.Wrapf(err, "h5lib: invalid key %v", key)
	}
	return nil
}

func (st *Store) dir(key ddmem.Key) string {
	return filepath.Join(st.Root, key.Exp, key.Diag)
}

// Path returns the file holding the given edition.
// Path does not validate key: Save, Load and Editions do.
func (st *Store) Path(key ddmem.Key, edition int32) string {
	return filepath.Join(st.dir(key), fmt.Sprintf("%d.%d.h5", key.Shot, edition))
}

// Editions returns the editions of key found on disk, in increasing order.
func (st *Store) Editions(key ddmem.Key) ([]int32, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	pattern := filepath.Join(st.dir(key), fmt.Sprintf("%d.*.h5", key.Shot))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "h5lib: could not list editions of %v", key)
	}

	prefix := fmt.Sprintf("%d.", key.Shot)
	eds := make([]int32, 0, len(matches))
	for _, m := range matches {
		v := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".h5")
		ed, err := strconv.ParseInt(v, 10, 32)
		if err != nil || ed <= 0 {
			continue
		}
		eds = append(eds, int32(ed))
	}
	sort.Slice(eds, func(i, j int) bool { return eds[i] < eds[j] })
	return eds, nil
}

// Save writes sf to its HDF5 file. Existing editions are never
// overwritten.
func (st *Store) Save(sf *ddmem.Shotfile) error {
	if err := checkKey(sf.Key); err != nil {
		return err
	}

	fname := st.Path(sf.Key, sf.Edition)
	_, err := os.Stat(fname)
	if err == nil {
		return errors.Errorf("h5lib: edition %d of %v already stored", sf.Edition, sf.Key)
	}

	err = os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not create directory for %q", fname)
	}

	tmp := fname + ".tmp"
	err = st.write(tmp, sf)
	if err != nil {
		os.Remove(tmp)
		return err
	}

	err = os.Rename(tmp, fname)
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "h5lib: could not commit %q", fname)
	}
	return nil
}

func (st *Store) write(fname string, sf *ddmem.Shotfile) error {
	fw, err := hdf5.CreateForWrite(fname, hdf5.CreateTruncate)
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not create %q", fname)
	}
	defer fw.Close()

	var locked, space int32
	if sf.Locked {
		locked = 1
	}
	if sf.Space == ddww.SpaceMin {
		space = 1
	}
	ed, err := fw.CreateDataset("/"+editionName, hdf5.Int32, []uint64{3})
	if err != nil {
		return errors.Wrap(err, "h5lib: could not create edition dataset")
	}
	err = ed.Write([]int32{sf.Edition, locked, space})
	if err != nil {
		return errors.Wrap(err, "h5lib: could not write edition dataset")
	}
	err = ed.WriteAttribute("date", sf.Date)
	if err != nil {
		return errors.Wrap(err, "h5lib: could not write date attribute")
	}
	err = ed.WriteAttribute("uuid", sf.ID)
	if err != nil {
		return errors.Wrap(err, "h5lib: could not write uuid attribute")
	}

	for _, name := range sortedKeys(sf.TimeBases) {
		tb := sf.TimeBases[name]
		err = writeObject(fw, name, tb, []uint64{uint64(len(tb))}, []int32{kindTimeBase, 0, 0, int32(len(tb)), 0, 0})
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(sf.Areas) {
		a := sf.Areas[name]
		err = writeObject(fw, name, a.Data, []uint64{uint64(len(a.Data))}, []int32{kindAreaBase, a.K1, a.K2, a.Sizes[0], a.Sizes[1], a.Sizes[2]})
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(sf.Groups) {
		g := sf.Groups[name]
		idx := make([]int32, 0, len(g.Blocks))
		for k := range g.Blocks {
			idx = append(idx, k)
		}
		sort.Slice(idx, func(i, j int) bool { return idx[i] < idx[j] })

		data := make([]float32, 0, len(idx)*g.Block)
		for _, k := range idx {
			data = append(data, g.Blocks[k]...)
		}
		dims := []uint64{uint64(len(idx)), uint64(g.Block)}
		err = writeObject(fw, name, data, dims, []int32{kindSignalGroup, 0, 0, int32(g.Block), int32(len(idx)), 0})
		if err != nil {
			return err
		}

		ds, err := fw.CreateDataset("/"+name+indexSuffix, hdf5.Int32, []uint64{uint64(len(idx))})
		if err != nil {
			return errors.Wrapf(err, "h5lib: could not create index of %q", name)
		}
		err = ds.Write(idx)
		if err != nil {
			return errors.Wrapf(err, "h5lib: could not write index of %q", name)
		}
	}

	err = fw.Close()
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not close %q", fname)
	}
	return nil
}

func writeObject(fw *hdf5.FileWriter, name string, data []float32, dims []uint64, shape []int32) error {
	ds, err := fw.CreateDataset("/"+name, hdf5.Float32, dims)
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not create dataset %q", name)
	}
	err = ds.Write(data)
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not write dataset %q", name)
	}

	sh, err := fw.CreateDataset("/"+name+shapeSuffix, hdf5.Int32, []uint64{uint64(len(shape))})
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not create shape of %q", name)
	}
	err = sh.Write(shape)
	if err != nil {
		return errors.Wrapf(err, "h5lib: could not write shape of %q", name)
	}
	return nil
}

// Load reads an edition back from its HDF5 file.
func (st *Store) Load(key ddmem.Key, edition int32) (*ddmem.Shotfile, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	fname := st.Path(key, edition)
	f, err := hdf5.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "h5lib: could not open %q", fname)
	}
	defer f.Close()

	sets := make(map[string]*hdf5.Dataset)
	f.Walk(func(p string, obj hdf5.Object) {
		ds, ok := obj.(*hdf5.Dataset)
		if !ok {
			return
		}
		sets[path.Base(p)] = ds
	})

	read := func(name string) ([]float64, error) {
		ds, ok := sets[name]
		if !ok {
			return nil, errors.Errorf("h5lib: no dataset %q in %q", name, fname)
		}
		vs, err := ds.Read()
		if err != nil {
			return nil, errors.Wrapf(err, "h5lib: could not read dataset %q", name)
		}
		return vs, nil
	}

	sf := ddmem.NewShotfile(key, edition)

	hdr, err := read(editionName)
	if err != nil {
		return nil, err
	}
	if len(hdr) != 3 || int32(hdr[0]) != edition {
		return nil, errors.Errorf("h5lib: invalid edition header %v in %q", hdr, fname)
	}
	sf.Locked = hdr[1] != 0
	sf.Space = ddww.SpaceMax
	if hdr[2] != 0 {
		sf.Space = ddww.SpaceMin
	}
	sf.Date = attrString(sets[editionName], "date")
	sf.ID = attrString(sets[editionName], "uuid")

	for name := range sets {
		if !strings.HasSuffix(name, shapeSuffix) {
			continue
		}
		obj := strings.TrimSuffix(name, shapeSuffix)
		shape, err := read(name)
		if err != nil {
			return nil, err
		}
		if len(shape) != 6 {
			return nil, errors.Errorf("h5lib: invalid shape %v of %q", shape, obj)
		}
		vs, err := read(obj)
		if err != nil {
			return nil, err
		}
		data := toF32(vs)

		switch int(shape[0]) {
		case kindTimeBase:
			sf.TimeBases[obj] = data

		case kindAreaBase:
			sf.Areas[obj] = &ddmem.Area{
				K1:    int32(shape[1]),
				K2:    int32(shape[2]),
				Sizes: [3]int32{int32(shape[3]), int32(shape[4]), int32(shape[5])},
				Data:  data,
			}

		case kindSignalGroup:
			blk, n := int(shape[3]), int(shape[4])
			idx, err := read(obj + indexSuffix)
			if err != nil {
				return nil, err
			}
			if len(idx) != n || len(data) != n*blk {
				return nil, errors.Errorf("h5lib: inconsistent signal group %q (blocks=%d, index=%d, values=%d)", obj, n, len(idx), len(data))
			}
			g := &ddmem.Group{Block: blk, Blocks: make(map[int32][]float32, n)}
			for i, k := range idx {
				g.Blocks[int32(k)] = data[i*blk : (i+1)*blk]
			}
			sf.Groups[obj] = g

		default:
			return nil, errors.Errorf("h5lib: unknown object kind %v of %q", shape[0], obj)
		}
	}

	return sf, nil
}

func attrString(ds *hdf5.Dataset, name string) string {
	if ds == nil {
		return ""
	}
	v, err := ds.ReadAttribute(name)
	if err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return strings.TrimRight(v, "\x00 ")
	case []byte:
		return strings.TrimRight(string(v), "\x00 ")
	case []string:
		if len(v) > 0 {
			return strings.TrimRight(v[0], "\x00 ")
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func toF32(vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		out[i] = float32(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ ddmem.Persister = (*Store)(nil)
)
