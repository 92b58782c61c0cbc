// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ddww-ypr writes a level-1 YPR shotfile and reads it back.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/ipp-aug/ddww/h5lib"
	"github.com/ipp-aug/ddww/libddww"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			`Usage: ddww-ypr [options]

ex:

 $> ddww-ypr -backend h5 -dir ./shotfiles -shot 5010 -k2 10
 $> ddww-ypr -backend libddww -time time.csv -area rp.csv -signal te.csv

options:
`,
		)
		flag.PrintDefaults()
	}

	cfg := ddww.DefaultConfig()
	var (
		backend = flag.String("backend", "mem", "shotfile library (mem, h5, libddww)")
		dir     = flag.String("dir", "shotfiles", "root directory of the h5 backend")
		exp     = flag.String("exp", cfg.Exp, "experiment")
		diag    = flag.String("diag", cfg.Diag, "diagnostic")
		shot    = flag.Int("shot", int(cfg.Shot), "shot number")
		k1      = flag.Int("k1", int(cfg.K1), "first time index to read back")
		k2      = flag.Int("k2", int(cfg.K2), "last time index to read back")
		cross   = flag.Int("cross", int(cfg.Cross[0]), "block position of the cross-signal")
		tname   = flag.String("time", "", "CSV file with the time base")
		aname   = flag.String("area", "", "CSV file with the area base")
		sname   = flag.String("signal", "", "CSV file with the signal group, one block per line")
		ntime   = flag.Int("n", 223, "number of time indices of the synthetic data")
		blk     = flag.Int("blk", 16, "block size of the signal group")
		repeat  = flag.Bool("repeat", false, "write the first block at every time index")
		oname   = flag.String("o", "out", "prefix of the output CSV and PNG files")
	)

	flag.Parse()

	log.SetPrefix("ddww-ypr: ")
	log.SetFlags(0)

	err := checkFlags(map[string]int{
		"shot":  *shot,
		"k1":    *k1,
		"k2":    *k2,
		"cross": *cross,
		"n":     *ntime,
		"blk":   *blk,
	})
	if err != nil {
		log.Fatal(err)
	}

	cfg.Exp = *exp
	cfg.Diag = *diag
	cfg.Shot = int32(*shot)
	cfg.K1 = int32(*k1)
	cfg.K2 = int32(*k2)
	cfg.Cross = ddww.Index{int32(*cross), 0, 0}
	cfg.Repeat = *repeat
	cfg.Log = log.Default()

	err = cfg.Shotfile.Validate()
	if err != nil {
		log.Fatal(err)
	}

	lib, err := open(*backend, *dir)
	if err != nil {
		log.Fatal(err)
	}

	data, err := load(*tname, *aname, *sname, *ntime, *blk)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("shotfile:   %s:%s:%d", cfg.Exp, cfg.Diag, cfg.Shot)
	log.Printf("backend:    %s", *backend)
	log.Printf("time base:  %d samples", len(data.Time))
	log.Printf("block size: %d", data.Block())
	log.Printf("range:      [%d, %d]", cfg.K1, cfg.K2)
	if cfg.Repeat {
		log.Printf("repeat:     first block written at every time index")
	}

	rb, err := ddww.Run(lib, cfg, data)
	if err != nil {
		log.Fatal(err)
	}

	summary(rb)

	var grp errgroup.Group
	grp.Go(func() error {
		return dump(*oname+".csv", rb)
	})
	grp.Go(func() error {
		return plot(*oname+".png", rb, data)
	})
	err = grp.Wait()
	if err != nil {
		log.Fatal(err)
	}
}

func open(backend, dir string) (ddww.Lib, error) {
	switch backend {
	case "mem":
		return ddmem.New(), nil
	case "h5":
		return h5lib.Open(dir), nil
	case "libddww":
		return libddww.New()
	default:
		return nil, errors.Errorf("unknown backend %q", backend)
	}
}

// checkFlags checks that integer flags are positive int32 values.
func checkFlags(flags map[string]int) error {
	for name, v := range flags {
		if v < 1 || v > math.MaxInt32 {
			return errors.Errorf("invalid -%s=%d", name, v)
		}
	}
	return nil
}

func load(tname, aname, sname string, n, blk int) (ddww.Data, error) {
	var data ddww.Data
	if tname == "" && aname == "" && sname == "" {
		data = ddww.Synthetic(n, blk)
		return data, data.Validate()
	}
	if tname == "" || aname == "" || sname == "" {
		return data, errors.Errorf("-time, -area and -signal must be given together")
	}

	err := loadFile(tname, func(r io.Reader) (err error) {
		data.Time, err = ddww.LoadTimeBase(r)
		return err
	})
	if err != nil {
		return data, err
	}

	err = loadFile(aname, func(r io.Reader) (err error) {
		data.Area, err = ddww.LoadArea(r)
		data.Sizes = [3]int32{int32(len(data.Area)), 0, 0}
		return err
	})
	if err != nil {
		return data, err
	}

	err = loadFile(sname, func(r io.Reader) (err error) {
		data.Signal, err = ddww.LoadSignal(r, blk)
		return err
	})
	if err != nil {
		return data, err
	}

	return data, data.Validate()
}

func loadFile(fname string, fn func(r io.Reader) error) error {
	f, err := os.Open(fname)
	if err != nil {
		return errors.Wrapf(err, "could not open input file")
	}
	defer f.Close()

	err = fn(f)
	if err != nil {
		return errors.Wrapf(err, "could not load %q", fname)
	}
	return nil
}

func summary(rb ddww.Readback) {
	log.Printf("edition:    %d (%s)", rb.Edition, rb.Date)
	log.Printf("info:       sizes=%v dims=%v index=%d", rb.Info.Sizes, rb.Info.Dims, rb.Info.Index)
	log.Printf("group:      %d values", len(rb.Group))
	if len(rb.Calibrated) > 0 {
		vs := make([]float64, len(rb.Calibrated))
		for i, v := range rb.Calibrated {
			vs[i] = float64(v)
		}
		log.Printf("calibrated: %d values in [%g, %g] %s (ncal=%d)",
			len(vs), floats.Min(vs), floats.Max(vs), rb.Calib.PhysDim, rb.Calib.NCal,
		)
	}
	log.Printf("cross:      %v %s", rb.Cross, rb.CrossCalib.PhysDim)
}

func dump(fname string, rb ddww.Readback) error {
	o, err := os.Create(fname)
	if err != nil {
		return errors.Wrapf(err, "could not create output file")
	}
	defer o.Close()

	err = ddww.Dump(o, rb)
	if err != nil {
		return errors.Wrapf(err, "could not dump readback")
	}

	err = o.Close()
	if err != nil {
		return errors.Wrapf(err, "could not close output file")
	}
	return nil
}

func plot(fname string, rb ddww.Readback, data ddww.Data) error {
	const (
		width  = 20 * vg.Centimeter
		height = 30 * vg.Centimeter
	)

	c := vgimg.PngCanvas{Canvas: vgimg.New(width, height)}
	err := ddww.Plot(draw.New(c), rb, data)
	if err != nil {
		return errors.Wrap(err, "could not plot readback")
	}

	o, err := os.Create(fname)
	if err != nil {
		return errors.Wrapf(err, "could not create output file")
	}
	defer o.Close()
	_, err = c.WriteTo(o)
	if err != nil {
		return errors.Wrapf(err, "could not create output plot")
	}
	err = o.Close()
	if err != nil {
		return errors.Wrapf(err, "could not close output file")
	}

	return nil
}
