// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ddmem

import "fmt"

// Kind is the kind of a shotfile object.
type Kind byte

const (
	UndefinedKind Kind = iota
	TimeBase
	AreaBase
	SignalGroup
)

func (k Kind) String() string {
	switch k {
	case TimeBase:
		return "time-base"
	case AreaBase:
		return "area-base"
	case SignalGroup:
		return "signal-group"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Object declares a shotfile object of a diagnostic.
type Object struct {
	Name string
	Kind Kind

	// Relations of a signal group.
	TimeBase string
	AreaBase string
	PhysDim  string // physical unit after calibration
}

// Schema declares the objects a diagnostic's shotfiles may hold.
type Schema struct {
	Diag    string
	Objects []Object
}

// Object returns the object declared under name.
func (s Schema) Object(name string) (Object, bool) {
	for _, o := range s.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return Object{}, false
}

// YPR returns the schema of the YPR diagnostic: electron temperature
// profiles Te on radial positions rp.
func YPR() Schema {
	return Schema{
		Diag: "YPR",
		Objects: []Object{
			{Name: "time", Kind: TimeBase},
			{Name: "rp", Kind: AreaBase},
			{Name: "Te", Kind: SignalGroup, TimeBase: "time", AreaBase: "rp", PhysDim: "eV"},
		},
	}
}
