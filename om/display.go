// Copyright 2025 The OpenMath Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package om

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Display renders m in a compact debug notation that leads each node
// with its XML tag name: OMA(OMS(cd#name),OMI(1),OMF(1.4)). A content
// dictionary base is shown only where it takes effect, as base/cd#name
// on symbols and as @base on compound nodes. The notation is meant for
// logs and tests, not for interchange.
func Display(m Marshaler) (string, error) {
	var b strings.Builder
	if err := Encode(&displayEncoder{w: &b, current: CDBase}, m); err != nil {
		return "", err
	}
	return b.String(), nil
}

type displayEncoder struct {
	w *strings.Builder

	// current is the committed base; pending is a base set through
	// WithCDBase that the next constructor call commits. Non-empty
	// pending always differs from current.
	current string
	pending string

	done bool
}

var errEncoderUsed = errors.New("om: encoder already used")

func (e *displayEncoder) start() error {
	if e.done {
		return errEncoderUsed
	}
	e.done = true
	return nil
}

func (e *displayEncoder) CDBase() string {
	if e.pending != "" {
		return e.pending
	}
	return e.current
}

func (e *displayEncoder) WithCDBase(base string) (Encoder, error) {
	if base == e.current {
		return e, nil
	}
	return &displayEncoder{w: e.w, current: e.current, pending: base}, nil
}

// commit makes a pending base current, returning the "@base" marker
// compound nodes print.
func (e *displayEncoder) commit() string {
	if e.pending == "" {
		return ""
	}
	e.current = e.pending
	e.pending = ""
	return "@" + e.current
}

// child returns a fresh encoder for a child slot, inheriting the
// committed base.
func (e *displayEncoder) child() *displayEncoder {
	return &displayEncoder{w: e.w, current: e.current}
}

func (e *displayEncoder) OMI(v Int) error {
	if err := e.start(); err != nil {
		return err
	}
	fmt.Fprintf(e.w, "OMI(%s)", v)
	return nil
}

func (e *displayEncoder) OMF(v float64) error {
	if err := e.start(); err != nil {
		return err
	}
	fmt.Fprintf(e.w, "OMF(%s)", strconv.FormatFloat(v, 'g', -1, 64))
	return nil
}

func (e *displayEncoder) OMSTR(s string) error {
	if err := e.start(); err != nil {
		return err
	}
	fmt.Fprintf(e.w, "OMSTR(%q)", s)
	return nil
}

func (e *displayEncoder) OMB(b []byte) error {
	if err := e.start(); err != nil {
		return err
	}
	e.w.WriteString("OMB(")
	for i, c := range b {
		if i > 0 {
			e.w.WriteByte(',')
		}
		e.w.WriteString(strconv.Itoa(int(c)))
	}
	e.w.WriteByte(')')
	return nil
}

func (e *displayEncoder) OMV(name string) error {
	if err := e.start(); err != nil {
		return err
	}
	fmt.Fprintf(e.w, "OMV(%s)", name)
	return nil
}

func (e *displayEncoder) OMS(cd, name string) error {
	if err := e.start(); err != nil {
		return err
	}
	if e.pending != "" {
		fmt.Fprintf(e.w, "OMS(%s/%s#%s)", e.pending, cd, name)
		return nil
	}
	fmt.Fprintf(e.w, "OMS(%s#%s)", cd, name)
	return nil
}

func (e *displayEncoder) OMA(head Marshaler, args ...Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	at := e.commit()
	// A zero-argument application displays as its head alone.
	if len(args) == 0 {
		return Encode(e.child(), head)
	}
	e.w.WriteString("OMA" + at + "(")
	if err := Encode(e.child(), head); err != nil {
		return err
	}
	for _, a := range args {
		e.w.WriteByte(',')
		if err := Encode(e.child(), a); err != nil {
			return err
		}
	}
	e.w.WriteByte(')')
	return nil
}

func (e *displayEncoder) OMBIND(binder Marshaler, vars []BindVar, body Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	at := e.commit()
	e.w.WriteString("OMBIND" + at + "(")
	if err := Encode(e.child(), binder); err != nil {
		return err
	}
	e.w.WriteString(",[")
	for i, v := range vars {
		if i > 0 {
			e.w.WriteString(", ")
		}
		if len(v.Attrs) == 0 {
			e.w.WriteString(v.Name)
			continue
		}
		if err := e.child().OMATTR(v.Attrs, Var(v.Name)); err != nil {
			return err
		}
	}
	e.w.WriteString("],")
	if err := Encode(e.child(), body); err != nil {
		return err
	}
	e.w.WriteByte(')')
	return nil
}

func (e *displayEncoder) OME(sym *Symbol, args ...MaybeForeign) error {
	if err := e.start(); err != nil {
		return err
	}
	base, sep := "", ""
	if e.pending != "" {
		base, sep = e.pending, "/"
		e.commit()
	}
	if sym.CDBase != "" && sym.CDBase != e.current {
		base, sep = sym.CDBase, "/"
	}
	fmt.Fprintf(e.w, "OME%s%s%s#%s(", base, sep, sym.CD, sym.Name)
	for i, a := range args {
		if i > 0 {
			e.w.WriteByte(',')
		}
		if err := e.foreignOr(a); err != nil {
			return err
		}
	}
	e.w.WriteByte(')')
	return nil
}

func (e *displayEncoder) OMATTR(attrs []AttrPair, value Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	// An empty attribution renders as its bare object.
	if len(attrs) == 0 {
		e.done = false
		return Encode(e, value)
	}
	at := e.commit()
	e.w.WriteString("OMATTR" + at + "(")
	if err := Encode(e.child(), value); err != nil {
		return err
	}
	e.w.WriteString(",[")
	for i, a := range attrs {
		if i > 0 {
			e.w.WriteString(", ")
		}
		if err := Encode(e.child(), a.Key); err != nil {
			return err
		}
		e.w.WriteString(" = ")
		if err := e.foreignOr(a.Value); err != nil {
			return err
		}
	}
	e.w.WriteString("])")
	return nil
}

func (e *displayEncoder) foreignOr(v MaybeForeign) error {
	if f := v.Foreign; f != nil {
		if f.Encoding != "" {
			fmt.Fprintf(e.w, "OMFOREIGN(encoding:%s,%s)", f.Encoding, f.Value)
			return nil
		}
		fmt.Fprintf(e.w, "OMFOREIGN(%s)", f.Value)
		return nil
	}
	return Encode(e.child(), v.Object)
}
