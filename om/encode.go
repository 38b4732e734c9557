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

// A Marshaler can write itself to any Encoder. Implementations call
// exactly one constructor method on the encoder they are given.
type Marshaler interface {
	MarshalOM(e Encoder) error
}

// MarshalerFunc adapts a function to the Marshaler interface.
type MarshalerFunc func(e Encoder) error

func (f MarshalerFunc) MarshalOM(e Encoder) error { return f(e) }

// A CDBaser is a Marshaler with a preferred content dictionary base.
// Encode applies the base before invoking MarshalOM, so symbols
// written with bare cd/name pairs resolve against it.
type CDBaser interface {
	CDBase() string
}

// An Encoder is a single-use sink for one OpenMath node. Exactly one
// constructor method may be called on it; compound constructors
// consume their children through nested Marshalers.
//
// Every encoder carries the content dictionary base in force at its
// node. WithCDBase returns an encoder for the same node with a new
// base pending: the base applies to the node subsequently constructed
// (and is inherited by its children), and concrete sinks emit it only
// if it differs from the inherited one.
type Encoder interface {
	// CDBase returns the base the node built on this encoder will
	// resolve bare symbols against.
	CDBase() string

	// WithCDBase returns an encoder for the same node with base
	// pending. A base equal to the current one is a no-op.
	WithCDBase(base string) (Encoder, error)

	OMI(v Int) error
	OMF(v float64) error
	OMSTR(s string) error
	OMB(b []byte) error
	OMV(name string) error
	OMS(cd, name string) error
	OMA(head Marshaler, args ...Marshaler) error
	OMBIND(binder Marshaler, vars []BindVar, body Marshaler) error
	OME(sym *Symbol, args ...MaybeForeign) error
	OMATTR(attrs []AttrPair, value Marshaler) error
}

// A MaybeForeign is a slot that holds either an OpenMath object or a
// foreign payload. Exactly one field is set.
type MaybeForeign struct {
	Object  Marshaler
	Foreign *Foreign
}

// An AttrPair is one attribution handed to Encoder.OMATTR.
type AttrPair struct {
	Key   *Symbol
	Value MaybeForeign
}

// A BindVar is one bound variable handed to Encoder.OMBIND.
type BindVar struct {
	Name  string
	Attrs []AttrPair
}

// Encode writes m to e, first applying m's preferred base if it
// declares one through CDBaser. Sinks use it for child nodes; it is
// also the entry point the drivers call for the root.
func Encode(e Encoder, m Marshaler) error {
	if c, ok := m.(CDBaser); ok {
		if base := c.CDBase(); base != "" && base != e.CDBase() {
			sub, err := e.WithCDBase(base)
			if err != nil {
				return err
			}
			e = sub
		}
	}
	return m.MarshalOM(e)
}

// Int64 is a Marshaler for a machine integer.
type Int64 int64

func (v Int64) MarshalOM(e Encoder) error { return e.OMI(NewInt(int64(v))) }

// Float64 is a Marshaler for an IEEE 754 double.
type Float64 float64

func (v Float64) MarshalOM(e Encoder) error { return e.OMF(float64(v)) }

// Var is a Marshaler for a bare variable.
type Var string

func (v Var) MarshalOM(e Encoder) error { return e.OMV(string(v)) }

// A Sym is a Marshaler for a bare symbol, with an optional explicit
// base. It is the lightweight form of *Symbol for heads and error
// symbols built on the fly.
type Sym struct {
	Base string
	CD   string
	Name string
}

func (s Sym) MarshalOM(e Encoder) error {
	if s.Base != "" {
		sub, err := e.WithCDBase(s.Base)
		if err != nil {
			return err
		}
		e = sub
	}
	return e.OMS(s.CD, s.Name)
}

// marshalAttributed wraps bare in an OMATTR when attrs is non-empty.
func marshalAttributed(e Encoder, attrs []Attr, bare Marshaler) error {
	if len(attrs) == 0 {
		return bare.MarshalOM(e)
	}
	return e.OMATTR(attrPairs(attrs), bare)
}

func attrPairs(attrs []Attr) []AttrPair {
	pairs := make([]AttrPair, len(attrs))
	for i, a := range attrs {
		pairs[i] = AttrPair{Key: a.Key, Value: maybeForeign(a.Value)}
	}
	return pairs
}

func maybeForeign(v Value) MaybeForeign {
	if f, ok := v.(*Foreign); ok {
		return MaybeForeign{Foreign: f}
	}
	return MaybeForeign{Object: v.(Expr)}
}

func (x *Integer) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		return e.OMI(x.Value)
	}))
}

func (x *Float) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		return e.OMF(x.Value)
	}))
}

func (x *String) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		return e.OMSTR(x.Value)
	}))
}

func (x *Bytes) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		return e.OMB(x.Value)
	}))
}

func (x *Variable) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		return e.OMV(x.Name)
	}))
}

func (x *Symbol) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, Sym{Base: x.CDBase, CD: x.CD, Name: x.Name})
}

func (x *Application) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		args := make([]Marshaler, len(x.Args))
		for i, a := range x.Args {
			args[i] = a
		}
		return e.OMA(x.Head, args...)
	}))
}

func (x *Binding) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		vars := make([]BindVar, len(x.Vars))
		for i, v := range x.Vars {
			vars[i] = BindVar{Name: v.Name, Attrs: attrPairs(v.Attrs)}
		}
		return e.OMBIND(x.Binder, vars, x.Body)
	}))
}

func (x *ErrorExpr) MarshalOM(e Encoder) error {
	return marshalAttributed(e, x.Attrs, MarshalerFunc(func(e Encoder) error {
		args := make([]MaybeForeign, len(x.Args))
		for i, a := range x.Args {
			args[i] = maybeForeign(a)
		}
		return e.OME(x.Sym, args...)
	}))
}
