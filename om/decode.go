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
	"fmt"
	"strconv"
)

// A Visitor consumes a decoded OpenMath stream bottom-up: the drivers
// call VisitOM once per node, children before parents in source order.
// cdbase is the effective content dictionary base at the node, with
// every explicit cdbase in scope already resolved.
//
// The visitor either accepts the node, producing a T that parent nodes
// see in their child slots, or pends it, leaving the raw node for a
// parent to interpret. A root left pending is a decode error reported
// by the driver.
type Visitor[T any] interface {
	VisitOM(n *OM[T], cdbase string) (Result[T], error)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc[T any] func(n *OM[T], cdbase string) (Result[T], error)

func (f VisitorFunc[T]) VisitOM(n *OM[T], cdbase string) (Result[T], error) {
	return f(n, cdbase)
}

// A Result is the visitor's verdict on one node: a value of the
// target type, or the node itself left pending.
type Result[T any] struct {
	ok    bool
	value T
	node  *OM[T]
}

// Accept produces the accepted Result.
func Accept[T any](v T) Result[T] { return Result[T]{ok: true, value: v} }

// Pend leaves n for an enclosing node to interpret.
func Pend[T any](n *OM[T]) Result[T] { return Result[T]{node: n} }

// Accepted reports whether the visitor produced a value.
func (r Result[T]) Accepted() bool { return r.ok }

// Value returns the accepted value, if any.
func (r Result[T]) Value() (T, bool) { return r.value, r.ok }

// Node returns the pending node, if any.
func (r Result[T]) Node() (*OM[T], bool) { return r.node, !r.ok }

// An OM is one decoded OpenMath node as handed to a Visitor. Kind
// selects which fields are meaningful; child slots hold the visitor's
// own earlier results.
//
// There is no OMATTR kind: attribution is carried in Attrs on the
// attributed node itself, so visitors that do not care about metadata
// can ignore it uniformly. OMFOREIGN and OMR never reach a visitor as
// nodes; foreign payloads appear only inside OMAttr and OME argument
// slots, and references are rejected by the drivers.
type OM[T any] struct {
	Kind Kind

	Int   Int     // OMI
	Float float64 // OMF
	Str   string  // OMSTR
	Bytes []byte  // OMB

	Name string // OMV and OMS and OME symbol name
	CD   string // OMS, OME

	// CDBase is the explicit base on an OME error symbol; empty means
	// the inherited base. For OMS it is already folded into the cdbase
	// argument of VisitOM.
	CDBase string

	Head Result[T]   // OMA
	Args []Result[T] // OMA

	Binder Result[T] // OMBIND
	Vars   []OMVar[T]
	Body   Result[T]

	ErrArgs []ForeignOr[T] // OME

	Attrs []OMAttr[T]
}

// An OMVar is one bound variable of an OMBIND node.
type OMVar[T any] struct {
	Name  string
	Attrs []OMAttr[T]
}

// An OMAttr is one attribution pair. CDBase is the key symbol's
// effective base, resolved by the drivers in the scope where the
// attribution appeared; empty falls back to the base at the node.
type OMAttr[T any] struct {
	CDBase string
	CD     string
	Name   string
	Value  ForeignOr[T]
}

// A ForeignOr holds either a visited OpenMath child or a foreign
// payload.
type ForeignOr[T any] struct {
	Foreign *Foreign // non-nil for a foreign payload
	Object  Result[T]
}

// Finish unwraps the root result of a decode, turning a pending root
// into an error.
func Finish[T any](r Result[T]) (T, error) {
	if v, ok := r.Value(); ok {
		return v, nil
	}
	var zero T
	if n, ok := r.Node(); ok && n != nil {
		return zero, fmt.Errorf("no value produced for %v root", n.Kind)
	}
	return zero, fmt.Errorf("no value produced for root")
}

// VisitInt accepts OMI leaves as Int and fails on every other kind.
var VisitInt Visitor[Int] = VisitorFunc[Int](func(n *OM[Int], _ string) (Result[Int], error) {
	if n.Kind == OMI {
		return Accept(n.Int), nil
	}
	return Result[Int]{}, fmt.Errorf("expected OMI, found %v", n.Kind)
})

// VisitFloat64 accepts OMF leaves and fails on every other kind.
var VisitFloat64 Visitor[float64] = VisitorFunc[float64](func(n *OM[float64], _ string) (Result[float64], error) {
	if n.Kind == OMF {
		return Accept(n.Float), nil
	}
	return Result[float64]{}, fmt.Errorf("expected OMF, found %v", n.Kind)
})

// VisitFloat32 is VisitFloat64 narrowed to float32.
var VisitFloat32 Visitor[float32] = VisitorFunc[float32](func(n *OM[float32], _ string) (Result[float32], error) {
	if n.Kind == OMF {
		return Accept(float32(n.Float)), nil
	}
	return Result[float32]{}, fmt.Errorf("expected OMF, found %v", n.Kind)
})

// VisitString accepts OMSTR leaves and fails on every other kind.
var VisitString Visitor[string] = VisitorFunc[string](func(n *OM[string], _ string) (Result[string], error) {
	if n.Kind == OMSTR {
		return Accept(n.Str), nil
	}
	return Result[string]{}, fmt.Errorf("expected OMSTR, found %v", n.Kind)
})

// VisitBytes accepts OMB leaves and fails on every other kind.
var VisitBytes Visitor[[]byte] = VisitorFunc[[]byte](func(n *OM[[]byte], _ string) (Result[[]byte], error) {
	if n.Kind == OMB {
		return Accept(n.Bytes), nil
	}
	return Result[[]byte]{}, fmt.Errorf("expected OMB, found %v", n.Kind)
})

// VisitNum returns a visitor that accepts OMI leaves as the machine
// integer type T, failing on out-of-range values. Negative values are
// out of range for the unsigned widths.
func VisitNum[T interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}]() Visitor[T] {
	// Underflows to the maximum for the unsigned widths.
	unsigned := T(0)-1 > T(0)
	return VisitorFunc[T](func(n *OM[T], _ string) (Result[T], error) {
		if n.Kind != OMI {
			return Result[T]{}, fmt.Errorf("expected OMI, found %v", n.Kind)
		}
		overflow := func() (Result[T], error) {
			return Result[T]{}, fmt.Errorf("integer %s overflows %T", n.Int, T(0))
		}
		if unsigned {
			if n.Int.IsNegative() {
				return overflow()
			}
			// Values past the int64 range may still fit in uint64.
			u, err := strconv.ParseUint(n.Int.String(), 10, 64)
			if err != nil {
				return overflow()
			}
			t := T(u)
			if uint64(t) != u {
				return overflow()
			}
			return Accept(t), nil
		}
		v, ok := n.Int.Int64()
		if !ok {
			return overflow()
		}
		t := T(v)
		if int64(t) != v {
			return overflow()
		}
		return Accept(t), nil
	})
}

// VisitExpr reconstructs the concrete tree. It accepts every node, so
// round-tripping any well-formed encoding through it succeeds.
var VisitExpr Visitor[Expr] = VisitorFunc[Expr](visitExpr)

func visitExpr(n *OM[Expr], cdbase string) (Result[Expr], error) {
	attrs, err := exprAttrs(n.Attrs, cdbase)
	if err != nil {
		return Result[Expr]{}, err
	}
	switch n.Kind {
	case OMI:
		return Accept[Expr](&Integer{Value: n.Int, Attrs: attrs}), nil
	case OMF:
		return Accept[Expr](&Float{Value: n.Float, Attrs: attrs}), nil
	case OMSTR:
		return Accept[Expr](&String{Value: n.Str, Attrs: attrs}), nil
	case OMB:
		return Accept[Expr](&Bytes{Value: n.Bytes, Attrs: attrs}), nil
	case OMV:
		return Accept[Expr](&Variable{Name: n.Name, Attrs: attrs}), nil
	case OMS:
		return Accept[Expr](&Symbol{CDBase: nonDefault(cdbase), CD: n.CD, Name: n.Name, Attrs: attrs}), nil
	case OMA:
		head, err := childExpr(n.Head)
		if err != nil {
			return Result[Expr]{}, err
		}
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = childExpr(a); err != nil {
				return Result[Expr]{}, err
			}
		}
		return Accept[Expr](&Application{Head: head, Args: args, Attrs: attrs}), nil
	case OMBIND:
		binder, err := childExpr(n.Binder)
		if err != nil {
			return Result[Expr]{}, err
		}
		body, err := childExpr(n.Body)
		if err != nil {
			return Result[Expr]{}, err
		}
		vars := make([]*Variable, len(n.Vars))
		for i, v := range n.Vars {
			va, err := exprAttrs(v.Attrs, cdbase)
			if err != nil {
				return Result[Expr]{}, err
			}
			vars[i] = &Variable{Name: v.Name, Attrs: va}
		}
		return Accept[Expr](&Binding{Binder: binder, Vars: vars, Body: body, Attrs: attrs}), nil
	case OME:
		base := n.CDBase
		if base == "" {
			base = cdbase
		}
		sym := &Symbol{CDBase: nonDefault(base), CD: n.CD, Name: n.Name}
		args := make([]Value, len(n.ErrArgs))
		for i, a := range n.ErrArgs {
			v, err := valueOf(a)
			if err != nil {
				return Result[Expr]{}, err
			}
			args[i] = v
		}
		return Accept[Expr](&ErrorExpr{Sym: sym, Args: args, Attrs: attrs}), nil
	}
	return Result[Expr]{}, fmt.Errorf("unexpected %v node", n.Kind)
}

// nonDefault drops the default base so canonical trees leave Symbol's
// CDBase empty.
func nonDefault(base string) string {
	if base == CDBase {
		return ""
	}
	return base
}

func childExpr(r Result[Expr]) (Expr, error) {
	v, ok := r.Value()
	if !ok {
		n, _ := r.Node()
		return nil, fmt.Errorf("pending %v child in tree decode", n.Kind)
	}
	return v, nil
}

func valueOf(f ForeignOr[Expr]) (Value, error) {
	if f.Foreign != nil {
		return f.Foreign, nil
	}
	v, err := childExpr(f.Object)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func exprAttrs(attrs []OMAttr[Expr], cdbase string) ([]Attr, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		base := a.CDBase
		if base == "" {
			base = cdbase
		}
		v, err := valueOf(a.Value)
		if err != nil {
			return nil, err
		}
		out[i] = Attr{
			Key:   &Symbol{CDBase: nonDefault(base), CD: a.CD, Name: a.Name},
			Value: v,
		}
	}
	return out, nil
}
