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
	"bytes"
	"math"
)

// Equal reports structural equality of two objects. Symbols compare
// by their effective base, so a symbol with an explicit default base
// equals one that inherits it. Integers compare numerically, floats
// bitwise up to NaN (any NaN equals any NaN). Attribution lists
// compare in order.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !equalAttrs(a.Attributes(), b.Attributes()) {
		return false
	}
	switch x := a.(type) {
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Value.Cmp(y.Value) == 0
	case *Float:
		y, ok := b.(*Float)
		return ok && equalFloat(x.Value, y.Value)
	case *String:
		y, ok := b.(*String)
		return ok && x.Value == y.Value
	case *Bytes:
		y, ok := b.(*Bytes)
		return ok && bytes.Equal(x.Value, y.Value)
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && equalSymbol(x, y)
	case *Application:
		y, ok := b.(*Application)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Head, y.Head) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Binding:
		y, ok := b.(*Binding)
		if !ok || len(x.Vars) != len(y.Vars) ||
			!Equal(x.Binder, y.Binder) || !Equal(x.Body, y.Body) {
			return false
		}
		for i := range x.Vars {
			if !Equal(x.Vars[i], y.Vars[i]) {
				return false
			}
		}
		return true
	case *ErrorExpr:
		y, ok := b.(*ErrorExpr)
		if !ok || len(x.Args) != len(y.Args) || !equalSymbol(x.Sym, y.Sym) {
			return false
		}
		for i := range x.Args {
			if !equalValue(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func equalSymbol(a, b *Symbol) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return effectiveBase(a.CDBase) == effectiveBase(b.CDBase) &&
		a.CD == b.CD && a.Name == b.Name
}

func effectiveBase(base string) string {
	if base == "" {
		return CDBase
	}
	return base
}

func equalFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func equalValue(a, b Value) bool {
	if fa, ok := a.(*Foreign); ok {
		fb, ok := b.(*Foreign)
		return ok && fa.Encoding == fb.Encoding && fa.Value == fb.Value
	}
	ea, ok := a.(Expr)
	if !ok {
		return false
	}
	eb, ok := b.(Expr)
	return ok && Equal(ea, eb)
}

func equalAttrs(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalSymbol(a[i].Key, b[i].Key) || !equalValue(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}
