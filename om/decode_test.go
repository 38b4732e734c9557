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
	"math"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestVisitLeaves(t *testing.T) {
	v, err := VisitInt.VisitOM(&OM[Int]{Kind: OMI, Int: NewInt(42)}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	i, ok := v.Value()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(i.String(), "42"))

	f, err := VisitFloat64.VisitOM(&OM[float64]{Kind: OMF, Float: 1.5}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	fv, _ := f.Value()
	qt.Assert(t, qt.Equals(fv, 1.5))

	s, err := VisitString.VisitOM(&OM[string]{Kind: OMSTR, Str: "hi"}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	sv, _ := s.Value()
	qt.Assert(t, qt.Equals(sv, "hi"))

	_, err = VisitString.VisitOM(&OM[string]{Kind: OMI, Int: NewInt(1)}, CDBase)
	qt.Assert(t, qt.ErrorMatches(err, "expected OMSTR, found OMI"))

	_, err = VisitBytes.VisitOM(&OM[[]byte]{Kind: OMV, Name: "x"}, CDBase)
	qt.Assert(t, qt.ErrorMatches(err, "expected OMB, found OMV"))
}

func TestVisitNum(t *testing.T) {
	accept := func(t *testing.T, v Visitor[int8], text string) (int8, error) {
		t.Helper()
		r, err := v.VisitOM(&OM[int8]{Kind: OMI, Int: MustParseInt(text)}, CDBase)
		if err != nil {
			return 0, err
		}
		n, _ := r.Value()
		return n, nil
	}
	v := VisitNum[int8]()

	n, err := accept(t, v, "127")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, int8(127)))

	n, err = accept(t, v, "-128")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, int8(-128)))

	_, err = accept(t, v, "128")
	qt.Assert(t, qt.ErrorMatches(err, "integer 128 overflows int8"))

	_, err = accept(t, v, "123456789012345678901234567890")
	qt.Assert(t, qt.ErrorMatches(err, "integer 123456789012345678901234567890 overflows int8"))
}

func TestVisitNumUnsigned(t *testing.T) {
	accept := func(t *testing.T, v Visitor[uint8], text string) (uint8, error) {
		t.Helper()
		r, err := v.VisitOM(&OM[uint8]{Kind: OMI, Int: MustParseInt(text)}, CDBase)
		if err != nil {
			return 0, err
		}
		n, _ := r.Value()
		return n, nil
	}
	v := VisitNum[uint8]()

	n, err := accept(t, v, "255")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, uint8(255)))

	_, err = accept(t, v, "256")
	qt.Assert(t, qt.ErrorMatches(err, "integer 256 overflows uint8"))

	_, err = accept(t, v, "-1")
	qt.Assert(t, qt.ErrorMatches(err, "integer -1 overflows uint8"))
}

func TestVisitNumUint64(t *testing.T) {
	// The maximum uint64 is outside the int64 range, so it arrives in
	// the text form.
	v := VisitNum[uint64]()
	r, err := v.VisitOM(&OM[uint64]{Kind: OMI, Int: MustParseInt("18446744073709551615")}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	n, _ := r.Value()
	qt.Assert(t, qt.Equals(n, uint64(18446744073709551615)))

	_, err = v.VisitOM(&OM[uint64]{Kind: OMI, Int: MustParseInt("18446744073709551616")}, CDBase)
	qt.Assert(t, qt.ErrorMatches(err, "integer 18446744073709551616 overflows uint64"))

	_, err = v.VisitOM(&OM[uint64]{Kind: OMI, Int: NewInt(-1)}, CDBase)
	qt.Assert(t, qt.ErrorMatches(err, "integer -1 overflows uint64"))
}

func TestFinish(t *testing.T) {
	n, err := Finish(Accept(7))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 7))

	_, err = Finish(Pend(&OM[int]{Kind: OMS, CD: "arith1", Name: "plus"}))
	qt.Assert(t, qt.ErrorMatches(err, "no value produced for OMS root"))
}

func TestVisitExprSymbolBases(t *testing.T) {
	// The default base disappears; any other effective base sticks.
	r, err := VisitExpr.VisitOM(&OM[Expr]{Kind: OMS, CD: "arith1", Name: "plus"}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	e, _ := r.Value()
	qt.Assert(t, qt.Equals(e.(*Symbol).CDBase, ""))

	r, err = VisitExpr.VisitOM(&OM[Expr]{Kind: OMS, CD: "geometry1", Name: "point"}, "http://example.org")
	qt.Assert(t, qt.IsNil(err))
	e, _ = r.Value()
	qt.Assert(t, qt.Equals(e.(*Symbol).CDBase, "http://example.org"))
}

func TestVisitExprAttrs(t *testing.T) {
	inner, err := VisitExpr.VisitOM(&OM[Expr]{Kind: OMSTR, Str: "red"}, CDBase)
	qt.Assert(t, qt.IsNil(err))
	r, err := VisitExpr.VisitOM(&OM[Expr]{
		Kind: OMV,
		Name: "x",
		Attrs: []OMAttr[Expr]{{
			CD:    "meta",
			Name:  "color",
			Value: ForeignOr[Expr]{Object: inner},
		}},
	}, "http://example.org")
	qt.Assert(t, qt.IsNil(err))
	e, _ := r.Value()
	attrs := e.Attributes()
	qt.Assert(t, qt.HasLen(attrs, 1))
	// The key inherits the effective base of its node.
	qt.Assert(t, qt.Equals(attrs[0].Key.CDBase, "http://example.org"))
	qt.Assert(t, qt.Equals(KindOf(e), OMATTR))
}

func TestKindOf(t *testing.T) {
	qt.Assert(t, qt.Equals(KindOf(&Integer{Value: NewInt(1)}), OMI))
	qt.Assert(t, qt.Equals(KindOf(&Variable{Name: "x"}), OMV))
	attributed := &Variable{
		Name:  "x",
		Attrs: []Attr{{Key: &Symbol{CD: "meta", Name: "color"}, Value: &String{Value: "red"}}},
	}
	qt.Assert(t, qt.Equals(KindOf(attributed), OMATTR))
}

func TestKindString(t *testing.T) {
	qt.Assert(t, qt.Equals(OMI.String(), "OMI"))
	qt.Assert(t, qt.Equals(OMFOREIGN.String(), "OMFOREIGN"))
	qt.Assert(t, qt.Equals(Kind(42).String(), "Kind(42)"))
}

func TestEqual(t *testing.T) {
	plus := func(base string) *Symbol { return &Symbol{CDBase: base, CD: "arith1", Name: "plus"} }

	// Explicit default base and inherited base are the same symbol.
	qt.Assert(t, qt.IsTrue(Equal(plus(""), plus(CDBase))))
	qt.Assert(t, qt.IsFalse(Equal(plus(""), plus("http://example.org"))))

	qt.Assert(t, qt.IsTrue(Equal(
		&Integer{Value: NewInt(7)},
		&Integer{Value: MustParseInt("007")},
	)))
	qt.Assert(t, qt.IsFalse(Equal(
		&Integer{Value: NewInt(7)},
		&Integer{Value: NewInt(8)},
	)))

	qt.Assert(t, qt.IsTrue(Equal(
		&Float{Value: math.NaN()},
		&Float{Value: math.NaN()},
	)))
	qt.Assert(t, qt.IsFalse(Equal(
		&Float{Value: 0},
		&Integer{Value: NewInt(0)},
	)))

	attributed := &Variable{
		Name:  "x",
		Attrs: []Attr{{Key: plus(""), Value: &String{Value: "red"}}},
	}
	qt.Assert(t, qt.IsFalse(Equal(attributed, &Variable{Name: "x"})))
	qt.Assert(t, qt.IsTrue(Equal(attributed, &Variable{
		Name:  "x",
		Attrs: []Attr{{Key: plus(CDBase), Value: &String{Value: "red"}}},
	})))

	qt.Assert(t, qt.IsTrue(Equal(
		&ErrorExpr{Sym: plus(""), Args: []Value{&Foreign{Encoding: "text/plain", Value: "x"}}},
		&ErrorExpr{Sym: plus(CDBase), Args: []Value{&Foreign{Encoding: "text/plain", Value: "x"}}},
	)))
	qt.Assert(t, qt.IsFalse(Equal(
		&ErrorExpr{Sym: plus(""), Args: []Value{&Foreign{Value: "x"}}},
		&ErrorExpr{Sym: plus(""), Args: []Value{&String{Value: "x"}}},
	)))
}
