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

package json

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/rogpeppe/go-internal/txtar"

	"openmath.org/go/om"
	"openmath.org/go/om/errors"
)

func TestMarshal(t *testing.T) {
	testCases := []struct {
		m    om.Marshaler
		want string
	}{
		{&om.Integer{Value: om.NewInt(42)}, `{"kind":"OMI","integer":42}`},
		{&om.Integer{Value: om.MustParseInt("123456789012345678901234567890")},
			`{"kind":"OMI","decimal":"123456789012345678901234567890"}`},
		{om.Float64(1.4), `{"kind":"OMF","float":1.4}`},
		{&om.String{Value: "x + y"}, `{"kind":"OMSTR","string":"x + y"}`},
		{&om.Bytes{Value: []byte("Th")}, `{"kind":"OMB","base64":"VGg="}`},
		{om.Var("x"), `{"kind":"OMV","name":"x"}`},
		{om.Sym{CD: "arith1", Name: "plus"}, `{"kind":"OMS","cd":"arith1","name":"plus"}`},
		{&om.Symbol{CDBase: "http://example.org", CD: "geometry1", Name: "point"},
			`{"kind":"OMS","cdbase":"http://example.org","cd":"geometry1","name":"point"}`},
		{&om.Application{
			Head: &om.Symbol{CD: "arith1", Name: "plus"},
			Args: []om.Expr{&om.Integer{Value: om.NewInt(2)}, &om.Integer{Value: om.NewInt(2)}},
		}, `{"kind":"OMA","applicant":{"kind":"OMS","cd":"arith1","name":"plus"},` +
			`"arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":2}]}`},
		{&om.Binding{
			Binder: &om.Symbol{CD: "fns1", Name: "lambda"},
			Vars:   []*om.Variable{{Name: "x"}},
			Body:   &om.Variable{Name: "x"},
		}, `{"kind":"OMBIND","binder":{"kind":"OMS","cd":"fns1","name":"lambda"},` +
			`"variables":[{"kind":"OMV","name":"x"}],"object":{"kind":"OMV","name":"x"}}`},
		{&om.Variable{
			Name: "x",
			Attrs: []om.Attr{{
				Key:   &om.Symbol{CD: "meta", Name: "color"},
				Value: &om.String{Value: "red"},
			}},
		}, `{"kind":"OMATTR","attributes":[[{"kind":"OMS","cd":"meta","name":"color"},` +
			`{"kind":"OMSTR","string":"red"}]],"object":{"kind":"OMV","name":"x"}}`},
	}
	for _, tc := range testCases {
		got, err := Marshal(tc.m)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(string(got), tc.want))
	}
}

func TestMarshalObject(t *testing.T) {
	got, err := MarshalObject(&om.Integer{Value: om.NewInt(2)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(got),
		`{"kind":"OMOBJ","openmath":"2.0","object":{"kind":"OMI","integer":2}}`))

	v, err := DecodeObject(got, om.VisitInt)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "2"))
}

func TestDecodeCompactInteger(t *testing.T) {
	v, err := Decode([]byte(`{"kind":"OMI","integer":42}`), om.VisitNum[int64]())
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, int64(42)))
}

func TestDecodeBigInteger(t *testing.T) {
	const in = `{"kind":"OMI","decimal":"123456789012345678901234567890"}`

	_, err := Decode([]byte(in), om.VisitNum[int64]())
	qt.Assert(t, qt.ErrorMatches(err, `integer 123456789012345678901234567890 overflows int64.*`))

	v, err := Decode([]byte(in), om.VisitInt)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "123456789012345678901234567890"))
}

// Integers beyond float64 precision must survive decoding unmangled.
func TestDecodeIntegerPrecision(t *testing.T) {
	v, err := Decode([]byte(`{"kind":"OMI","integer":9007199254740993}`), om.VisitInt)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "9007199254740993"))
}

func TestDecodeIgnoresIDAndUnknownFields(t *testing.T) {
	v, err := Decode([]byte(`{"kind":"OMI","id":"n1","whatever":[1,2],"integer":7}`), om.VisitInt)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "7"))
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		match string
	}{
		{"missing kind", `{"integer":1}`, `missing "kind" field.*`},
		{"unknown kind", `{"kind":"OMZ"}`, `unknown kind "OMZ".*`},
		{"both integer and decimal", `{"kind":"OMI","integer":1,"decimal":"1"}`,
			`OMI has both "integer" and "decimal".*`},
		{"hexadecimal integer", `{"kind":"OMI","hexadecimal":"ff"}`,
			`hexadecimal integers are not supported.*`},
		{"hexadecimal float", `{"kind":"OMF","hexadecimal":"ff"}`,
			`hexadecimal floats are not supported.*`},
		{"missing payload", `{"kind":"OMI"}`, `OMI needs "integer" or "decimal".*`},
		{"bad integer literal", `{"kind":"OMI","decimal":"x10"}`,
			`field "decimal": invalid integer literal "x10".*`},
		{"reference", `{"kind":"OMR","href":"#foo"}`, `OMR references are not supported.*`},
		{"top-level foreign", `{"kind":"OMFOREIGN","foreign":"x"}`,
			`OMFOREIGN is only allowed as an attribute value or OME argument.*`},
		{"nested object wrapper", `{"kind":"OMA","applicant":{"kind":"OMOBJ"}}`,
			`unexpected nested OMOBJ.*`},
		{"bad base64", `{"kind":"OMB","base64":"VGg"}`, `.*length not divisible by 4.*`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input), om.VisitExpr)
			qt.Assert(t, qt.IsNotNil(err))
			qt.Assert(t, qt.ErrorMatches(err, tc.match))
		})
	}
}

func TestDecodeErrorPath(t *testing.T) {
	in := `{"kind":"OMA","applicant":{"kind":"OMS","cd":"arith1","name":"plus"},` +
		`"arguments":[{"kind":"OMI","integer":1},{"kind":"OMI"}]}`
	_, err := Decode([]byte(in), om.VisitExpr)
	qt.Assert(t, qt.IsNotNil(err))
	var perr errors.Error
	qt.Assert(t, qt.IsTrue(errors.As(err, &perr)))
	qt.Assert(t, qt.Equals(perr.Position().Path, "arguments[1]"))
}

// orderVisitor records the kind sequence of visitor calls.
type orderVisitor struct {
	kinds []om.Kind
}

func (o *orderVisitor) VisitOM(n *om.OM[struct{}], _ string) (om.Result[struct{}], error) {
	o.kinds = append(o.kinds, n.Kind)
	return om.Accept(struct{}{}), nil
}

func TestBottomUpOrder(t *testing.T) {
	in := `{"kind":"OMA","applicant":{"kind":"OMS","cd":"s","name":"f"},"arguments":[` +
		`{"kind":"OMA","applicant":{"kind":"OMS","cd":"s","name":"g"},"arguments":[{"kind":"OMI","integer":1}]},` +
		`{"kind":"OMI","integer":3}]}`
	v := &orderVisitor{}
	_, err := Decode([]byte(in), v)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(v.kinds, []om.Kind{
		om.OMS, om.OMS, om.OMI, om.OMA, om.OMI, om.OMA,
	}))
}

// baseVisitor records the effective cdbase seen at each OMS.
type baseVisitor struct {
	bases []string
}

func (b *baseVisitor) VisitOM(n *om.OM[struct{}], cdbase string) (om.Result[struct{}], error) {
	if n.Kind == om.OMS {
		b.bases = append(b.bases, cdbase)
	}
	return om.Accept(struct{}{}), nil
}

func TestCDBaseInheritance(t *testing.T) {
	in := `{"kind":"OMA","cdbase":"http://example.org",` +
		`"applicant":{"kind":"OMS","cd":"g","name":"f"},` +
		`"arguments":[{"kind":"OMS","cdbase":"http://other.org","cd":"g","name":"h"},` +
		`{"kind":"OMS","cd":"g","name":"k"}]}`
	v := &baseVisitor{}
	_, err := Decode([]byte(in), v)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(v.bases, []string{
		"http://example.org", "http://other.org", "http://example.org",
	}))
}

func TestMarshalCommitsCDBaseOnce(t *testing.T) {
	got, err := Marshal(om.MarshalerFunc(func(e om.Encoder) error {
		sub, err := e.WithCDBase("http://example.org")
		if err != nil {
			return err
		}
		return sub.OMA(om.Sym{CD: "g", Name: "f"}, om.Sym{CD: "g", Name: "h"})
	}))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(got),
		`{"kind":"OMA","cdbase":"http://example.org",`+
			`"applicant":{"kind":"OMS","cd":"g","name":"f"},`+
			`"arguments":[{"kind":"OMS","cd":"g","name":"h"}]}`))
}

func TestMarshalLeafDropsBase(t *testing.T) {
	// Leaves cannot carry a cdbase, so a base set just before one goes
	// unrecorded.
	testCases := []struct {
		emit func(e om.Encoder) error
		want string
	}{
		{func(e om.Encoder) error { return e.OMV("x") }, `{"kind":"OMV","name":"x"}`},
		{func(e om.Encoder) error { return e.OMI(om.NewInt(1)) }, `{"kind":"OMI","integer":1}`},
		{func(e om.Encoder) error { return e.OMSTR("s") }, `{"kind":"OMSTR","string":"s"}`},
	}
	for _, tc := range testCases {
		data, err := Marshal(om.MarshalerFunc(func(e om.Encoder) error {
			sub, err := e.WithCDBase("http://example.org")
			if err != nil {
				return err
			}
			return tc.emit(sub)
		}))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(string(data), tc.want))
	}
}

func TestDecodeAttrKeyBaseScope(t *testing.T) {
	// The key symbol lives in the attribution's scope, so a rebase on
	// the attributed object does not reach it.
	const data = `{"kind":"OMATTR",` +
		`"attributes":[[{"kind":"OMS","cd":"meta","name":"color"},{"kind":"OMSTR","string":"red"}]],` +
		`"object":{"kind":"OMA","cdbase":"http://inner.example",` +
		`"applicant":{"kind":"OMS","cd":"geometry1","name":"point"},` +
		`"arguments":[{"kind":"OMI","integer":1}]}}`
	expr, err := Unmarshal([]byte(data))
	qt.Assert(t, qt.IsNil(err))
	s, err := om.Display(expr)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(s,
		`OMATTR(OMA(OMS(http://inner.example/geometry1#point),OMI(1)),[OMS(meta#color) = OMSTR("red")])`))
}

func TestRoundTrip(t *testing.T) {
	tree := &om.Application{
		Head: &om.Symbol{CDBase: "http://example.org", CD: "geometry1", Name: "point"},
		Args: []om.Expr{
			&om.Float{Value: 1.4},
			&om.Integer{Value: om.MustParseInt("123456789012345678901234567890")},
			&om.Bytes{Value: []byte{0, 1, 255}},
			&om.Binding{
				Binder: &om.Symbol{CD: "fns1", Name: "lambda"},
				Vars: []*om.Variable{
					{Name: "x"},
					{Name: "y", Attrs: []om.Attr{{
						Key:   &om.Symbol{CD: "meta", Name: "type"},
						Value: &om.Symbol{CD: "types", Name: "real"},
					}}},
				},
				Body: &om.Variable{Name: "x"},
			},
			&om.ErrorExpr{
				Sym: &om.Symbol{CD: "aritherror", Name: "DivisionByZero"},
				Args: []om.Value{
					&om.Variable{Name: "x"},
					&om.Foreign{Encoding: "text/mathml", Value: "<mi>x</mi>"},
				},
			},
			&om.String{
				Value: "s",
				Attrs: []om.Attr{{
					Key:   &om.Symbol{CD: "meta", Name: "lang"},
					Value: &om.String{Value: "en"},
				}},
			},
		},
	}
	data, err := Marshal(tree)
	qt.Assert(t, qt.IsNil(err))
	back, err := Unmarshal(data)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(om.Equal(tree, back)))

	obj, err := MarshalObject(tree)
	qt.Assert(t, qt.IsNil(err))
	back2, err := DecodeObject(obj, om.VisitExpr)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(om.Equal(tree, back2)))
}

// An attribution with no pairs must serialize identically to its bare
// object.
func TestEmptyAttributionElided(t *testing.T) {
	got, err := Marshal(om.MarshalerFunc(func(e om.Encoder) error {
		return e.OMATTR(nil, om.Var("x"))
	}))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(got), `{"kind":"OMV","name":"x"}`))
}

func TestDecodeReader(t *testing.T) {
	v, err := DecodeReader(strings.NewReader(`{"kind":"OMSTR","string":"hi"}`), om.VisitString)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, "hi"))
}

func TestVariablesAsNames(t *testing.T) {
	in := `{"kind":"OMBIND","binder":{"kind":"OMS","cd":"fns1","name":"lambda"},` +
		`"variables":["x","y"],"object":{"kind":"OMV","name":"x"}}`
	e, err := Unmarshal([]byte(in))
	qt.Assert(t, qt.IsNil(err))
	bind, ok := e.(*om.Binding)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(bind.Vars), 2))
	qt.Assert(t, qt.Equals(bind.Vars[1].Name, "y"))
}

func TestGolden(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/objects.txtar")
	qt.Assert(t, qt.IsNil(err))
	files := make(map[string]string)
	for _, f := range ar.Files {
		files[f.Name] = strings.TrimSuffix(string(f.Data), "\n")
	}
	for name, input := range files {
		base, ok := strings.CutSuffix(name, ".json")
		if !ok {
			continue
		}
		t.Run(base, func(t *testing.T) {
			want, ok := files[base+".display"]
			qt.Assert(t, qt.IsTrue(ok))

			tree, err := Unmarshal([]byte(input))
			qt.Assert(t, qt.IsNil(err))
			got, err := om.Display(tree)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(got, want))

			// And back: the re-encoded JSON parses to an equal tree.
			data, err := Marshal(tree)
			qt.Assert(t, qt.IsNil(err))
			back, err := Unmarshal(data)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.IsTrue(om.Equal(tree, back)))
		})
	}
}
