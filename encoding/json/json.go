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

// Package json converts OpenMath objects to and from the OpenMath 2.0
// JSON encoding.
//
// Encoding goes through the om.Encoder contract, so any om.Marshaler
// can be written out; decoding drives an om.Visitor bottom-up, so the
// concrete tree is only built when the visitor asks for it
// (om.VisitExpr). Errors carry the JSON path of the offending node,
// for example "object.arguments[1].cd".
package json

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"openmath.org/go/base64"
	"openmath.org/go/om"
	"openmath.org/go/om/errors"
)

// Marshal writes m as a bare OpenMath JSON object.
func Marshal(m om.Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{w: &buf, current: om.CDBase}
	if err := om.Encode(e, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalObject writes m wrapped in an OMOBJ carrying the encoding
// version.
func MarshalObject(m om.Marshaler) ([]byte, error) {
	inner, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"kind":"OMOBJ","openmath":"2.0","object":`)
	buf.Write(inner)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a bare OpenMath JSON object, feeding every node to v
// bottom-up and returning the root value.
func Decode[T any](data []byte, v om.Visitor[T]) (T, error) {
	d := &decoder[T]{v: v}
	r, err := d.node(stdjson.RawMessage(data), "", om.CDBase, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return finish(r, "")
}

// DecodeObject parses a top-level OMOBJ wrapper and decodes the object
// inside it. A cdbase on the wrapper scopes the whole object.
func DecodeObject[T any](data []byte, v om.Visitor[T]) (T, error) {
	var zero T
	fields, err := objectFields(stdjson.RawMessage(data), "")
	if err != nil {
		return zero, err
	}
	kind, err := kindOf(fields, "")
	if err != nil {
		return zero, err
	}
	if kind != "OMOBJ" {
		return zero, errors.Newf(errors.PathPos(""), "expected OMOBJ, found %q", kind)
	}
	cdbase := om.CDBase
	if raw, ok := fields["cdbase"]; ok {
		if cdbase, err = stringField(raw, "", "cdbase"); err != nil {
			return zero, err
		}
	}
	raw, ok := fields["object"]
	if !ok {
		return zero, errors.Newf(errors.PathPos(""), "OMOBJ is missing %q", "object")
	}
	d := &decoder[T]{v: v}
	r, err := d.node(raw, "object", cdbase, nil)
	if err != nil {
		return zero, err
	}
	return finish(r, "object")
}

// DecodeReader reads all of r and decodes it as a bare object.
func DecodeReader[T any](r io.Reader, v om.Visitor[T]) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(data, v)
}

// Unmarshal decodes a bare OpenMath JSON object into the concrete
// tree.
func Unmarshal(data []byte) (om.Expr, error) {
	return Decode(data, om.VisitExpr)
}

func finish[T any](r om.Result[T], path string) (T, error) {
	v, ok := r.Value()
	if !ok {
		var zero T
		return zero, errors.Newf(errors.PathPos(path), "visitor left the root pending")
	}
	return v, nil
}

// encoder is the om.Encoder sink writing OpenMath JSON. Field order
// is fixed (kind, cdbase, payload), which map marshaling cannot
// promise, so nodes are written by hand and only scalars go through
// encoding/json.
type encoder struct {
	w *bytes.Buffer

	current string
	pending string

	done bool
}

func (e *encoder) start() error {
	if e.done {
		return fmt.Errorf("json: encoder already used")
	}
	e.done = true
	return nil
}

func (e *encoder) CDBase() string {
	if e.pending != "" {
		return e.pending
	}
	return e.current
}

func (e *encoder) WithCDBase(base string) (om.Encoder, error) {
	if base == e.current {
		return e, nil
	}
	return &encoder{w: e.w, current: e.current, pending: base}, nil
}

// open writes the node opener with kind and, if one is pending, the
// cdbase, committing it for child slots. Only the node kinds that
// admit a cdbase (OMS, OMA, OMBIND, OME, OMATTR) go through here.
func (e *encoder) open(kind string) {
	fmt.Fprintf(e.w, `{"kind":%q`, kind)
	if e.pending != "" {
		e.current = e.pending
		e.pending = ""
		e.w.WriteString(`,"cdbase":`)
		e.writeString(e.current)
	}
}

// openPlain writes the node opener without touching a pending base:
// leaves cannot carry one, so an uncommitted base goes unrecorded.
func (e *encoder) openPlain(kind string) {
	fmt.Fprintf(e.w, `{"kind":%q`, kind)
}

func (e *encoder) writeString(s string) {
	b, _ := stdjson.Marshal(s)
	e.w.Write(b)
}

func (e *encoder) child() *encoder {
	return &encoder{w: e.w, current: e.current}
}

func (e *encoder) OMI(v om.Int) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMI")
	if text, ok := v.Big(); ok {
		e.w.WriteString(`,"decimal":`)
		e.writeString(text)
	} else {
		small, _ := v.Int64()
		fmt.Fprintf(e.w, `,"integer":%d`, small)
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMF(v float64) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMF")
	// JSON has no literals for the non-finite doubles; those go
	// through the decimal form with the spellings the XML encoding
	// uses.
	switch {
	case math.IsInf(v, 1):
		e.w.WriteString(`,"decimal":"INF"`)
	case math.IsInf(v, -1):
		e.w.WriteString(`,"decimal":"-INF"`)
	case math.IsNaN(v):
		e.w.WriteString(`,"decimal":"NaN"`)
	default:
		e.w.WriteString(`,"float":`)
		e.w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMSTR(s string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMSTR")
	e.w.WriteString(`,"string":`)
	e.writeString(s)
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMB(b []byte) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMB")
	e.w.WriteString(`,"base64":`)
	e.writeString(base64.EncodeToString(b))
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMV(name string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMV")
	e.w.WriteString(`,"name":`)
	e.writeString(name)
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMS(cd, name string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMS")
	e.w.WriteString(`,"cd":`)
	e.writeString(cd)
	e.w.WriteString(`,"name":`)
	e.writeString(name)
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMA(head om.Marshaler, args ...om.Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMA")
	e.w.WriteString(`,"applicant":`)
	if err := om.Encode(e.child(), head); err != nil {
		return err
	}
	if len(args) > 0 {
		e.w.WriteString(`,"arguments":[`)
		for i, a := range args {
			if i > 0 {
				e.w.WriteByte(',')
			}
			if err := om.Encode(e.child(), a); err != nil {
				return err
			}
		}
		e.w.WriteByte(']')
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMBIND(binder om.Marshaler, vars []om.BindVar, body om.Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMBIND")
	e.w.WriteString(`,"binder":`)
	if err := om.Encode(e.child(), binder); err != nil {
		return err
	}
	e.w.WriteString(`,"variables":[`)
	for i, v := range vars {
		if i > 0 {
			e.w.WriteByte(',')
		}
		if err := e.bindVar(v); err != nil {
			return err
		}
	}
	e.w.WriteString(`],"object":`)
	if err := om.Encode(e.child(), body); err != nil {
		return err
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) bindVar(v om.BindVar) error {
	omv := om.MarshalerFunc(func(e om.Encoder) error { return e.OMV(v.Name) })
	if len(v.Attrs) == 0 {
		return om.Encode(e.child(), omv)
	}
	return e.child().OMATTR(v.Attrs, omv)
}

func (e *encoder) OME(sym *om.Symbol, args ...om.MaybeForeign) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OME")
	e.w.WriteString(`,"error":`)
	if err := om.Encode(e.child(), sym); err != nil {
		return err
	}
	if len(args) > 0 {
		e.w.WriteString(`,"arguments":[`)
		for i, a := range args {
			if i > 0 {
				e.w.WriteByte(',')
			}
			if err := e.foreignOr(a); err != nil {
				return err
			}
		}
		e.w.WriteByte(']')
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) OMATTR(attrs []om.AttrPair, value om.Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	// An empty attribution is not encoded at all.
	if len(attrs) == 0 {
		e.done = false
		return om.Encode(e, value)
	}
	e.open("OMATTR")
	e.w.WriteString(`,"attributes":[`)
	for i, a := range attrs {
		if i > 0 {
			e.w.WriteByte(',')
		}
		e.w.WriteByte('[')
		if err := om.Encode(e.child(), a.Key); err != nil {
			return err
		}
		e.w.WriteByte(',')
		if err := e.foreignOr(a.Value); err != nil {
			return err
		}
		e.w.WriteByte(']')
	}
	e.w.WriteString(`],"object":`)
	if err := om.Encode(e.child(), value); err != nil {
		return err
	}
	e.w.WriteByte('}')
	return nil
}

func (e *encoder) foreignOr(v om.MaybeForeign) error {
	if f := v.Foreign; f != nil {
		e.w.WriteString(`{"kind":"OMFOREIGN"`)
		if f.Encoding != "" {
			e.w.WriteString(`,"encoding":`)
			e.writeString(f.Encoding)
		}
		e.w.WriteString(`,"foreign":`)
		e.writeString(f.Value)
		e.w.WriteByte('}')
		return nil
	}
	return om.Encode(e.child(), v.Object)
}

// decoder walks the raw JSON tree, building om.OM nodes and calling
// the visitor children-first.
type decoder[T any] struct {
	v om.Visitor[T]
}

func objectFields(raw stdjson.RawMessage, path string) (map[string]stdjson.RawMessage, error) {
	var fields map[string]stdjson.RawMessage
	if err := stdjson.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(err, errors.PathPos(path), "expected a JSON object")
	}
	return fields, nil
}

func kindOf(fields map[string]stdjson.RawMessage, path string) (string, error) {
	raw, ok := fields["kind"]
	if !ok {
		return "", errors.Newf(errors.PathPos(path), "missing %q field", "kind")
	}
	return stringField(raw, path, "kind")
}

func stringField(raw stdjson.RawMessage, path, name string) (string, error) {
	var s string
	if err := stdjson.Unmarshal(raw, &s); err != nil {
		return "", errors.Wrapf(err, errors.PathPos(path), "field %q", name)
	}
	return s, nil
}

func at(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func index(path, field string, i int) string {
	return fmt.Sprintf("%s[%d]", at(path, field), i)
}

// node decodes one object, attaching any attribution pairs collected
// from enclosing OMATTR wrappers, and hands it to the visitor.
func (d *decoder[T]) node(raw stdjson.RawMessage, path, cdbase string, attrs []om.OMAttr[T]) (om.Result[T], error) {
	var zero om.Result[T]
	fields, err := objectFields(raw, path)
	if err != nil {
		return zero, err
	}
	kind, err := kindOf(fields, path)
	if err != nil {
		return zero, err
	}

	// An explicit cdbase scopes this node and everything below it.
	if rawBase, ok := fields["cdbase"]; ok {
		if cdbase, err = stringField(rawBase, path, "cdbase"); err != nil {
			return zero, err
		}
	}

	n := &om.OM[T]{Attrs: attrs}
	switch kind {
	case "OMI":
		n.Kind = om.OMI
		if n.Int, err = integerFields(fields, path); err != nil {
			return zero, err
		}
	case "OMF":
		n.Kind = om.OMF
		if n.Float, err = floatFields(fields, path); err != nil {
			return zero, err
		}
	case "OMSTR":
		raw, ok := fields["string"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMSTR is missing %q", "string")
		}
		n.Kind = om.OMSTR
		if n.Str, err = stringField(raw, path, "string"); err != nil {
			return zero, err
		}
	case "OMB":
		n.Kind = om.OMB
		if n.Bytes, err = bytesFields(fields, path); err != nil {
			return zero, err
		}
	case "OMV":
		raw, ok := fields["name"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMV is missing %q", "name")
		}
		n.Kind = om.OMV
		if n.Name, err = stringField(raw, path, "name"); err != nil {
			return zero, err
		}
	case "OMS":
		n.Kind = om.OMS
		if n.CD, n.Name, err = symbolFields(fields, path); err != nil {
			return zero, err
		}
	case "OMA":
		n.Kind = om.OMA
		raw, ok := fields["applicant"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMA is missing %q", "applicant")
		}
		if n.Head, err = d.node(raw, at(path, "applicant"), cdbase, nil); err != nil {
			return zero, err
		}
		elems, err := arrayField(fields, "arguments", path)
		if err != nil {
			return zero, err
		}
		n.Args = make([]om.Result[T], len(elems))
		for i, a := range elems {
			if n.Args[i], err = d.node(a, index(path, "arguments", i), cdbase, nil); err != nil {
				return zero, err
			}
		}
	case "OMBIND":
		n.Kind = om.OMBIND
		raw, ok := fields["binder"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMBIND is missing %q", "binder")
		}
		if n.Binder, err = d.node(raw, at(path, "binder"), cdbase, nil); err != nil {
			return zero, err
		}
		vars, ok := fields["variables"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMBIND is missing %q", "variables")
		}
		if n.Vars, err = d.bindVars(vars, path, cdbase); err != nil {
			return zero, err
		}
		body, ok := fields["object"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMBIND is missing %q", "object")
		}
		if n.Body, err = d.node(body, at(path, "object"), cdbase, nil); err != nil {
			return zero, err
		}
	case "OME":
		n.Kind = om.OME
		raw, ok := fields["error"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OME is missing %q", "error")
		}
		epath := at(path, "error")
		sym, err := objectFields(raw, epath)
		if err != nil {
			return zero, err
		}
		symKind, err := kindOf(sym, epath)
		if err != nil {
			return zero, err
		}
		if symKind != "OMS" {
			return zero, errors.Newf(errors.PathPos(epath), "OME error symbol must be an OMS, found %q", symKind)
		}
		if rawBase, ok := sym["cdbase"]; ok {
			if n.CDBase, err = stringField(rawBase, epath, "cdbase"); err != nil {
				return zero, err
			}
		}
		if n.CD, n.Name, err = symbolFields(sym, epath); err != nil {
			return zero, err
		}
		elems, err := arrayField(fields, "arguments", path)
		if err != nil {
			return zero, err
		}
		n.ErrArgs = make([]om.ForeignOr[T], len(elems))
		for i, a := range elems {
			if n.ErrArgs[i], err = d.foreignOr(a, index(path, "arguments", i), cdbase); err != nil {
				return zero, err
			}
		}
	case "OMATTR":
		more, err := d.attrPairs(fields, path, cdbase)
		if err != nil {
			return zero, err
		}
		obj, ok := fields["object"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMATTR is missing %q", "object")
		}
		// Nested attributions flatten onto the innermost object.
		return d.node(obj, at(path, "object"), cdbase, append(attrs, more...))
	case "OMFOREIGN":
		return zero, errors.Newf(errors.PathPos(path), "OMFOREIGN is only allowed as an attribute value or OME argument")
	case "OMR":
		return zero, errors.Newf(errors.PathPos(path), "OMR references are not supported")
	case "OMOBJ":
		return zero, errors.Newf(errors.PathPos(path), "unexpected nested OMOBJ")
	default:
		return zero, errors.Newf(errors.PathPos(path), "unknown kind %q", kind)
	}

	r, err := d.v.VisitOM(n, cdbase)
	if err != nil {
		return zero, errors.Promote(err, errors.PathPos(path))
	}
	return r, nil
}

func integerFields(fields map[string]stdjson.RawMessage, path string) (om.Int, error) {
	rawInt, hasInt := fields["integer"]
	rawDec, hasDec := fields["decimal"]
	_, hasHex := fields["hexadecimal"]
	switch {
	case hasHex:
		return om.Int{}, errors.Newf(errors.PathPos(path), "hexadecimal integers are not supported")
	case hasInt && hasDec:
		return om.Int{}, errors.Newf(errors.PathPos(path), "OMI has both %q and %q", "integer", "decimal")
	case hasInt:
		var num stdjson.Number
		if err := stdjson.Unmarshal(rawInt, &num); err != nil {
			return om.Int{}, errors.Wrapf(err, errors.PathPos(path), "field %q", "integer")
		}
		v, err := om.ParseInt(num.String())
		if err != nil {
			return om.Int{}, errors.Wrapf(err, errors.PathPos(path), "field %q", "integer")
		}
		return v, nil
	case hasDec:
		s, err := stringField(rawDec, path, "decimal")
		if err != nil {
			return om.Int{}, err
		}
		v, err := om.ParseInt(s)
		if err != nil {
			return om.Int{}, errors.Wrapf(err, errors.PathPos(path), "field %q", "decimal")
		}
		return v, nil
	}
	return om.Int{}, errors.Newf(errors.PathPos(path), "OMI needs %q or %q", "integer", "decimal")
}

func floatFields(fields map[string]stdjson.RawMessage, path string) (float64, error) {
	rawFloat, hasFloat := fields["float"]
	rawDec, hasDec := fields["decimal"]
	_, hasHex := fields["hexadecimal"]
	switch {
	case hasHex:
		return 0, errors.Newf(errors.PathPos(path), "hexadecimal floats are not supported")
	case hasFloat && hasDec:
		return 0, errors.Newf(errors.PathPos(path), "OMF has both %q and %q", "float", "decimal")
	case hasFloat:
		var v float64
		if err := stdjson.Unmarshal(rawFloat, &v); err != nil {
			return 0, errors.Wrapf(err, errors.PathPos(path), "field %q", "float")
		}
		return v, nil
	case hasDec:
		s, err := stringField(rawDec, path, "decimal")
		if err != nil {
			return 0, err
		}
		v, err := parseFloatText(s)
		if err != nil {
			return 0, errors.Promote(err, errors.PathPos(path))
		}
		return v, nil
	}
	return 0, errors.Newf(errors.PathPos(path), "OMF needs %q or %q", "float", "decimal")
}

// parseFloatText parses the decimal text form of a double, including
// the INF/-INF/NaN spellings the XML encoding uses.
func parseFloatText(s string) (float64, error) {
	switch s {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float literal %q", s)
	}
	return v, nil
}

func bytesFields(fields map[string]stdjson.RawMessage, path string) ([]byte, error) {
	rawBytes, hasBytes := fields["bytes"]
	rawB64, hasB64 := fields["base64"]
	switch {
	case hasBytes && hasB64:
		return nil, errors.Newf(errors.PathPos(path), "OMB has both %q and %q", "bytes", "base64")
	case hasBytes:
		var nums []int16
		if err := stdjson.Unmarshal(rawBytes, &nums); err != nil {
			return nil, errors.Wrapf(err, errors.PathPos(path), "field %q", "bytes")
		}
		b := make([]byte, len(nums))
		for i, v := range nums {
			if v < 0 || v > 255 {
				return nil, errors.Newf(errors.PathPos(path), "byte value %d out of range", v)
			}
			b[i] = byte(v)
		}
		return b, nil
	case hasB64:
		s, err := stringField(rawB64, path, "base64")
		if err != nil {
			return nil, err
		}
		b, err := base64.DecodeString(s)
		if err != nil {
			return nil, errors.Promote(err, errors.PathPos(path))
		}
		return b, nil
	}
	return nil, errors.Newf(errors.PathPos(path), "OMB needs %q or %q", "bytes", "base64")
}

func symbolFields(fields map[string]stdjson.RawMessage, path string) (cd, name string, err error) {
	rawCD, ok := fields["cd"]
	if !ok {
		return "", "", errors.Newf(errors.PathPos(path), "OMS is missing %q", "cd")
	}
	if cd, err = stringField(rawCD, path, "cd"); err != nil {
		return "", "", err
	}
	rawName, ok := fields["name"]
	if !ok {
		return "", "", errors.Newf(errors.PathPos(path), "OMS is missing %q", "name")
	}
	if name, err = stringField(rawName, path, "name"); err != nil {
		return "", "", err
	}
	return cd, name, nil
}

func arrayField(fields map[string]stdjson.RawMessage, name, path string) ([]stdjson.RawMessage, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var elems []stdjson.RawMessage
	if err := stdjson.Unmarshal(raw, &elems); err != nil {
		return nil, errors.Wrapf(err, errors.PathPos(path), "field %q", name)
	}
	return elems, nil
}

// bindVars accepts both the compact form (an array of name strings)
// and the full form (OMV objects, possibly attributed).
func (d *decoder[T]) bindVars(raw stdjson.RawMessage, path, cdbase string) ([]om.OMVar[T], error) {
	var elems []stdjson.RawMessage
	if err := stdjson.Unmarshal(raw, &elems); err != nil {
		return nil, errors.Wrapf(err, errors.PathPos(path), "field %q", "variables")
	}
	vars := make([]om.OMVar[T], len(elems))
	for i, e := range elems {
		vpath := index(path, "variables", i)
		var name string
		if stdjson.Unmarshal(e, &name) == nil {
			vars[i] = om.OMVar[T]{Name: name}
			continue
		}
		v, err := d.bindVar(e, vpath, cdbase, nil)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	return vars, nil
}

func (d *decoder[T]) bindVar(raw stdjson.RawMessage, path, cdbase string, attrs []om.OMAttr[T]) (om.OMVar[T], error) {
	var zero om.OMVar[T]
	fields, err := objectFields(raw, path)
	if err != nil {
		return zero, err
	}
	kind, err := kindOf(fields, path)
	if err != nil {
		return zero, err
	}
	switch kind {
	case "OMV":
		rawName, ok := fields["name"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMV is missing %q", "name")
		}
		name, err := stringField(rawName, path, "name")
		if err != nil {
			return zero, err
		}
		return om.OMVar[T]{Name: name, Attrs: attrs}, nil
	case "OMATTR":
		more, err := d.attrPairs(fields, path, cdbase)
		if err != nil {
			return zero, err
		}
		obj, ok := fields["object"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMATTR is missing %q", "object")
		}
		return d.bindVar(obj, at(path, "object"), cdbase, append(attrs, more...))
	}
	return zero, errors.Newf(errors.PathPos(path), "bound variable must be an OMV, found %q", kind)
}

func (d *decoder[T]) attrPairs(fields map[string]stdjson.RawMessage, path, cdbase string) ([]om.OMAttr[T], error) {
	raw, ok := fields["attributes"]
	if !ok {
		return nil, errors.Newf(errors.PathPos(path), "OMATTR is missing %q", "attributes")
	}
	var pairs [][]stdjson.RawMessage
	if err := stdjson.Unmarshal(raw, &pairs); err != nil {
		return nil, errors.Wrapf(err, errors.PathPos(path), "field %q", "attributes")
	}
	attrs := make([]om.OMAttr[T], len(pairs))
	for i, p := range pairs {
		ppath := index(path, "attributes", i)
		if len(p) != 2 {
			return nil, errors.Newf(errors.PathPos(ppath), "attribute pair must have 2 elements, found %d", len(p))
		}
		sym, err := objectFields(p[0], ppath)
		if err != nil {
			return nil, err
		}
		symKind, err := kindOf(sym, ppath)
		if err != nil {
			return nil, err
		}
		if symKind != "OMS" {
			return nil, errors.Newf(errors.PathPos(ppath), "attribute key must be an OMS, found %q", symKind)
		}
		// The key is resolved in the attribution's own scope; the
		// attributed object may rebase itself below.
		a := om.OMAttr[T]{CDBase: cdbase}
		if rawBase, ok := sym["cdbase"]; ok {
			if a.CDBase, err = stringField(rawBase, ppath, "cdbase"); err != nil {
				return nil, err
			}
		}
		if a.CD, a.Name, err = symbolFields(sym, ppath); err != nil {
			return nil, err
		}
		if a.Value, err = d.foreignOr(p[1], ppath, cdbase); err != nil {
			return nil, err
		}
		attrs[i] = a
	}
	return attrs, nil
}

// foreignOr decodes a slot that may hold an OMFOREIGN payload instead
// of an object.
func (d *decoder[T]) foreignOr(raw stdjson.RawMessage, path, cdbase string) (om.ForeignOr[T], error) {
	var zero om.ForeignOr[T]
	fields, err := objectFields(raw, path)
	if err != nil {
		return zero, err
	}
	kind, err := kindOf(fields, path)
	if err != nil {
		return zero, err
	}
	if kind == "OMFOREIGN" {
		rawVal, ok := fields["foreign"]
		if !ok {
			return zero, errors.Newf(errors.PathPos(path), "OMFOREIGN is missing %q", "foreign")
		}
		f := &om.Foreign{}
		if f.Value, err = stringField(rawVal, path, "foreign"); err != nil {
			return zero, err
		}
		if rawEnc, ok := fields["encoding"]; ok {
			if f.Encoding, err = stringField(rawEnc, path, "encoding"); err != nil {
				return zero, err
			}
		}
		return om.ForeignOr[T]{Foreign: f}, nil
	}
	r, err := d.node(raw, path, cdbase, nil)
	if err != nil {
		return zero, err
	}
	return om.ForeignOr[T]{Object: r}, nil
}
