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

// Package xml converts OpenMath objects to and from the OpenMath 2.0
// XML encoding.
//
// Encoding goes through the om.Encoder contract; decoding drives an
// om.Visitor bottom-up over the token stream of the standard library's
// xml.Decoder. Errors carry the byte offset of the offending token.
package xml

import (
	"bytes"
	stdxml "encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"openmath.org/go/base64"
	"openmath.org/go/om"
	"openmath.org/go/om/errors"
)

// Marshal writes m as a bare OpenMath XML element with no whitespace
// between tags.
func Marshal(m om.Marshaler) ([]byte, error) {
	return marshal(m, false)
}

// MarshalIndent is Marshal with two-space indented output.
func MarshalIndent(m om.Marshaler) ([]byte, error) {
	return marshal(m, true)
}

func marshal(m om.Marshaler, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{w: &buf, current: om.CDBase, pretty: pretty}
	if err := om.Encode(e, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalObject writes m wrapped in <OMOBJ version="2.0">. With
// namespace set, the wrapper declares the OpenMath XML namespace.
func MarshalObject(m om.Marshaler, namespace bool) ([]byte, error) {
	return marshalObject(m, namespace, false)
}

// MarshalObjectIndent is MarshalObject with indented output.
func MarshalObjectIndent(m om.Marshaler, namespace bool) ([]byte, error) {
	return marshalObject(m, namespace, true)
}

func marshalObject(m om.Marshaler, namespace, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<OMOBJ version="2.0"`)
	if namespace {
		fmt.Fprintf(&buf, ` xmlns=%q`, om.XMLNamespace)
	}
	buf.WriteByte('>')
	if pretty {
		buf.WriteString("\n  ")
	}
	e := &encoder{w: &buf, current: om.CDBase, pretty: pretty, depth: 1}
	if err := om.Encode(e, m); err != nil {
		return nil, err
	}
	if pretty {
		buf.WriteByte('\n')
	}
	buf.WriteString("</OMOBJ>")
	return buf.Bytes(), nil
}

// Decode parses a bare OpenMath XML element, feeding every node to v
// bottom-up and returning the root value.
func Decode[T any](data []byte, v om.Visitor[T]) (T, error) {
	var zero T
	d := newDecoder(data, v)
	start, off, err := d.rootElement()
	if err != nil {
		return zero, err
	}
	if start.Name.Local == "OMOBJ" {
		return zero, errors.Newf(errors.OffsetPos(off), "unexpected OMOBJ, use DecodeObject")
	}
	r, err := d.element(start, off, om.CDBase, nil)
	if err != nil {
		return zero, err
	}
	if err := d.end(); err != nil {
		return zero, err
	}
	return finish(r, off)
}

// DecodeObject parses an <OMOBJ> wrapper and decodes the single
// object inside it. A cdbase on the wrapper scopes the whole object.
func DecodeObject[T any](data []byte, v om.Visitor[T]) (T, error) {
	var zero T
	d := newDecoder(data, v)
	start, off, err := d.rootElement()
	if err != nil {
		return zero, err
	}
	if start.Name.Local != "OMOBJ" {
		return zero, errors.Newf(errors.OffsetPos(off), "expected OMOBJ, found <%s>", start.Name.Local)
	}
	cdbase := om.CDBase
	if base, ok := attrValue(start, "cdbase"); ok {
		cdbase = base
	}
	inner, ioff, err := d.childElement(start.Name)
	if err != nil {
		return zero, err
	}
	if inner == nil {
		return zero, errors.Newf(errors.OffsetPos(ioff), "OMOBJ is empty")
	}
	r, err := d.element(*inner, ioff, cdbase, nil)
	if err != nil {
		return zero, err
	}
	if err := d.closeElement(start.Name); err != nil {
		return zero, err
	}
	if err := d.end(); err != nil {
		return zero, err
	}
	return finish(r, ioff)
}

// DecodeReader reads all of r and decodes it as a bare element.
func DecodeReader[T any](r io.Reader, v om.Visitor[T]) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(data, v)
}

// Unmarshal decodes a bare OpenMath XML element into the concrete
// tree.
func Unmarshal(data []byte) (om.Expr, error) {
	return Decode(data, om.VisitExpr)
}

func finish[T any](r om.Result[T], off int64) (T, error) {
	v, ok := r.Value()
	if !ok {
		var zero T
		return zero, errors.Newf(errors.OffsetPos(off), "visitor left the root pending")
	}
	return v, nil
}

// escapeText escapes character data: the encoding requires only & and
// < to be replaced.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	return strings.ReplaceAll(s, "<", "&lt;")
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(escapeText(s), `"`, "&quot;")
}

// encoder is the om.Encoder sink writing OpenMath XML.
type encoder struct {
	w *bytes.Buffer

	current string
	pending string

	pretty bool
	depth  int
	done   bool
}

func (e *encoder) start() error {
	if e.done {
		return fmt.Errorf("xml: encoder already used")
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
	return &encoder{w: e.w, current: e.current, pending: base, pretty: e.pretty, depth: e.depth}, nil
}

// open writes "<tag" plus the cdbase attribute if one is pending,
// committing it for child slots. Only the elements that admit the
// attribute (OMS, OMA, OMBIND, OME, OMATTR) go through here.
func (e *encoder) open(tag string) {
	e.w.WriteByte('<')
	e.w.WriteString(tag)
	if e.pending != "" {
		e.current = e.pending
		e.pending = ""
		fmt.Fprintf(e.w, ` cdbase="%s"`, escapeAttr(e.current))
	}
}

// openPlain writes "<tag" without touching a pending base: leaves
// cannot carry the cdbase attribute, so an uncommitted base goes
// unrecorded.
func (e *encoder) openPlain(tag string) {
	e.w.WriteByte('<')
	e.w.WriteString(tag)
}

func (e *encoder) child() *encoder {
	return &encoder{w: e.w, current: e.current, pretty: e.pretty, depth: e.depth + 1}
}

// pad starts a new line at the given depth in pretty mode.
func (e *encoder) pad(depth int) {
	if e.pretty {
		e.w.WriteByte('\n')
		for i := 0; i < depth; i++ {
			e.w.WriteString("  ")
		}
	}
}

func (e *encoder) OMI(v om.Int) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMI")
	fmt.Fprintf(e.w, ">%s</OMI>", v)
	return nil
}

// formatFloat renders the dec attribute text, with the XML spellings
// for the non-finite doubles.
func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (e *encoder) OMF(v float64) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMF")
	fmt.Fprintf(e.w, ` dec="%s"/>`, formatFloat(v))
	return nil
}

func (e *encoder) OMSTR(s string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMSTR")
	fmt.Fprintf(e.w, ">%s</OMSTR>", escapeText(s))
	return nil
}

func (e *encoder) OMB(b []byte) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMB")
	fmt.Fprintf(e.w, ">%s</OMB>", base64.EncodeToString(b))
	return nil
}

func (e *encoder) OMV(name string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.openPlain("OMV")
	fmt.Fprintf(e.w, ` name="%s"/>`, escapeAttr(name))
	return nil
}

func (e *encoder) OMS(cd, name string) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMS")
	fmt.Fprintf(e.w, ` cd="%s" name="%s"/>`, escapeAttr(cd), escapeAttr(name))
	return nil
}

func (e *encoder) OMA(head om.Marshaler, args ...om.Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMA")
	e.w.WriteByte('>')
	e.pad(e.depth + 1)
	if err := om.Encode(e.child(), head); err != nil {
		return err
	}
	for _, a := range args {
		e.pad(e.depth + 1)
		if err := om.Encode(e.child(), a); err != nil {
			return err
		}
	}
	e.pad(e.depth)
	e.w.WriteString("</OMA>")
	return nil
}

func (e *encoder) OMBIND(binder om.Marshaler, vars []om.BindVar, body om.Marshaler) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OMBIND")
	e.w.WriteByte('>')
	e.pad(e.depth + 1)
	if err := om.Encode(e.child(), binder); err != nil {
		return err
	}
	e.pad(e.depth + 1)
	e.w.WriteString("<OMBVAR>")
	for _, v := range vars {
		e.pad(e.depth + 2)
		if err := e.bindVar(v); err != nil {
			return err
		}
	}
	e.pad(e.depth + 1)
	e.w.WriteString("</OMBVAR>")
	e.pad(e.depth + 1)
	if err := om.Encode(e.child(), body); err != nil {
		return err
	}
	e.pad(e.depth)
	e.w.WriteString("</OMBIND>")
	return nil
}

func (e *encoder) bindVar(v om.BindVar) error {
	omv := om.MarshalerFunc(func(e om.Encoder) error { return e.OMV(v.Name) })
	sub := &encoder{w: e.w, current: e.current, pretty: e.pretty, depth: e.depth + 2}
	if len(v.Attrs) == 0 {
		return om.Encode(sub, omv)
	}
	return sub.OMATTR(v.Attrs, omv)
}

func (e *encoder) OME(sym *om.Symbol, args ...om.MaybeForeign) error {
	if err := e.start(); err != nil {
		return err
	}
	e.open("OME")
	e.w.WriteByte('>')
	e.pad(e.depth + 1)
	if err := om.Encode(e.child(), sym); err != nil {
		return err
	}
	for _, a := range args {
		e.pad(e.depth + 1)
		if err := e.foreignOr(a, e.depth+1); err != nil {
			return err
		}
	}
	e.pad(e.depth)
	e.w.WriteString("</OME>")
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
	e.w.WriteByte('>')
	e.pad(e.depth + 1)
	e.w.WriteString("<OMATP>")
	for _, a := range attrs {
		e.pad(e.depth + 2)
		sub := &encoder{w: e.w, current: e.current, pretty: e.pretty, depth: e.depth + 2}
		if err := om.Encode(sub, a.Key); err != nil {
			return err
		}
		e.pad(e.depth + 2)
		if err := e.foreignOr(a.Value, e.depth+2); err != nil {
			return err
		}
	}
	e.pad(e.depth + 1)
	e.w.WriteString("</OMATP>")
	e.pad(e.depth + 1)
	if err := om.Encode(e.child(), value); err != nil {
		return err
	}
	e.pad(e.depth)
	e.w.WriteString("</OMATTR>")
	return nil
}

func (e *encoder) foreignOr(v om.MaybeForeign, depth int) error {
	if f := v.Foreign; f != nil {
		e.w.WriteString("<OMFOREIGN")
		if f.Encoding != "" {
			fmt.Fprintf(e.w, ` encoding="%s"`, escapeAttr(f.Encoding))
		}
		// The payload is opaque and written untouched.
		fmt.Fprintf(e.w, ">%s</OMFOREIGN>", f.Value)
		return nil
	}
	sub := &encoder{w: e.w, current: e.current, pretty: e.pretty, depth: depth}
	return om.Encode(sub, v.Object)
}

// decoder drives the visitor over the xml token stream.
type decoder[T any] struct {
	x    *stdxml.Decoder
	v    om.Visitor[T]
	data []byte
}

func newDecoder[T any](data []byte, v om.Visitor[T]) *decoder[T] {
	return &decoder[T]{x: stdxml.NewDecoder(bytes.NewReader(data)), v: v, data: data}
}

// token returns the next token along with its starting byte offset.
func (d *decoder[T]) token() (stdxml.Token, int64, error) {
	off := d.x.InputOffset()
	tok, err := d.x.Token()
	if err != nil {
		return nil, off, err
	}
	return tok, off, nil
}

// rootElement skips the prolog and returns the document element.
func (d *decoder[T]) rootElement() (stdxml.StartElement, int64, error) {
	for {
		tok, off, err := d.token()
		if err == io.EOF {
			return stdxml.StartElement{}, off, errors.Newf(errors.OffsetPos(off), "missing document element")
		}
		if err != nil {
			return stdxml.StartElement{}, off, errors.Wrapf(err, errors.OffsetPos(off), "invalid XML")
		}
		switch t := tok.(type) {
		case stdxml.StartElement:
			return t, off, nil
		case stdxml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return stdxml.StartElement{}, off, errors.Newf(errors.OffsetPos(off), "unexpected text %q", string(t))
			}
		}
	}
}

// end requires that nothing but whitespace follows the document
// element.
func (d *decoder[T]) end() error {
	for {
		tok, off, err := d.token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, errors.OffsetPos(off), "invalid XML")
		}
		switch t := tok.(type) {
		case stdxml.StartElement:
			return errors.Newf(errors.OffsetPos(off), "unexpected <%s> after the document element", t.Name.Local)
		case stdxml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.Newf(errors.OffsetPos(off), "unexpected text %q after the document element", string(t))
			}
		}
	}
}

// childElement returns the next child element of the open element
// named parent, or nil at its closing tag. Non-whitespace text is an
// error.
func (d *decoder[T]) childElement(parent stdxml.Name) (*stdxml.StartElement, int64, error) {
	for {
		tok, off, err := d.token()
		if err != nil {
			return nil, off, errors.Wrapf(err, errors.OffsetPos(off), "inside <%s>", parent.Local)
		}
		switch t := tok.(type) {
		case stdxml.StartElement:
			el := t.Copy()
			return &el, off, nil
		case stdxml.EndElement:
			return nil, off, nil
		case stdxml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, off, errors.Newf(errors.OffsetPos(off), "unexpected text %q in <%s>", string(t), parent.Local)
			}
		}
	}
}

// closeElement consumes tokens up to the closing tag of the open
// element, requiring it to be empty apart from whitespace.
func (d *decoder[T]) closeElement(name stdxml.Name) error {
	child, off, err := d.childElement(name)
	if err != nil {
		return err
	}
	if child != nil {
		return errors.Newf(errors.OffsetPos(off), "unexpected <%s> in <%s>", child.Name.Local, name.Local)
	}
	return nil
}

// text collects the character data up to the closing tag.
func (d *decoder[T]) text(name stdxml.Name) (string, error) {
	var b strings.Builder
	for {
		tok, off, err := d.token()
		if err != nil {
			return "", errors.Wrapf(err, errors.OffsetPos(off), "inside <%s>", name.Local)
		}
		switch t := tok.(type) {
		case stdxml.CharData:
			b.Write(t)
		case stdxml.EndElement:
			return b.String(), nil
		case stdxml.StartElement:
			return "", errors.Newf(errors.OffsetPos(off), "unexpected <%s> in <%s>", t.Name.Local, name.Local)
		}
	}
}

func attrValue(el stdxml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// element decodes one object element, attaching attribution pairs
// collected from enclosing OMATTR wrappers, and hands it to the
// visitor.
func (d *decoder[T]) element(start stdxml.StartElement, off int64, cdbase string, attrs []om.OMAttr[T]) (om.Result[T], error) {
	var zero om.Result[T]
	pos := errors.OffsetPos(off)

	// An explicit cdbase scopes this element and everything below it.
	if base, ok := attrValue(start, "cdbase"); ok {
		cdbase = base
	}

	n := &om.OM[T]{Attrs: attrs}
	switch start.Name.Local {
	case "OMI":
		text, err := d.text(start.Name)
		if err != nil {
			return zero, err
		}
		text = strings.TrimSpace(text)
		if strings.HasPrefix(text, "x") || strings.HasPrefix(text, "-x") {
			return zero, errors.Newf(pos, "hexadecimal integers are not supported")
		}
		n.Kind = om.OMI
		if n.Int, err = om.ParseInt(text); err != nil {
			return zero, errors.Promote(err, pos)
		}
	case "OMF":
		dec, hasDec := attrValue(start, "dec")
		_, hasHex := attrValue(start, "hex")
		switch {
		case hasHex:
			return zero, errors.Newf(pos, "hexadecimal floats are not supported")
		case !hasDec:
			return zero, errors.Newf(pos, `OMF is missing the "dec" attribute`)
		}
		v, err := parseFloatText(dec)
		if err != nil {
			return zero, errors.Promote(err, pos)
		}
		n.Kind = om.OMF
		n.Float = v
		if err := d.closeElement(start.Name); err != nil {
			return zero, err
		}
	case "OMSTR":
		text, err := d.text(start.Name)
		if err != nil {
			return zero, err
		}
		n.Kind = om.OMSTR
		n.Str = text
	case "OMB":
		text, err := d.text(start.Name)
		if err != nil {
			return zero, err
		}
		b, err := base64.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return zero, errors.Promote(err, pos)
		}
		n.Kind = om.OMB
		n.Bytes = b
	case "OMV":
		name, ok := attrValue(start, "name")
		if !ok {
			return zero, errors.Newf(pos, `OMV is missing the "name" attribute`)
		}
		n.Kind = om.OMV
		n.Name = name
		if err := d.closeElement(start.Name); err != nil {
			return zero, err
		}
	case "OMS":
		cd, name, err := symbolAttrs(start, pos)
		if err != nil {
			return zero, err
		}
		n.Kind = om.OMS
		n.CD, n.Name = cd, name
		if err := d.closeElement(start.Name); err != nil {
			return zero, err
		}
	case "OMA":
		n.Kind = om.OMA
		first := true
		for {
			child, coff, err := d.childElement(start.Name)
			if err != nil {
				return zero, err
			}
			if child == nil {
				break
			}
			r, err := d.element(*child, coff, cdbase, nil)
			if err != nil {
				return zero, err
			}
			if first {
				n.Head = r
				first = false
			} else {
				n.Args = append(n.Args, r)
			}
		}
		if first {
			return zero, errors.Newf(pos, "OMA needs at least a head element")
		}
	case "OMBIND":
		n.Kind = om.OMBIND
		binder, boff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if binder == nil {
			return zero, errors.Newf(pos, "OMBIND is missing its binder")
		}
		if n.Binder, err = d.element(*binder, boff, cdbase, nil); err != nil {
			return zero, err
		}
		bvar, voff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if bvar == nil || bvar.Name.Local != "OMBVAR" {
			return zero, errors.Newf(errors.OffsetPos(voff), "OMBIND is missing <OMBVAR>")
		}
		if n.Vars, err = d.bindVars(*bvar, cdbase); err != nil {
			return zero, err
		}
		body, oOff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if body == nil {
			return zero, errors.Newf(errors.OffsetPos(oOff), "OMBIND is missing its body")
		}
		if n.Body, err = d.element(*body, oOff, cdbase, nil); err != nil {
			return zero, err
		}
		if err := d.closeElement(start.Name); err != nil {
			return zero, err
		}
	case "OME":
		n.Kind = om.OME
		sym, soff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if sym == nil || sym.Name.Local != "OMS" {
			return zero, errors.Newf(errors.OffsetPos(soff), "OME must start with an <OMS>")
		}
		if base, ok := attrValue(*sym, "cdbase"); ok {
			n.CDBase = base
		}
		if n.CD, n.Name, err = symbolAttrs(*sym, errors.OffsetPos(soff)); err != nil {
			return zero, err
		}
		if err := d.closeElement(sym.Name); err != nil {
			return zero, err
		}
		for {
			child, coff, err := d.childElement(start.Name)
			if err != nil {
				return zero, err
			}
			if child == nil {
				break
			}
			arg, err := d.foreignOrElement(*child, coff, cdbase)
			if err != nil {
				return zero, err
			}
			n.ErrArgs = append(n.ErrArgs, arg)
		}
	case "OMATTR":
		atp, aoff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if atp == nil || atp.Name.Local != "OMATP" {
			return zero, errors.Newf(errors.OffsetPos(aoff), "OMATTR must start with <OMATP>")
		}
		more, err := d.attrPairs(*atp, cdbase)
		if err != nil {
			return zero, err
		}
		obj, ooff, err := d.childElement(start.Name)
		if err != nil {
			return zero, err
		}
		if obj == nil {
			return zero, errors.Newf(errors.OffsetPos(ooff), "OMATTR is missing its object")
		}
		// Nested attributions flatten onto the innermost object.
		r, err := d.element(*obj, ooff, cdbase, append(attrs, more...))
		if err != nil {
			return zero, err
		}
		if err := d.closeElement(start.Name); err != nil {
			return zero, err
		}
		return r, nil
	case "OMFOREIGN":
		return zero, errors.Newf(pos, "OMFOREIGN is only allowed as an attribute value or OME argument")
	case "OMR":
		return zero, errors.Newf(pos, "OMR references are not supported")
	case "OMOBJ":
		return zero, errors.Newf(pos, "unexpected nested OMOBJ")
	default:
		return zero, errors.Newf(pos, "unknown element <%s>", start.Name.Local)
	}

	r, err := d.v.VisitOM(n, cdbase)
	if err != nil {
		return zero, errors.Promote(err, pos)
	}
	return r, nil
}

func symbolAttrs(el stdxml.StartElement, pos errors.Position) (cd, name string, err error) {
	cd, ok := attrValue(el, "cd")
	if !ok {
		return "", "", errors.Newf(pos, `OMS is missing the "cd" attribute`)
	}
	name, ok = attrValue(el, "name")
	if !ok {
		return "", "", errors.Newf(pos, `OMS is missing the "name" attribute`)
	}
	return cd, name, nil
}

// parseFloatText parses the dec attribute, including the INF/-INF/NaN
// spellings.
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

// bindVars parses the children of an open <OMBVAR>: OMV elements,
// possibly wrapped in OMATTR.
func (d *decoder[T]) bindVars(bvar stdxml.StartElement, cdbase string) ([]om.OMVar[T], error) {
	var vars []om.OMVar[T]
	for {
		child, off, err := d.childElement(bvar.Name)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return vars, nil
		}
		v, err := d.bindVar(*child, off, cdbase, nil)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
}

func (d *decoder[T]) bindVar(el stdxml.StartElement, off int64, cdbase string, attrs []om.OMAttr[T]) (om.OMVar[T], error) {
	var zero om.OMVar[T]
	pos := errors.OffsetPos(off)
	if base, ok := attrValue(el, "cdbase"); ok {
		cdbase = base
	}
	switch el.Name.Local {
	case "OMV":
		name, ok := attrValue(el, "name")
		if !ok {
			return zero, errors.Newf(pos, `OMV is missing the "name" attribute`)
		}
		if err := d.closeElement(el.Name); err != nil {
			return zero, err
		}
		return om.OMVar[T]{Name: name, Attrs: attrs}, nil
	case "OMATTR":
		atp, aoff, err := d.childElement(el.Name)
		if err != nil {
			return zero, err
		}
		if atp == nil || atp.Name.Local != "OMATP" {
			return zero, errors.Newf(errors.OffsetPos(aoff), "OMATTR must start with <OMATP>")
		}
		more, err := d.attrPairs(*atp, cdbase)
		if err != nil {
			return zero, err
		}
		inner, ioff, err := d.childElement(el.Name)
		if err != nil {
			return zero, err
		}
		if inner == nil {
			return zero, errors.Newf(errors.OffsetPos(ioff), "OMATTR is missing its object")
		}
		v, err := d.bindVar(*inner, ioff, cdbase, append(attrs, more...))
		if err != nil {
			return zero, err
		}
		if err := d.closeElement(el.Name); err != nil {
			return zero, err
		}
		return v, nil
	}
	return zero, errors.Newf(pos, "bound variable must be an <OMV>, found <%s>", el.Name.Local)
}

// attrPairs parses the children of an open <OMATP>: alternating OMS
// keys and attribute values.
func (d *decoder[T]) attrPairs(atp stdxml.StartElement, cdbase string) ([]om.OMAttr[T], error) {
	var attrs []om.OMAttr[T]
	for {
		key, koff, err := d.childElement(atp.Name)
		if err != nil {
			return nil, err
		}
		if key == nil {
			return attrs, nil
		}
		if key.Name.Local != "OMS" {
			return nil, errors.Newf(errors.OffsetPos(koff), "attribute key must be an <OMS>, found <%s>", key.Name.Local)
		}
		// The key is resolved in the attribution's own scope; the
		// attributed object may rebase itself below.
		a := om.OMAttr[T]{CDBase: cdbase}
		if base, ok := attrValue(*key, "cdbase"); ok {
			a.CDBase = base
		}
		if a.CD, a.Name, err = symbolAttrs(*key, errors.OffsetPos(koff)); err != nil {
			return nil, err
		}
		if err := d.closeElement(key.Name); err != nil {
			return nil, err
		}
		val, voff, err := d.childElement(atp.Name)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, errors.Newf(errors.OffsetPos(voff), "attribute key without a value in <OMATP>")
		}
		if a.Value, err = d.foreignOrElement(*val, voff, cdbase); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
}

// foreignOrElement decodes a slot that may hold an OMFOREIGN payload
// instead of an object.
func (d *decoder[T]) foreignOrElement(el stdxml.StartElement, off int64, cdbase string) (om.ForeignOr[T], error) {
	var zero om.ForeignOr[T]
	if el.Name.Local != "OMFOREIGN" {
		r, err := d.element(el, off, cdbase, nil)
		if err != nil {
			return zero, err
		}
		return om.ForeignOr[T]{Object: r}, nil
	}
	f := &om.Foreign{}
	f.Encoding, _ = attrValue(el, "encoding")
	raw, err := d.rawContent(el.Name)
	if err != nil {
		return zero, err
	}
	f.Value = raw
	return om.ForeignOr[T]{Foreign: f}, nil
}

// rawContent captures the verbatim source text between the open tag
// and its matching close tag, leaving any markup inside untouched.
func (d *decoder[T]) rawContent(name stdxml.Name) (string, error) {
	start := d.x.InputOffset()
	end := start
	depth := 0
	for {
		tok, off, err := d.token()
		if err != nil {
			return "", errors.Wrapf(err, errors.OffsetPos(off), "inside <%s>", name.Local)
		}
		switch tok.(type) {
		case stdxml.StartElement:
			depth++
		case stdxml.EndElement:
			if depth == 0 {
				end = off
				return string(d.data[start:end]), nil
			}
			depth--
		}
	}
}
