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

// Package om defines the OpenMath 2.0 object model and the contracts
// through which OpenMath objects are encoded and decoded.
//
// The concrete tree (Integer, Symbol, Application, ...) is one client
// of those contracts, not the only one: any type implementing
// Marshaler can be written out directly, and any Visitor can consume a
// decoded stream without the tree ever being built. The encoding/json,
// encoding/xml and encoding/yaml packages provide the wire formats.
package om

// CDBase is the default content dictionary base URI, assumed wherever
// no explicit cdbase is in scope.
const CDBase = "http://www.openmath.org/cd"

// XMLNamespace is the OpenMath XML namespace.
const XMLNamespace = "http://www.openmath.org/OpenMath"

// A Value is a node that may appear where the standard allows either
// an OpenMath object or a foreign payload: OME arguments and
// attribution values. It is implemented by every Expr and by *Foreign.
type Value interface {
	valueNode()
}

// An Expr is a node of an OpenMath object tree. All implementations
// are pointers to the variant structs in this package.
//
// Attribution is not a separate variant: every variant carries an
// attribute list, and KindOf reports OMATTR for a node whose list is
// non-empty. OMR has no variant; references are not supported.
type Expr interface {
	Value
	Marshaler

	// Attributes returns the node's attribution list.
	Attributes() []Attr

	exprNode()
}

// An Attr is a single attribution: a symbol key paired with an object
// or foreign value.
type Attr struct {
	Key   *Symbol
	Value Value
}

// An Integer is an OMI leaf.
type Integer struct {
	Value Int
	Attrs []Attr
}

// A Float is an OMF leaf holding an IEEE 754 double, including
// infinities and NaN.
type Float struct {
	Value float64
	Attrs []Attr
}

// A String is an OMSTR leaf.
type String struct {
	Value string
	Attrs []Attr
}

// A Bytes is an OMB leaf.
type Bytes struct {
	Value []byte
	Attrs []Attr
}

// A Variable is an OMV leaf. Any non-empty name is accepted; no
// lexical shape is enforced.
type Variable struct {
	Name  string
	Attrs []Attr
}

// A Symbol is an OMS leaf. CDBase is the symbol's effective content
// dictionary base; empty means the default CDBase. Serializers emit it
// only where it differs from the inherited base.
type Symbol struct {
	CDBase string
	CD     string
	Name   string
	Attrs  []Attr
}

// An Application is an OMA node: a head applied to zero or more
// arguments.
type Application struct {
	Head  Expr
	Args  []Expr
	Attrs []Attr
}

// A Binding is an OMBIND node: a binder, bound variables (possibly
// attributed), and a body.
type Binding struct {
	Binder Expr
	Vars   []*Variable
	Body   Expr
	Attrs  []Attr
}

// An ErrorExpr is an OME node: an error symbol applied to object or
// foreign arguments.
type ErrorExpr struct {
	Sym   *Symbol
	Args  []Value
	Attrs []Attr
}

// A Foreign is an OMFOREIGN payload: non-OpenMath content with an
// optional encoding name. It is a Value but not an Expr, so the type
// system confines it to attribution values and OME arguments.
type Foreign struct {
	Encoding string
	Value    string
}

func (*Integer) exprNode()     {}
func (*Float) exprNode()       {}
func (*String) exprNode()      {}
func (*Bytes) exprNode()       {}
func (*Variable) exprNode()    {}
func (*Symbol) exprNode()      {}
func (*Application) exprNode() {}
func (*Binding) exprNode()     {}
func (*ErrorExpr) exprNode()   {}

func (*Integer) valueNode()     {}
func (*Float) valueNode()       {}
func (*String) valueNode()      {}
func (*Bytes) valueNode()       {}
func (*Variable) valueNode()    {}
func (*Symbol) valueNode()      {}
func (*Application) valueNode() {}
func (*Binding) valueNode()     {}
func (*ErrorExpr) valueNode()   {}
func (*Foreign) valueNode()     {}

func (x *Integer) Attributes() []Attr     { return x.Attrs }
func (x *Float) Attributes() []Attr       { return x.Attrs }
func (x *String) Attributes() []Attr      { return x.Attrs }
func (x *Bytes) Attributes() []Attr       { return x.Attrs }
func (x *Variable) Attributes() []Attr    { return x.Attrs }
func (x *Symbol) Attributes() []Attr      { return x.Attrs }
func (x *Application) Attributes() []Attr { return x.Attrs }
func (x *Binding) Attributes() []Attr     { return x.Attrs }
func (x *ErrorExpr) Attributes() []Attr   { return x.Attrs }

// Kind returns the node's constructor kind, ignoring attribution.
func (*Integer) Kind() Kind     { return OMI }
func (*Float) Kind() Kind       { return OMF }
func (*String) Kind() Kind      { return OMSTR }
func (*Bytes) Kind() Kind       { return OMB }
func (*Variable) Kind() Kind    { return OMV }
func (*Symbol) Kind() Kind      { return OMS }
func (*Application) Kind() Kind { return OMA }
func (*Binding) Kind() Kind     { return OMBIND }
func (*ErrorExpr) Kind() Kind   { return OME }
func (*Foreign) Kind() Kind     { return OMFOREIGN }

// KindOf returns the kind an encoding of e would lead with: OMATTR for
// an attributed node, the constructor kind otherwise.
func KindOf(e Expr) Kind {
	if len(e.Attributes()) > 0 {
		return OMATTR
	}
	switch e.(type) {
	case *Integer:
		return OMI
	case *Float:
		return OMF
	case *String:
		return OMSTR
	case *Bytes:
		return OMB
	case *Variable:
		return OMV
	case *Symbol:
		return OMS
	case *Application:
		return OMA
	case *Binding:
		return OMBIND
	case *ErrorExpr:
		return OME
	}
	panic("om: unknown Expr variant")
}
