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

// Package yaml converts OpenMath objects to and from YAML documents.
//
// There is no official OpenMath YAML encoding; this package uses the
// field layout of the JSON encoding, so any OpenMath JSON document is
// also a valid input here. Encoding goes through the JSON driver and
// re-renders its output as block-style YAML; decoding normalizes the
// YAML document to JSON and hands it to the JSON driver, so errors
// carry the same field paths.
package yaml

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"

	goyaml "gopkg.in/yaml.v3"

	"openmath.org/go/encoding/json"
	"openmath.org/go/om"
	"openmath.org/go/om/errors"
)

// Marshal writes m as a block-style YAML document.
func Marshal(m om.Marshaler) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return jsonToYAML(data)
}

// MarshalObject writes m wrapped in an OMOBJ mapping carrying the
// encoding version.
func MarshalObject(m om.Marshaler) ([]byte, error) {
	data, err := json.MarshalObject(m)
	if err != nil {
		return nil, err
	}
	return jsonToYAML(data)
}

// jsonToYAML re-renders a JSON document as block-style YAML. YAML 1.2
// is a superset of JSON, so the document parses directly; only the
// flow styles recorded by the parser have to be cleared.
func jsonToYAML(data []byte) ([]byte, error) {
	var n goyaml.Node
	if err := goyaml.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	clearStyle(&n)
	var buf bytes.Buffer
	enc := goyaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// clearStyle drops all style information so the encoder picks plain
// block style, re-quoting scalars only where the plain form would
// change their type.
func clearStyle(n *goyaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// Decode parses a YAML document holding a single OpenMath object,
// feeding every node to v bottom-up and returning the root value.
func Decode[T any](data []byte, v om.Visitor[T]) (T, error) {
	raw, err := yamlToJSON(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return json.Decode(raw, v)
}

// DecodeObject parses a document wrapped in an OMOBJ mapping.
func DecodeObject[T any](data []byte, v om.Visitor[T]) (T, error) {
	raw, err := yamlToJSON(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return json.DecodeObject(raw, v)
}

// DecodeReader reads all of r and decodes it as a single object.
func DecodeReader[T any](r io.Reader, v om.Visitor[T]) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(data, v)
}

// Unmarshal decodes a YAML document into the concrete tree.
func Unmarshal(data []byte) (om.Expr, error) {
	return Decode(data, om.VisitExpr)
}

// yamlToJSON parses a YAML document and renders it as the equivalent
// JSON text, normalizing YAML-only scalar forms along the way.
func yamlToJSON(data []byte) ([]byte, error) {
	var n goyaml.Node
	if err := goyaml.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrapf(err, errors.NoPos, "invalid YAML")
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, &n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var jsonInt = regexp.MustCompile(`^-?[0-9]+$`)

func writeJSON(buf *bytes.Buffer, n *goyaml.Node) error {
	switch n.Kind {
	case goyaml.DocumentNode:
		if len(n.Content) != 1 {
			return errors.Newf(errors.NoPos, "expected a single YAML document, found %d", len(n.Content))
		}
		return writeJSON(buf, n.Content[0])
	case goyaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case goyaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := n.Content[i]
			if key.Kind != goyaml.ScalarNode {
				return errors.Newf(errors.NoPos, "line %d: mapping key must be a scalar", key.Line)
			}
			k, _ := stdjson.Marshal(key.Value)
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case goyaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case goyaml.ScalarNode:
		return writeScalar(buf, n)
	}
	return errors.Newf(errors.NoPos, "line %d: unsupported YAML node", n.Line)
}

func writeScalar(buf *bytes.Buffer, n *goyaml.Node) error {
	switch n.Tag {
	case "!!int":
		// YAML integers allow hex, octal and underscores; JSON does
		// not, so those forms are normalized to decimal.
		if jsonInt.MatchString(n.Value) {
			buf.WriteString(n.Value)
			return nil
		}
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return errors.Newf(errors.NoPos, "line %d: invalid integer literal %q", n.Line, n.Value)
		}
		buf.WriteString(strconv.FormatInt(v, 10))
		return nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return errors.Newf(errors.NoPos, "line %d: invalid float literal %q", n.Line, n.Value)
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !jsonNumber(s) {
			return errors.Newf(errors.NoPos, "line %d: %q has no JSON representation, use a decimal string", n.Line, n.Value)
		}
		buf.WriteString(s)
		return nil
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return errors.Newf(errors.NoPos, "line %d: invalid boolean literal %q", n.Line, n.Value)
		}
		fmt.Fprintf(buf, "%t", v)
		return nil
	case "!!null":
		buf.WriteString("null")
		return nil
	}
	// Strings, and anything with an exotic tag, pass through as text.
	s, err := stdjson.Marshal(n.Value)
	if err != nil {
		return err
	}
	buf.Write(s)
	return nil
}

// jsonNumber reports whether s is a valid JSON number literal, which
// the infinities and NaN are not.
func jsonNumber(s string) bool {
	var num stdjson.Number
	return stdjson.Unmarshal([]byte(s), &num) == nil
}
