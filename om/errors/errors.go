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

// Package errors defines shared error types for the OpenMath packages.
//
// Every error produced while encoding or decoding OpenMath carries a
// Position locating the offending construct in the source: a byte
// offset for byte-oriented sources such as XML, or a path such as
// "arguments[1].integer" for tree-shaped sources such as JSON.
package errors // import "openmath.org/go/om/errors"

import (
	"errors"
	"fmt"
	"strings"
)

// New is a convenience wrapper for errors.New in the core library.
// The returned error carries no position.
func New(msg string) error {
	return errors.New(msg)
}

// As, Is and Unwrap delegate to the core errors package so that callers
// need not import both.
func As(err error, target any) bool { return errors.As(err, target) }
func Is(err, target error) bool     { return errors.Is(err, target) }
func Unwrap(err error) error        { return errors.Unwrap(err) }

// A Position locates an error within a source document. Either field
// may be unset: tree-shaped sources report a Path, byte-oriented
// sources an Offset.
type Position struct {
	// Path is a dotted field path with array indices, for example
	// "arguments[0].cd". Empty if the source has no path notion.
	Path string

	// Offset is a 0-based byte offset into the source. Negative if the
	// source has no offset notion.
	Offset int64
}

// NoPos is the Position of errors that locate nothing.
var NoPos = Position{Offset: -1}

// PathPos returns a Position identifying a path in a tree-shaped
// source, with no byte offset.
func PathPos(path string) Position {
	return Position{Path: path, Offset: -1}
}

// OffsetPos returns a Position identifying a byte offset.
func OffsetPos(off int64) Position {
	return Position{Offset: off}
}

// IsValid reports whether p locates anything at all.
func (p Position) IsValid() bool {
	return p.Path != "" || p.Offset >= 0
}

func (p Position) String() string {
	switch {
	case p.Path != "" && p.Offset >= 0:
		return fmt.Sprintf("%s (offset %d)", p.Path, p.Offset)
	case p.Path != "":
		return p.Path
	case p.Offset >= 0:
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return "-"
}

// Error is the common interface for positioned OpenMath errors.
type Error interface {
	error

	// Position reports where in the source the error occurred.
	Position() Position
}

// A posError is the concrete Error used throughout the module.
type posError struct {
	pos Position
	msg string

	// The underlying error that triggered this one, if any.
	err error
}

// Newf creates an Error at the given position.
func Newf(pos Position, format string, args ...any) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...)}
}

// Wrapf wraps an existing error, adding a position and context. The
// underlying error remains reachable through errors.Is/As.
func Wrapf(err error, pos Position, format string, args ...any) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...), err: err}
}

// Promote turns err into an Error, attaching pos if err does not
// already carry a valid position.
func Promote(err error, pos Position) Error {
	if e, ok := err.(Error); ok && e.Position().IsValid() {
		return e
	}
	return &posError{pos: pos, err: err}
}

func (e *posError) Position() Position { return e.pos }

func (e *posError) Error() string {
	var b strings.Builder
	if e.msg != "" {
		b.WriteString(e.msg)
	}
	if e.err != nil {
		if e.msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.err.Error())
	}
	if e.pos.IsValid() {
		fmt.Fprintf(&b, " (at %s)", e.pos)
	}
	return b.String()
}

func (e *posError) Unwrap() error { return e.err }

// Positions extracts all positions from err, walking wrapped errors.
func Positions(err error) []Position {
	var a []Position
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(Error); ok && e.Position().IsValid() {
			a = append(a, e.Position())
		}
	}
	return a
}
