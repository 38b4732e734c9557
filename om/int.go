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
	"strings"
)

// An Int is an arbitrary-precision integer as it appears in OMI
// leaves. Values within the int64 range are held as a machine word;
// anything larger is held as its validated decimal text. The zero
// value is the integer 0.
//
// Int carries no arithmetic. Callers that need to compute should hand
// the value to a big-integer library; see the arith1 package for an
// example using apd.
type Int struct {
	small int64

	// big is the decimal text of a value outside the int64 range,
	// shaped [-]?[0-9]+ with any leading + already stripped. Empty
	// means small is authoritative.
	big string
}

// NewInt returns the Int for a machine integer.
func NewInt(v int64) Int {
	return Int{small: v}
}

// ParseInt parses a decimal integer literal of the shape [+-]?[0-9]+.
// A leading + is stripped; leading zeros on values outside the int64
// range are preserved in the text form.
func ParseInt(s string) (Int, error) {
	body := s
	neg := false
	switch {
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	case strings.HasPrefix(body, "-"):
		neg = true
		body = body[1:]
	}
	if body == "" {
		return Int{}, fmt.Errorf("invalid integer literal %q", s)
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return Int{}, fmt.Errorf("invalid integer literal %q", s)
		}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int{small: v}, nil
	}
	if neg {
		return Int{big: "-" + body}, nil
	}
	return Int{big: body}, nil
}

// MustParseInt is ParseInt for literals known to be valid, panicking
// otherwise. Intended for tests and fixtures.
func MustParseInt(s string) Int {
	v, err := ParseInt(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Int64 returns the value as an int64 if it fits.
func (x Int) Int64() (int64, bool) {
	if x.big != "" {
		return 0, false
	}
	return x.small, true
}

// Big returns the decimal text of a value outside the int64 range.
// The second result is false for values held as a machine word.
func (x Int) Big() (string, bool) {
	if x.big == "" {
		return "", false
	}
	return x.big, true
}

// IsZero reports whether x is numerically zero, whatever literal it
// was parsed from ("0", "+0", "-0", "000", ...).
func (x Int) IsZero() bool { return x.big == "" && x.small == 0 }

// IsPositive reports whether x > 0.
func (x Int) IsPositive() bool {
	if x.big != "" {
		return x.big[0] != '-'
	}
	return x.small > 0
}

// IsNegative reports whether x < 0.
func (x Int) IsNegative() bool {
	if x.big != "" {
		return x.big[0] == '-'
	}
	return x.small < 0
}

// String returns the canonical decimal text: no leading +, and for
// values held as text the original digits including leading zeros.
func (x Int) String() string {
	if x.big != "" {
		return x.big
	}
	return strconv.FormatInt(x.small, 10)
}

// Cmp compares x and y numerically, returning -1, 0 or +1.
func (x Int) Cmp(y Int) int {
	// A text-form value is always outside the int64 range, so mixed
	// comparisons are decided by the text value's sign.
	switch {
	case x.big == "" && y.big == "":
		switch {
		case x.small < y.small:
			return -1
		case x.small > y.small:
			return 1
		}
		return 0
	case x.big == "":
		if y.IsNegative() {
			return 1
		}
		return -1
	case y.big == "":
		if x.IsNegative() {
			return -1
		}
		return 1
	}

	xn, yn := x.IsNegative(), y.IsNegative()
	if xn != yn {
		if xn {
			return -1
		}
		return 1
	}
	c := cmpMagnitude(x.big, y.big)
	if xn {
		return -c
	}
	return c
}

// cmpMagnitude compares two decimal texts by absolute value.
func cmpMagnitude(a, b string) int {
	a = strings.TrimLeft(strings.TrimPrefix(a, "-"), "0")
	b = strings.TrimLeft(strings.TrimPrefix(b, "-"), "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
