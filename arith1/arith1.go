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

// Package arith1 evaluates OpenMath objects built from the arith1
// content dictionary over arbitrary-precision integers.
//
// It is a worked example of a bottom-up om.Visitor: integer leaves are
// accepted as *apd.BigInt, arith1 symbols are left pending, and each
// application folds its pending head over the already evaluated
// arguments. Plugged into any decoder, it computes results directly
// from the wire without building a tree:
//
//	sum, err := json.Decode(data, arith1.VisitBigInt)
package arith1

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"openmath.org/go/om"
)

// CD is the name of the content dictionary this package implements.
const CD = "arith1"

// VisitBigInt evaluates plus, times, minus, unary_minus, abs and power
// applications over OMI leaves. Any other node is an evaluation error.
var VisitBigInt om.Visitor[*apd.BigInt] = om.VisitorFunc[*apd.BigInt](visit)

type op func(args []*apd.BigInt) (*apd.BigInt, error)

var ops = map[string]op{
	"plus":        plus,
	"times":       times,
	"minus":       minus,
	"unary_minus": unaryMinus,
	"abs":         abs,
	"power":       power,
}

func visit(n *om.OM[*apd.BigInt], cdbase string) (om.Result[*apd.BigInt], error) {
	var zero om.Result[*apd.BigInt]
	switch n.Kind {
	case om.OMI:
		v, err := bigInt(n.Int)
		if err != nil {
			return zero, err
		}
		return om.Accept(v), nil
	case om.OMS:
		if cdbase == om.CDBase && n.CD == CD {
			if _, ok := ops[n.Name]; ok {
				// The parent application interprets the symbol.
				return om.Pend(n), nil
			}
		}
		return zero, fmt.Errorf("unknown symbol %s#%s", n.CD, n.Name)
	case om.OMA:
		sym, ok := n.Head.Node()
		if !ok || sym.Kind != om.OMS {
			return zero, fmt.Errorf("applicant is not an %s operation", CD)
		}
		args := make([]*apd.BigInt, len(n.Args))
		for i, a := range n.Args {
			v, ok := a.Value()
			if !ok {
				return zero, fmt.Errorf("argument %d of %s is not a value", i, sym.Name)
			}
			args[i] = v
		}
		return apply(sym.Name, args)
	}
	return zero, fmt.Errorf("cannot evaluate %v", n.Kind)
}

func apply(name string, args []*apd.BigInt) (om.Result[*apd.BigInt], error) {
	v, err := ops[name](args)
	if err != nil {
		return om.Result[*apd.BigInt]{}, err
	}
	return om.Accept(v), nil
}

func bigInt(v om.Int) (*apd.BigInt, error) {
	var x apd.BigInt
	if i, ok := v.Int64(); ok {
		return x.SetInt64(i), nil
	}
	s, _ := v.Big()
	if _, ok := x.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid integer literal %q", s)
	}
	return &x, nil
}

// plus is n-ary; the empty sum is 0.
func plus(args []*apd.BigInt) (*apd.BigInt, error) {
	sum := new(apd.BigInt)
	for _, a := range args {
		sum.Add(sum, a)
	}
	return sum, nil
}

// times is n-ary; the empty product is 1.
func times(args []*apd.BigInt) (*apd.BigInt, error) {
	prod := new(apd.BigInt).SetInt64(1)
	for _, a := range args {
		prod.Mul(prod, a)
	}
	return prod, nil
}

func minus(args []*apd.BigInt) (*apd.BigInt, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("minus needs 2 arguments, got %d", len(args))
	}
	return new(apd.BigInt).Sub(args[0], args[1]), nil
}

func unaryMinus(args []*apd.BigInt) (*apd.BigInt, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("unary_minus needs 1 argument, got %d", len(args))
	}
	return new(apd.BigInt).Neg(args[0]), nil
}

func abs(args []*apd.BigInt) (*apd.BigInt, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("abs needs 1 argument, got %d", len(args))
	}
	return new(apd.BigInt).Abs(args[0]), nil
}

func power(args []*apd.BigInt) (*apd.BigInt, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("power needs 2 arguments, got %d", len(args))
	}
	if args[1].Sign() < 0 {
		return nil, fmt.Errorf("negative exponent %s in integer power", args[1])
	}
	return new(apd.BigInt).Exp(args[0], args[1], nil), nil
}
