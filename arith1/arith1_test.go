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

package arith1

import (
	"testing"

	"github.com/go-quicktest/qt"

	"openmath.org/go/encoding/json"
	"openmath.org/go/encoding/xml"
)

func TestEvalJSON(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		out  string
	}{{
		name: "plus",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"plus"},
		     "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":2}]}`,
		out: "4",
	}, {
		name: "explicit default cdbase",
		in: `{"cdbase":"http://www.openmath.org/cd","kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"plus"},
		     "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":2}]}`,
		out: "4",
	}, {
		name: "nested",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"times"},
		     "arguments":[
		       {"kind":"OMA",
		        "applicant":{"kind":"OMS","cd":"arith1","name":"plus"},
		        "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":2}]},
		       {"kind":"OMI","integer":3}]}`,
		out: "12",
	}, {
		name: "empty sum",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"plus"}}`,
		out: "0",
	}, {
		name: "minus",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"minus"},
		     "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":5}]}`,
		out: "-3",
	}, {
		name: "unary minus",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"unary_minus"},
		     "arguments":[{"kind":"OMI","integer":7}]}`,
		out: "-7",
	}, {
		name: "abs",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"abs"},
		     "arguments":[{"kind":"OMI","integer":-7}]}`,
		out: "7",
	}, {
		name: "power",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"power"},
		     "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":64}]}`,
		out: "18446744073709551616",
	}, {
		name: "big operands stay exact",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"plus"},
		     "arguments":[
		       {"kind":"OMI","decimal":"123456789012345678901234567890"},
		       {"kind":"OMI","integer":1}]}`,
		out: "123456789012345678901234567891",
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := json.Decode([]byte(tc.in), VisitBigInt)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(v.String(), tc.out))
		})
	}
}

func TestEvalXML(t *testing.T) {
	const data = `<OMA><OMS cd="arith1" name="plus"/><OMI>2</OMI><OMI>2</OMI></OMA>`
	v, err := xml.Decode([]byte(data), VisitBigInt)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "4"))
}

func TestEvalErrors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		err  string
	}{{
		name: "unknown symbol",
		in:   `{"kind":"OMS","cd":"arith1","name":"sin"}`,
		err:  `unknown symbol arith1#sin.*`,
	}, {
		name: "foreign content dictionary",
		in:   `{"kind":"OMS","cd":"transc1","name":"sin"}`,
		err:  `unknown symbol transc1#sin.*`,
	}, {
		name: "rebased symbol",
		in: `{"kind":"OMA","cdbase":"http://example.org",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"plus"},
		     "arguments":[{"kind":"OMI","integer":1}]}`,
		err: `unknown symbol arith1#plus.*`,
	}, {
		name: "non-integer leaf",
		in:   `{"kind":"OMSTR","string":"two"}`,
		err:  `cannot evaluate OMSTR.*`,
	}, {
		name: "variable applicant",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMV","name":"f"},
		     "arguments":[{"kind":"OMI","integer":1}]}`,
		err: `cannot evaluate OMV.*`,
	}, {
		name: "wrong arity",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"minus"},
		     "arguments":[{"kind":"OMI","integer":1}]}`,
		err: `minus needs 2 arguments, got 1.*`,
	}, {
		name: "negative exponent",
		in: `{"kind":"OMA",
		     "applicant":{"kind":"OMS","cd":"arith1","name":"power"},
		     "arguments":[{"kind":"OMI","integer":2},{"kind":"OMI","integer":-1}]}`,
		err: `negative exponent -1 in integer power.*`,
	}, {
		name: "bare operation symbol",
		in:   `{"kind":"OMS","cd":"arith1","name":"plus"}`,
		err:  `visitor left the root pending.*`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := json.Decode([]byte(tc.in), VisitBigInt)
			qt.Assert(t, qt.ErrorMatches(err, tc.err))
		})
	}
}
