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

import "fmt"

// A Kind identifies one of the twelve OpenMath object constructors.
// The numeric values are stable and part of the public contract.
type Kind uint8

const (
	OMI       Kind = 0  // integer
	OMF       Kind = 1  // IEEE 754 double
	OMSTR     Kind = 2  // string
	OMB       Kind = 3  // byte array
	OMV       Kind = 4  // variable
	OMS       Kind = 5  // symbol
	OMA       Kind = 6  // application
	OMBIND    Kind = 7  // binding
	OME       Kind = 8  // error
	OMATTR    Kind = 9  // attribution
	OMFOREIGN Kind = 10 // foreign (non-OpenMath) payload
	OMR       Kind = 11 // reference (not supported by this module)
)

var kindNames = [...]string{
	OMI:       "OMI",
	OMF:       "OMF",
	OMSTR:     "OMSTR",
	OMB:       "OMB",
	OMV:       "OMV",
	OMS:       "OMS",
	OMA:       "OMA",
	OMBIND:    "OMBIND",
	OME:       "OME",
	OMATTR:    "OMATTR",
	OMFOREIGN: "OMFOREIGN",
	OMR:       "OMR",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}
