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

package cmd

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"openmath.org/go/arith1"
	"openmath.org/go/encoding/json"
	"openmath.org/go/encoding/xml"
	"openmath.org/go/encoding/yaml"
)

func newEvalCmd() *cobra.Command {
	var from string
	var object bool
	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "evaluate an arith1 integer expression",
		Long: `Eval decodes an OpenMath object built from the arith1 content
dictionary and prints its exact integer value:

	$ echo '<OMA><OMS cd="arith1" name="plus"/><OMI>2</OMI><OMI>2</OMI></OMA>' | om eval --from xml
	4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			format := from
			if format == "" {
				format = detectFormat(filename)
			}
			v, err := evalBigInt(format, data, object)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "input encoding (json|xml|yaml); inferred from the file name if empty")
	cmd.Flags().BoolVar(&object, "object", false, "expect the OMOBJ wrapper")
	return cmd
}

func evalBigInt(format string, data []byte, object bool) (*apd.BigInt, error) {
	v := arith1.VisitBigInt
	switch format {
	case "json":
		if object {
			return json.DecodeObject(data, v)
		}
		return json.Decode(data, v)
	case "xml":
		if object {
			return xml.DecodeObject(data, v)
		}
		return xml.Decode(data, v)
	case "yaml":
		if object {
			return yaml.DecodeObject(data, v)
		}
		return yaml.Decode(data, v)
	}
	return nil, fmt.Errorf("unknown input encoding %q", format)
}
