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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"openmath.org/go/encoding/json"
	"openmath.org/go/encoding/xml"
	"openmath.org/go/encoding/yaml"
	"openmath.org/go/om"
)

type convertFlags struct {
	from      string
	to        string
	object    bool
	pretty    bool
	namespace bool
}

func (f *convertFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.from, "from", "", "input encoding (json|xml|yaml); inferred from the file name if empty")
	flags.StringVar(&f.to, "to", "json", "output encoding (json|xml|yaml|display)")
	flags.BoolVar(&f.object, "object", false, "read and write the OMOBJ wrapper")
	flags.BoolVar(&f.pretty, "pretty", false, "indent XML output")
	flags.BoolVar(&f.namespace, "namespace", false, "declare the OpenMath namespace on XML OMOBJ output")
}

func newConvertCmd() *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "convert an OpenMath object between encodings",
		Long: `Convert reads one OpenMath object, from a file or from stdin, and
writes it to stdout in another encoding.

The display encoding is a write-only debug notation:

	$ echo '{"kind":"OMI","integer":42}' | om convert --to display
	OMI(42)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			from := flags.from
			if from == "" {
				from = detectFormat(filename)
			}
			expr, err := decodeExpr(from, data, flags.object)
			if err != nil {
				return err
			}
			out, err := encodeExpr(expr, &flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(string(out), "\n"))
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func encodeExpr(expr om.Expr, flags *convertFlags) ([]byte, error) {
	switch flags.to {
	case "json":
		if flags.object {
			return json.MarshalObject(expr)
		}
		return json.Marshal(expr)
	case "xml":
		switch {
		case flags.object && flags.pretty:
			return xml.MarshalObjectIndent(expr, flags.namespace)
		case flags.object:
			return xml.MarshalObject(expr, flags.namespace)
		case flags.pretty:
			return xml.MarshalIndent(expr)
		}
		return xml.Marshal(expr)
	case "yaml":
		if flags.object {
			return yaml.MarshalObject(expr)
		}
		return yaml.Marshal(expr)
	case "display":
		s, err := om.Display(expr)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unknown output encoding %q", flags.to)
}
