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

// Package cmd implements the om command line tool.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"openmath.org/go/encoding/json"
	"openmath.org/go/encoding/xml"
	"openmath.org/go/encoding/yaml"
	"openmath.org/go/om"
)

// New returns the root command of the om tool.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "om",
		Short: "om converts, validates and evaluates OpenMath objects",
		Long: `om is a tool for working with OpenMath 2.0 objects.

It reads and writes the JSON and XML encodings (plus a YAML rendition
of the JSON layout) and can convert between them, check documents for
well-formedness, and evaluate arith1 integer expressions.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newEvalCmd())
	return cmd
}

// Main runs the om tool and returns its exit code.
func Main() int {
	if err := New().Execute(); err != nil {
		return 1
	}
	return 0
}

// readInput reads the file named by args[0], or stdin when no
// argument is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, "", err
	}
	data, err := os.ReadFile(args[0])
	return data, args[0], err
}

// detectFormat infers the encoding from a file name, defaulting to
// JSON for stdin and unknown extensions.
func detectFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml", ".omobj":
		return "xml"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// decodeExpr parses data in the given encoding into a tree. With
// object set, the input must carry the OMOBJ wrapper.
func decodeExpr(format string, data []byte, object bool) (om.Expr, error) {
	switch format {
	case "json":
		if object {
			return json.DecodeObject(data, om.VisitExpr)
		}
		return json.Decode(data, om.VisitExpr)
	case "xml":
		if object {
			return xml.DecodeObject(data, om.VisitExpr)
		}
		return xml.Decode(data, om.VisitExpr)
	case "yaml":
		if object {
			return yaml.DecodeObject(data, om.VisitExpr)
		}
		return yaml.Decode(data, om.VisitExpr)
	}
	return nil, fmt.Errorf("unknown input encoding %q", format)
}
