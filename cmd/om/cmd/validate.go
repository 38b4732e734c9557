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
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var from string
	var object bool
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "check OpenMath documents for well-formedness",
		Long: `Validate decodes each document completely and reports the first
problem in each, with its position in the source. It exits non-zero if
any document is malformed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				return validateOne(cmd, "<stdin>", from, data, object)
			}
			ok := true
			for _, filename := range args {
				data, err := os.ReadFile(filename)
				if err == nil {
					err = validateOne(cmd, filename, from, data, object)
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", filename, err)
					ok = false
				}
			}
			if !ok {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "input encoding (json|xml|yaml); inferred from each file name if empty")
	cmd.Flags().BoolVar(&object, "object", false, "require the OMOBJ wrapper")
	return cmd
}

var errInvalid = fmt.Errorf("validation failed")

func validateOne(cmd *cobra.Command, filename, from string, data []byte, object bool) error {
	format := from
	if format == "" {
		format = detectFormat(filename)
	}
	if _, err := decodeExpr(format, data, object); err != nil {
		return err
	}
	return nil
}
