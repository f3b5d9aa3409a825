// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-asp/pkg/asp/ast"
	"github.com/consensys/go-asp/pkg/asp/parser"
	"github.com/consensys/go-asp/pkg/util/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetString gets an expected string, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}

	return r
}

// Determine the set of input files for a given command: whatever the "-f"
// flag names, followed by any positional arguments.
func inputFiles(cmd *cobra.Command, args []string) []string {
	var files []string
	//
	if f := GetString(cmd, "file"); f != "" {
		files = append(files, f)
	}
	//
	files = append(files, args...)
	//
	if len(files) == 0 {
		fmt.Println("no input file given")
		os.Exit(2)
	}
	//
	return files
}

// ReadProgramFiles reads and parses a given set of program files into a
// single program, exiting on either an I/O or a parse error.
func ReadProgramFiles(filenames []string) *ast.Program {
	program := ast.NewProgram()
	//
	for _, filename := range filenames {
		srcfile, err := source.ReadFile(filename)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		parsed, serr := parser.Parse(srcfile)
		if serr != nil {
			printSyntaxError(serr)
			os.Exit(1)
		}
		//
		program.Rules = append(program.Rules, parsed.Rules...)
		program.Directives = append(program.Directives, parsed.Directives...)
	}
	//
	return program
}

// Write a given rendering of the output, either to a given file or (when no
// file is given) to standard output.
func writeOutput(filename string, text string) {
	if filename == "" {
		fmt.Print(text)
		return
	}
	//
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Check whether standard output is an interactive terminal, in which case
// human-oriented summaries are worth printing.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(err *source.SyntaxError) {
	span := err.Span()
	line := err.FirstEnclosingLine()
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := max(1, min(line.Length()-lineOffset, span.Length()))
	// Print error + line number
	fmt.Printf("%s:%d:%d-%d %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Message())
	// Print separator line
	fmt.Println()
	// Print line
	fmt.Println(line.String())
	// Print indent (todo: account for tabs)
	fmt.Print(strings.Repeat(" ", lineOffset))
	// Print highlight
	fmt.Println(strings.Repeat("^", length))
}
