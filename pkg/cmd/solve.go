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

	"github.com/consensys/go-asp/pkg/asp/grounder"
	"github.com/consensys/go-asp/pkg/asp/solver"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve [flags] program_file(s)",
	Short: "enumerate the answer sets of a logic program.",
	Long: `Ground a given logic program and enumerate its answer sets by exhaustive
	 search.  This solver is deliberately naive, and only suited to small programs.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		var (
			output = GetString(cmd, "output")
			limit  = GetUint(cmd, "models")
		)
		// Parse the program
		program := ReadProgramFiles(inputFiles(cmd, args))
		// Ground it
		ground, err := grounder.Ground(program)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		// Solve it
		answers, err := solver.Solve(ground, limit)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		var r strings.Builder
		//
		for i, answer := range answers {
			r.WriteString(fmt.Sprintf("Answer: %d\n%s\n", i+1, answer))
		}
		//
		if len(answers) == 0 {
			r.WriteString("UNSATISFIABLE\n")
		} else {
			r.WriteString("SATISFIABLE\n")
		}
		//
		writeOutput(output, r.String())
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("file", "f", "", "specify input file.")
	solveCmd.Flags().StringP("output", "o", "", "specify output file.")
	solveCmd.Flags().UintP("models", "n", 0, "maximum number of answer sets to enumerate (0 for all).")
	solveCmd.Flags().BoolP("verbose", "v", false, "enable debug logging.")
}
