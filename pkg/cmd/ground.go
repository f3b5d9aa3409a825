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

	"github.com/consensys/go-asp/pkg/asp/grounder"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var groundCmd = &cobra.Command{
	Use:   "ground [flags] program_file(s)",
	Short: "ground a logic program.",
	Long: `Ground a given logic program, producing an equivalent program containing
	 no variables whose answer sets coincide with those of the input.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		output := GetString(cmd, "output")
		// Parse the program
		program := ReadProgramFiles(inputFiles(cmd, args))
		// Ground it
		ground, err := grounder.Ground(program)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		writeOutput(output, ground.String())
		// Report a summary when talking to a human.
		if output == "" && stdoutIsTerminal() {
			fmt.Printf("%% %d rules\n", len(ground.Rules))
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(groundCmd)
	groundCmd.Flags().StringP("file", "f", "", "specify input file.")
	groundCmd.Flags().StringP("output", "o", "", "specify output file.")
	groundCmd.Flags().BoolP("verbose", "v", false, "enable debug logging.")
}
