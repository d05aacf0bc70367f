// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the peer library",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary := connect(ctx)
		defer myLibrary.Close()

		summary, err := myLibrary.Summary(ctx)
		if err != nil {
			return fmt.Errorf("could not create library summary document: %w", err)
		}

		return render(summary)
	},
}

func render(markdown string) error {
	r, err := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("could not render markdown: %w", err)
	}

	fmt.Print(out)
	return nil
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
