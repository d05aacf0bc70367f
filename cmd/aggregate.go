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

	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [SUB_INDUSTRY...]",
	Short: "Recompute sub-industry rollups, YoY series and valuation clusters",
	Long: `The aggregate sub-command re-runs every aggregation step against the data
already stored in the library without downloading anything. With no
arguments every sub-industry is recomputed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := log.Logger.WithContext(context.Background())

		myLibrary := connect(ctx)
		defer myLibrary.Close()

		engine, err := newEngine(myLibrary)
		if err != nil {
			return err
		}

		summary, err := engine.Run(ctx, args)
		if err != nil {
			return fmt.Errorf("aggregation failed: %w", err)
		}

		for _, tbl := range data.Tables() {
			if count, ok := summary[tbl]; ok {
				fmt.Printf("%-32s %d\n", tbl, count)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}
