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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvpeers/data"
	"github.com/spf13/cobra"
)

var (
	showLatest bool
	showLimit  int
)

var errLatestUnsupported = errors.New("--latest is only supported for cluster_table")

// tableReader is what show needs from the library
type tableReader interface {
	Fetch(ctx context.Context, tbl data.Table, limit int) ([]map[string]any, error)
	LatestClusters(ctx context.Context) ([]*data.ClusterMembership, error)
}

func showRows(ctx context.Context, store tableReader, tbl data.Table, latest bool, limit int) ([]map[string]any, error) {
	if !latest {
		rows, err := store.Fetch(ctx, tbl, limit)
		if err != nil {
			return nil, fmt.Errorf("could not fetch %s: %w", tbl, err)
		}
		return rows, nil
	}

	if tbl != data.ClusterTable {
		return nil, fmt.Errorf("%w: %s", errLatestUnsupported, tbl)
	}

	memberships, err := store.LatestClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch latest clusters: %w", err)
	}

	rows := make([]map[string]any, len(memberships))
	for idx, cm := range memberships {
		rows[idx] = map[string]any{"ticker": cm.Ticker, "date": cm.Date, "cluster_membership": string(cm.Membership)}
	}
	return rows, nil
}

var showCmd = &cobra.Command{
	Use:   "show TABLE",
	Short: "Print the contents of a peer table",
	Long: `Print a table as a markdown grid. Valid table names are the ones listed
by 'pvpeers info'. With --latest the command prints the most recent cluster
membership of every ticker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tbl, err := data.TableByName(args[0])
		if err != nil {
			return err
		}

		myLibrary := connect(ctx)
		defer myLibrary.Close()

		rows, err := showRows(ctx, myLibrary, tbl, showLatest, showLimit)
		if err != nil {
			return err
		}

		return render(markdownTable(tbl, rows))
	},
}

func formatCell(val any) string {
	switch typed := val.(type) {
	case nil:
		return ""
	case time.Time:
		return typed.Format(data.DateFormat)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case *float64:
		if typed == nil {
			return ""
		}
		return strconv.FormatFloat(*typed, 'f', -1, 64)
	default:
		return strings.ReplaceAll(fmt.Sprint(typed), "|", "\\|")
	}
}

func markdownTable(tbl data.Table, rows []map[string]any) string {
	var sb strings.Builder
	cols := tbl.Columns()

	fmt.Fprintf(&sb, "# %s\n\n", tbl)
	if len(rows) == 0 {
		sb.WriteString("No rows\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "| %s |\n", strings.Join(cols, " | "))
	sb.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(cols))
		for idx, col := range cols {
			cells[idx] = formatCell(row[col])
		}
		fmt.Fprintf(&sb, "| %s |\n", strings.Join(cells, " | "))
	}

	return sb.String()
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showLatest, "latest", false, "only the most recent row per ticker (cluster_table)")
	showCmd.Flags().IntVar(&showLimit, "limit", 100, "maximum number of rows to print (0 for all)")
}
