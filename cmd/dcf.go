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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/dcf"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	dcfGrowth   float64
	dcfDiscount float64
	dcfTerminal float64
)

var signalStyles = map[dcf.Signal]lipgloss.Style{
	dcf.Undervalued: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	dcf.Overvalued:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	dcf.Neutral:     lipgloss.NewStyle(),
}

// valuationReader is what dcf needs from the library
type valuationReader interface {
	Cashflows(ctx context.Context, ticker string) ([]*data.CashflowSnapshot, error)
	MostRecentMetrics(ctx context.Context, tickers []string) ([]*data.MostRecentMetric, error)
}

type valuation struct {
	freeCashFlow float64
	actual       float64
	comparisons  []*dcf.Comparison
}

// value runs every scenario from the latest stored free cash flow against
// the stored enterprise value. Rates are fractions.
func value(ctx context.Context, store valuationReader, ticker string, rates dcf.Inputs) (*valuation, error) {
	cashflows, err := store.Cashflows(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("could not load cash flows: %w", err)
	}

	var freeCashFlow *float64
	for _, cf := range cashflows {
		if cf.FreeCashFlow != nil {
			freeCashFlow = cf.FreeCashFlow
		}
	}
	if freeCashFlow == nil {
		return nil, fmt.Errorf("%w: %s", dcf.ErrMissingFreeCashFlow, ticker)
	}

	snapshots, err := store.MostRecentMetrics(ctx, []string{ticker})
	if err != nil {
		return nil, fmt.Errorf("could not load most recent metrics: %w", err)
	}
	if len(snapshots) == 0 || snapshots[0].EnterpriseValue == nil {
		return nil, fmt.Errorf("%w: %s", dcf.ErrZeroEnterpriseValue, ticker)
	}
	actual := *snapshots[0].EnterpriseValue

	rates.FreeCashFlow = *freeCashFlow
	comparisons, err := dcf.Compare(rates, actual)
	if err != nil {
		return nil, err
	}

	return &valuation{freeCashFlow: *freeCashFlow, actual: actual, comparisons: comparisons}, nil
}

var dcfCmd = &cobra.Command{
	Use:   "dcf TICKER",
	Short: "Estimate enterprise value with a five year discounted cash flow model",
	Long: `Projects the most recent stored free cash flow five years forward and
compares bear, base and bull estimates with the stored enterprise value.
Rates are given in percent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ticker := strings.ToUpper(args[0])

		myLibrary := connect(ctx)
		defer myLibrary.Close()

		result, err := value(ctx, myLibrary, ticker, dcf.Inputs{
			Growth:   dcfGrowth / 100,
			Discount: dcfDiscount / 100,
			Terminal: dcfTerminal / 100,
		})
		if err != nil {
			return err
		}

		fmt.Println(renderComparisons(ticker, result.freeCashFlow, result.actual, result.comparisons))
		return nil
	},
}

func renderComparisons(ticker string, freeCashFlow, actual float64, comparisons []*dcf.Comparison) string {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n\n", lipgloss.NewStyle().Bold(true).Render(ticker+" DISCOUNTED CASH FLOW"))
	sb.WriteString(p.Sprintf("Free cash flow:   %.0f\n", freeCashFlow))
	sb.WriteString(p.Sprintf("Enterprise value: %.0f\n\n", actual))

	for _, cmp := range comparisons {
		name := lipgloss.NewStyle().Bold(true).Width(6).Render(cmp.Scenario.Name)
		if cmp.Err != nil {
			fmt.Fprintf(&sb, "%s %s\n", name, cmp.Err)
			continue
		}

		line := p.Sprintf("%.0f (%+.1f%%)", cmp.Estimate.EnterpriseValue, cmp.PercentError)
		fmt.Fprintf(&sb, "%s %s\n", name, signalStyles[cmp.Signal].Render(line))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2).
		Render(sb.String())
}

func init() {
	rootCmd.AddCommand(dcfCmd)

	dcfCmd.Flags().Float64Var(&dcfGrowth, "growth", 5, "annual free cash flow growth rate (percent)")
	dcfCmd.Flags().Float64Var(&dcfDiscount, "discount", 10, "discount rate (percent)")
	dcfCmd.Flags().Float64Var(&dcfTerminal, "terminal", 2.5, "terminal growth rate (percent)")
}
