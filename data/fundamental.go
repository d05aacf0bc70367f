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

package data

import (
	"time"

	"github.com/rs/zerolog"
)

// Quarterly metric column names
const (
	BasicEPS          = "Basic EPS"
	OperatingIncome   = "Operating Income"
	OperatingIncomeMM = "Operating Income (MM)"
	NetIncome         = "Net Income"
	NetIncomeMM       = "Net Income (MM)"
	GrossMargin       = "Gross Margin"
	OperatingMargin   = "Operating Margin"
	NetMargin         = "Net Margin"
	EBITDAMargin      = "EBITDA Margin"
)

// QuarterlyMetrics are the quarterly measures that are averaged per
// sub-industry and compared year over year
var QuarterlyMetrics = []string{
	BasicEPS,
	OperatingIncomeMM,
	NetIncomeMM,
	GrossMargin,
	OperatingMargin,
	NetMargin,
	EBITDAMargin,
}

// YoYColumn returns the name of the year-over-year column for a metric
func YoYColumn(metric string) string {
	return metric + " YoY"
}

func yoyColumns() []string {
	cols := make([]string, len(QuarterlyMetrics))
	for idx, metric := range QuarterlyMetrics {
		cols[idx] = YoYColumn(metric)
	}
	return cols
}

type QuarterlyFinancials struct {
	Ticker            string    `db:"ticker"`
	Date              time.Time `db:"date"`
	QuarterReporting  string    `db:"quarter_reporting"`
	BasicEPS          *float64  `db:"Basic EPS"`
	OperatingIncome   *float64  `db:"Operating Income"`
	OperatingIncomeMM *float64  `db:"Operating Income (MM)"`
	NetIncome         *float64  `db:"Net Income"`
	NetIncomeMM       *float64  `db:"Net Income (MM)"`
	GrossMargin       *float64  `db:"Gross Margin"`
	OperatingMargin   *float64  `db:"Operating Margin"`
	NetMargin         *float64  `db:"Net Margin"`
	EBITDAMargin      *float64  `db:"EBITDA Margin"`
}

func (qf *QuarterlyFinancials) Table() Table {
	return QuarterlyFinancialsTable
}

func (qf *QuarterlyFinancials) Values() []any {
	return []any{qf.Ticker, qf.Date, qf.QuarterReporting, qf.BasicEPS, qf.OperatingIncome, qf.OperatingIncomeMM,
		qf.NetIncome, qf.NetIncomeMM, qf.GrossMargin, qf.OperatingMargin, qf.NetMargin, qf.EBITDAMargin}
}

// MetricValues returns the quarterly metrics in QuarterlyMetrics order
func (qf *QuarterlyFinancials) MetricValues() []*float64 {
	return []*float64{qf.BasicEPS, qf.OperatingIncomeMM, qf.NetIncomeMM, qf.GrossMargin,
		qf.OperatingMargin, qf.NetMargin, qf.EBITDAMargin}
}

func (qf *QuarterlyFinancials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", qf.Ticker)
	e.Time("Date", qf.Date)
	e.Str("QuarterReporting", qf.QuarterReporting)
}

type BalanceSheetSnapshot struct {
	Ticker               string    `db:"ticker"`
	Date                 time.Time `db:"date"`
	AnnualReporting      string    `db:"annual_reporting"`
	OrdinarySharesNumber *float64  `db:"OrdinarySharesNumber"`
	StockholdersEquity   *float64  `db:"StockholdersEquity"`
	TotalLiabilities     *float64  `db:"TotalLiabilitiesNetMinorityInterest"`
	CurrentAssets        *float64  `db:"CurrentAssets"`
	QuickRatio           *float64  `db:"Quick Ratio"`
	EquityRatio          *float64  `db:"Equity Ratio"`
	DebtToEquityRatio    *float64  `db:"Debt-to-Equity Ratio"`
}

func (bs *BalanceSheetSnapshot) Table() Table {
	return BalanceSheetTable
}

func (bs *BalanceSheetSnapshot) Values() []any {
	return []any{bs.Ticker, bs.Date, bs.AnnualReporting, bs.OrdinarySharesNumber, bs.StockholdersEquity,
		bs.TotalLiabilities, bs.CurrentAssets, bs.QuickRatio, bs.EquityRatio, bs.DebtToEquityRatio}
}

type CashflowSnapshot struct {
	Ticker             string    `db:"ticker"`
	Date               time.Time `db:"date"`
	FreeCashFlow       *float64  `db:"Free Cash Flow"`
	OperatingCashFlow  *float64  `db:"Operating Cash Flow"`
	CapitalExpenditure *float64  `db:"Capital Expenditure"`
}

func (cf *CashflowSnapshot) Table() Table {
	return CashflowTable
}

func (cf *CashflowSnapshot) Values() []any {
	return []any{cf.Ticker, cf.Date, cf.FreeCashFlow, cf.OperatingCashFlow, cf.CapitalExpenditure}
}
