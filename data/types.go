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
	"sort"
	"time"
)

// Statement line items as reported by the market-data source
const (
	TotalRevenueItem                  = "TotalRevenue"
	GrossProfitItem                   = "GrossProfit"
	OperatingIncomeItem               = "OperatingIncome"
	NetIncomeItem                     = "NetIncome"
	BasicEPSItem                      = "BasicEPS"
	EBITDAItem                        = "EBITDA"
	TotalExpensesItem                 = "TotalExpenses"
	NetIncomeContinuousOperationsItem = "NetIncomeContinuousOperations"

	OrdinarySharesNumberItem = "OrdinarySharesNumber"
	StockholdersEquityItem   = "StockholdersEquity"
	TotalLiabilitiesItem     = "TotalLiabilitiesNetMinorityInterest"
	CurrentAssetsItem        = "CurrentAssets"
	InventoryItem            = "Inventory"

	FreeCashFlowItem       = "FreeCashFlow"
	OperatingCashFlowItem  = "OperatingCashFlow"
	CapitalExpenditureItem = "CapitalExpenditure"
)

var (
	IncomeStatementItems = []string{TotalRevenueItem, GrossProfitItem, OperatingIncomeItem, NetIncomeItem,
		BasicEPSItem, EBITDAItem, TotalExpensesItem, NetIncomeContinuousOperationsItem}
	BalanceSheetItems = []string{OrdinarySharesNumberItem, StockholdersEquityItem, TotalLiabilitiesItem,
		CurrentAssetsItem, InventoryItem}
	CashflowItems = []string{FreeCashFlowItem, OperatingCashFlowItem, CapitalExpenditureItem}
)

// StatementTable is a raw financial statement: line item -> report date -> value
type StatementTable map[string]map[time.Time]float64

// Set stores a value, creating the line item if needed
func (st StatementTable) Set(item string, date time.Time, value float64) {
	row, ok := st[item]
	if !ok {
		row = make(map[time.Time]float64)
		st[item] = row
	}
	row[date] = value
}

// Value returns the value of a line item on a report date or nil when the
// item or the date is missing
func (st StatementTable) Value(item string, date time.Time) *float64 {
	row, ok := st[item]
	if !ok {
		return nil
	}
	val, ok := row[date]
	if !ok {
		return nil
	}
	return &val
}

// Dates returns every report date present in the statement, most recent first
func (st StatementTable) Dates() []time.Time {
	seen := make(map[time.Time]bool)
	for _, row := range st {
		for date := range row {
			seen[date] = true
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

// IncomeStatement is one report column of an income statement
type IncomeStatement struct {
	Date                          time.Time
	TotalRevenue                  *float64
	GrossProfit                   *float64
	OperatingIncome               *float64
	NetIncome                     *float64
	BasicEPS                      *float64
	EBITDA                        *float64
	TotalExpenses                 *float64
	NetIncomeContinuousOperations *float64
}

// BalanceSheet is one report column of a balance sheet
type BalanceSheet struct {
	Date                 time.Time
	OrdinarySharesNumber *float64
	StockholdersEquity   *float64
	TotalLiabilities     *float64
	CurrentAssets        *float64
	Inventory            *float64
}

// CashflowStatement is one report column of a cash-flow statement
type CashflowStatement struct {
	Date               time.Time
	FreeCashFlow       *float64
	OperatingCashFlow  *float64
	CapitalExpenditure *float64
}

// PriceBar is a daily close; Close is nil when the source has no print
type PriceBar struct {
	Date  time.Time
	Close *float64
}

// Info is the point-in-time key/value summary for a ticker. Every figure
// is optional.
type Info struct {
	Sector             string
	Industry           string
	MarketCap          *float64
	TrailingPE         *float64
	PriceToBook        *float64
	ReturnOnEquity     *float64
	DebtToEquity       *float64
	EnterpriseValue    *float64
	ProfitMargins      *float64
	EnterpriseToEbitda *float64
	NetIncomeToCommon  *float64
	SharesOutstanding  *float64
	ShortRatio         *float64
}

// Fundamentals bundles everything the source returns for one ticker other
// than price history
type Fundamentals struct {
	Ticker          string
	QuarterlyIncome StatementTable
	AnnualIncome    StatementTable
	BalanceSheet    StatementTable
	Cashflow        StatementTable
	Info            Info
}
