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

package metrics

import (
	"github.com/penny-vault/pvpeers/data"
)

func inMillions(val *float64) *float64 {
	if val == nil {
		return nil
	}
	mm := *val / 1_000_000
	return &mm
}

// PivotIncome turns a line-item x date income statement into one record per
// report date, most recent first. Line items the source did not report are
// left nil.
func PivotIncome(stmt data.StatementTable) []data.IncomeStatement {
	dates := stmt.Dates()
	out := make([]data.IncomeStatement, len(dates))
	for idx, date := range dates {
		out[idx] = data.IncomeStatement{
			Date:                          date,
			TotalRevenue:                  stmt.Value(data.TotalRevenueItem, date),
			GrossProfit:                   stmt.Value(data.GrossProfitItem, date),
			OperatingIncome:               stmt.Value(data.OperatingIncomeItem, date),
			NetIncome:                     stmt.Value(data.NetIncomeItem, date),
			BasicEPS:                      stmt.Value(data.BasicEPSItem, date),
			EBITDA:                        stmt.Value(data.EBITDAItem, date),
			TotalExpenses:                 stmt.Value(data.TotalExpensesItem, date),
			NetIncomeContinuousOperations: stmt.Value(data.NetIncomeContinuousOperationsItem, date),
		}
	}
	return out
}

// PivotBalanceSheet is PivotIncome for balance sheets
func PivotBalanceSheet(stmt data.StatementTable) []data.BalanceSheet {
	dates := stmt.Dates()
	out := make([]data.BalanceSheet, len(dates))
	for idx, date := range dates {
		out[idx] = data.BalanceSheet{
			Date:                 date,
			OrdinarySharesNumber: stmt.Value(data.OrdinarySharesNumberItem, date),
			StockholdersEquity:   stmt.Value(data.StockholdersEquityItem, date),
			TotalLiabilities:     stmt.Value(data.TotalLiabilitiesItem, date),
			CurrentAssets:        stmt.Value(data.CurrentAssetsItem, date),
			Inventory:            stmt.Value(data.InventoryItem, date),
		}
	}
	return out
}

// PivotCashflow is PivotIncome for cash-flow statements
func PivotCashflow(stmt data.StatementTable) []data.CashflowStatement {
	dates := stmt.Dates()
	out := make([]data.CashflowStatement, len(dates))
	for idx, date := range dates {
		out[idx] = data.CashflowStatement{
			Date:               date,
			FreeCashFlow:       stmt.Value(data.FreeCashFlowItem, date),
			OperatingCashFlow:  stmt.Value(data.OperatingCashFlowItem, date),
			CapitalExpenditure: stmt.Value(data.CapitalExpenditureItem, date),
		}
	}
	return out
}

// Quarterly derives the quarterly_financial_data rows, oldest first.
// Revenue, gross profit and EBITDA are consumed by the margins and are not
// carried into the rows.
func Quarterly(ticker string, stmt data.StatementTable) []*data.QuarterlyFinancials {
	statements := PivotIncome(stmt)
	out := make([]*data.QuarterlyFinancials, 0, len(statements))
	for idx := len(statements) - 1; idx >= 0; idx-- {
		income := statements[idx]
		out = append(out, &data.QuarterlyFinancials{
			Ticker:            ticker,
			Date:              income.Date,
			QuarterReporting:  data.QuarterLabel(income.Date),
			BasicEPS:          income.BasicEPS,
			OperatingIncome:   income.OperatingIncome,
			OperatingIncomeMM: inMillions(income.OperatingIncome),
			NetIncome:         income.NetIncome,
			NetIncomeMM:       inMillions(income.NetIncome),
			GrossMargin:       Margin(income.GrossProfit, income.TotalRevenue),
			OperatingMargin:   Margin(income.OperatingIncome, income.TotalRevenue),
			NetMargin:         Margin(income.NetIncome, income.TotalRevenue),
			EBITDAMargin:      Margin(income.EBITDA, income.TotalRevenue),
		})
	}
	return out
}

// QuickRatio is (current assets - inventory) / liabilities, or current
// assets / liabilities when inventory is not reported
func QuickRatio(bs data.BalanceSheet) *float64 {
	if bs.CurrentAssets == nil {
		return nil
	}

	liquid := *bs.CurrentAssets
	if bs.Inventory != nil {
		liquid -= *bs.Inventory
	}
	return Ratio(&liquid, bs.TotalLiabilities)
}

// EquityRatio is (current assets - liabilities) per ordinary share
func EquityRatio(bs data.BalanceSheet) *float64 {
	if bs.CurrentAssets == nil || bs.TotalLiabilities == nil {
		return nil
	}
	net := *bs.CurrentAssets - *bs.TotalLiabilities
	return Ratio(&net, bs.OrdinarySharesNumber)
}

// BalanceSheets derives the balance_sheet_data rows, oldest first
func BalanceSheets(ticker string, stmt data.StatementTable) []*data.BalanceSheetSnapshot {
	sheets := PivotBalanceSheet(stmt)
	out := make([]*data.BalanceSheetSnapshot, 0, len(sheets))
	for idx := len(sheets) - 1; idx >= 0; idx-- {
		bs := sheets[idx]
		out = append(out, &data.BalanceSheetSnapshot{
			Ticker:               ticker,
			Date:                 bs.Date,
			AnnualReporting:      data.FiscalYearLabel(bs.Date),
			OrdinarySharesNumber: bs.OrdinarySharesNumber,
			StockholdersEquity:   bs.StockholdersEquity,
			TotalLiabilities:     bs.TotalLiabilities,
			CurrentAssets:        bs.CurrentAssets,
			QuickRatio:           QuickRatio(bs),
			EquityRatio:          EquityRatio(bs),
			DebtToEquityRatio:    Ratio(bs.TotalLiabilities, bs.StockholdersEquity),
		})
	}
	return out
}

// Cashflows derives the cashflow_statement_data rows sorted ascending by date
func Cashflows(ticker string, stmt data.StatementTable) []*data.CashflowSnapshot {
	statements := PivotCashflow(stmt)
	out := make([]*data.CashflowSnapshot, 0, len(statements))
	for idx := len(statements) - 1; idx >= 0; idx-- {
		cf := statements[idx]
		out = append(out, &data.CashflowSnapshot{
			Ticker:             ticker,
			Date:               cf.Date,
			FreeCashFlow:       cf.FreeCashFlow,
			OperatingCashFlow:  cf.OperatingCashFlow,
			CapitalExpenditure: cf.CapitalExpenditure,
		})
	}
	return out
}
