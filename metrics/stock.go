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

// RecentMetrics builds the single most-recent valuation row for a ticker
// from the source's info map. Ratios are rounded to two places.
func RecentMetrics(ticker string, info data.Info) *data.MostRecentMetric {
	return &data.MostRecentMetric{
		Ticker:             ticker,
		MarketCap:          Round(info.MarketCap, 2),
		PriceEPSRatio:      Round(info.TrailingPE, 2),
		PriceToBook:        Round(info.PriceToBook, 2),
		ReturnOnEquity:     Round(info.ReturnOnEquity, 2),
		DebtToEquityRatio:  Round(info.DebtToEquity, 2),
		ProfitMargin:       Round(info.ProfitMargins, 2),
		EnterpriseToEbitda: Round(info.EnterpriseToEbitda, 2),
		LatestEPS:          Round(Ratio(info.NetIncomeToCommon, info.SharesOutstanding), 2),
		EnterpriseValue:    Round(info.EnterpriseValue, 2),
	}
}

// netMargin is (revenue - total expenses) / total expenses
func netMargin(income data.IncomeStatement) *float64 {
	if income.TotalRevenue == nil || income.TotalExpenses == nil {
		return nil
	}
	profit := *income.TotalRevenue - *income.TotalExpenses
	return Ratio(&profit, income.TotalExpenses)
}

// StockLevel derives annual growth figures from the two most recent annual
// income statements and the one-year price change from the price series.
// Any figure that cannot be computed is left nil.
func StockLevel(ticker string, annual data.StatementTable, prices []*data.TickerPrice, info data.Info) *data.StockLevel {
	level := &data.StockLevel{
		Ticker:     ticker,
		ShortRatio: info.ShortRatio,
	}

	statements := PivotIncome(annual)
	if len(statements) >= 2 {
		current, previous := statements[0], statements[1]
		level.RevenueYoY = roundedGrowth(current.TotalRevenue, previous.TotalRevenue)
		level.NetIncomeYoY = roundedGrowth(current.NetIncomeContinuousOperations, previous.NetIncomeContinuousOperations)
		level.EPSYoY = roundedGrowth(current.BasicEPS, previous.BasicEPS)
		level.NetMarginYoY = roundedGrowth(netMargin(current), netMargin(previous))
	}

	if len(prices) > 0 {
		last := prices[len(prices)-1]
		if lagged := closeOnOrBefore(prices, data.OneYearBefore(last.Date)); lagged != nil {
			level.StockPriceYoY = Scale(FractionChange(last.Close, *lagged), 100)
		}
	}

	return level
}
