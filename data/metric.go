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

// MostRecentMetric is the latest known valuation snapshot for a ticker. It
// is replaced wholesale on every refresh.
type MostRecentMetric struct {
	Ticker             string   `db:"ticker"`
	MarketCap          *float64 `db:"market_cap"`
	PriceEPSRatio      *float64 `db:"price_eps_ratio"`
	PriceToBook        *float64 `db:"price_to_book"`
	ReturnOnEquity     *float64 `db:"return_on_equity"`
	DebtToEquityRatio  *float64 `db:"debt_to_equity_ratio"`
	ProfitMargin       *float64 `db:"profit_margin"`
	EnterpriseToEbitda *float64 `db:"enterpriseToEbitda"`
	LatestEPS          *float64 `db:"latest_eps"`
	EnterpriseValue    *float64 `db:"enterprise_value"`
}

func (m *MostRecentMetric) Table() Table {
	return MostRecentMetricTable
}

func (m *MostRecentMetric) Values() []any {
	return []any{m.Ticker, m.MarketCap, m.PriceEPSRatio, m.PriceToBook, m.ReturnOnEquity,
		m.DebtToEquityRatio, m.ProfitMargin, m.EnterpriseToEbitda, m.LatestEPS, m.EnterpriseValue}
}

// ClusterFeatures returns the valuation features used for peer clustering:
// P/E, EPS, ROE, EV/EBITDA, debt/equity and profit margin
func (m *MostRecentMetric) ClusterFeatures() []*float64 {
	return []*float64{m.PriceEPSRatio, m.LatestEPS, m.ReturnOnEquity, m.EnterpriseToEbitda,
		m.DebtToEquityRatio, m.ProfitMargin}
}

func (m *MostRecentMetric) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", m.Ticker)
	if m.MarketCap != nil {
		e.Float64("MarketCap", *m.MarketCap)
	}
	if m.EnterpriseValue != nil {
		e.Float64("EnterpriseValue", *m.EnterpriseValue)
	}
}

// StockLevel holds annual growth figures and the short ratio for a ticker.
// All YoY values are percentages.
type StockLevel struct {
	Ticker        string   `db:"ticker"`
	ShortRatio    *float64 `db:"short_ratio"`
	RevenueYoY    *float64 `db:"revenue_yoy"`
	NetIncomeYoY  *float64 `db:"net_income_yoy"`
	EPSYoY        *float64 `db:"eps_yoy"`
	NetMarginYoY  *float64 `db:"net_margin_yoy"`
	StockPriceYoY *float64 `db:"stock_price_yoy"`
}

func (s *StockLevel) Table() Table {
	return StockLevelTable
}

func (s *StockLevel) Values() []any {
	return []any{s.Ticker, s.ShortRatio, s.RevenueYoY, s.NetIncomeYoY, s.EPSYoY, s.NetMarginYoY, s.StockPriceYoY}
}

// IndustryMetrics is the average of each quarterly metric across the
// constituents of a sub-industry for one fiscal quarter
type IndustryMetrics struct {
	SubIndustry       string    `db:"sub_industry"`
	QuarterReporting  string    `db:"quarter_reporting"`
	Date              time.Time `db:"date"`
	BasicEPS          *float64  `db:"Basic EPS"`
	OperatingIncomeMM *float64  `db:"Operating Income (MM)"`
	NetIncomeMM       *float64  `db:"Net Income (MM)"`
	GrossMargin       *float64  `db:"Gross Margin"`
	OperatingMargin   *float64  `db:"Operating Margin"`
	NetMargin         *float64  `db:"Net Margin"`
	EBITDAMargin      *float64  `db:"EBITDA Margin"`
}

// NewIndustryMetrics builds a row from values in QuarterlyMetrics order
func NewIndustryMetrics(subIndustry, quarter string, date time.Time, vals []*float64) *IndustryMetrics {
	return &IndustryMetrics{
		SubIndustry:       subIndustry,
		QuarterReporting:  quarter,
		Date:              date,
		BasicEPS:          vals[0],
		OperatingIncomeMM: vals[1],
		NetIncomeMM:       vals[2],
		GrossMargin:       vals[3],
		OperatingMargin:   vals[4],
		NetMargin:         vals[5],
		EBITDAMargin:      vals[6],
	}
}

func (im *IndustryMetrics) Table() Table {
	return IndustryMetricsTable
}

func (im *IndustryMetrics) Values() []any {
	return append([]any{im.SubIndustry, im.QuarterReporting, im.Date}, pointers(im.MetricValues())...)
}

// MetricValues returns the metrics in QuarterlyMetrics order
func (im *IndustryMetrics) MetricValues() []*float64 {
	return []*float64{im.BasicEPS, im.OperatingIncomeMM, im.NetIncomeMM, im.GrossMargin,
		im.OperatingMargin, im.NetMargin, im.EBITDAMargin}
}

// MetricsYoY holds the percent change of each quarterly metric versus the
// same fiscal quarter one year earlier. Key is a ticker or a sub-industry
// depending on the table.
type MetricsYoY struct {
	Key                  string    `db:"-"`
	Date                 time.Time `db:"date"`
	QuarterReporting     string    `db:"quarter_reporting"`
	BasicEPSYoY          float64   `db:"Basic EPS YoY"`
	OperatingIncomeMMYoY float64   `db:"Operating Income (MM) YoY"`
	NetIncomeMMYoY       float64   `db:"Net Income (MM) YoY"`
	GrossMarginYoY       float64   `db:"Gross Margin YoY"`
	OperatingMarginYoY   float64   `db:"Operating Margin YoY"`
	NetMarginYoY         float64   `db:"Net Margin YoY"`
	EBITDAMarginYoY      float64   `db:"EBITDA Margin YoY"`

	table Table
}

// NewTickerMetricsYoY builds a ticker_metrics_yoy row from changes in
// QuarterlyMetrics order
func NewTickerMetricsYoY(ticker, quarter string, date time.Time, changes []float64) *MetricsYoY {
	return newMetricsYoY(TickerMetricsYoYTable, ticker, quarter, date, changes)
}

// NewIndustryMetricsYoY builds an industry_metrics_yoy row from changes in
// QuarterlyMetrics order
func NewIndustryMetricsYoY(subIndustry, quarter string, date time.Time, changes []float64) *MetricsYoY {
	return newMetricsYoY(IndustryMetricsYoYTable, subIndustry, quarter, date, changes)
}

func newMetricsYoY(tbl Table, key, quarter string, date time.Time, changes []float64) *MetricsYoY {
	return &MetricsYoY{
		Key:                  key,
		Date:                 date,
		QuarterReporting:     quarter,
		BasicEPSYoY:          changes[0],
		OperatingIncomeMMYoY: changes[1],
		NetIncomeMMYoY:       changes[2],
		GrossMarginYoY:       changes[3],
		OperatingMarginYoY:   changes[4],
		NetMarginYoY:         changes[5],
		EBITDAMarginYoY:      changes[6],
		table:                tbl,
	}
}

func (yoy *MetricsYoY) Table() Table {
	return yoy.table
}

func (yoy *MetricsYoY) Values() []any {
	return []any{yoy.Key, yoy.Date, yoy.QuarterReporting, yoy.BasicEPSYoY, yoy.OperatingIncomeMMYoY,
		yoy.NetIncomeMMYoY, yoy.GrossMarginYoY, yoy.OperatingMarginYoY, yoy.NetMarginYoY, yoy.EBITDAMarginYoY}
}

// Changes returns the YoY values in QuarterlyMetrics order
func (yoy *MetricsYoY) Changes() []float64 {
	return []float64{yoy.BasicEPSYoY, yoy.OperatingIncomeMMYoY, yoy.NetIncomeMMYoY, yoy.GrossMarginYoY,
		yoy.OperatingMarginYoY, yoy.NetMarginYoY, yoy.EBITDAMarginYoY}
}

func pointers(vals []*float64) []any {
	out := make([]any, len(vals))
	for idx, val := range vals {
		out[idx] = val
	}
	return out
}
