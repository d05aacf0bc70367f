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
)

// TickerPrice is a daily close for a single security
type TickerPrice struct {
	Ticker       string    `db:"ticker"`
	Date         time.Time `db:"date"`
	Close        float64   `db:"close_price"`
	CloseIndexed float64   `db:"close_price_indexed"`
}

func (eod *TickerPrice) Table() Table {
	return TickerTimeSeriesTable
}

func (eod *TickerPrice) Values() []any {
	return []any{eod.Ticker, eod.Date, eod.Close, eod.CloseIndexed}
}

// TickerYoY holds the fractional change of a security's close versus the
// close one year earlier
type TickerYoY struct {
	Ticker          string    `db:"ticker"`
	Date            time.Time `db:"date"`
	CloseYoY        *float64  `db:"close_price_yoy"`
	CloseIndexedYoY *float64  `db:"close_price_indexed_yoy"`
}

func (yoy *TickerYoY) Table() Table {
	return TickerYoYTable
}

func (yoy *TickerYoY) Values() []any {
	return []any{yoy.Ticker, yoy.Date, yoy.CloseYoY, yoy.CloseIndexedYoY}
}

// IndustryPrice is the sum of constituent closes for a sub-industry on a day
type IndustryPrice struct {
	SubIndustry  string    `db:"sub_industry"`
	Date         time.Time `db:"date"`
	Close        float64   `db:"industry_close_price"`
	CloseIndexed float64   `db:"industry_close_price_indexed"`
}

func (eod *IndustryPrice) Table() Table {
	return IndustryTimeSeriesTable
}

func (eod *IndustryPrice) Values() []any {
	return []any{eod.SubIndustry, eod.Date, eod.Close, eod.CloseIndexed}
}

type IndustryYoY struct {
	SubIndustry     string    `db:"sub_industry"`
	Date            time.Time `db:"date"`
	CloseYoY        *float64  `db:"industry_close_price_yoy"`
	CloseIndexedYoY *float64  `db:"industry_close_price_indexed_yoy"`
}

func (yoy *IndustryYoY) Table() Table {
	return IndustryYoYTable
}

func (yoy *IndustryYoY) Values() []any {
	return []any{yoy.SubIndustry, yoy.Date, yoy.CloseYoY, yoy.CloseIndexedYoY}
}

// AssetClassPrice is a daily close for a non-equity instrument (commodity,
// index, ETF or currency pair). CloseYoY is a percentage.
type AssetClassPrice struct {
	Ticker       string    `db:"ticker"`
	Date         time.Time `db:"date"`
	AssetClass   string    `db:"asset_class"`
	Close        float64   `db:"close_price"`
	CloseIndexed float64   `db:"close_price_indexed"`
	CloseYoY     *float64  `db:"close_price_yoy"`
}

func (eod *AssetClassPrice) Table() Table {
	return AssetClassTimeSeriesTable
}

func (eod *AssetClassPrice) Values() []any {
	return []any{eod.Ticker, eod.Date, eod.AssetClass, eod.Close, eod.CloseIndexed, eod.CloseYoY}
}
