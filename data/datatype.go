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
	"errors"
	"fmt"
)

var (
	ErrUnknownTable = errors.New("unknown table")
)

// Table identifies one of the fixed tables of the peer database. It is a
// closed set: every table name that reaches generated SQL comes from here.
type Table int

const (
	CompanyInfoTable Table = iota
	TickerTimeSeriesTable
	TickerYoYTable
	QuarterlyFinancialsTable
	BalanceSheetTable
	CashflowTable
	MostRecentMetricTable
	StockLevelTable
	ClusterTable
	IndustryTimeSeriesTable
	IndustryYoYTable
	IndustryMetricsTable
	TickerMetricsYoYTable
	IndustryMetricsYoYTable
	AssetClassTimeSeriesTable
	StorageRecordTable
)

// TableDef describes the columns and primary key of a table
type TableDef struct {
	Name       string
	Columns    []string
	PrimaryKey []string
}

var tableDefs = map[Table]*TableDef{
	CompanyInfoTable: {
		Name:       "company_info",
		Columns:    []string{"ticker", "name", "sector", "industry", "sub_industry"},
		PrimaryKey: []string{"ticker"},
	},
	TickerTimeSeriesTable: {
		Name:       "ticker_time_series",
		Columns:    []string{"ticker", "date", "close_price", "close_price_indexed"},
		PrimaryKey: []string{"ticker", "date"},
	},
	TickerYoYTable: {
		Name:       "ticker_ts_yoy",
		Columns:    []string{"ticker", "date", "close_price_yoy", "close_price_indexed_yoy"},
		PrimaryKey: []string{"ticker", "date"},
	},
	QuarterlyFinancialsTable: {
		Name: "quarterly_financial_data",
		Columns: []string{"ticker", "date", "quarter_reporting", BasicEPS, OperatingIncome, OperatingIncomeMM,
			NetIncome, NetIncomeMM, GrossMargin, OperatingMargin, NetMargin, EBITDAMargin},
		PrimaryKey: []string{"ticker", "date"},
	},
	BalanceSheetTable: {
		Name: "balance_sheet_data",
		Columns: []string{"ticker", "date", "annual_reporting", "OrdinarySharesNumber", "StockholdersEquity",
			"TotalLiabilitiesNetMinorityInterest", "CurrentAssets", "Quick Ratio", "Equity Ratio", "Debt-to-Equity Ratio"},
		PrimaryKey: []string{"ticker", "date"},
	},
	CashflowTable: {
		Name:       "cashflow_statement_data",
		Columns:    []string{"ticker", "date", "Free Cash Flow", "Operating Cash Flow", "Capital Expenditure"},
		PrimaryKey: []string{"ticker", "date"},
	},
	MostRecentMetricTable: {
		Name: "ticker_most_recent_metric_data",
		Columns: []string{"ticker", "market_cap", "price_eps_ratio", "price_to_book", "return_on_equity",
			"debt_to_equity_ratio", "profit_margin", "enterpriseToEbitda", "latest_eps", "enterprise_value"},
		PrimaryKey: []string{"ticker"},
	},
	StockLevelTable: {
		Name: "ticker_stock_level_data",
		Columns: []string{"ticker", "short_ratio", "revenue_yoy", "net_income_yoy", "eps_yoy",
			"net_margin_yoy", "stock_price_yoy"},
		PrimaryKey: []string{"ticker"},
	},
	ClusterTable: {
		Name:       "cluster_table",
		Columns:    []string{"ticker", "date", "cluster_membership"},
		PrimaryKey: []string{"ticker", "date"},
	},
	IndustryTimeSeriesTable: {
		Name:       "industry_time_series",
		Columns:    []string{"sub_industry", "date", "industry_close_price", "industry_close_price_indexed"},
		PrimaryKey: []string{"sub_industry", "date"},
	},
	IndustryYoYTable: {
		Name:       "industry_time_series_yoy",
		Columns:    []string{"sub_industry", "date", "industry_close_price_yoy", "industry_close_price_indexed_yoy"},
		PrimaryKey: []string{"sub_industry", "date"},
	},
	IndustryMetricsTable: {
		Name:       "industry_metrics",
		Columns:    append([]string{"sub_industry", "quarter_reporting", "date"}, QuarterlyMetrics...),
		PrimaryKey: []string{"sub_industry", "quarter_reporting"},
	},
	TickerMetricsYoYTable: {
		Name:       "ticker_metrics_yoy",
		Columns:    append([]string{"ticker", "date", "quarter_reporting"}, yoyColumns()...),
		PrimaryKey: []string{"ticker", "date"},
	},
	IndustryMetricsYoYTable: {
		Name:       "industry_metrics_yoy",
		Columns:    append([]string{"sub_industry", "date", "quarter_reporting"}, yoyColumns()...),
		PrimaryKey: []string{"sub_industry", "quarter_reporting"},
	},
	AssetClassTimeSeriesTable: {
		Name:       "asset_class_time_series",
		Columns:    []string{"ticker", "date", "asset_class", "close_price", "close_price_indexed", "close_price_yoy"},
		PrimaryKey: []string{"ticker", "date"},
	},
	StorageRecordTable: {
		Name:       "data_storage_record",
		Columns:    []string{"ticker", "version date"},
		PrimaryKey: []string{"ticker", "version date"},
	},
}

// Row is a single record destined for one table. Values must be returned in
// the same order as the table's Columns.
type Row interface {
	Table() Table
	Values() []any
}

// Tables returns every known table in schema order
func Tables() []Table {
	tables := make([]Table, 0, len(tableDefs))
	for tbl := CompanyInfoTable; tbl <= StorageRecordTable; tbl++ {
		tables = append(tables, tbl)
	}
	return tables
}

// TableByName maps a table name back to its identifier
func TableByName(name string) (Table, error) {
	for tbl, def := range tableDefs {
		if def.Name == name {
			return tbl, nil
		}
	}

	return -1, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

func (tbl Table) def() *TableDef {
	def, ok := tableDefs[tbl]
	if !ok {
		panic(fmt.Sprintf("table %d is not registered", int(tbl)))
	}
	return def
}

func (tbl Table) String() string {
	return tbl.def().Name
}

// Columns returns the ordered column names of the table
func (tbl Table) Columns() []string {
	return tbl.def().Columns
}

// PrimaryKey returns the primary key columns of the table
func (tbl Table) PrimaryKey() []string {
	return tbl.def().PrimaryKey
}

// KeyIndexes returns the positions of the primary key columns within Columns
func (tbl Table) KeyIndexes() []int {
	def := tbl.def()
	idx := make([]int, 0, len(def.PrimaryKey))
	for _, key := range def.PrimaryKey {
		for pos, col := range def.Columns {
			if col == key {
				idx = append(idx, pos)
				break
			}
		}
	}
	return idx
}
