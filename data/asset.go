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
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
)

// Company is the directory entry for a ticker
type Company struct {
	Ticker      string  `db:"ticker"`
	Name        string  `db:"name"`
	Sector      string  `db:"sector"`
	Industry    *string `db:"industry"`
	SubIndustry *string `db:"sub_industry"`
}

func (c *Company) Table() Table {
	return CompanyInfoTable
}

func (c *Company) Values() []any {
	return []any{c.Ticker, c.Name, c.Sector, c.Industry, c.SubIndustry}
}

// Group returns the peer group label of the company, or an empty string
func (c *Company) Group() string {
	if c.SubIndustry == nil {
		return ""
	}
	return *c.SubIndustry
}

func (c *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", c.Ticker)
	e.Str("Name", c.Name)
	e.Str("SubIndustry", c.Group())
}

// Security is one line of the universe file: a list of constituents in the
// column layout of the S&P 500 component table
type Security struct {
	Symbol      string `csv:"Symbol"`
	Name        string `csv:"Security"`
	Sector      string `csv:"GICS Sector"`
	SubIndustry string `csv:"GICS Sub-Industry"`
}

// Company converts the universe entry into a directory entry. Industry is
// filled in later from the market-data source.
func (sec *Security) Company() *Company {
	subIndustry := sec.SubIndustry
	return &Company{
		Ticker:      sec.Symbol,
		Name:        sec.Name,
		Sector:      sec.Sector,
		SubIndustry: &subIndustry,
	}
}

// LoadUniverse reads the universe CSV
func LoadUniverse(r io.Reader) ([]*Security, error) {
	securities := make([]*Security, 0, 500)
	if err := gocsv.Unmarshal(r, &securities); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}

	out := securities[:0]
	for _, sec := range securities {
		sec.Symbol = strings.TrimSpace(sec.Symbol)
		if sec.Symbol == "" {
			continue
		}
		out = append(out, sec)
	}

	return out, nil
}

// FilterUniverse restricts the universe to a sector (case-insensitive) and,
// when tickers are given, to those tickers. Empty filters match everything.
func FilterUniverse(securities []*Security, sector string, tickers []string) []*Security {
	wanted := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		wanted[strings.ToUpper(ticker)] = true
	}

	out := make([]*Security, 0, len(securities))
	for _, sec := range securities {
		if sector != "" && !strings.EqualFold(sec.Sector, sector) {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToUpper(sec.Symbol)] {
			continue
		}
		out = append(out, sec)
	}

	return out
}

type AssetClass string

const (
	Commodity AssetClass = "commodity"
	IndexFund AssetClass = "index_fund"
	ETF       AssetClass = "etf"
	FX        AssetClass = "fx"
)

// AssetDef is a non-equity instrument tracked alongside the peer universe.
// Symbol is the market-data symbol, Name is the key it is stored under.
type AssetDef struct {
	Symbol string
	Name   string
	Class  AssetClass
}

// DefaultAssets is the catalogue of broad-market instruments
var DefaultAssets = []AssetDef{
	{Symbol: "GC=F", Name: "GoldFutures", Class: Commodity},
	{Symbol: "BZ=F", Name: "CrudeOilFutures", Class: Commodity},
	{Symbol: "NG=F", Name: "NaturalGasFutures", Class: Commodity},
	{Symbol: "ZW=F", Name: "WheatFutures", Class: Commodity},
	{Symbol: "^GSPC", Name: "S&P500_Index", Class: IndexFund},
	{Symbol: "^DJI", Name: "DowJones_Index", Class: IndexFund},
	{Symbol: "^IXIC", Name: "NASDAQ_Index", Class: IndexFund},
	{Symbol: "^RUT", Name: "Russell2000_Index", Class: IndexFund},
	{Symbol: "SPY", Name: "S&P500_ETF", Class: ETF},
	{Symbol: "QQQ", Name: "NASDAQ_ETF", Class: ETF},
	{Symbol: "IWM", Name: "Russell2000_ETF", Class: ETF},
	{Symbol: "XLK", Name: "TechSector", Class: ETF},
	{Symbol: "XLF", Name: "Financial_Sector", Class: ETF},
	{Symbol: "XLE", Name: "Energy_Sector", Class: ETF},
	{Symbol: "XLV", Name: "HealthCare_Sector", Class: ETF},
	{Symbol: "XLY", Name: "ConsumerDiscretionary_Sector", Class: ETF},
	{Symbol: "EURUSD=X", Name: "EuroUSD_fx", Class: FX},
}
