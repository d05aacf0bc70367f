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

package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/ingest"
	"github.com/penny-vault/pvpeers/library"
	"github.com/penny-vault/pvpeers/provider"
)

var errTimeout = errors.New("read timeout")

type fakeSource struct {
	fail      map[string]bool
	empty     map[string]bool
	noTwoYear map[string]bool
	sector    string
	lookbacks map[string][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fail:      make(map[string]bool),
		empty:     make(map[string]bool),
		noTwoYear: make(map[string]bool),
		sector:    "Information Technology",
		lookbacks: make(map[string][]string),
	}
}

func day(year int, month time.Month, dd int) time.Time {
	return time.Date(year, month, dd, 0, 0, 0, 0, time.UTC)
}

func ptr(val float64) *float64 {
	return &val
}

func (src *fakeSource) Fundamentals(_ context.Context, ticker string) (*data.Fundamentals, error) {
	if src.fail[ticker] {
		return nil, errTimeout
	}
	if src.empty[ticker] {
		return nil, nil
	}

	quarterly := make(data.StatementTable)
	for idx, date := range []time.Time{day(2023, 3, 31), day(2024, 3, 31)} {
		quarterly.Set(data.TotalRevenueItem, date, 1000+float64(idx)*100)
		quarterly.Set(data.GrossProfitItem, date, 400)
		quarterly.Set(data.OperatingIncomeItem, date, 2_000_000)
		quarterly.Set(data.NetIncomeItem, date, 1_000_000)
		quarterly.Set(data.BasicEPSItem, date, 1.5)
	}

	annual := make(data.StatementTable)
	annual.Set(data.TotalRevenueItem, day(2022, 12, 31), 4000)
	annual.Set(data.TotalRevenueItem, day(2023, 12, 31), 5000)

	balance := make(data.StatementTable)
	balance.Set(data.CurrentAssetsItem, day(2023, 12, 31), 300)
	balance.Set(data.TotalLiabilitiesItem, day(2023, 12, 31), 150)

	cashflow := make(data.StatementTable)
	cashflow.Set(data.FreeCashFlowItem, day(2022, 12, 31), 80)
	cashflow.Set(data.FreeCashFlowItem, day(2023, 12, 31), 90)

	return &data.Fundamentals{
		Ticker:          ticker,
		QuarterlyIncome: quarterly,
		AnnualIncome:    annual,
		BalanceSheet:    balance,
		Cashflow:        cashflow,
		Info: data.Info{
			Sector:          src.sector,
			Industry:        "Software",
			MarketCap:       ptr(1e9),
			EnterpriseValue: ptr(1.1e9),
			TrailingPE:      ptr(22.123),
		},
	}, nil
}

func (src *fakeSource) PriceHistory(_ context.Context, ticker string, lookback string) ([]data.PriceBar, error) {
	src.lookbacks[ticker] = append(src.lookbacks[ticker], lookback)
	if lookback == provider.TwoYears && src.noTwoYear[ticker] {
		return nil, fmt.Errorf("%w: test", provider.ErrNoData)
	}

	return []data.PriceBar{
		{Date: day(2024, 1, 2), Close: ptr(50)},
		{Date: day(2024, 1, 3), Close: ptr(55)},
		{Date: day(2024, 1, 4), Close: ptr(60)},
	}, nil
}

func company(ticker, subIndustry string) *data.Company {
	return &data.Company{
		Ticker:      ticker,
		Name:        ticker + " Inc.",
		Sector:      "Universe Sector",
		SubIndustry: &subIndustry,
	}
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx    context.Context
		source *fakeSource
		store  *library.Memory
		orch   *ingest.Orchestrator
		today  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = newFakeSource()
		store = library.NewMemory()
		today = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
		orch = ingest.New(source, store).WithClock(func() time.Time { return today })
	})

	tickersIn := func(tbl data.Table) []string {
		fetched, err := store.Fetch(ctx, tbl, 0)
		Expect(err).NotTo(HaveOccurred())
		seen := make(map[string]bool)
		out := make([]string, 0)
		for _, row := range fetched {
			ticker := row["ticker"].(string)
			if !seen[ticker] {
				seen[ticker] = true
				out = append(out, ticker)
			}
		}
		return out
	}

	It("skips a failing entity without aborting the batch", func() {
		source.fail["B"] = true
		result, err := orch.Ingest(ctx, []*data.Company{company("A", "Software"), company("B", "Software"), company("C", "Software")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ingested).To(Equal([]string{"A", "C"}))
		Expect(result.Failed).To(HaveKeyWithValue("B", MatchError(errTimeout)))

		for _, tbl := range []data.Table{data.CompanyInfoTable, data.MostRecentMetricTable, data.StockLevelTable,
			data.TickerTimeSeriesTable, data.QuarterlyFinancialsTable, data.BalanceSheetTable, data.CashflowTable,
			data.StorageRecordTable} {
			Expect(tickersIn(tbl)).To(Equal([]string{"A", "C"}), tbl.String())
		}

		versions, err := store.VersionDates(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(versions).To(HaveKeyWithValue("A", []string{"2024-06-15"}))
	})

	It("fails only the entity whose source returns no fundamentals", func() {
		source.empty["B"] = true
		result, err := orch.Ingest(ctx, []*data.Company{company("A", "Software"), company("B", "Software"), company("C", "Software")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ingested).To(Equal([]string{"A", "C"}))
		Expect(result.Failed).To(HaveKeyWithValue("B", MatchError(provider.ErrNoData)))
		Expect(tickersIn(data.CompanyInfoTable)).To(Equal([]string{"A", "C"}))
		Expect(tickersIn(data.StorageRecordTable)).To(Equal([]string{"A", "C"}))
	})

	It("issues one write per table regardless of the number of entities", func() {
		_, err := orch.Ingest(ctx, []*data.Company{company("A", "Software"), company("B", "Software"), company("C", "Software")})
		Expect(err).NotTo(HaveOccurred())

		for _, tbl := range []data.Table{data.CompanyInfoTable, data.MostRecentMetricTable, data.TickerTimeSeriesTable,
			data.QuarterlyFinancialsTable, data.CashflowTable, data.StorageRecordTable} {
			Expect(store.Writes[tbl]).To(Equal(1), tbl.String())
		}

		count, err := store.RowCount(ctx, data.TickerTimeSeriesTable)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(9))
	})

	It("is idempotent when replayed with identical source data", func() {
		companies := []*data.Company{company("A", "Software"), company("C", "Software")}
		_, err := orch.Ingest(ctx, companies)
		Expect(err).NotTo(HaveOccurred())

		before := make(map[data.Table][]map[string]any)
		for _, tbl := range data.Tables() {
			before[tbl], err = store.Fetch(ctx, tbl, 0)
			Expect(err).NotTo(HaveOccurred())
		}

		_, err = orch.Ingest(ctx, companies)
		Expect(err).NotTo(HaveOccurred())

		for _, tbl := range data.Tables() {
			after, err := store.Fetch(ctx, tbl, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before[tbl]), tbl.String())
		}
	})

	It("enriches the company from the source and keeps universe fields", func() {
		_, err := orch.Ingest(ctx, []*data.Company{company("A", "Application Software")})
		Expect(err).NotTo(HaveOccurred())

		companies, err := store.Companies(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(companies).To(HaveLen(1))
		Expect(companies[0].Name).To(Equal("A Inc."))
		Expect(companies[0].Sector).To(Equal("Information Technology"))
		Expect(*companies[0].Industry).To(Equal("Software"))
		Expect(companies[0].Group()).To(Equal("Application Software"))

		metrics, err := store.MostRecentMetrics(ctx, []string{"A"})
		Expect(err).NotTo(HaveOccurred())
		Expect(*metrics[0].PriceEPSRatio).To(Equal(22.12))
	})

	It("falls back to the universe sector when the source has none", func() {
		source.sector = ""
		_, err := orch.Ingest(ctx, []*data.Company{company("A", "Software")})
		Expect(err).NotTo(HaveOccurred())

		companies, err := store.Companies(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(companies[0].Sector).To(Equal("Universe Sector"))
	})

	It("falls back to one year of price history", func() {
		source.noTwoYear["A"] = true
		result, err := orch.Ingest(ctx, []*data.Company{company("A", "Software")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ingested).To(ConsistOf("A"))
		Expect(source.lookbacks["A"]).To(Equal([]string{provider.TwoYears, provider.OneYear}))

		prices, err := store.TickerPrices(ctx, []string{"A"})
		Expect(err).NotTo(HaveOccurred())
		Expect(prices).To(HaveLen(3))
		Expect(prices[2].CloseIndexed).To(BeNumerically("~", 120))
	})

	It("does not write anything when every entity fails", func() {
		source.fail["A"] = true
		result, err := orch.Ingest(ctx, []*data.Company{company("A", "Software")})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ingested).To(BeEmpty())
		Expect(store.Writes).To(BeEmpty())
	})

	It("stores asset classes under their display names", func() {
		assets := []data.AssetDef{
			{Symbol: "GC=F", Name: "GoldFutures", Class: data.Commodity},
			{Symbol: "SPY", Name: "S&P500_ETF", Class: data.ETF},
		}
		result, err := orch.IngestAssets(ctx, assets)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ingested).To(Equal([]string{"GoldFutures", "S&P500_ETF"}))

		rows, err := store.Fetch(ctx, data.AssetClassTimeSeriesTable, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(6))
		Expect(rows[0]).To(HaveKeyWithValue("ticker", "GoldFutures"))
		Expect(rows[0]).To(HaveKeyWithValue("asset_class", "commodity"))

		versions, err := store.VersionDates(ctx, []string{"GoldFutures"})
		Expect(err).NotTo(HaveOccurred())
		Expect(versions["GoldFutures"]).To(Equal([]string{"2024-06-15"}))
	})
})
