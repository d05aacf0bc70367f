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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/library"
)

type stubSource struct {
	fundamentalCalls int
}

func (src *stubSource) Fundamentals(_ context.Context, ticker string) (*data.Fundamentals, error) {
	src.fundamentalCalls++
	return &data.Fundamentals{
		Ticker:          ticker,
		QuarterlyIncome: make(data.StatementTable),
		AnnualIncome:    make(data.StatementTable),
		BalanceSheet:    make(data.StatementTable),
		Cashflow:        make(data.StatementTable),
	}, nil
}

func (src *stubSource) PriceHistory(_ context.Context, _ string, _ string) ([]data.PriceBar, error) {
	closes := []float64{10, 11, 12}
	bars := make([]data.PriceBar, len(closes))
	for idx := range closes {
		bars[idx] = data.PriceBar{Date: time.Date(2024, 6, 10+idx, 0, 0, 0, 0, time.UTC), Close: &closes[idx]}
	}
	return bars, nil
}

var _ = Describe("pipeline", func() {
	var (
		ctx       context.Context
		store     *library.Memory
		source    *stubSource
		job       *pipeline
		now       time.Time
		companies []*data.Company
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = library.NewMemory()
		source = &stubSource{}
		now = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
		var err error
		job, err = newPipeline(store, source)
		Expect(err).NotTo(HaveOccurred())
		job.now = func() time.Time { return now }

		companies = []*data.Company{
			(&data.Security{Symbol: "A", Name: "Alpha", Sector: "Industrials", SubIndustry: "Railroads"}).Company(),
			(&data.Security{Symbol: "B", Name: "Beta", Sector: "Industrials", SubIndustry: "Railroads"}).Company(),
		}
	})

	It("ingests, aggregates and refreshes asset classes on the first run", func() {
		report, err := job.run(ctx, companies)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Cached).To(Equal(0))
		Expect(report.Securities.Ingested).To(Equal([]string{"A", "B"}))
		Expect(report.Assets.Ingested).To(HaveLen(len(data.DefaultAssets)))
		Expect(report.Aggregated[data.IndustryTimeSeriesTable]).To(Equal(3))

		count, err := store.RowCount(ctx, data.ClusterTable)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))
		Expect(report.String()).To(ContainSubstring("Companies ingested: 2"))
	})

	It("skips fresh companies and assets on a repeat run", func() {
		_, err := job.run(ctx, companies)
		Expect(err).NotTo(HaveOccurred())

		report, err := job.run(ctx, companies)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Cached).To(Equal(2))
		Expect(report.Securities).To(BeNil())
		Expect(report.Assets).To(BeNil())
		Expect(source.fundamentalCalls).To(Equal(2))
	})

	It("refreshes once the freshness window has passed", func() {
		_, err := job.run(ctx, companies)
		Expect(err).NotTo(HaveOccurred())

		now = now.AddDate(0, 0, 14)
		report, err := job.run(ctx, companies)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Securities.Ingested).To(HaveLen(2))
		Expect(source.fundamentalCalls).To(Equal(4))

		versions, err := store.VersionDates(ctx, []string{"A"})
		Expect(err).NotTo(HaveOccurred())
		Expect(versions["A"]).To(ConsistOf("2024-06-15", "2024-06-29"))
	})
})
