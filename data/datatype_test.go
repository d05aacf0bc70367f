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

package data_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/data"
)

var _ = Describe("Tables", func() {
	It("registers every table with a primary key drawn from its columns", func() {
		for _, tbl := range data.Tables() {
			Expect(tbl.PrimaryKey()).NotTo(BeEmpty(), tbl.String())
			Expect(tbl.KeyIndexes()).To(HaveLen(len(tbl.PrimaryKey())), tbl.String())
		}
	})

	It("looks tables up by name", func() {
		tbl, err := data.TableByName("quarterly_financial_data")
		Expect(err).NotTo(HaveOccurred())
		Expect(tbl).To(Equal(data.QuarterlyFinancialsTable))
	})

	It("rejects names outside the schema", func() {
		_, err := data.TableByName("company_info; DROP TABLE company_info")
		Expect(err).To(MatchError(data.ErrUnknownTable))
	})

	It("keeps row values aligned with table columns", func() {
		eps := 1.5
		rows := []data.Row{
			&data.Company{Ticker: "A", Name: "A Corp", Sector: "Tech"},
			&data.TickerPrice{Ticker: "A", Date: time.Now(), Close: 1, CloseIndexed: 100},
			&data.TickerYoY{Ticker: "A"},
			&data.QuarterlyFinancials{Ticker: "A", BasicEPS: &eps},
			&data.BalanceSheetSnapshot{Ticker: "A"},
			&data.CashflowSnapshot{Ticker: "A"},
			&data.MostRecentMetric{Ticker: "A"},
			&data.StockLevel{Ticker: "A"},
			&data.ClusterMembership{Ticker: "A", Membership: data.ClusterMember},
			&data.IndustryPrice{SubIndustry: "S"},
			&data.IndustryYoY{SubIndustry: "S"},
			data.NewIndustryMetrics("S", "2024_1", time.Now(), make([]*float64, len(data.QuarterlyMetrics))),
			data.NewTickerMetricsYoY("A", "2024_1", time.Now(), make([]float64, len(data.QuarterlyMetrics))),
			data.NewIndustryMetricsYoY("S", "2024_1", time.Now(), make([]float64, len(data.QuarterlyMetrics))),
			&data.AssetClassPrice{Ticker: "GoldFutures"},
			data.NewStorageRecord("A", time.Now()),
		}

		seen := map[data.Table]bool{}
		for _, row := range rows {
			Expect(row.Values()).To(HaveLen(len(row.Table().Columns())), row.Table().String())
			seen[row.Table()] = true
		}
		Expect(seen).To(HaveLen(len(data.Tables())))
	})

	It("names metric YoY columns after the metric", func() {
		Expect(data.TickerMetricsYoYTable.Columns()).To(ContainElement("Gross Margin YoY"))
		Expect(data.IndustryMetricsTable.Columns()).To(ContainElement("EBITDA Margin"))
	})
})
