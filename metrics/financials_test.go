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

package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/metrics"
)

var _ = Describe("Quarterly financials", func() {
	var stmt data.StatementTable

	BeforeEach(func() {
		stmt = data.StatementTable{}
		q1, q2 := day(2024, 3, 31), day(2023, 12, 31)

		stmt.Set(data.TotalRevenueItem, q1, 0)
		stmt.Set(data.GrossProfitItem, q1, 100)
		stmt.Set(data.OperatingIncomeItem, q1, 5_000_000)

		stmt.Set(data.TotalRevenueItem, q2, 1000)
		stmt.Set(data.GrossProfitItem, q2, 400)
		stmt.Set(data.NetIncomeItem, q2, 2_500_000)
		stmt.Set(data.BasicEPSItem, q2, 1.5)
	})

	It("returns rows oldest first with fiscal quarter labels", func() {
		rows := metrics.Quarterly("X", stmt)
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Date).To(Equal(day(2023, 12, 31)))
		Expect(rows[0].QuarterReporting).To(Equal("2023_4"))
		Expect(rows[1].QuarterReporting).To(Equal("2024_1"))
	})

	It("maps zero revenue to zero margins instead of failing", func() {
		latest := metrics.Quarterly("X", stmt)[1]
		Expect(*latest.GrossMargin).To(Equal(0.0))
		Expect(*latest.EBITDAMargin).To(Equal(0.0))
		Expect(*latest.OperatingIncomeMM).To(Equal(5.0))
	})

	It("synthesizes missing line items as nil", func() {
		older := metrics.Quarterly("X", stmt)[0]
		Expect(*older.GrossMargin).To(BeNumerically("~", 40))
		Expect(older.EBITDAMargin).To(BeNil())
		Expect(older.OperatingIncome).To(BeNil())
		Expect(*older.NetIncomeMM).To(Equal(2.5))
		Expect(*older.NetMargin).To(BeNumerically("~", 250_000))
		Expect(*older.BasicEPS).To(Equal(1.5))
	})

	It("handles an empty statement", func() {
		Expect(metrics.Quarterly("X", data.StatementTable{})).To(BeEmpty())
		Expect(metrics.Quarterly("X", nil)).To(BeEmpty())
	})
})

var _ = Describe("Balance sheets", func() {
	It("uses inventory in the quick ratio when reported", func() {
		stmt := data.StatementTable{}
		date := day(2023, 9, 30)
		stmt.Set(data.CurrentAssetsItem, date, 150)
		stmt.Set(data.InventoryItem, date, 50)
		stmt.Set(data.TotalLiabilitiesItem, date, 200)
		stmt.Set(data.StockholdersEquityItem, date, 100)
		stmt.Set(data.OrdinarySharesNumberItem, date, 10)

		rows := metrics.BalanceSheets("X", stmt)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].AnnualReporting).To(Equal("2023"))
		Expect(*rows[0].QuickRatio).To(Equal(0.5))
		Expect(*rows[0].EquityRatio).To(Equal(-5.0))
		Expect(*rows[0].DebtToEquityRatio).To(Equal(2.0))
	})

	It("falls back to current assets without inventory and guards zero equity", func() {
		stmt := data.StatementTable{}
		date := day(2023, 12, 31)
		stmt.Set(data.CurrentAssetsItem, date, 150)
		stmt.Set(data.TotalLiabilitiesItem, date, 300)
		stmt.Set(data.StockholdersEquityItem, date, 0)

		row := metrics.BalanceSheets("X", stmt)[0]
		Expect(row.AnnualReporting).To(Equal("2024"))
		Expect(*row.QuickRatio).To(Equal(0.5))
		Expect(row.DebtToEquityRatio).To(BeNil())
		Expect(row.EquityRatio).To(BeNil())
	})
})

var _ = Describe("Cash flow", func() {
	It("sorts ascending by date", func() {
		stmt := data.StatementTable{}
		stmt.Set(data.FreeCashFlowItem, day(2023, 12, 31), 30)
		stmt.Set(data.FreeCashFlowItem, day(2021, 12, 31), 10)
		stmt.Set(data.CapitalExpenditureItem, day(2022, 12, 31), -5)

		rows := metrics.Cashflows("X", stmt)
		Expect(rows).To(HaveLen(3))
		Expect(rows[0].Date).To(Equal(day(2021, 12, 31)))
		Expect(rows[1].FreeCashFlow).To(BeNil())
		Expect(*rows[2].FreeCashFlow).To(Equal(30.0))
	})
})
