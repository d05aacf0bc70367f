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
	"github.com/spf13/viper"

	"github.com/penny-vault/pvpeers/aggregate"
	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/dcf"
	"github.com/penny-vault/pvpeers/library"
)

var _ = Describe("command helpers", func() {
	var (
		ctx   context.Context
		store *library.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = library.NewMemory()
	})

	Describe("show", func() {
		BeforeEach(func() {
			Expect(store.InsertIfAbsent(ctx, data.ClusterTable, []data.Row{
				&data.ClusterMembership{Ticker: "A", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Membership: data.NotClusterMember},
				&data.ClusterMembership{Ticker: "A", Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Membership: data.ClusterMember},
			})).To(Succeed())
		})

		It("returns only the latest membership per ticker", func() {
			rows, err := showRows(ctx, store, data.ClusterTable, true, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]).To(HaveKeyWithValue("cluster_membership", "cluster member"))
		})

		It("returns every row without --latest", func() {
			rows, err := showRows(ctx, store, data.ClusterTable, false, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})

		It("rejects --latest for other tables", func() {
			_, err := showRows(ctx, store, data.CompanyInfoTable, true, 0)
			Expect(err).To(MatchError(errLatestUnsupported))
		})
	})

	Describe("dcf", func() {
		rates := dcf.Inputs{Growth: 0.05, Discount: 0.10, Terminal: 0.025}

		It("fails without a stored free cash flow", func() {
			_, err := value(ctx, store, "A", rates)
			Expect(err).To(MatchError(dcf.ErrMissingFreeCashFlow))
		})

		It("fails without a stored enterprise value", func() {
			fcf := 100.0
			Expect(store.InsertIfAbsent(ctx, data.CashflowTable, []data.Row{
				&data.CashflowSnapshot{Ticker: "A", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), FreeCashFlow: &fcf},
			})).To(Succeed())

			_, err := value(ctx, store, "A", rates)
			Expect(err).To(MatchError(dcf.ErrZeroEnterpriseValue))
		})

		It("values every scenario from the latest free cash flow", func() {
			older, latest, ev := 80.0, 100.0, 2000.0
			Expect(store.InsertIfAbsent(ctx, data.CashflowTable, []data.Row{
				&data.CashflowSnapshot{Ticker: "A", Date: time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), FreeCashFlow: &older},
				&data.CashflowSnapshot{Ticker: "A", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), FreeCashFlow: &latest},
			})).To(Succeed())
			Expect(store.UpsertReplace(ctx, data.MostRecentMetricTable, []data.Row{
				&data.MostRecentMetric{Ticker: "A", EnterpriseValue: &ev},
			})).To(Succeed())

			result, err := value(ctx, store, "A", rates)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.freeCashFlow).To(Equal(latest))
			Expect(result.actual).To(Equal(ev))
			Expect(result.comparisons).To(HaveLen(len(dcf.Scenarios)))
		})
	})

	It("returns an error for an unknown aggregate mode", func() {
		viper.Set("aggregate.mode", "rebuild")
		DeferCleanup(func() { viper.Set("aggregate.mode", "refresh") })

		_, err := newEngine(store)
		Expect(err).To(MatchError(aggregate.ErrUnknownMode))
	})
})
