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

package freshness_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/freshness"
)

type recordReader struct {
	records map[string][]string
	err     error
	calls   int
}

func (r *recordReader) VersionDates(_ context.Context, _ []string) (map[string][]string, error) {
	r.calls++
	return r.records, r.err
}

var _ = Describe("Freshness", func() {
	today := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	daysAgo := func(n int) string {
		return today.AddDate(0, 0, -n).Format(data.DateFormat)
	}

	Describe("Policy", func() {
		DescribeTable("security window",
			func(versionDates []string, expected bool) {
				Expect(freshness.SecurityPolicy.IsFresh(today, versionDates)).To(Equal(expected))
			},
			Entry("no record", []string(nil), false),
			Entry("today", []string{daysAgo(0)}, true),
			Entry("13 days ago", []string{daysAgo(13)}, true),
			Entry("14 days ago", []string{daysAgo(14)}, false),
			Entry("15 days ago", []string{daysAgo(15)}, false),
			Entry("malformed", []string{"15/06/2024"}, false),
			Entry("future", []string{"2024-06-20"}, false),
			Entry("one good record among bad", []string{"garbage", daysAgo(30), daysAgo(2)}, true),
		)

		DescribeTable("asset window",
			func(versionDates []string, expected bool) {
				Expect(freshness.AssetPolicy.IsFresh(today, versionDates)).To(Equal(expected))
			},
			Entry("today", []string{daysAgo(0)}, true),
			Entry("yesterday", []string{daysAgo(1)}, false),
		)
	})

	Describe("Tracker", func() {
		clock := func() time.Time { return today }

		It("partitions with a single read", func() {
			reader := &recordReader{records: map[string][]string{
				"AAPL": {daysAgo(3)},
				"MSFT": {daysAgo(20)},
			}}
			tracker := freshness.NewTracker(reader, freshness.SecurityPolicy).WithClock(clock)

			refresh, cached := tracker.Partition(context.Background(), []string{"AAPL", "MSFT", "NVDA"})
			Expect(refresh).To(Equal([]string{"MSFT", "NVDA"}))
			Expect(cached).To(Equal([]string{"AAPL"}))
			Expect(reader.calls).To(Equal(1))
		})

		It("treats every entity as stale when the read fails", func() {
			reader := &recordReader{
				records: map[string][]string{"AAPL": {daysAgo(0)}},
				err:     errors.New("connection refused"),
			}
			tracker := freshness.NewTracker(reader, freshness.SecurityPolicy).WithClock(clock)

			refresh, cached := tracker.Partition(context.Background(), []string{"AAPL", "MSFT"})
			Expect(refresh).To(Equal([]string{"AAPL", "MSFT"}))
			Expect(cached).To(BeEmpty())
		})
	})
})
