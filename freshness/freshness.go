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

// Package freshness decides which entities are stale enough to re-fetch
package freshness

import (
	"context"
	"time"

	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog"
)

// Policy is a staleness window in days. A stored version date is fresh
// while it is less than Window days old.
type Policy struct {
	Window int
}

var (
	SecurityPolicy = Policy{Window: 14}
	AssetPolicy    = Policy{Window: 1}
)

// IsFresh reports whether any of the stored version dates is within the
// window of today. Unparsable or future dates never count as fresh.
func (p Policy) IsFresh(today time.Time, versionDates []string) bool {
	today = data.Day(today)
	for _, versionDate := range versionDates {
		stored, err := time.Parse(data.DateFormat, versionDate)
		if err != nil {
			continue
		}

		if stored.After(today) {
			continue
		}

		ageDays := int(today.Sub(stored).Hours() / 24)
		if ageDays < p.Window {
			return true
		}
	}

	return false
}

// RecordReader returns the stored version dates keyed by ticker
type RecordReader interface {
	VersionDates(ctx context.Context, tickers []string) (map[string][]string, error)
}

// Tracker partitions a requested set of entities using a single read of
// the data storage records
type Tracker struct {
	store  RecordReader
	policy Policy
	now    func() time.Time
}

func NewTracker(store RecordReader, policy Policy) *Tracker {
	return &Tracker{
		store:  store,
		policy: policy,
		now:    time.Now,
	}
}

// WithClock overrides the tracker's notion of today
func (tracker *Tracker) WithClock(now func() time.Time) *Tracker {
	tracker.now = now
	return tracker
}

// Partition splits tickers into those that need a refresh and those that
// are cached. Order of the input is preserved in both outputs. A failed
// read marks everything as needing a refresh.
func (tracker *Tracker) Partition(ctx context.Context, tickers []string) (refresh, cached []string) {
	logger := zerolog.Ctx(ctx)

	records, err := tracker.store.VersionDates(ctx, tickers)
	if err != nil {
		logger.Error().Err(err).Int("Count", len(tickers)).Msg("could not read data storage records; treating all as stale")
		records = nil
	}

	today := tracker.now()
	refresh = make([]string, 0, len(tickers))
	cached = make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if tracker.policy.IsFresh(today, records[ticker]) {
			cached = append(cached, ticker)
		} else {
			refresh = append(refresh, ticker)
		}
	}

	logger.Info().Int("Refresh", len(refresh)).Int("Cached", len(cached)).Int("WindowDays", tracker.policy.Window).Msg("partitioned by freshness")
	return refresh, cached
}
