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

package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/metrics"
)

type metricPoint struct {
	key     string
	quarter string
	date    time.Time
	values  []*float64
}

type metricChange struct {
	key     string
	quarter string
	date    time.Time
	changes []float64
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// metricYoY joins each point with the point of the same key whose fiscal
// quarter, moved forward a year, matches its own. When several qualify the
// one dated closest to a year earlier is used.
func metricYoY(points []metricPoint) []metricChange {
	byKey := make(map[string][]metricPoint)
	for _, point := range points {
		byKey[point.key] = append(byKey[point.key], point)
	}

	out := make([]metricChange, 0, len(points))
	for _, cur := range points {
		target := data.OneYearBefore(cur.date)

		var lagged *metricPoint
		for idx := range byKey[cur.key] {
			candidate := &byKey[cur.key][idx]
			if data.QuarterLabel(data.AddMonths(candidate.date, 12)) != cur.quarter {
				continue
			}
			if lagged == nil || absDuration(candidate.date.Sub(target)) < absDuration(lagged.date.Sub(target)) {
				lagged = candidate
			}
		}

		if lagged == nil {
			continue
		}

		changes := make([]float64, len(cur.values))
		for idx := range cur.values {
			changes[idx] = metrics.PercentChange(cur.values[idx], lagged.values[idx])
		}

		out = append(out, metricChange{key: cur.key, quarter: cur.quarter, date: cur.date, changes: changes})
	}
	return out
}

func mean(vals []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, val := range vals {
		if val == nil {
			continue
		}
		sum += *val
		count++
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// IndustryMetrics averages each quarterly metric across the constituents of
// a sub-industry reporting the same fiscal quarter. The earliest report
// date among them represents the quarter.
func (engine *Engine) IndustryMetrics(ctx context.Context, peers *Peers) ([]data.Row, error) {
	financials, err := engine.store.QuarterlyFinancials(ctx, peers.Tickers)
	if err != nil {
		return nil, fmt.Errorf("load quarterly financials: %w", err)
	}

	type groupQuarter struct {
		group   string
		quarter string
	}

	type accumulator struct {
		date   time.Time
		values [][]*float64
	}

	groups := make(map[groupQuarter]*accumulator)
	keys := make([]groupQuarter, 0)
	for _, qf := range financials {
		group, ok := peers.GroupOf[qf.Ticker]
		if !ok {
			continue
		}

		key := groupQuarter{group: group, quarter: qf.QuarterReporting}
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{date: qf.Date, values: make([][]*float64, len(data.QuarterlyMetrics))}
			groups[key] = acc
			keys = append(keys, key)
		}

		if qf.Date.Before(acc.date) {
			acc.date = qf.Date
		}
		for idx, val := range qf.MetricValues() {
			acc.values[idx] = append(acc.values[idx], val)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].quarter < keys[j].quarter
	})

	rows := make([]data.Row, len(keys))
	for idx, key := range keys {
		acc := groups[key]
		averages := make([]*float64, len(acc.values))
		for pos, vals := range acc.values {
			averages[pos] = mean(vals)
		}
		rows[idx] = data.NewIndustryMetrics(key.group, key.quarter, acc.date, averages)
	}
	return rows, nil
}

// TickerMetricsYoY computes ticker_metrics_yoy from quarterly_financial_data
func (engine *Engine) TickerMetricsYoY(ctx context.Context, peers *Peers) ([]data.Row, error) {
	financials, err := engine.store.QuarterlyFinancials(ctx, peers.Tickers)
	if err != nil {
		return nil, fmt.Errorf("load quarterly financials: %w", err)
	}

	points := make([]metricPoint, len(financials))
	for idx, qf := range financials {
		points[idx] = metricPoint{key: qf.Ticker, quarter: qf.QuarterReporting, date: qf.Date, values: qf.MetricValues()}
	}

	changes := metricYoY(points)
	rows := make([]data.Row, len(changes))
	for idx, change := range changes {
		rows[idx] = data.NewTickerMetricsYoY(change.key, change.quarter, change.date, change.changes)
	}
	return rows, nil
}

// IndustryMetricsYoY computes industry_metrics_yoy from the persisted
// industry_metrics
func (engine *Engine) IndustryMetricsYoY(ctx context.Context, peers *Peers) ([]data.Row, error) {
	industryMetrics, err := engine.store.IndustryMetrics(ctx, peers.SubIndustries)
	if err != nil {
		return nil, fmt.Errorf("load industry metrics: %w", err)
	}

	points := make([]metricPoint, len(industryMetrics))
	for idx, im := range industryMetrics {
		points[idx] = metricPoint{key: im.SubIndustry, quarter: im.QuarterReporting, date: im.Date, values: im.MetricValues()}
	}

	changes := metricYoY(points)
	rows := make([]data.Row, len(changes))
	for idx, change := range changes {
		rows[idx] = data.NewIndustryMetricsYoY(change.key, change.quarter, change.date, change.changes)
	}
	return rows, nil
}
