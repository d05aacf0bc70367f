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

type pricePoint struct {
	key     string
	date    time.Time
	close   float64
	indexed float64
}

type priceChange struct {
	key     string
	date    time.Time
	close   *float64
	indexed *float64
}

// priceYoY joins each point with the point of the same key exactly one
// year earlier. Points without a year-earlier observation produce no row.
func priceYoY(points []pricePoint) []priceChange {
	type lookup struct {
		key  string
		date time.Time
	}

	index := make(map[lookup]pricePoint, len(points))
	for _, point := range points {
		index[lookup{key: point.key, date: point.date}] = point
	}

	out := make([]priceChange, 0, len(points))
	for _, point := range points {
		lagDate, ok := data.YearEarlier(point.date)
		if !ok {
			continue
		}
		lagged, ok := index[lookup{key: point.key, date: lagDate}]
		if !ok {
			continue
		}
		out = append(out, priceChange{
			key:     point.key,
			date:    point.date,
			close:   metrics.FractionChange(point.close, lagged.close),
			indexed: metrics.FractionChange(point.indexed, lagged.indexed),
		})
	}
	return out
}

// TickerYoY computes ticker_ts_yoy from ticker_time_series
func (engine *Engine) TickerYoY(ctx context.Context, peers *Peers) ([]data.Row, error) {
	prices, err := engine.store.TickerPrices(ctx, peers.Tickers)
	if err != nil {
		return nil, fmt.Errorf("load ticker prices: %w", err)
	}

	points := make([]pricePoint, len(prices))
	for idx, price := range prices {
		points[idx] = pricePoint{key: price.Ticker, date: price.Date, close: price.Close, indexed: price.CloseIndexed}
	}

	changes := priceYoY(points)
	rows := make([]data.Row, len(changes))
	for idx, change := range changes {
		rows[idx] = &data.TickerYoY{
			Ticker:          change.key,
			Date:            change.date,
			CloseYoY:        change.close,
			CloseIndexedYoY: change.indexed,
		}
	}
	return rows, nil
}

// IndustryPrices sums close and indexed close across the constituents of
// each sub-industry per day
func (engine *Engine) IndustryPrices(ctx context.Context, peers *Peers) ([]data.Row, error) {
	prices, err := engine.store.TickerPrices(ctx, peers.Tickers)
	if err != nil {
		return nil, fmt.Errorf("load ticker prices: %w", err)
	}

	type groupDay struct {
		group string
		date  time.Time
	}

	sums := make(map[groupDay]*data.IndustryPrice)
	for _, price := range prices {
		group, ok := peers.GroupOf[price.Ticker]
		if !ok {
			continue
		}

		key := groupDay{group: group, date: price.Date}
		total, ok := sums[key]
		if !ok {
			total = &data.IndustryPrice{SubIndustry: group, Date: price.Date}
			sums[key] = total
		}
		total.Close += price.Close
		total.CloseIndexed += price.CloseIndexed
	}

	totals := make([]*data.IndustryPrice, 0, len(sums))
	for _, total := range sums {
		totals = append(totals, total)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].SubIndustry != totals[j].SubIndustry {
			return totals[i].SubIndustry < totals[j].SubIndustry
		}
		return totals[i].Date.Before(totals[j].Date)
	})

	rows := make([]data.Row, len(totals))
	for idx, total := range totals {
		rows[idx] = total
	}
	return rows, nil
}

// IndustryYoY computes industry_time_series_yoy from the persisted
// industry_time_series
func (engine *Engine) IndustryYoY(ctx context.Context, peers *Peers) ([]data.Row, error) {
	prices, err := engine.store.IndustryPrices(ctx, peers.SubIndustries)
	if err != nil {
		return nil, fmt.Errorf("load industry prices: %w", err)
	}

	points := make([]pricePoint, len(prices))
	for idx, price := range prices {
		points[idx] = pricePoint{key: price.SubIndustry, date: price.Date, close: price.Close, indexed: price.CloseIndexed}
	}

	changes := priceYoY(points)
	rows := make([]data.Row, len(changes))
	for idx, change := range changes {
		rows[idx] = &data.IndustryYoY{
			SubIndustry:     change.key,
			Date:            change.date,
			CloseYoY:        change.close,
			CloseIndexedYoY: change.indexed,
		}
	}
	return rows, nil
}
