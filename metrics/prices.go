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

package metrics

import (
	"sort"
	"time"

	"github.com/penny-vault/pvpeers/data"
)

func sortedBars(bars []data.PriceBar) []data.PriceBar {
	sorted := make([]data.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}

// BackFill replaces missing closes with the next available close. Trailing
// bars with no later close are dropped.
func BackFill(bars []data.PriceBar) []data.PriceBar {
	sorted := sortedBars(bars)
	out := make([]data.PriceBar, 0, len(sorted))

	var next *float64
	for idx := len(sorted) - 1; idx >= 0; idx-- {
		bar := sorted[idx]
		if bar.Close != nil {
			next = bar.Close
		}
		if next == nil {
			continue
		}
		out = append(out, data.PriceBar{Date: data.Day(bar.Date), Close: next})
	}

	// reverse back to ascending order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PriceSeries builds the ticker_time_series rows. Bars without a close are
// skipped and the series is rebased so the first usable close is 100.
func PriceSeries(ticker string, bars []data.PriceBar) []*data.TickerPrice {
	out := make([]*data.TickerPrice, 0, len(bars))
	base := 0.0
	for _, bar := range sortedBars(bars) {
		if bar.Close == nil {
			continue
		}
		if base == 0 {
			if *bar.Close <= 0 {
				continue
			}
			base = *bar.Close
		}
		out = append(out, &data.TickerPrice{
			Ticker:       ticker,
			Date:         data.Day(bar.Date),
			Close:        *bar.Close,
			CloseIndexed: *bar.Close / base * 100,
		})
	}
	return out
}

// AssetSeries builds the asset_class_time_series rows for a non-equity
// instrument: gaps are back-filled, the series is rebased to 100 and the
// YoY change is a percentage with the year-earlier close clipped to at
// least 1.
func AssetSeries(asset data.AssetDef, bars []data.PriceBar) []*data.AssetClassPrice {
	filled := BackFill(bars)

	byDate := make(map[time.Time]float64, len(filled))
	for _, bar := range filled {
		byDate[bar.Date] = *bar.Close
	}

	out := make([]*data.AssetClassPrice, 0, len(filled))
	base := 0.0
	for _, bar := range filled {
		if base == 0 {
			if *bar.Close <= 0 {
				continue
			}
			base = *bar.Close
		}

		row := &data.AssetClassPrice{
			Ticker:       asset.Name,
			Date:         bar.Date,
			AssetClass:   string(asset.Class),
			Close:        *bar.Close,
			CloseIndexed: *bar.Close / base * 100,
		}

		if lagged, ok := byDate[data.OneYearBefore(bar.Date)]; ok {
			if lagged < 1 {
				lagged = 1
			}
			yoy := (*bar.Close/lagged - 1) * 100
			row.CloseYoY = &yoy
		}

		out = append(out, row)
	}
	return out
}

// closeOnOrBefore returns the last close dated on or before date
func closeOnOrBefore(prices []*data.TickerPrice, date time.Time) *float64 {
	var found *float64
	for _, price := range prices {
		if price.Date.After(date) {
			break
		}
		val := price.Close
		found = &val
	}
	return found
}
