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

package library

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/penny-vault/pvpeers/data"
)

// Memory is an in-process Store with the same conflict semantics as the
// PostgreSQL library. It is not safe for concurrent use.
type Memory struct {
	tables map[data.Table]map[string]data.Row

	// Writes counts write calls per table
	Writes map[data.Table]int
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[data.Table]map[string]data.Row),
		Writes: make(map[data.Table]int),
	}
}

func (mem *Memory) UpsertReplace(ctx context.Context, tbl data.Table, rows []data.Row) error {
	return mem.write(tbl, rows, replaceOnConflict)
}

func (mem *Memory) InsertIfAbsent(ctx context.Context, tbl data.Table, rows []data.Row) error {
	return mem.write(tbl, rows, skipOnConflict)
}

func (mem *Memory) write(tbl data.Table, rows []data.Row, policy conflictPolicy) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		if row.Table() != tbl {
			return fmt.Errorf("%w: %s row written to %s", ErrTableMismatch, row.Table(), tbl)
		}
	}

	stored, ok := mem.tables[tbl]
	if !ok {
		stored = make(map[string]data.Row)
		mem.tables[tbl] = stored
	}

	for _, row := range rows {
		key := rowKey(row)
		if _, exists := stored[key]; exists && policy == skipOnConflict {
			continue
		}
		stored[key] = row
	}

	mem.Writes[tbl]++
	return nil
}

func rowKey(row data.Row) string {
	vals := row.Values()
	parts := make([]string, 0, 2)
	for _, idx := range row.Table().KeyIndexes() {
		switch val := vals[idx].(type) {
		case time.Time:
			parts = append(parts, val.Format(data.DateFormat))
		default:
			parts = append(parts, fmt.Sprint(val))
		}
	}
	return strings.Join(parts, "\x00")
}

// Rows returns the stored rows of a table ordered by primary key
func (mem *Memory) Rows(tbl data.Table) []data.Row {
	stored := mem.tables[tbl]
	keys := make([]string, 0, len(stored))
	for key := range stored {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]data.Row, len(keys))
	for idx, key := range keys {
		rows[idx] = stored[key]
	}
	return rows
}

func memRows[T any](mem *Memory, tbl data.Table, keep func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, row := range mem.Rows(tbl) {
		if typed, ok := any(row).(*T); ok && (keep == nil || keep(typed)) {
			out = append(out, typed)
		}
	}
	return out
}

func inSet(keys []string) func(string) bool {
	if keys == nil {
		return func(string) bool { return true }
	}

	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return func(key string) bool { return set[key] }
}

func (mem *Memory) VersionDates(ctx context.Context, tickers []string) (map[string][]string, error) {
	match := inSet(tickers)
	versions := make(map[string][]string)
	for _, record := range memRows[data.StorageRecord](mem, data.StorageRecordTable, nil) {
		if match(record.Ticker) {
			versions[record.Ticker] = append(versions[record.Ticker], record.VersionDate)
		}
	}
	return versions, nil
}

func (mem *Memory) Companies(ctx context.Context, subIndustries []string) ([]*data.Company, error) {
	match := inSet(subIndustries)
	return memRows(mem, data.CompanyInfoTable, func(c *data.Company) bool {
		return subIndustries == nil || (c.SubIndustry != nil && match(*c.SubIndustry))
	}), nil
}

func (mem *Memory) MostRecentMetrics(ctx context.Context, tickers []string) ([]*data.MostRecentMetric, error) {
	match := inSet(tickers)
	return memRows(mem, data.MostRecentMetricTable, func(m *data.MostRecentMetric) bool { return match(m.Ticker) }), nil
}

func (mem *Memory) TickerPrices(ctx context.Context, tickers []string) ([]*data.TickerPrice, error) {
	match := inSet(tickers)
	return memRows(mem, data.TickerTimeSeriesTable, func(p *data.TickerPrice) bool { return match(p.Ticker) }), nil
}

func (mem *Memory) QuarterlyFinancials(ctx context.Context, tickers []string) ([]*data.QuarterlyFinancials, error) {
	match := inSet(tickers)
	return memRows(mem, data.QuarterlyFinancialsTable, func(q *data.QuarterlyFinancials) bool { return match(q.Ticker) }), nil
}

func (mem *Memory) IndustryPrices(ctx context.Context, subIndustries []string) ([]*data.IndustryPrice, error) {
	match := inSet(subIndustries)
	return memRows(mem, data.IndustryTimeSeriesTable, func(p *data.IndustryPrice) bool { return match(p.SubIndustry) }), nil
}

func (mem *Memory) IndustryMetrics(ctx context.Context, subIndustries []string) ([]*data.IndustryMetrics, error) {
	match := inSet(subIndustries)
	return memRows(mem, data.IndustryMetricsTable, func(m *data.IndustryMetrics) bool { return match(m.SubIndustry) }), nil
}

func (mem *Memory) Cashflows(ctx context.Context, ticker string) ([]*data.CashflowSnapshot, error) {
	return memRows(mem, data.CashflowTable, func(c *data.CashflowSnapshot) bool { return c.Ticker == ticker }), nil
}

func (mem *Memory) LatestClusters(ctx context.Context) ([]*data.ClusterMembership, error) {
	latest := make(map[string]*data.ClusterMembership)
	tickers := make([]string, 0)
	for _, cm := range memRows[data.ClusterMembership](mem, data.ClusterTable, nil) {
		prev, ok := latest[cm.Ticker]
		if !ok {
			tickers = append(tickers, cm.Ticker)
		}
		if !ok || cm.Date.After(prev.Date) {
			latest[cm.Ticker] = cm
		}
	}

	sort.Strings(tickers)
	out := make([]*data.ClusterMembership, len(tickers))
	for idx, ticker := range tickers {
		out[idx] = latest[ticker]
	}
	return out, nil
}

func (mem *Memory) Fetch(ctx context.Context, tbl data.Table, limit int) ([]map[string]any, error) {
	rows := mem.Rows(tbl)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	cols := tbl.Columns()
	out := make([]map[string]any, len(rows))
	for idx, row := range rows {
		record := make(map[string]any, len(cols))
		for pos, val := range row.Values() {
			record[cols[pos]] = deref(val)
		}
		out[idx] = record
	}
	return out, nil
}

func deref(val any) any {
	switch typed := val.(type) {
	case *float64:
		if typed == nil {
			return nil
		}
		return *typed
	case *string:
		if typed == nil {
			return nil
		}
		return *typed
	default:
		return val
	}
}

func (mem *Memory) RowCount(ctx context.Context, tbl data.Table) (int, error) {
	return len(mem.tables[tbl]), nil
}

func (mem *Memory) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	for _, record := range memRows[data.StorageRecord](mem, data.StorageRecordTable, nil) {
		versionDate, err := time.Parse(data.DateFormat, record.VersionDate)
		if err != nil {
			continue
		}
		if versionDate.After(lastUpdated) {
			lastUpdated = versionDate
		}
	}
	return lastUpdated, nil
}
