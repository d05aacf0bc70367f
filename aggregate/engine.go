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

// Package aggregate recomputes the sub-industry rollups, year-over-year
// series and valuation clusters from the whole persisted universe
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog"
)

var ErrUnknownMode = errors.New("unknown aggregation mode")

// Mode selects how recomputed aggregation rows are written
type Mode string

const (
	// Refresh overwrites existing aggregation rows so restated inputs propagate
	Refresh Mode = "refresh"
	// Preserve never overwrites an existing aggregation row
	Preserve Mode = "preserve"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Refresh, "":
		return Refresh, nil
	case Preserve:
		return Preserve, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Store is the read and write surface used by the engine
type Store interface {
	UpsertReplace(ctx context.Context, tbl data.Table, rows []data.Row) error
	InsertIfAbsent(ctx context.Context, tbl data.Table, rows []data.Row) error

	Companies(ctx context.Context, subIndustries []string) ([]*data.Company, error)
	MostRecentMetrics(ctx context.Context, tickers []string) ([]*data.MostRecentMetric, error)
	TickerPrices(ctx context.Context, tickers []string) ([]*data.TickerPrice, error)
	QuarterlyFinancials(ctx context.Context, tickers []string) ([]*data.QuarterlyFinancials, error)
	IndustryPrices(ctx context.Context, subIndustries []string) ([]*data.IndustryPrice, error)
	IndustryMetrics(ctx context.Context, subIndustries []string) ([]*data.IndustryMetrics, error)
}

// Engine runs the aggregation steps. Every step reads its inputs from the
// store so each can be re-run on its own.
type Engine struct {
	Mode       Mode
	Eps        float64
	MinSamples int

	store Store
	now   func() time.Time
}

func New(store Store) *Engine {
	return &Engine{
		Mode:       Refresh,
		Eps:        0.5,
		MinSamples: 3,
		store:      store,
		now:        time.Now,
	}
}

// WithClock overrides the date cluster memberships are recorded under
func (engine *Engine) WithClock(now func() time.Time) *Engine {
	engine.now = now
	return engine
}

// Peers is the set of companies being aggregated, grouped by sub-industry
type Peers struct {
	SubIndustries []string
	Tickers       []string
	Members       map[string][]string
	GroupOf       map[string]string
}

// Peers loads the companies of the given sub-industries, or every company
// when none are given. Companies without a sub-industry are left out.
func (engine *Engine) Peers(ctx context.Context, subIndustries []string) (*Peers, error) {
	if len(subIndustries) == 0 {
		subIndustries = nil
	}

	companies, err := engine.store.Companies(ctx, subIndustries)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}

	peers := &Peers{
		SubIndustries: make([]string, 0),
		Tickers:       make([]string, 0, len(companies)),
		Members:       make(map[string][]string),
		GroupOf:       make(map[string]string, len(companies)),
	}

	for _, company := range companies {
		group := company.Group()
		if group == "" {
			zerolog.Ctx(ctx).Debug().Str("Ticker", company.Ticker).Msg("company has no sub-industry; excluded from aggregation")
			continue
		}

		if _, ok := peers.Members[group]; !ok {
			peers.SubIndustries = append(peers.SubIndustries, group)
		}
		peers.Members[group] = append(peers.Members[group], company.Ticker)
		peers.GroupOf[company.Ticker] = group
		peers.Tickers = append(peers.Tickers, company.Ticker)
	}

	sort.Strings(peers.SubIndustries)
	sort.Strings(peers.Tickers)
	for _, members := range peers.Members {
		sort.Strings(members)
	}

	return peers, nil
}

// Summary is the number of rows written per table
type Summary map[data.Table]int

type step struct {
	name string
	run  func(context.Context, *Peers) ([]data.Row, error)
}

// Run executes every aggregation step in dependency order: industry YoY
// reads the industry prices written before it and industry metric YoY
// reads the industry metrics.
func (engine *Engine) Run(ctx context.Context, subIndustries []string) (Summary, error) {
	logger := zerolog.Ctx(ctx)
	summary := make(Summary)

	peers, err := engine.Peers(ctx, subIndustries)
	if err != nil {
		return summary, err
	}

	if len(peers.Tickers) == 0 {
		logger.Warn().Strs("SubIndustries", subIndustries).Msg("no companies to aggregate")
		return summary, nil
	}

	steps := []step{
		{name: "clusters", run: engine.Clusters},
		{name: "ticker price yoy", run: engine.TickerYoY},
		{name: "industry prices", run: engine.IndustryPrices},
		{name: "industry price yoy", run: engine.IndustryYoY},
		{name: "industry metrics", run: engine.IndustryMetrics},
		{name: "ticker metric yoy", run: engine.TickerMetricsYoY},
		{name: "industry metric yoy", run: engine.IndustryMetricsYoY},
	}

	for _, stage := range steps {
		start := time.Now()
		rows, err := stage.run(ctx, peers)
		if err != nil {
			return summary, fmt.Errorf("%s: %w", stage.name, err)
		}

		if len(rows) > 0 {
			tbl := rows[0].Table()
			if err := engine.write(ctx, tbl, rows); err != nil {
				return summary, fmt.Errorf("%s: %w", stage.name, err)
			}
			summary[tbl] += len(rows)
		}

		logger.Info().Str("Step", stage.name).Int("NumRows", len(rows)).Dur("Elapsed", time.Since(start)).Msg("aggregation step complete")
	}

	return summary, nil
}

func (engine *Engine) write(ctx context.Context, tbl data.Table, rows []data.Row) error {
	if engine.Mode == Preserve {
		return engine.store.InsertIfAbsent(ctx, tbl, rows)
	}
	return engine.store.UpsertReplace(ctx, tbl, rows)
}
