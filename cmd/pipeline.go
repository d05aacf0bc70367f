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
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvpeers/aggregate"
	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/freshness"
	"github.com/penny-vault/pvpeers/ingest"
	"github.com/penny-vault/pvpeers/library"
	"github.com/penny-vault/pvpeers/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// connect opens the configured library; a connection failure is fatal
func connect(ctx context.Context) *library.Library {
	myLibrary := &library.Library{
		DBUrl:    viper.GetString("db.url"),
		MaxConns: viper.GetInt32("db.max_conns"),
	}
	if err := myLibrary.Open(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not connect to library")
	}
	return myLibrary
}

func newSource() provider.Source {
	return provider.NewYahoo(
		viper.GetString("source.base_url"),
		viper.GetInt("source.rate_limit"),
		viper.GetDuration("source.timeout"),
	)
}

func newEngine(store aggregate.Store) (*aggregate.Engine, error) {
	mode, err := aggregate.ParseMode(viper.GetString("aggregate.mode"))
	if err != nil {
		return nil, fmt.Errorf("aggregate.mode: %w", err)
	}

	engine := aggregate.New(store)
	engine.Mode = mode
	engine.Eps = viper.GetFloat64("cluster.eps")
	engine.MinSamples = viper.GetInt("cluster.min_samples")
	return engine, nil
}

// universe loads the companies to track from the configured CSV
func universe(sector string, tickers []string) ([]*data.Company, error) {
	fn := viper.GetString("universe.file")
	fh, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("open universe %s: %w", fn, err)
	}
	defer fh.Close()

	securities, err := data.LoadUniverse(fh)
	if err != nil {
		return nil, err
	}

	securities = data.FilterUniverse(securities, sector, tickers)
	companies := make([]*data.Company, len(securities))
	for idx, sec := range securities {
		companies[idx] = sec.Company()
	}
	return companies, nil
}

type pipeline struct {
	store          library.Store
	source         provider.Source
	engine         *aggregate.Engine
	securityPolicy freshness.Policy
	assetPolicy    freshness.Policy
	assets         []data.AssetDef
	now            func() time.Time
}

func newPipeline(store library.Store, source provider.Source) (*pipeline, error) {
	engine, err := newEngine(store)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		store:          store,
		source:         source,
		engine:         engine,
		securityPolicy: freshness.Policy{Window: viper.GetInt("freshness.security_days")},
		assetPolicy:    freshness.Policy{Window: viper.GetInt("freshness.asset_days")},
		assets:         data.DefaultAssets,
		now:            time.Now,
	}, nil
}

type runReport struct {
	ID         uuid.UUID
	Requested  int
	Cached     int
	Securities *ingest.Result
	Assets     *ingest.Result
	Aggregated aggregate.Summary
	Elapsed    time.Duration
}

func (report *runReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run: %s\n", report.ID)
	fmt.Fprintf(&sb, "Elapsed: %s\n", durafmt.Parse(report.Elapsed.Round(time.Second)).String())
	fmt.Fprintf(&sb, "Companies requested: %d (cached %d)\n", report.Requested, report.Cached)

	if report.Securities != nil {
		fmt.Fprintf(&sb, "Companies ingested: %d\n", len(report.Securities.Ingested))
		fmt.Fprintf(&sb, "Companies failed: %d\n", len(report.Securities.Failed))
		for _, ticker := range failedKeys(report.Securities) {
			fmt.Fprintf(&sb, "  %s: %s\n", ticker, report.Securities.Failed[ticker])
		}
	}

	if report.Assets != nil {
		fmt.Fprintf(&sb, "Asset classes ingested: %d (failed %d)\n", len(report.Assets.Ingested), len(report.Assets.Failed))
	}

	if len(report.Aggregated) > 0 {
		sb.WriteString("Aggregated rows:\n")
		for _, tbl := range data.Tables() {
			if count, ok := report.Aggregated[tbl]; ok {
				fmt.Fprintf(&sb, "  %s: %d\n", tbl, count)
			}
		}
	}

	return sb.String()
}

func failedKeys(result *ingest.Result) []string {
	keys := make([]string, 0, len(result.Failed))
	for key := range result.Failed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// run partitions the companies by freshness, ingests the stale ones,
// re-aggregates their sub-industries and finally refreshes the asset classes
func (p *pipeline) run(ctx context.Context, companies []*data.Company) (*runReport, error) {
	report := &runReport{ID: uuid.New(), Requested: len(companies)}
	logger := zerolog.Ctx(ctx).With().Str("RunID", report.ID.String()).Logger()
	ctx = logger.WithContext(ctx)
	start := time.Now()

	defer func() {
		report.Elapsed = time.Since(start)
	}()

	byTicker := make(map[string]*data.Company, len(companies))
	tickers := make([]string, len(companies))
	groups := make(map[string]bool)
	for idx, company := range companies {
		byTicker[company.Ticker] = company
		tickers[idx] = company.Ticker
		if group := company.Group(); group != "" {
			groups[group] = true
		}
	}

	refresh, cached := freshness.NewTracker(p.store, p.securityPolicy).WithClock(p.now).Partition(ctx, tickers)
	report.Cached = len(cached)

	orchestrator := ingest.New(p.source, p.store).WithClock(p.now)

	if len(refresh) > 0 {
		stale := make([]*data.Company, len(refresh))
		for idx, ticker := range refresh {
			stale[idx] = byTicker[ticker]
		}

		result, err := orchestrator.Ingest(ctx, stale)
		report.Securities = result
		if err != nil {
			return report, fmt.Errorf("ingest: %w", err)
		}

		subIndustries := make([]string, 0, len(groups))
		for group := range groups {
			subIndustries = append(subIndustries, group)
		}
		sort.Strings(subIndustries)

		summary, err := p.engine.WithClock(p.now).Run(ctx, subIndustries)
		report.Aggregated = summary
		if err != nil {
			return report, fmt.Errorf("aggregate: %w", err)
		}
	} else {
		logger.Info().Msg("every company is fresh; skipping ingestion and aggregation")
	}

	names := make([]string, len(p.assets))
	byName := make(map[string]data.AssetDef, len(p.assets))
	for idx, asset := range p.assets {
		names[idx] = asset.Name
		byName[asset.Name] = asset
	}

	staleAssets, _ := freshness.NewTracker(p.store, p.assetPolicy).WithClock(p.now).Partition(ctx, names)
	if len(staleAssets) > 0 {
		assets := make([]data.AssetDef, len(staleAssets))
		for idx, name := range staleAssets {
			assets[idx] = byName[name]
		}

		result, err := orchestrator.IngestAssets(ctx, assets)
		report.Assets = result
		if err != nil {
			return report, fmt.Errorf("ingest asset classes: %w", err)
		}
	}

	return report, nil
}
