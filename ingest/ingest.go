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

// Package ingest fetches companies from the market-data source, derives
// their metrics and persists the results one batch per table
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/metrics"
	"github.com/penny-vault/pvpeers/provider"
	"github.com/rs/zerolog"
)

// Writer is the persistence surface used by the orchestrator
type Writer interface {
	UpsertReplace(ctx context.Context, tbl data.Table, rows []data.Row) error
	InsertIfAbsent(ctx context.Context, tbl data.Table, rows []data.Row) error
}

type writePolicy struct {
	table   data.Table
	replace bool
}

// securityTables lists the per-ticker tables in write order. company_info
// is first because every other table references it.
var securityTables = []writePolicy{
	{table: data.CompanyInfoTable, replace: true},
	{table: data.MostRecentMetricTable, replace: true},
	{table: data.StockLevelTable, replace: true},
	{table: data.TickerTimeSeriesTable},
	{table: data.QuarterlyFinancialsTable},
	{table: data.BalanceSheetTable},
	{table: data.CashflowTable},
}

// Result lists the entities that were persisted and the ones that failed
type Result struct {
	Ingested []string
	Failed   map[string]error
}

func newResult() *Result {
	return &Result{
		Ingested: make([]string, 0),
		Failed:   make(map[string]error),
	}
}

// Orchestrator drives a single ingestion run
type Orchestrator struct {
	source provider.Source
	store  Writer
	now    func() time.Time
}

func New(source provider.Source, store Writer) *Orchestrator {
	return &Orchestrator{
		source: source,
		store:  store,
		now:    time.Now,
	}
}

// WithClock overrides the date used for data storage records
func (orchestrator *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	orchestrator.now = now
	return orchestrator
}

type batch map[data.Table][]data.Row

func (b batch) add(rows ...data.Row) {
	for _, row := range rows {
		b[row.Table()] = append(b[row.Table()], row)
	}
}

func (b batch) merge(other batch) {
	for tbl, rows := range other {
		b[tbl] = append(b[tbl], rows...)
	}
}

func asRows[T data.Row](items []T) []data.Row {
	out := make([]data.Row, len(items))
	for idx, item := range items {
		out[idx] = item
	}
	return out
}

// Ingest fetches and derives every company. A company whose retrieval fails
// is logged, recorded in Result.Failed and left out of every table. The
// returned error is only set when persistence fails.
func (orchestrator *Orchestrator) Ingest(ctx context.Context, companies []*data.Company) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	result := newResult()
	staged := make(batch)

	for _, company := range companies {
		entityLogger := logger.With().Str("Ticker", company.Ticker).Logger()
		entityCtx := entityLogger.WithContext(ctx)

		rows, err := orchestrator.security(entityCtx, company)
		if err != nil {
			entityLogger.Error().Err(err).Object("Company", company).Msg("could not retrieve company; skipping")
			result.Failed[company.Ticker] = err
			continue
		}

		staged.merge(rows)
		result.Ingested = append(result.Ingested, company.Ticker)
	}

	if len(result.Ingested) == 0 {
		logger.Warn().Int("Failed", len(result.Failed)).Msg("no companies ingested")
		return result, nil
	}

	for _, policy := range securityTables {
		if err := orchestrator.persist(ctx, policy, staged[policy.table]); err != nil {
			return result, err
		}
	}

	if err := orchestrator.record(ctx, result.Ingested); err != nil {
		return result, err
	}

	logger.Info().Int("Ingested", len(result.Ingested)).Int("Failed", len(result.Failed)).Msg("ingestion complete")
	return result, nil
}

// security stages every row derived for one company
func (orchestrator *Orchestrator) security(ctx context.Context, company *data.Company) (batch, error) {
	fundamentals, err := orchestrator.source.Fundamentals(ctx, company.Ticker)
	if err != nil {
		return nil, fmt.Errorf("fundamentals: %w", err)
	}
	if fundamentals == nil {
		return nil, fmt.Errorf("fundamentals: %w: %s", provider.ErrNoData, company.Ticker)
	}

	bars, err := orchestrator.priceHistory(ctx, company.Ticker)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}

	enriched := *company
	if fundamentals.Info.Sector != "" {
		enriched.Sector = fundamentals.Info.Sector
	}
	if fundamentals.Info.Industry != "" {
		industry := fundamentals.Info.Industry
		enriched.Industry = &industry
	}

	prices := metrics.PriceSeries(company.Ticker, bars)

	rows := make(batch)
	rows.add(&enriched)
	rows.add(metrics.RecentMetrics(company.Ticker, fundamentals.Info))
	rows.add(metrics.StockLevel(company.Ticker, fundamentals.AnnualIncome, prices, fundamentals.Info))
	rows.add(asRows(prices)...)
	rows.add(asRows(metrics.Quarterly(company.Ticker, fundamentals.QuarterlyIncome))...)
	rows.add(asRows(metrics.BalanceSheets(company.Ticker, fundamentals.BalanceSheet))...)
	rows.add(asRows(metrics.Cashflows(company.Ticker, fundamentals.Cashflow))...)

	zerolog.Ctx(ctx).Debug().Int("NumPrices", len(prices)).Str("Sector", enriched.Sector).Msg("staged company")
	return rows, nil
}

// priceHistory requests two years of closes and falls back to one year
// when the longer window is empty
func (orchestrator *Orchestrator) priceHistory(ctx context.Context, ticker string) ([]data.PriceBar, error) {
	bars, err := orchestrator.source.PriceHistory(ctx, ticker, provider.TwoYears)
	if err == nil && len(bars) > 0 {
		return bars, nil
	}

	if err != nil && !errors.Is(err, provider.ErrNoData) {
		return nil, err
	}

	zerolog.Ctx(ctx).Warn().Err(err).Msg("two year price history empty; retrying with one year")
	bars, err = orchestrator.source.PriceHistory(ctx, ticker, provider.OneYear)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", provider.ErrNoData, ticker)
	}

	return bars, nil
}

func (orchestrator *Orchestrator) persist(ctx context.Context, policy writePolicy, rows []data.Row) error {
	if len(rows) == 0 {
		return nil
	}

	var err error
	if policy.replace {
		err = orchestrator.store.UpsertReplace(ctx, policy.table, rows)
	} else {
		err = orchestrator.store.InsertIfAbsent(ctx, policy.table, rows)
	}

	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("Table", policy.table.String()).Int("NumRows", len(rows)).Msg("could not persist batch")
		return fmt.Errorf("persist %s: %w", policy.table, err)
	}

	zerolog.Ctx(ctx).Debug().Str("Table", policy.table.String()).Int("NumRows", len(rows)).Msg("persisted batch")
	return nil
}

// record writes one data storage record per ingested entity dated today
func (orchestrator *Orchestrator) record(ctx context.Context, keys []string) error {
	today := data.Day(orchestrator.now())
	records := make([]data.Row, len(keys))
	for idx, key := range keys {
		records[idx] = data.NewStorageRecord(key, today)
	}
	return orchestrator.persist(ctx, writePolicy{table: data.StorageRecordTable}, records)
}
