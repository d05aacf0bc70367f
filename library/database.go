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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvpeers/data"
)

// Store is the full persistence surface used by the command line. Pipeline
// components depend on narrower interfaces of their own.
type Store interface {
	UpsertReplace(ctx context.Context, tbl data.Table, rows []data.Row) error
	InsertIfAbsent(ctx context.Context, tbl data.Table, rows []data.Row) error

	VersionDates(ctx context.Context, tickers []string) (map[string][]string, error)
	Companies(ctx context.Context, subIndustries []string) ([]*data.Company, error)
	MostRecentMetrics(ctx context.Context, tickers []string) ([]*data.MostRecentMetric, error)
	TickerPrices(ctx context.Context, tickers []string) ([]*data.TickerPrice, error)
	QuarterlyFinancials(ctx context.Context, tickers []string) ([]*data.QuarterlyFinancials, error)
	IndustryPrices(ctx context.Context, subIndustries []string) ([]*data.IndustryPrice, error)
	IndustryMetrics(ctx context.Context, subIndustries []string) ([]*data.IndustryMetrics, error)
	Cashflows(ctx context.Context, ticker string) ([]*data.CashflowSnapshot, error)
	LatestClusters(ctx context.Context) ([]*data.ClusterMembership, error)

	Fetch(ctx context.Context, tbl data.Table, limit int) ([]map[string]any, error)
	RowCount(ctx context.Context, tbl data.Table) (int, error)
	LastUpdated(ctx context.Context) (time.Time, error)
}

// Library is the PostgreSQL backed peer database
type Library struct {
	DBUrl string
	Name  string
	Owner string

	// MaxConns caps the pool size; zero keeps the pgxpool default
	MaxConns int32         `toml:"-"`
	Pool     *pgxpool.Pool `toml:"-"`
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	cfg, err := pgxpool.ParseConfig(myLibrary.DBUrl)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}

	if myLibrary.MaxConns > 0 {
		cfg.MaxConns = myLibrary.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
	}
}

// NewFromDB connects to the database and loads the library name and owner
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{
		DBUrl: dbURL,
	}

	if err := myLibrary.Open(ctx); err != nil {
		return nil, err
	}

	return myLibrary, nil
}

// Open connects, verifies the database is reachable and loads the library
// name and owner. The pool is closed again on failure.
func (myLibrary *Library) Open(ctx context.Context) error {
	if err := myLibrary.Connect(ctx); err != nil {
		return err
	}

	if err := myLibrary.Pool.Ping(ctx); err != nil {
		myLibrary.Close()
		return fmt.Errorf("could not reach database: %w", err)
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		myLibrary.Close()
		return err
	}
	defer conn.Release()

	if err := conn.QueryRow(ctx, "SELECT name, coalesce(owner, '') FROM library LIMIT 1").Scan(&myLibrary.Name, &myLibrary.Owner); err != nil {
		myLibrary.Close()
		return fmt.Errorf("could not load library settings: %w", err)
	}

	return nil
}

// SaveDB creates a new record in the library table for this library
func (myLibrary *Library) SaveDB(ctx context.Context) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO library ("name", "owner") VALUES ($1, $2)`, myLibrary.Name, myLibrary.Owner)
	return err
}

// VersionDates returns every stored version date for the requested tickers
// in a single query
func (myLibrary *Library) VersionDates(ctx context.Context, tickers []string) (map[string][]string, error) {
	records, err := selectRows[data.StorageRecord](ctx, myLibrary, data.StorageRecordTable, "ticker", tickers)
	if err != nil {
		return nil, err
	}

	versions := make(map[string][]string, len(tickers))
	for _, record := range records {
		versions[record.Ticker] = append(versions[record.Ticker], record.VersionDate)
	}

	return versions, nil
}

// Companies returns the directory entries in the given sub-industries, or
// every company when subIndustries is nil
func (myLibrary *Library) Companies(ctx context.Context, subIndustries []string) ([]*data.Company, error) {
	return selectRows[data.Company](ctx, myLibrary, data.CompanyInfoTable, "sub_industry", subIndustries)
}

func (myLibrary *Library) MostRecentMetrics(ctx context.Context, tickers []string) ([]*data.MostRecentMetric, error) {
	return selectRows[data.MostRecentMetric](ctx, myLibrary, data.MostRecentMetricTable, "ticker", tickers)
}

func (myLibrary *Library) TickerPrices(ctx context.Context, tickers []string) ([]*data.TickerPrice, error) {
	return selectRows[data.TickerPrice](ctx, myLibrary, data.TickerTimeSeriesTable, "ticker", tickers)
}

func (myLibrary *Library) QuarterlyFinancials(ctx context.Context, tickers []string) ([]*data.QuarterlyFinancials, error) {
	return selectRows[data.QuarterlyFinancials](ctx, myLibrary, data.QuarterlyFinancialsTable, "ticker", tickers)
}

func (myLibrary *Library) IndustryPrices(ctx context.Context, subIndustries []string) ([]*data.IndustryPrice, error) {
	return selectRows[data.IndustryPrice](ctx, myLibrary, data.IndustryTimeSeriesTable, "sub_industry", subIndustries)
}

func (myLibrary *Library) IndustryMetrics(ctx context.Context, subIndustries []string) ([]*data.IndustryMetrics, error) {
	return selectRows[data.IndustryMetrics](ctx, myLibrary, data.IndustryMetricsTable, "sub_industry", subIndustries)
}

// Cashflows returns a ticker's cash-flow history, oldest first
func (myLibrary *Library) Cashflows(ctx context.Context, ticker string) ([]*data.CashflowSnapshot, error) {
	return selectRows[data.CashflowSnapshot](ctx, myLibrary, data.CashflowTable, "ticker", []string{ticker})
}

// LatestClusters returns the most recent cluster membership of every ticker
func (myLibrary *Library) LatestClusters(ctx context.Context) ([]*data.ClusterMembership, error) {
	var memberships []*data.ClusterMembership
	err := pgxscan.Select(ctx, myLibrary.Pool, &memberships,
		`SELECT DISTINCT ON (ticker) ticker, date, cluster_membership FROM cluster_table ORDER BY ticker, date DESC`)
	return memberships, err
}

// Fetch returns up to limit rows of a table as column maps; limit <= 0
// returns the whole table
func (myLibrary *Library) Fetch(ctx context.Context, tbl data.Table, limit int) ([]map[string]any, error) {
	sql := selectSQL(tbl, "")
	if limit > 0 {
		sql = fmt.Sprintf("%s LIMIT %d", sql, limit)
	}

	rows, err := myLibrary.Pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToMap)
}

// RowCount returns the number of rows stored in a table
func (myLibrary *Library) RowCount(ctx context.Context, tbl data.Table) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{tbl.String()}.Sanitize())).Scan(&count)
	return count, err
}

// LastUpdated returns the most recent successful ingestion date
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated *string
	err := myLibrary.Pool.QueryRow(ctx, `SELECT max("version date") FROM data_storage_record
WHERE "version date" ~ '^\d{4}-\d{2}-\d{2}$'`).Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	if lastUpdated == nil {
		return time.Time{}, nil
	}

	return time.Parse(data.DateFormat, *lastUpdated)
}

func selectRows[T any](ctx context.Context, myLibrary *Library, tbl data.Table, filterColumn string, keys []string) ([]*T, error) {
	var out []*T

	if keys == nil {
		err := pgxscan.Select(ctx, myLibrary.Pool, &out, selectSQL(tbl, ""))
		return out, err
	}

	err := pgxscan.Select(ctx, myLibrary.Pool, &out, selectSQL(tbl, filterColumn), keys)
	return out, err
}
