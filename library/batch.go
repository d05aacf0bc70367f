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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog"
)

var (
	ErrTableMismatch = errors.New("row does not belong to table")
)

type conflictPolicy int

const (
	// replaceOnConflict overwrites every non-key column of an existing row
	replaceOnConflict conflictPolicy = iota
	// skipOnConflict leaves an existing row untouched
	skipOnConflict
)

// UpsertReplace writes rows, fully overwriting any existing row with the
// same primary key. All rows are sent as one batch inside one transaction.
func (myLibrary *Library) UpsertReplace(ctx context.Context, tbl data.Table, rows []data.Row) error {
	return myLibrary.write(ctx, tbl, rows, replaceOnConflict)
}

// InsertIfAbsent writes rows whose primary key is not already present.
// All rows are sent as one batch inside one transaction.
func (myLibrary *Library) InsertIfAbsent(ctx context.Context, tbl data.Table, rows []data.Row) error {
	return myLibrary.write(ctx, tbl, rows, skipOnConflict)
}

func (myLibrary *Library) write(ctx context.Context, tbl data.Table, rows []data.Row, policy conflictPolicy) error {
	if len(rows) == 0 {
		return nil
	}

	logger := zerolog.Ctx(ctx).With().Str("Table", tbl.String()).Int("NumRows", len(rows)).Logger()
	sql := insertSQL(tbl, policy)

	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.Table() != tbl {
			return fmt.Errorf("%w: %s row written to %s", ErrTableMismatch, row.Table(), tbl)
		}
		batch.Queue(sql, row.Values()...)
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				logger.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	results := tx.SendBatch(ctx, batch)
	for idx := range rows {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			logger.Error().Err(err).Int("RowIndex", idx).Str("SQL", sql).Msg("error writing batch to database")
			return fmt.Errorf("write %s: %w", tbl, err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("write %s: %w", tbl, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", tbl, err)
	}

	logger.Debug().Msg("saved rows")
	return nil
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for idx, col := range cols {
		quoted[idx] = pgx.Identifier{col}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// insertSQL builds the parameterised insert statement for a table. Column
// names are quoted so names containing spaces or capitals survive.
func insertSQL(tbl data.Table, policy conflictPolicy) string {
	cols := tbl.Columns()
	key := tbl.PrimaryKey()

	placeholders := make([]string, len(cols))
	for idx := range cols {
		placeholders[idx] = fmt.Sprintf("$%d", idx+1)
	}

	isKey := make(map[string]bool, len(key))
	for _, col := range key {
		isKey[col] = true
	}

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if isKey[col] {
			continue
		}
		ident := pgx.Identifier{col}.Sanitize()
		updates = append(updates, fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", ident))
	}

	action := "DO NOTHING"
	if policy == replaceOnConflict && len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		pgx.Identifier{tbl.String()}.Sanitize(), quoteColumns(cols), strings.Join(placeholders, ", "),
		quoteColumns(key), action)
}

// selectSQL builds a select of every column of a table ordered by primary
// key. When filterColumn is set the query takes one array parameter.
func selectSQL(tbl data.Table, filterColumn string) string {
	sql := fmt.Sprintf("SELECT %s FROM %s", quoteColumns(tbl.Columns()), pgx.Identifier{tbl.String()}.Sanitize())
	if filterColumn != "" {
		sql = fmt.Sprintf("%s WHERE %s = ANY($1)", sql, pgx.Identifier{filterColumn}.Sanitize())
	}
	return fmt.Sprintf("%s ORDER BY %s", sql, quoteColumns(tbl.PrimaryKey()))
}
