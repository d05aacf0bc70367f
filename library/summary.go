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

	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvpeers/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is the read surface needed to describe a peer database
type Stats interface {
	RowCount(ctx context.Context, tbl data.Table) (int, error)
	LastUpdated(ctx context.Context) (time.Time, error)
	Companies(ctx context.Context, subIndustries []string) ([]*data.Company, error)
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	location := "unknown"
	if cfg, err := pgx.ParseConfig(myLibrary.DBUrl); err == nil {
		location = fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	}

	return Summary(ctx, myLibrary.Name, location, myLibrary)
}

// Summary renders row counts, peer groups and freshness of a store as markdown
func Summary(ctx context.Context, name, location string, stats Stats) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if name == "" {
		name = "Peer Library"
	}

	builder.WriteString(fmt.Sprintf("# %s\n", name))
	builder.WriteString("## Details\n\n")
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", location))

	// Last updated time
	lastUpdated, err := stats.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	if lastUpdated.Equal(time.Time{}) {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		age := timeago.English.Format(lastUpdated)
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Format("01/02/2006")))
	}

	// Peer groups
	companies, err := stats.Companies(ctx, nil)
	if err != nil {
		return "", err
	}

	groups := make(map[string]int)
	for _, company := range companies {
		groups[company.Group()]++
	}

	groupNames := make([]string, 0, len(groups))
	for group := range groups {
		groupNames = append(groupNames, group)
	}
	sort.Strings(groupNames)

	builder.WriteString("## Peer Groups\n\n")
	builder.WriteString(p.Sprintf("  * Companies Tracked: %d\n", len(companies)))
	builder.WriteString(p.Sprintf("  * Sub-Industries: %d\n\n", len(groups)))

	for _, group := range groupNames {
		label := group
		if label == "" {
			label = "(none)"
		}
		builder.WriteString(p.Sprintf("  * %s: %d\n", label, groups[group]))
	}

	// Tables
	builder.WriteString("\n## Tables\n\n")
	for _, tbl := range data.Tables() {
		count, err := stats.RowCount(ctx, tbl)
		if err != nil {
			return "", err
		}
		builder.WriteString(p.Sprintf("  * %s: %d\n", tbl.String(), count))
	}

	return builder.String(), nil
}
