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

// Package provider wraps the external market-data source
package provider

import (
	"context"
	"errors"

	"github.com/penny-vault/pvpeers/data"
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrNoData            = errors.New("no data returned")
)

// Price history lookback windows accepted by PriceHistory
const (
	TwoYears = "2y"
	OneYear  = "1y"
)

// Source is the market-data collaborator used during ingestion. Missing
// fields are reported as nil values, never as errors; an error means the
// ticker could not be retrieved at all.
type Source interface {
	Fundamentals(ctx context.Context, ticker string) (*data.Fundamentals, error)
	PriceHistory(ctx context.Context, ticker string, lookback string) ([]data.PriceBar, error)
}
