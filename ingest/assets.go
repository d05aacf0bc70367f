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

package ingest

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvpeers/data"
	"github.com/penny-vault/pvpeers/metrics"
	"github.com/rs/zerolog"
)

// IngestAssets fetches price history for non-equity instruments and stores
// it in asset_class_time_series under each instrument's display name
func (orchestrator *Orchestrator) IngestAssets(ctx context.Context, assets []data.AssetDef) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	result := newResult()
	staged := make([]data.Row, 0)

	for _, asset := range assets {
		assetLogger := logger.With().Str("Asset", asset.Name).Str("Symbol", asset.Symbol).Logger()

		bars, err := orchestrator.priceHistory(assetLogger.WithContext(ctx), asset.Symbol)
		if err != nil {
			assetLogger.Error().Err(err).Msg("could not retrieve asset price history; skipping")
			result.Failed[asset.Name] = fmt.Errorf("price history: %w", err)
			continue
		}

		staged = append(staged, asRows(metrics.AssetSeries(asset, bars))...)
		result.Ingested = append(result.Ingested, asset.Name)
	}

	if len(result.Ingested) == 0 {
		return result, nil
	}

	if err := orchestrator.persist(ctx, writePolicy{table: data.AssetClassTimeSeriesTable}, staged); err != nil {
		return result, err
	}

	if err := orchestrator.record(ctx, result.Ingested); err != nil {
		return result, err
	}

	logger.Info().Int("Ingested", len(result.Ingested)).Int("Failed", len(result.Failed)).Msg("asset class ingestion complete")
	return result, nil
}
