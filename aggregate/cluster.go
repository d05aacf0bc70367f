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

package aggregate

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvpeers/cluster"
	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog"
)

// Clusters labels every company with a most-recent metric row as inside or
// outside a dense valuation cluster of its sub-industry. Companies missing
// any feature are labelled outliers; groups with fewer than two complete
// feature vectors are not clustered at all.
func (engine *Engine) Clusters(ctx context.Context, peers *Peers) ([]data.Row, error) {
	logger := zerolog.Ctx(ctx)
	today := data.Day(engine.now())

	snapshots, err := engine.store.MostRecentMetrics(ctx, peers.Tickers)
	if err != nil {
		return nil, fmt.Errorf("load most recent metrics: %w", err)
	}

	byGroup := make(map[string][]*data.MostRecentMetric)
	for _, snapshot := range snapshots {
		group, ok := peers.GroupOf[snapshot.Ticker]
		if !ok {
			continue
		}
		byGroup[group] = append(byGroup[group], snapshot)
	}

	rows := make([]data.Row, 0, len(snapshots))
	for _, group := range peers.SubIndustries {
		members := byGroup[group]
		labels := engine.label(members)
		for idx, member := range members {
			rows = append(rows, &data.ClusterMembership{
				Ticker:     member.Ticker,
				Date:       today,
				Membership: labels[idx],
			})
		}

		logger.Debug().Str("SubIndustry", group).Int("NumMembers", len(members)).Msg("clustered sub-industry")
	}

	return rows, nil
}

func (engine *Engine) label(members []*data.MostRecentMetric) []data.ClusterLabel {
	labels := make([]data.ClusterLabel, len(members))
	for idx := range labels {
		labels[idx] = data.NotClusterMember
	}

	if len(members) <= 1 {
		return labels
	}

	points := make([][]float64, 0, len(members))
	positions := make([]int, 0, len(members))
	for idx, member := range members {
		point, ok := complete(member.ClusterFeatures())
		if !ok {
			continue
		}
		points = append(points, point)
		positions = append(positions, idx)
	}

	if len(points) < 2 {
		return labels
	}

	assignments := cluster.DBSCAN(cluster.Normalize(points), engine.Eps, engine.MinSamples)
	for pos, assignment := range assignments {
		if assignment != cluster.Noise {
			labels[positions[pos]] = data.ClusterMember
		}
	}

	return labels
}

func complete(features []*float64) ([]float64, bool) {
	point := make([]float64, len(features))
	for idx, feature := range features {
		if feature == nil {
			return nil, false
		}
		point[idx] = *feature
	}
	return point, true
}
