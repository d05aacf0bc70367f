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

package data

import (
	"time"
)

type ClusterLabel string

const (
	ClusterMember    ClusterLabel = "cluster member"
	NotClusterMember ClusterLabel = "not cluster member"
)

// ClusterMembership records whether a ticker fell inside a dense valuation
// cluster of its sub-industry on the day clustering ran
type ClusterMembership struct {
	Ticker     string       `db:"ticker"`
	Date       time.Time    `db:"date"`
	Membership ClusterLabel `db:"cluster_membership"`
}

func (cm *ClusterMembership) Table() Table {
	return ClusterTable
}

func (cm *ClusterMembership) Values() []any {
	return []any{cm.Ticker, cm.Date, string(cm.Membership)}
}
