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

// StorageRecord notes that a ticker (or asset) was successfully ingested on
// VersionDate. VersionDate is stored as text in DateFormat.
type StorageRecord struct {
	Ticker      string `db:"ticker"`
	VersionDate string `db:"version date"`
}

func NewStorageRecord(ticker string, date time.Time) *StorageRecord {
	return &StorageRecord{
		Ticker:      ticker,
		VersionDate: date.Format(DateFormat),
	}
}

func (sr *StorageRecord) Table() Table {
	return StorageRecordTable
}

func (sr *StorageRecord) Values() []any {
	return []any{sr.Ticker, sr.VersionDate}
}
