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
	"fmt"
	"strconv"
	"time"
)

const DateFormat = "2006-01-02"

// Day truncates a time to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// QuarterLabel maps a report date to a fiscal quarter label "YYYY_Q". The
// date is shifted back one month before taking the calendar quarter so that
// reports dated just after a quarter end land in the quarter they describe.
// This is a heuristic, not a fiscal calendar lookup.
func QuarterLabel(date time.Time) string {
	shifted := AddMonths(date, -1)
	quarter := (int(shifted.Month())-1)/3 + 1
	return fmt.Sprintf("%d_%d", shifted.Year(), quarter)
}

// FiscalYearLabel maps a balance sheet date to its fiscal year by shifting
// the date forward three months
func FiscalYearLabel(date time.Time) string {
	return strconv.Itoa(AddMonths(date, 3).Year())
}

// AddMonths shifts a date by whole months, clamping the day to the end of
// the target month (Jul 31 - 1 month is Jun 30, not Jul 1)
func AddMonths(date time.Time, months int) time.Time {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()

	day := date.Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(first.Year(), first.Month(), day, date.Hour(), date.Minute(), date.Second(),
		date.Nanosecond(), date.Location())
}

// OneYearBefore returns the same calendar day one year earlier; Feb 29
// maps to Feb 28
func OneYearBefore(date time.Time) time.Time {
	return AddMonths(date, -12)
}

// YearEarlier returns the day whose one-year anniversary is date. Feb 29 has
// no such day, since a year after Feb 28 is Feb 28 again.
func YearEarlier(date time.Time) (time.Time, bool) {
	lag := AddMonths(date, -12)
	return lag, AddMonths(lag, 12).Equal(date)
}
