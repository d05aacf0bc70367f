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

// Package metrics turns one company's raw statements into the normalized
// rows stored in the peer database. Nothing here performs I/O and nothing
// here fails: missing inputs produce nil or zero outputs.
package metrics

import (
	"math"
)

// Margin returns component / revenue * 100. A missing or non-positive
// revenue yields 0; a missing component with usable revenue yields nil.
func Margin(component, revenue *float64) *float64 {
	if revenue == nil || *revenue <= 0 {
		zero := 0.0
		return &zero
	}

	if component == nil {
		return nil
	}

	margin := *component / *revenue * 100
	return &margin
}

// Ratio returns numerator / denominator, or nil if either is missing or the
// denominator is zero
func Ratio(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}

	ratio := *numerator / *denominator
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil
	}
	return &ratio
}

// Scale multiplies a value by factor, preserving nil
func Scale(val *float64, factor float64) *float64 {
	if val == nil {
		return nil
	}
	scaled := *val * factor
	return &scaled
}

// Round rounds a value to the given number of decimal places, preserving nil
func Round(val *float64, places int) *float64 {
	if val == nil || math.IsNaN(*val) || math.IsInf(*val, 0) {
		return nil
	}
	pow := math.Pow(10, float64(places))
	rounded := math.Round(*val*pow) / pow
	return &rounded
}

// PercentChange returns (current / lagged - 1) * 100. A missing value or a
// zero lagged value yields 0.
func PercentChange(current, lagged *float64) float64 {
	if current == nil || lagged == nil || *lagged == 0 {
		return 0
	}
	return (*current / *lagged - 1) * 100
}

// FractionChange returns current / lagged - 1, or nil when lagged is zero
func FractionChange(current, lagged float64) *float64 {
	if lagged == 0 {
		return nil
	}
	change := current/lagged - 1
	return &change
}

// roundedGrowth is round(current / previous - 1, 2) * 100, nil when the
// previous value is missing or zero
func roundedGrowth(current, previous *float64) *float64 {
	growth := Ratio(current, previous)
	if growth == nil {
		return nil
	}
	*growth -= 1
	return Scale(Round(growth, 2), 100)
}
