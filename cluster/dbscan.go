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

// Package cluster implements density based clustering of peer valuation
// vectors.
package cluster

import (
	"math"
)

// Noise is the label given to points that belong to no dense region
const Noise = -1

const unvisited = -2

// Normalize rescales every column of points to [0, 1] using min-max
// scaling. A column whose values are all equal maps to 0.
func Normalize(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return nil
	}

	dims := len(points[0])
	lo := make([]float64, dims)
	hi := make([]float64, dims)
	for dim := 0; dim < dims; dim++ {
		lo[dim] = math.Inf(1)
		hi[dim] = math.Inf(-1)
	}

	for _, point := range points {
		for dim, val := range point {
			lo[dim] = math.Min(lo[dim], val)
			hi[dim] = math.Max(hi[dim], val)
		}
	}

	out := make([][]float64, len(points))
	for idx, point := range points {
		scaled := make([]float64, dims)
		for dim, val := range point {
			if span := hi[dim] - lo[dim]; span > 0 {
				scaled[dim] = (val - lo[dim]) / span
			}
		}
		out[idx] = scaled
	}
	return out
}

func distance(a, b []float64) float64 {
	sum := 0.0
	for idx := range a {
		d := a[idx] - b[idx]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func neighbors(points [][]float64, idx int, eps float64) []int {
	out := make([]int, 0)
	for other := range points {
		if distance(points[idx], points[other]) <= eps {
			out = append(out, other)
		}
	}
	return out
}

// DBSCAN labels each point with the index of its cluster or Noise. A point
// is a core point when at least minSamples points (itself included) lie
// within eps of it.
func DBSCAN(points [][]float64, eps float64, minSamples int) []int {
	labels := make([]int, len(points))
	for idx := range labels {
		labels[idx] = unvisited
	}

	cluster := 0
	for idx := range points {
		if labels[idx] != unvisited {
			continue
		}

		seeds := neighbors(points, idx, eps)
		if len(seeds) < minSamples {
			labels[idx] = Noise
			continue
		}

		labels[idx] = cluster
		for pos := 0; pos < len(seeds); pos++ {
			member := seeds[pos]
			if labels[member] == Noise {
				// border point
				labels[member] = cluster
			}
			if labels[member] != unvisited {
				continue
			}

			labels[member] = cluster
			if more := neighbors(points, member, eps); len(more) >= minSamples {
				seeds = append(seeds, more...)
			}
		}

		cluster++
	}

	return labels
}
