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

package cluster_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/cluster"
)

var _ = Describe("Normalize", func() {
	It("scales each column to the unit interval", func() {
		out := cluster.Normalize([][]float64{{0, 5}, {10, 5}, {5, 5}})
		Expect(out).To(Equal([][]float64{{0, 0}, {1, 0}, {0.5, 0}}))
	})

	It("returns nil for no points", func() {
		Expect(cluster.Normalize(nil)).To(BeNil())
	})
})

var _ = Describe("DBSCAN", func() {
	It("finds a dense group and marks the outlier as noise", func() {
		points := [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {5, 5}}
		labels := cluster.DBSCAN(points, 0.5, 3)
		Expect(labels[:4]).To(HaveEach(0))
		Expect(labels[4]).To(Equal(cluster.Noise))
	})

	It("separates two dense groups", func() {
		points := [][]float64{{0, 0}, {0, 0.2}, {0.2, 0}, {3, 3}, {3, 3.2}, {3.2, 3}}
		labels := cluster.DBSCAN(points, 0.5, 3)
		Expect(labels).To(Equal([]int{0, 0, 0, 1, 1, 1}))
	})

	It("attaches border points to a cluster", func() {
		// point 3 is within reach of a core point but has too few neighbours itself
		points := [][]float64{{0}, {0.1}, {0.2}, {0.6}}
		labels := cluster.DBSCAN(points, 0.45, 3)
		Expect(labels).To(Equal([]int{0, 0, 0, 0}))
	})

	It("labels everything noise when no point is dense enough", func() {
		labels := cluster.DBSCAN([][]float64{{0}, {1}, {2}}, 0.5, 3)
		Expect(labels).To(Equal([]int{cluster.Noise, cluster.Noise, cluster.Noise}))
	})
})
