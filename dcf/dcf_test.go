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

package dcf_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvpeers/dcf"
)

var _ = Describe("Value", func() {
	It("sums discounted flows and the discounted terminal value", func() {
		est, err := dcf.Value(dcf.Inputs{FreeCashFlow: 100, Growth: 0, Discount: 0.1, Terminal: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(est.CashFlows).To(HaveEach(BeNumerically("~", 100)))

		annuity := 0.0
		for year := 1; year <= dcf.Years; year++ {
			annuity += 100 / math.Pow(1.1, float64(year))
		}
		terminal := 1000 / math.Pow(1.1, 5)
		Expect(est.TerminalValue).To(BeNumerically("~", 1000))
		Expect(est.EnterpriseValue).To(BeNumerically("~", annuity+terminal, 1e-6))
	})

	It("increases strictly with the growth rate", func() {
		prev := math.Inf(-1)
		for _, growth := range []float64{-0.05, 0, 0.03, 0.05, 0.1, 0.2} {
			est, err := dcf.Value(dcf.Inputs{FreeCashFlow: 1e6, Growth: growth, Discount: 0.1, Terminal: 0.02})
			Expect(err).NotTo(HaveOccurred())
			Expect(est.EnterpriseValue).To(BeNumerically(">", prev))
			prev = est.EnterpriseValue
		}
	})

	It("rejects a discount rate at or below terminal growth", func() {
		_, err := dcf.Value(dcf.Inputs{FreeCashFlow: 1, Growth: 0.05, Discount: 0.08, Terminal: 0.08})
		Expect(err).To(MatchError(dcf.ErrInvalidRates))
	})
})

var _ = Describe("Compare", func() {
	DescribeTable("classifies the percent error",
		func(percentError float64, expected dcf.Signal) {
			Expect(dcf.Classify(percentError)).To(Equal(expected))
		},
		Entry("well above market", 10.5, dcf.Undervalued),
		Entry("exactly ten percent", 10.0, dcf.Neutral),
		Entry("within band", -3.0, dcf.Neutral),
		Entry("well below market", -25.0, dcf.Overvalued),
	)

	It("scales rates per scenario and orders bear below bull", func() {
		in := dcf.Inputs{FreeCashFlow: 1e6, Growth: 0.05, Discount: 0.10, Terminal: 0.025}
		base, err := dcf.Value(in)
		Expect(err).NotTo(HaveOccurred())

		cmps, err := dcf.Compare(in, base.EnterpriseValue)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmps).To(HaveLen(3))

		bear, mid, bull := cmps[0], cmps[1], cmps[2]
		Expect(bear.Estimate.Growth).To(BeNumerically("~", 0.04))
		Expect(bear.Estimate.Discount).To(BeNumerically("~", 0.11))
		Expect(mid.PercentError).To(BeNumerically("~", 0, 1e-9))
		Expect(mid.Signal).To(Equal(dcf.Neutral))
		Expect(bear.Estimate.EnterpriseValue).To(BeNumerically("<", mid.Estimate.EnterpriseValue))
		Expect(bull.Estimate.EnterpriseValue).To(BeNumerically(">", mid.Estimate.EnterpriseValue))
		Expect(bull.Signal).To(Equal(dcf.Undervalued))
		Expect(bear.Signal).To(Equal(dcf.Overvalued))
	})

	It("records an error for a scenario whose rates cross", func() {
		cmps, err := dcf.Compare(dcf.Inputs{FreeCashFlow: 1e6, Growth: 0.05, Discount: 0.10, Terminal: 0.08}, 1e7)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmps[2].Err).To(MatchError(dcf.ErrInvalidRates))
		Expect(cmps[1].Err).NotTo(HaveOccurred())
	})

	It("refuses a zero enterprise value", func() {
		_, err := dcf.Compare(dcf.Inputs{FreeCashFlow: 1, Discount: 0.1}, 0)
		Expect(err).To(MatchError(dcf.ErrZeroEnterpriseValue))
	})
})
