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

// Package dcf estimates enterprise value with a discounted cash flow model
// and compares bear, base and bull scenarios against the market.
package dcf

import (
	"errors"
	"fmt"
	"math"
)

// Years is the number of explicitly forecast years
const Years = 5

var (
	ErrInvalidRates        = errors.New("discount rate must exceed terminal growth rate")
	ErrZeroEnterpriseValue = errors.New("enterprise value is zero")
	ErrMissingFreeCashFlow = errors.New("no free cash flow available")
)

// Inputs are expressed as fractions (0.05 is 5%)
type Inputs struct {
	FreeCashFlow float64
	Growth       float64
	Discount     float64
	Terminal     float64
}

type Estimate struct {
	Inputs
	CashFlows          []float64
	DiscountedFlows    []float64
	TerminalValue      float64
	DiscountedTerminal float64
	EnterpriseValue    float64
}

// Value projects Years of cash flow growing at the growth rate, discounts
// them, and adds a Gordon growth terminal value
func Value(in Inputs) (*Estimate, error) {
	if in.Discount <= in.Terminal {
		return nil, fmt.Errorf("%w (discount %.4f, terminal %.4f)", ErrInvalidRates, in.Discount, in.Terminal)
	}

	est := &Estimate{
		Inputs:          in,
		CashFlows:       make([]float64, Years),
		DiscountedFlows: make([]float64, Years),
	}

	for year := 1; year <= Years; year++ {
		cf := in.FreeCashFlow * math.Pow(1+in.Growth, float64(year))
		pv := cf / math.Pow(1+in.Discount, float64(year))
		est.CashFlows[year-1] = cf
		est.DiscountedFlows[year-1] = pv
		est.EnterpriseValue += pv
	}

	est.TerminalValue = est.CashFlows[Years-1] * (1 + in.Terminal) / (in.Discount - in.Terminal)
	est.DiscountedTerminal = est.TerminalValue / math.Pow(1+in.Discount, Years)
	est.EnterpriseValue += est.DiscountedTerminal

	return est, nil
}

type Signal string

const (
	Undervalued Signal = "green"
	Overvalued  Signal = "red"
	Neutral     Signal = "neutral"
)

// Scenario scales the base inputs
type Scenario struct {
	Name     string
	Growth   float64
	Discount float64
	Terminal float64
}

var (
	Bear = Scenario{Name: "bear", Growth: 0.8, Discount: 1.1, Terminal: 0.8}
	Base = Scenario{Name: "base", Growth: 1.0, Discount: 1.0, Terminal: 1.0}
	Bull = Scenario{Name: "bull", Growth: 1.2, Discount: 0.9, Terminal: 1.2}

	Scenarios = []Scenario{Bear, Base, Bull}
)

func (s Scenario) Apply(in Inputs) Inputs {
	return Inputs{
		FreeCashFlow: in.FreeCashFlow,
		Growth:       in.Growth * s.Growth,
		Discount:     in.Discount * s.Discount,
		Terminal:     in.Terminal * s.Terminal,
	}
}

// Comparison is one scenario's estimate versus the observed enterprise value.
// Err is set when the scenario's scaled rates are unusable.
type Comparison struct {
	Scenario     Scenario
	Estimate     *Estimate
	PercentError float64
	Signal       Signal
	Err          error
}

// Classify marks estimates more than 10% above market green and more than
// 10% below market red
func Classify(percentError float64) Signal {
	switch {
	case percentError > 10:
		return Undervalued
	case percentError < -10:
		return Overvalued
	default:
		return Neutral
	}
}

// Compare runs every scenario and compares each estimate with the actual
// enterprise value
func Compare(in Inputs, actual float64) ([]*Comparison, error) {
	if actual == 0 {
		return nil, ErrZeroEnterpriseValue
	}

	out := make([]*Comparison, 0, len(Scenarios))
	for _, scenario := range Scenarios {
		cmp := &Comparison{Scenario: scenario, Signal: Neutral}
		est, err := Value(scenario.Apply(in))
		if err != nil {
			cmp.Err = err
			out = append(out, cmp)
			continue
		}

		cmp.Estimate = est
		cmp.PercentError = (est.EnterpriseValue - actual) / actual * 100
		cmp.Signal = Classify(cmp.PercentError)
		out = append(out, cmp)
	}

	return out, nil
}
