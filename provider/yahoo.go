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

package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvpeers/data"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultYahooURL = "https://query2.finance.yahoo.com"
	yahooUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Yahoo retrieves statements, quote summaries and daily closes from the
// Yahoo Finance JSON endpoints
type Yahoo struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewYahoo creates a source that makes at most rateLimit requests per minute
func NewYahoo(baseURL string, rateLimit int, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}

	if rateLimit <= 0 {
		rateLimit = 120
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", yahooUserAgent).
		SetHeader("Accept", "application/json")

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Yahoo{
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
		now:     time.Now,
	}
}

// Private interface

type yahooValue struct {
	Raw *float64 `json:"raw"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type timeseriesEntry struct {
	AsOfDate      string     `json:"asOfDate"`
	PeriodType    string     `json:"periodType"`
	ReportedValue yahooValue `json:"reportedValue"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []*quoteSummary `json:"result"`
		Error  *yahooError     `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummary struct {
	DefaultKeyStatistics struct {
		EnterpriseValue    yahooValue `json:"enterpriseValue"`
		PriceToBook        yahooValue `json:"priceToBook"`
		ProfitMargins      yahooValue `json:"profitMargins"`
		EnterpriseToEbitda yahooValue `json:"enterpriseToEbitda"`
		NetIncomeToCommon  yahooValue `json:"netIncomeToCommon"`
		SharesOutstanding  yahooValue `json:"sharesOutstanding"`
		ShortRatio         yahooValue `json:"shortRatio"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		ReturnOnEquity yahooValue `json:"returnOnEquity"`
		DebtToEquity   yahooValue `json:"debtToEquity"`
	} `json:"financialData"`
	SummaryDetail struct {
		MarketCap  yahooValue `json:"marketCap"`
		TrailingPE yahooValue `json:"trailingPE"`
	} `json:"summaryDetail"`
	SummaryProfile struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"summaryProfile"`
}

type chartResponse struct {
	Chart struct {
		Result []*chartResult `json:"result"`
		Error  *yahooError    `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		GMTOffset int64 `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// symbol converts a universe ticker (BRK.B) to the source's form (BRK-B)
func symbol(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "-")
}

func (yahoo *Yahoo) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := yahoo.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := yahoo.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		logger.Error().Err(err).Str("Path", path).Msg("resty returned an error when querying yahoo")
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("URL", resp.Request.URL).Msg("yahoo returned an invalid HTTP response")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), string(resp.Body()))
	}

	return resp.Body(), nil
}

// Fundamentals fetches the quarterly and annual income statements, the
// annual balance sheet and cash-flow statement, and the quote summary
func (yahoo *Yahoo) Fundamentals(ctx context.Context, ticker string) (*data.Fundamentals, error) {
	fundamentals := &data.Fundamentals{
		Ticker:          ticker,
		QuarterlyIncome: make(data.StatementTable),
		AnnualIncome:    make(data.StatementTable),
		BalanceSheet:    make(data.StatementTable),
		Cashflow:        make(data.StatementTable),
	}

	types := make([]string, 0, 2*len(data.IncomeStatementItems)+len(data.BalanceSheetItems)+len(data.CashflowItems))
	for _, item := range data.IncomeStatementItems {
		types = append(types, "quarterly"+item, "annual"+item)
	}
	for _, item := range data.BalanceSheetItems {
		types = append(types, "annual"+item)
	}
	for _, item := range data.CashflowItems {
		types = append(types, "annual"+item)
	}

	series, err := yahoo.timeseries(ctx, ticker, types)
	if err != nil {
		return nil, err
	}

	for seriesType, entries := range series {
		var target data.StatementTable
		var item string
		switch {
		case strings.HasPrefix(seriesType, "quarterly"):
			item = strings.TrimPrefix(seriesType, "quarterly")
			target = fundamentals.QuarterlyIncome
		case strings.HasPrefix(seriesType, "annual"):
			item = strings.TrimPrefix(seriesType, "annual")
			switch {
			case contains(data.BalanceSheetItems, item):
				target = fundamentals.BalanceSheet
			case contains(data.CashflowItems, item):
				target = fundamentals.Cashflow
			default:
				target = fundamentals.AnnualIncome
			}
		default:
			continue
		}

		for date, value := range entries {
			target.Set(item, date, value)
		}
	}

	info, err := yahoo.info(ctx, ticker)
	if err != nil {
		return nil, err
	}
	fundamentals.Info = info

	return fundamentals, nil
}

func contains(items []string, item string) bool {
	for _, candidate := range items {
		if candidate == item {
			return true
		}
	}
	return false
}

// timeseries returns series type -> report date -> reported value
func (yahoo *Yahoo) timeseries(ctx context.Context, ticker string, types []string) (map[string]map[time.Time]float64, error) {
	logger := zerolog.Ctx(ctx)
	now := yahoo.now()

	params := url.Values{}
	params.Set("symbol", symbol(ticker))
	params.Set("type", strings.Join(types, ","))
	params.Set("period1", strconv.FormatInt(now.AddDate(-6, 0, 0).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))

	body, err := yahoo.get(ctx, "/ws/fundamentals-timeseries/v1/finance/timeseries/"+url.PathEscape(symbol(ticker)), params)
	if err != nil {
		return nil, err
	}

	var respContent timeseriesResponse
	if err := json.Unmarshal(body, &respContent); err != nil {
		logger.Error().Err(err).Msg("error when unmarshalling json from timeseries response")
		return nil, err
	}

	if respContent.Timeseries.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, respContent.Timeseries.Error.Description)
	}

	out := make(map[string]map[time.Time]float64)
	for _, result := range respContent.Timeseries.Result {
		var meta timeseriesMeta
		if raw, ok := result["meta"]; !ok || json.Unmarshal(raw, &meta) != nil || len(meta.Type) == 0 {
			continue
		}

		seriesType := meta.Type[0]
		raw, ok := result[seriesType]
		if !ok {
			continue
		}

		var entries []*timeseriesEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			logger.Warn().Err(err).Str("Type", seriesType).Msg("could not unmarshal timeseries entries")
			continue
		}

		values := make(map[time.Time]float64, len(entries))
		for _, entry := range entries {
			if entry == nil || entry.ReportedValue.Raw == nil {
				continue
			}
			date, err := time.Parse(data.DateFormat, entry.AsOfDate)
			if err != nil {
				logger.Warn().Err(err).Str("AsOfDate", entry.AsOfDate).Msg("could not parse report date")
				continue
			}
			values[date] = *entry.ReportedValue.Raw
		}
		out[seriesType] = values
	}

	return out, nil
}

func (yahoo *Yahoo) info(ctx context.Context, ticker string) (data.Info, error) {
	logger := zerolog.Ctx(ctx)

	params := url.Values{}
	params.Set("modules", "defaultKeyStatistics,financialData,summaryDetail,summaryProfile")

	body, err := yahoo.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol(ticker)), params)
	if err != nil {
		return data.Info{}, err
	}

	var respContent quoteSummaryResponse
	if err := json.Unmarshal(body, &respContent); err != nil {
		logger.Error().Err(err).Msg("error when unmarshalling json from quote summary response")
		return data.Info{}, err
	}

	if respContent.QuoteSummary.Error != nil {
		return data.Info{}, fmt.Errorf("%w: %s", ErrNoData, respContent.QuoteSummary.Error.Description)
	}

	if len(respContent.QuoteSummary.Result) == 0 || respContent.QuoteSummary.Result[0] == nil {
		return data.Info{}, fmt.Errorf("%w: empty quote summary for %s", ErrNoData, ticker)
	}

	summary := respContent.QuoteSummary.Result[0]
	return data.Info{
		Sector:             summary.SummaryProfile.Sector,
		Industry:           summary.SummaryProfile.Industry,
		MarketCap:          summary.SummaryDetail.MarketCap.Raw,
		TrailingPE:         summary.SummaryDetail.TrailingPE.Raw,
		PriceToBook:        summary.DefaultKeyStatistics.PriceToBook.Raw,
		ReturnOnEquity:     summary.FinancialData.ReturnOnEquity.Raw,
		DebtToEquity:       summary.FinancialData.DebtToEquity.Raw,
		EnterpriseValue:    summary.DefaultKeyStatistics.EnterpriseValue.Raw,
		ProfitMargins:      summary.DefaultKeyStatistics.ProfitMargins.Raw,
		EnterpriseToEbitda: summary.DefaultKeyStatistics.EnterpriseToEbitda.Raw,
		NetIncomeToCommon:  summary.DefaultKeyStatistics.NetIncomeToCommon.Raw,
		SharesOutstanding:  summary.DefaultKeyStatistics.SharesOutstanding.Raw,
		ShortRatio:         summary.DefaultKeyStatistics.ShortRatio.Raw,
	}, nil
}

// PriceHistory returns daily closes over the lookback window ("1y", "2y").
// Bars are dated by the exchange's calendar day. ErrNoData is returned when
// the window is empty.
func (yahoo *Yahoo) PriceHistory(ctx context.Context, ticker string, lookback string) ([]data.PriceBar, error) {
	logger := zerolog.Ctx(ctx)

	params := url.Values{}
	params.Set("range", lookback)
	params.Set("interval", "1d")

	body, err := yahoo.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol(ticker)), params)
	if err != nil {
		return nil, err
	}

	var respContent chartResponse
	if err := json.Unmarshal(body, &respContent); err != nil {
		logger.Error().Err(err).Msg("error when unmarshalling json from chart response")
		return nil, err
	}

	if respContent.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, respContent.Chart.Error.Description)
	}

	if len(respContent.Chart.Result) == 0 || respContent.Chart.Result[0] == nil {
		return nil, fmt.Errorf("%w: empty chart for %s", ErrNoData, ticker)
	}

	result := respContent.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	bars := make([]data.PriceBar, 0, len(result.Timestamp))
	for idx, ts := range result.Timestamp {
		bar := data.PriceBar{
			Date: data.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
		}
		if idx < len(closes) {
			bar.Close = closes[idx]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no price history for %s over %s", ErrNoData, ticker, lookback)
	}

	return bars, nil
}
