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

// Package healthcheck registers scheduled refreshes with healthchecks.io and
// reports the outcome of every run.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
)

var (
	ErrStatus    = errors.New("status code is invalid")
	ErrNoPingURL = errors.New("response did not include a ping url")
)

const (
	DefaultAPIURL  = "https://healthchecks.io/api/v3"
	DefaultPingURL = "https://hc-ping.com"
)

// Check is the definition of a cron-scheduled check
type Check struct {
	Name     string
	Tags     []string
	Schedule string
	Timezone string
	Grace    time.Duration
}

type createReq struct {
	Name     string   `json:"name"`
	Grace    int      `json:"grace"`
	Schedule string   `json:"schedule"`
	Slug     string   `json:"slug"`
	Tags     string   `json:"tags"`
	Timezone string   `json:"tz"`
	Unique   []string `json:"unique"`
}

type createResp struct {
	PingURL string `json:"ping_url"`
}

// Client talks to the management API and the ping endpoint
type Client struct {
	apiURL  string
	pingURL string
	http    *resty.Client
}

// New returns a client authenticated with apiKey. Empty urls select the
// public healthchecks.io endpoints.
func New(apiKey, apiURL, pingURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if pingURL == "" {
		pingURL = DefaultPingURL
	}

	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("X-Api-Key", apiKey).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		apiURL:  strings.TrimRight(apiURL, "/"),
		pingURL: strings.TrimRight(pingURL, "/"),
		http:    client,
	}
}

// Create registers check and returns its ping id. A check with the same
// name is reused rather than duplicated.
func (hc *Client) Create(ctx context.Context, check Check) (string, error) {
	grace := check.Grace
	if grace == 0 {
		grace = time.Hour
	}

	timezone := check.Timezone
	if timezone == "" {
		timezone = "America/New_York"
	}

	result := createResp{}
	resp, err := hc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(createReq{
			Name:     check.Name,
			Grace:    int(grace.Seconds()),
			Schedule: check.Schedule,
			Slug:     slug.Make(check.Name),
			Tags:     strings.Join(check.Tags, " "),
			Timezone: timezone,
			Unique:   []string{"name"},
		}).
		SetResult(&result).
		Post(hc.apiURL + "/checks/")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() > 201 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	idx := strings.LastIndex(result.PingURL, "/")
	if idx < 0 || idx == len(result.PingURL)-1 {
		return "", ErrNoPingURL
	}

	return result.PingURL[idx+1:], nil
}

// Ping reports the outcome of a run with body as its log. Failures go to
// the /fail endpoint so the alert fires without waiting out the grace period.
func (hc *Client) Ping(ctx context.Context, checkID string, failed bool, body string) error {
	url := fmt.Sprintf("%s/%s", hc.pingURL, checkID)
	if failed {
		url += "/fail"
	}

	resp, err := hc.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
