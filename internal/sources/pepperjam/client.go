// Package pepperjam fetches publisher product creatives from the Pepperjam
// (Ascend) REST API.
package pepperjam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"prodsync/internal/httpx"
)

const (
	defaultBaseURL = "https://api.pepperjamnetwork.com"
	defaultVersion = "20120402"
)

// Client talks to the versioned publisher API.
type Client struct {
	baseURL string
	version string
	apiKey  string

	httpClient *http.Client
	retry      httpx.RetryPolicy
	logger     *logrus.Logger
}

type Config struct {
	BaseURL string
	Version string
	APIKey  string
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	return &Client{
		baseURL:    baseURL,
		version:    version,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      httpx.DefaultRetryPolicy(),
		logger:     logger,
	}
}

// ProductCreativesQuery narrows the publisher/creative/product listing.
// Keywords are space separated on the wire; ProgramIDs comma separated.
type ProductCreativesQuery struct {
	ProgramIDs string
	Keywords   string
	Page       int
	Limit      int
}

// ProductCreatives fetches one page of publisher product creatives.
func (c *Client) ProductCreatives(ctx context.Context, q ProductCreativesQuery) (*Envelope, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("format", "json")
	if q.ProgramIDs != "" {
		params.Set("programIds", q.ProgramIDs)
	}
	if q.Keywords != "" {
		params.Set("keywords", q.Keywords)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := fmt.Sprintf("%s/%s/publisher/creative/product?%s", c.baseURL, c.version, params.Encode())

	resp, err := httpx.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pepperjam product creatives request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode pepperjam response: %w", err)
	}

	if code := envelope.Meta.Status.Code; code != 0 && code != http.StatusOK {
		return nil, fmt.Errorf("pepperjam api status %d: %s", code, envelope.Meta.Status.Message)
	}

	c.logger.WithFields(logrus.Fields{
		"program_ids": q.ProgramIDs,
		"count":       len(envelope.Data),
	}).Debug("fetched pepperjam product creatives")

	return &envelope, nil
}
