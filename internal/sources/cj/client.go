// Package cj fetches advertiser catalogs from the CJ (Commission Junction)
// GraphQL product API.
package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"prodsync/internal/httpx"
)

const defaultEndpoint = "https://ads.api.cj.com/query"

// Client issues product queries against the CJ GraphQL endpoint.
type Client struct {
	endpoint  string
	token     string
	companyID string
	pid       string

	httpClient *http.Client
	retry      httpx.RetryPolicy
	logger     *logrus.Logger
}

// Config carries the CJ credentials. CompanyID is the publisher company the
// token belongs to; PID optionally requests tracked click URLs.
type Config struct {
	Endpoint  string
	Token     string
	CompanyID string
	PID       string
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		companyID:  cfg.CompanyID,
		pid:        cfg.PID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      httpx.DefaultRetryPolicy(),
		logger:     logger,
	}
}

// ProductsByAdvertiser returns up to limit products for one advertiser. The
// catalog requires partnerIds rather than advertiserIds when querying with a
// publisher company id.
func (c *Client) ProductsByAdvertiser(ctx context.Context, advertiserID string, limit int) (*ProductsPayload, error) {
	query := c.buildProductsQuery(advertiserID, limit)

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql query: %w", err)
	}

	resp, err := httpx.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cj products query failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode cj response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("cj graphql error: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil || envelope.Data.Products == nil {
		return nil, fmt.Errorf("cj response missing products payload")
	}

	c.logger.WithFields(logrus.Fields{
		"advertiser_id": advertiserID,
		"count":         envelope.Data.Products.Count,
		"total_count":   envelope.Data.Products.TotalCount,
	}).Debug("fetched cj products")

	return envelope.Data.Products, nil
}

func (c *Client) buildProductsQuery(advertiserID string, limit int) string {
	linkCode := ""
	if c.pid != "" {
		linkCode = fmt.Sprintf(`
          linkCode(pid: %q) {
            clickUrl
          }`, c.pid)
	}

	return fmt.Sprintf(`
    {
      products(companyId: %q, partnerIds: [%q], limit: %d) {
        totalCount
        count
        resultList {
          advertiserId
          advertiserName
          id
          title
          description
          price {
            amount
            currency
          }
          imageLink
          link
          brand
          ... on Shopping {
            availability
            salePrice {
              amount
              currency
            }
            googleProductCategory {
              id
              name
            }
            productType
          }
          lastUpdated%s
        }
      }
    }`, c.companyID, advertiserID, limit, linkCode)
}
