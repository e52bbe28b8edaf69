package search

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleClient searches through the Google Custom Search JSON API
type GoogleClient struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	engineID string
}

type googleResponse struct {
	Items []Result `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGoogleClient creates a Google Custom Search client
func NewGoogleClient(apiKey, engineID string, timeout time.Duration) *GoogleClient {
	client := resty.New()
	client.SetTimeout(timeout)

	return &GoogleClient{
		client:   client,
		endpoint: googleEndpoint,
		apiKey:   apiKey,
		engineID: engineID,
	}
}

// Search runs a query and returns up to limit results
func (c *GoogleClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, fmt.Errorf("google search credentials not configured")
	}

	log.Printf("🔍 Google search: %s", query)

	var parsed googleResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.apiKey,
			"cx":  c.engineID,
			"q":   query,
			"num": strconv.Itoa(limit),
			"hl":  "ru",
			"gl":  "ru",
		}).
		SetResult(&parsed).
		SetError(&parsed).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("google search request failed: %v", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("google search API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("google search returned status %d", resp.StatusCode())
	}

	if len(parsed.Items) > limit {
		parsed.Items = parsed.Items[:limit]
	}
	return parsed.Items, nil
}
