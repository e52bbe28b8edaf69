package search

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoClient searches through the DuckDuckGo HTML frontend.
// No API key required; results are scraped from the result page markup.
type DuckDuckGoClient struct {
	client   *resty.Client
	endpoint string
}

// NewDuckDuckGoClient creates a DuckDuckGo search client
func NewDuckDuckGoClient(timeout time.Duration) *DuckDuckGoClient {
	client := resty.New()
	client.SetTimeout(timeout)

	return &DuckDuckGoClient{
		client:   client,
		endpoint: duckDuckGoEndpoint,
	}
}

// Search runs a query restricted to ozon.ru and returns up to limit results
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	log.Printf("🔍 DuckDuckGo search: %s", query)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", query+" site:ozon.ru").
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		SetHeader("Accept", "text/html").
		SetHeader("Accept-Language", "ru-RU,ru;q=0.9").
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse duckduckgo response: %v", err)
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		snippet := strings.TrimSpace(sel.Find("a.result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, Result{
			Title:   title,
			Link:    decodeRedirectURL(href),
			Snippet: snippet,
		})
		return len(results) < limit
	})

	log.Printf("Found %d results", len(results))
	return results, nil
}

// decodeRedirectURL unwraps DuckDuckGo's /l/?uddg=... redirect links
func decodeRedirectURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if real := parsed.Query().Get("uddg"); real != "" {
		return real
	}
	return href
}
