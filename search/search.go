// Package search provides text-search clients used to look up product
// prices. Providers return results in relevance order; an empty result
// list is a normal outcome, not an error.
package search

import "context"

// Result is one search hit
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client is implemented by every search provider
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
