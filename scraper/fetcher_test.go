package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
	"github.com/solpolar1990-debug/ozon-price-tracker/search"
)

// fakeSearchClient replays canned results and records queries
type fakeSearchClient struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeSearchClient) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func TestFetchUnresolvableURL(t *testing.T) {
	client := &fakeSearchClient{}
	f := NewFetcher(client)

	assert.Nil(t, f.Fetch(context.Background(), "https://www.ozon.ru/category/telefony/"))
	assert.Empty(t, client.queries, "no search should run without a product ID")
}

func TestFetchDegradesOnSearchError(t *testing.T) {
	client := &fakeSearchClient{err: errors.New("connection refused")}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/smartfon-1234567/")
	require.NotNil(t, info)
	assert.Equal(t, "1234567", info.ProductID)
	assert.Equal(t, "Smartfon", info.Name)
	assert.Equal(t, int64(0), info.Price)
	assert.True(t, info.InStock)
}

func TestFetchDegradesOnEmptyResults(t *testing.T) {
	client := &fakeSearchClient{}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/smartfon-1234567/")
	require.NotNil(t, info)
	assert.Equal(t, "1234567", info.ProductID)
	assert.Equal(t, int64(0), info.Price)
}

func TestFetchPriceFromSnippet(t *testing.T) {
	client := &fakeSearchClient{results: []search.Result{
		{
			Title:   "Смартфон Apple iPhone 15 купить по выгодной цене - OZON",
			Link:    "https://www.ozon.ru/product/smartfon-apple-iphone-15-1234567890/",
			Snippet: "Цена 12 990 ₽, было 19 990 ₽",
		},
	}}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/smartfon-1234567/")
	require.NotNil(t, info)
	// Kopecks, not rubles
	assert.Equal(t, int64(1299000), info.Price)
	assert.Equal(t, int64(1999000), info.OriginalPrice)
	// Longer ID from the result link replaces the one from the input URL
	assert.Equal(t, "1234567890", info.ProductID)
	// Marketplace boilerplate stripped from the result title
	assert.Equal(t, "Смартфон Apple iPhone 15", info.Name)
}

func TestFetchTitleFallbackWhenSnippetHasNoPrice(t *testing.T) {
	client := &fakeSearchClient{results: []search.Result{
		{
			Title:   "Наушники Sony за 4 990 ₽",
			Link:    "https://www.ozon.ru/product/naushniki-7654321/",
			Snippet: "Лучшие наушники в своем классе",
		},
	}}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/naushniki-7654321/")
	require.NotNil(t, info)
	assert.Equal(t, int64(499000), info.Price)
}

func TestFetchFirstPriceWins(t *testing.T) {
	client := &fakeSearchClient{results: []search.Result{
		{Title: "Товар", Snippet: "без цены"},
		{Title: "Товар", Snippet: "5 990 ₽"},
		{Title: "Товар", Snippet: "999 ₽"},
	}}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/tovar-1234567/")
	require.NotNil(t, info)
	assert.Equal(t, int64(599000), info.Price)
}

func TestFetchKeepsNameWhenTitleOutOfBounds(t *testing.T) {
	client := &fakeSearchClient{results: []search.Result{
		{Title: "OZ", Snippet: "1 990 ₽"},
	}}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://www.ozon.ru/product/smartfon-1234567/")
	require.NotNil(t, info)
	assert.Equal(t, "Smartfon", info.Name)
}

func TestFetchQueryFromSlugName(t *testing.T) {
	client := &fakeSearchClient{}
	f := NewFetcher(client)

	f.Fetch(context.Background(), "https://www.ozon.ru/product/krossovki-nike-air-7777777/")
	require.Len(t, client.queries, 1)
	assert.Equal(t, "Krossovki Nike Air цена", client.queries[0])
}

func TestFetchShortLinkQuery(t *testing.T) {
	client := &fakeSearchClient{}
	f := NewFetcher(client)

	info := f.Fetch(context.Background(), "https://ozon.ru/t/AbC123")
	require.NotNil(t, info)
	assert.Equal(t, "AbC123", info.ProductID)
	assert.Equal(t, models.PlaceholderProductName, info.Name)
	require.Len(t, client.queries, 1)
	assert.Equal(t, "Ozon AbC123", client.queries[0])
}

func TestFetchQueryNameTruncated(t *testing.T) {
	client := &fakeSearchClient{}
	f := NewFetcher(client)

	longSlug := "ochen-dlinnoe-nazvanie-tovara-kotoroe-nikogda-ne-zakanchivaetsya-voobshche-nikogda"
	f.Fetch(context.Background(), "https://www.ozon.ru/product/"+longSlug+"-1234567/")
	require.Len(t, client.queries, 1)

	query := client.queries[0]
	assert.Contains(t, query, " цена")
	assert.LessOrEqual(t, len([]rune(query)), 50+len([]rune(" цена")))
}
