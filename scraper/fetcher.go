package scraper

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
	"github.com/solpolar1990-debug/ozon-price-tracker/search"
)

const searchResultLimit = 5

// Result titles carry marketplace boilerplate that is not part of the
// product name.
var (
	brandSuffixPattern = regexp.MustCompile(`(?i)\s*[-–]\s*OZON\s*$`)
	buySuffixPattern   = regexp.MustCompile(`(?i)\s*купить.*$`)
)

// Fetcher looks up the current price of a product by running a text
// search and mining the result snippets.
type Fetcher struct {
	search search.Client
}

// NewFetcher creates a price lookup backed by the given search client
func NewFetcher(searchClient search.Client) *Fetcher {
	return &Fetcher{search: searchClient}
}

// Fetch resolves a product reference URL into product info. Returns nil
// only when the URL resolves to no product ID at all; every other
// failure mode (no results, no extractable price, search transport
// error) degrades to a result with the zero price sentinel.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *models.ProductInfo {
	productID := ExtractProductID(rawURL)
	productName := ExtractProductName(rawURL)

	if productID == "" && IsShortURL(rawURL) {
		if shortCode := ExtractShortCode(rawURL); shortCode != "" {
			productID = shortCode
			productName = models.PlaceholderProductName
		}
	}

	if productID == "" {
		return nil
	}

	query := "Ozon " + productID
	if productName != models.PlaceholderProductName {
		query = truncateRunes(productName, 50) + " цена"
	}

	results, err := f.search.Search(ctx, query, searchResultLimit)
	if err != nil {
		log.Printf("Search failed for %s: %v", rawURL, err)
		return &models.ProductInfo{
			ProductID: productID,
			Name:      productName,
			Price:     0,
			InStock:   true,
		}
	}

	if len(results) == 0 {
		return &models.ProductInfo{
			ProductID: productID,
			Name:      productName,
			Price:     0,
			InStock:   true,
		}
	}

	var foundPrice *PriceInfo
	foundName := productName
	foundProductID := productID

	for _, result := range results {
		// A result link can resolve to a longer, more specific ID
		// than the one taken from the input URL.
		if result.Link != "" {
			if realID := ExtractProductID(result.Link); len(realID) > 7 {
				foundProductID = realID
			}
		}

		if result.Snippet != "" {
			if info := ExtractPrice(result.Snippet); info != nil && info.Price > 0 {
				foundPrice = info
			}
		}

		if result.Title != "" && foundPrice == nil {
			if info := ExtractPrice(result.Title); info != nil && info.Price > 0 {
				foundPrice = info
			}
		}

		if result.Title != "" {
			cleanName := cleanResultTitle(result.Title)
			if n := utf8.RuneCountInString(cleanName); n > 3 && n < 150 {
				foundName = cleanName
			}
		}

		if foundPrice != nil {
			break
		}
	}

	info := &models.ProductInfo{
		ProductID: foundProductID,
		Name:      foundName,
		InStock:   true,
	}
	if foundPrice != nil {
		info.Price = foundPrice.Price * 100
		info.OriginalPrice = foundPrice.OriginalPrice * 100
	}

	return info
}

func cleanResultTitle(title string) string {
	clean := brandSuffixPattern.ReplaceAllString(title, "")
	clean = buySuffixPattern.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
