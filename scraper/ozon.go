// Package scraper derives product identity from Ozon URLs and extracts
// prices from free-text search results.
package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

// productIDPatterns are tried in order; the first match wins.
// Ozon product IDs are runs of at least 7 digits.
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/product/[^/]*?(\d{7,})`),
	regexp.MustCompile(`(?i)/product/(\d{7,})`),
	regexp.MustCompile(`(?i)/context/detail/id/(\d{7,})`),
	regexp.MustCompile(`(?i)/item/(\d{7,})`),
}

var (
	shortCodePattern   = regexp.MustCompile(`/t/([A-Za-z0-9]+)`)
	productSlugPattern = regexp.MustCompile(`/product/([^/]+?)(?:-\d+)?/?$`)
	trailingDigits     = regexp.MustCompile(`-\d+$`)
)

var validHosts = map[string]bool{
	"ozon.ru":     true,
	"www.ozon.ru": true,
	"m.ozon.ru":   true,
}

// ExtractProductID extracts the numeric Ozon product ID from a URL.
// Returns "" when no pattern matches.
func ExtractProductID(rawURL string) string {
	for _, pattern := range productIDPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1]
		}
	}
	return ""
}

// IsShortURL reports whether the URL is an Ozon short link (/t/<code>)
func IsShortURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(parsed.Hostname(), "ozon.ru") && strings.HasPrefix(parsed.Path, "/t/")
}

// ExtractShortCode extracts the opaque code from an Ozon short link
func ExtractShortCode(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if match := shortCodePattern.FindStringSubmatch(parsed.Path); match != nil {
		return match[1]
	}
	return ""
}

// ExtractProductName derives a human-readable name from the URL slug:
// the trailing numeric ID is stripped and the dash-separated words are
// capitalized. Falls back to the placeholder name when there is no slug.
func ExtractProductName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.PlaceholderProductName
	}

	match := productSlugPattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return models.PlaceholderProductName
	}

	slug := trailingDigits.ReplaceAllString(match[1], "")
	words := strings.Split(slug, "-")
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// IsValidProductURL reports whether the URL points to a trackable Ozon
// product: an allow-listed host plus either a resolvable product ID or a
// short-link shape. Malformed URLs are invalid, never an error.
func IsValidProductURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if !validHosts[parsed.Hostname()] {
		return false
	}

	if ExtractProductID(rawURL) != "" {
		return true
	}

	return IsShortURL(rawURL)
}
