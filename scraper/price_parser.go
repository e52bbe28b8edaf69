package scraper

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PriceInfo holds prices extracted from free text, in whole rubles.
// OriginalPrice is 0 when no crossed-out price was detected.
type PriceInfo struct {
	Price         int64
	OriginalPrice int64
}

// Search snippets mix several currency renderings in one blob, so each
// format is scanned independently and the survivors are merged.
var (
	// "RUB 310,00" — labeled currency code, decimal comma or dot
	labeledPricePattern = regexp.MustCompile(`(?i)RUB\s*(\d+(?:[.,]\d+)?)`)
	// "1 234 ₽" — space-grouped amount with a ruble sign
	groupedPricePattern = regexp.MustCompile(`(\d[\d\s\x{00A0}]{2,})\s*₽`)
	// "789₽" — compact amount glued to the ruble sign
	compactPricePattern = regexp.MustCompile(`(\d{3,})₽`)
)

const (
	minPlausiblePrice   = 100      // filters phone-number fragments and tiny noise
	maxLabeledPrice     = 100000   // the labeled form shows up on cheaper goods only
	maxPlausiblePrice   = 10000000 // upper sanity bound for ₽-suffixed amounts
	originalPriceFactor = 1.3      // gap ratio separating a crossed-out price from the current one
)

// ExtractPrice scans free text for plausible ruble amounts and picks the
// current price. The smallest surviving amount wins: snippets interleave
// discounted and crossed-out prices without reliable markup, and the
// discounted figure is the lower one. When the largest survivor exceeds
// the smallest by more than 30% it is reported as the original price.
// Returns nil when nothing survives the sanity bounds.
func ExtractPrice(text string) *PriceInfo {
	var prices []int64

	for _, match := range labeledPricePattern.FindAllStringSubmatch(text, -1) {
		normalized := strings.Replace(match[1], ",", ".", 1)
		value, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			continue
		}
		if value > minPlausiblePrice && value < maxLabeledPrice {
			prices = append(prices, int64(math.Round(value)))
		}
	}

	for _, match := range groupedPricePattern.FindAllStringSubmatch(text, -1) {
		digits := strings.Map(dropSpaces, match[1])
		value, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if value > minPlausiblePrice && value < maxPlausiblePrice {
			prices = append(prices, value)
		}
	}

	for _, match := range compactPricePattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		if value > minPlausiblePrice && value < maxPlausiblePrice {
			prices = append(prices, value)
		}
	}

	if len(prices) == 0 {
		return nil
	}

	unique := dedupSorted(prices)

	info := &PriceInfo{Price: unique[0]}

	highest := unique[len(unique)-1]
	if len(unique) > 1 && float64(highest) > float64(unique[0])*originalPriceFactor {
		info.OriginalPrice = highest
	}

	return info
}

func dropSpaces(r rune) rune {
	if r == ' ' || r == '\u00A0' || r == '\t' {
		return -1
	}
	return r
}

func dedupSorted(prices []int64) []int64 {
	seen := make(map[int64]bool, len(prices))
	var unique []int64
	for _, p := range prices {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}
