package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPriceLabeledFormat(t *testing.T) {
	info := ExtractPrice("RUB 310,00")
	require.NotNil(t, info)
	assert.Equal(t, int64(310), info.Price)
	assert.Equal(t, int64(0), info.OriginalPrice)
}

func TestExtractPriceGroupedWithOriginal(t *testing.T) {
	// The crossed-out price exceeds the discounted one by more than 30%
	info := ExtractPrice("1 990 ₽ 990 ₽")
	require.NotNil(t, info)
	assert.Equal(t, int64(990), info.Price)
	assert.Equal(t, int64(1990), info.OriginalPrice)
}

func TestExtractPriceCompactSingleCandidate(t *testing.T) {
	info := ExtractPrice("789₽")
	require.NotNil(t, info)
	assert.Equal(t, int64(789), info.Price)
	assert.Equal(t, int64(0), info.OriginalPrice)
}

func TestExtractPriceNoOriginalWithinGap(t *testing.T) {
	// 1234 is less than 990 * 1.3, so it is not a crossed-out price
	info := ExtractPrice("1 234 ₽ 990 ₽")
	require.NotNil(t, info)
	assert.Equal(t, int64(990), info.Price)
	assert.Equal(t, int64(0), info.OriginalPrice)
}

func TestExtractPriceMixedFormats(t *testing.T) {
	info := ExtractPrice("Смартфон по цене 12 990 ₽, было RUB 15990, или 12990₽ со скидкой")
	require.NotNil(t, info)
	assert.Equal(t, int64(12990), info.Price)
	// 15990 < 12990 * 1.3, so no original price is reported
	assert.Equal(t, int64(0), info.OriginalPrice)
}

func TestExtractPriceDeduplicates(t *testing.T) {
	info := ExtractPrice("799 ₽ 799₽ 799 ₽")
	require.NotNil(t, info)
	assert.Equal(t, int64(799), info.Price)
	assert.Equal(t, int64(0), info.OriginalPrice)
}

func TestExtractPriceNone(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no amounts", "Лучший смартфон на рынке"},
		{"amount without currency marker", "со скидкой 5000"},
		{"below sanity floor", "99 ₽"},
		{"at sanity floor", "100₽"},
		{"labeled above its bound", "RUB 150000"},
		{"grouped above its bound", "10 000 000 ₽"},
		{"phone number without ruble sign", "8 800 555 35 35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ExtractPrice(tt.text))
		})
	}
}

func TestExtractPriceNeverBelowFloor(t *testing.T) {
	texts := []string{
		"1₽ 5 ₽ RUB 10 50₽ 100₽",
		"101₽ 5 ₽",
		"RUB 100,99 777 ₽",
	}

	for _, text := range texts {
		info := ExtractPrice(text)
		if info != nil {
			assert.Greater(t, info.Price, int64(100), "text: %s", text)
		}
	}
}

func TestExtractPriceLabeledDecimalRounds(t *testing.T) {
	info := ExtractPrice("RUB 310,50")
	require.NotNil(t, info)
	assert.Equal(t, int64(311), info.Price)
}

func TestExtractPriceNonBreakingSpaces(t *testing.T) {
	info := ExtractPrice("12\u00A0990\u00A0₽")
	require.NotNil(t, info)
	assert.Equal(t, int64(12990), info.Price)
}
