package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PlaceholderProductName is stored when a product's real name is not yet
// known. The tracker replaces it as soon as a lookup yields a better one.
const PlaceholderProductName = "Товар Ozon"

// User represents a Telegram user who tracks products
type User struct {
	ID         string    `json:"id" db:"id"`
	TelegramID string    `json:"telegram_id" db:"telegram_id"`
	Username   string    `json:"username" db:"username"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Product represents a tracked Ozon product.
// Prices are stored in kopecks; 0 is the "not yet known" sentinel,
// never a real price.
type Product struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	OzonProductID string         `json:"ozon_product_id" db:"ozon_product_id"`
	URL           string         `json:"url" db:"url"`
	Name          string         `json:"name" db:"name"`
	CurrentPrice  int64          `json:"current_price" db:"current_price"`
	InitialPrice  int64          `json:"initial_price" db:"initial_price"`
	Image         sql.NullString `json:"-" db:"image"`
	LastCheckedAt *time.Time     `json:"last_checked_at" db:"last_checked_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// HasKnownPrice returns true if the current price has been established
func (p *Product) HasKnownPrice() bool {
	return p.CurrentPrice > 0
}

// HasPlaceholderName returns true if the product still carries the default name
func (p *Product) HasPlaceholderName() bool {
	return p.Name == PlaceholderProductName
}

// MarshalJSON exposes the image column as a plain string field
func (p *Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	var image string
	if p.Image.Valid {
		image = p.Image.String
	}
	return json.Marshal(&struct {
		*Alias
		Image string `json:"image,omitempty"`
	}{
		Alias: (*Alias)(p),
		Image: image,
	})
}

// TrackedProduct is a product joined with its owner's Telegram chat ID,
// as loaded for a reconciliation run.
type TrackedProduct struct {
	Product
	TelegramID string `json:"telegram_id" db:"telegram_id"`
}

// PriceHistory represents one observed price point. Rows are append-only.
type PriceHistory struct {
	ID        int64     `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Price     int64     `json:"price" db:"price"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}

// Notification records a delivered price-change alert
type Notification struct {
	ID            int64     `json:"id" db:"id"`
	ProductID     string    `json:"product_id" db:"product_id"`
	OldPrice      int64     `json:"old_price" db:"old_price"`
	NewPrice      int64     `json:"new_price" db:"new_price"`
	PercentChange float64   `json:"percent_change" db:"percent_change"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ProductInfo is the result of a price lookup for a single reference URL.
// Price and OriginalPrice are kopecks; Price 0 means the lookup found no
// extractable price.
type ProductInfo struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	OriginalPrice int64  `json:"original_price,omitempty"`
	Image         string `json:"image,omitempty"`
	InStock       bool   `json:"in_stock"`
}

// ProductUpdate describes a partial update applied after a price check.
// Nil pointer fields are left untouched.
type ProductUpdate struct {
	ID            string
	CurrentPrice  *int64
	InitialPrice  *int64
	Name          *string
	LastCheckedAt time.Time
}

// CheckAllResult summarizes a full reconciliation run
type CheckAllResult struct {
	TotalChecked      int      `json:"total_checked"`
	NotificationsSent int      `json:"notifications_sent"`
	Errors            []string `json:"errors"`
}

// UserCheckResult summarizes a user-scoped reconciliation run
type UserCheckResult struct {
	Checked int      `json:"checked"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// TrackingStats holds aggregate tracking counters
type TrackingStats struct {
	TotalProducts      int `json:"total_products"`
	TotalUsers         int `json:"total_users"`
	TotalNotifications int `json:"total_notifications"`
}

// PriceChangePercent computes the percent change between two kopeck
// prices. Either operand being the zero sentinel yields exactly 0.
func PriceChangePercent(oldPrice, newPrice int64) float64 {
	if oldPrice == 0 || newPrice == 0 {
		return 0
	}
	return float64(newPrice-oldPrice) / float64(oldPrice) * 100
}

// FormatPrice renders a kopeck amount as whole rubles with thousands
// grouping, e.g. 1234500 -> "12 345 ₽". The zero sentinel renders as a
// "pending" marker, never as a free product.
func FormatPrice(kopecks int64) string {
	if kopecks == 0 {
		return "⏳ уточняется"
	}
	rubles := kopecks / 100
	var digits []byte
	for rubles > 0 {
		digits = append(digits, byte('0'+rubles%10))
		rubles /= 10
	}
	var out []byte
	for i := len(digits) - 1; i >= 0; i-- {
		out = append(out, digits[i])
		if i > 0 && i%3 == 0 {
			out = append(out, ' ')
		}
	}
	return string(out) + " ₽"
}
