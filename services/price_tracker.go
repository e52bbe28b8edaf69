// Package services contains the reconciliation engine that keeps tracked
// product prices up to date and decides when users get notified.
package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

// PriceChangeThreshold is the absolute percent change that triggers a
// user notification.
const PriceChangeThreshold = 10.0

// ProductStore is the storage surface the tracker needs for products
type ProductStore interface {
	AllForCheck(ctx context.Context) ([]models.TrackedProduct, error)
	ByUser(ctx context.Context, userID string) ([]models.TrackedProduct, error)
	ApplyCheckUpdate(ctx context.Context, upd models.ProductUpdate) error
	AddPriceHistory(ctx context.Context, productID string, price int64) error
}

// NotificationStore records delivered alerts
type NotificationStore interface {
	RecordNotification(ctx context.Context, n models.Notification) error
}

// ProductFetcher looks up the current price for a product reference URL.
// A nil result means the reference could not be resolved at all.
type ProductFetcher interface {
	Fetch(ctx context.Context, rawURL string) *models.ProductInfo
}

// Notifier delivers a price-change alert; false means delivery failed
type Notifier interface {
	NotifyPriceChange(ctx context.Context, chatID string, product models.Product, oldPrice int64, percentChange float64) bool
}

// PriceTracker re-derives prices for tracked products and reconciles
// them against stored state. Item failures never abort a run.
type PriceTracker struct {
	products      ProductStore
	notifications NotificationStore
	fetcher       ProductFetcher
	notifier      Notifier
	workers       int
}

// NewPriceTracker creates a reconciliation engine. workers bounds the
// fan-out of full runs; values below 1 fall back to sequential checking.
func NewPriceTracker(products ProductStore, notifications NotificationStore, fetcher ProductFetcher, notifier Notifier, workers int) *PriceTracker {
	if workers < 1 {
		workers = 1
	}
	return &PriceTracker{
		products:      products,
		notifications: notifications,
		fetcher:       fetcher,
		notifier:      notifier,
		workers:       workers,
	}
}

// checkOutcome is the collected result of one item in a run
type checkOutcome struct {
	notified bool
	errMsg   string
}

// CheckAllPrices re-checks every tracked product and notifies owners of
// changes at or above the threshold. The checked counter reflects
// attempted checks; per-item failures are collected as strings and the
// batch always runs to completion.
func (t *PriceTracker) CheckAllPrices(ctx context.Context) models.CheckAllResult {
	result := models.CheckAllResult{Errors: []string{}}

	log.Println("🔍 Starting price check for all products...")

	products, err := t.products.AllForCheck(ctx)
	if err != nil {
		log.Printf("Failed to load products for check: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load products: %v", err))
		return result
	}

	log.Printf("📦 Found %d products to check", len(products))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sem      = make(chan struct{}, t.workers)
		outcomes = make([]checkOutcome, 0, len(products))
	)

	for _, product := range products {
		// Counted before any fallible work: attempted, not succeeded.
		result.TotalChecked++

		wg.Add(1)
		sem <- struct{}{}
		go func(tp models.TrackedProduct) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := t.checkProduct(ctx, tp)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}(product)
	}

	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.notified {
			result.NotificationsSent++
		}
		if outcome.errMsg != "" {
			result.Errors = append(result.Errors, outcome.errMsg)
		}
	}

	log.Printf("✅ Price check complete. Checked: %d, Notifications: %d, Errors: %d",
		result.TotalChecked, result.NotificationsSent, len(result.Errors))

	return result
}

// checkProduct reconciles one product: fetch, persist, maybe notify.
// Every failure is converted to an error string so the batch continues.
func (t *PriceTracker) checkProduct(ctx context.Context, tp models.TrackedProduct) checkOutcome {
	info := t.fetcher.Fetch(ctx, tp.URL)
	if info == nil {
		return checkOutcome{errMsg: fmt.Sprintf("Failed to fetch price for product %s", tp.ID)}
	}

	oldPrice := tp.CurrentPrice
	newPrice := info.Price

	upd := models.ProductUpdate{ID: tp.ID, LastCheckedAt: time.Now()}
	if newPrice > 0 {
		upd.CurrentPrice = &newPrice
	}
	if tp.HasPlaceholderName() && info.Name != models.PlaceholderProductName {
		upd.Name = &info.Name
	}

	if err := t.products.ApplyCheckUpdate(ctx, upd); err != nil {
		return checkOutcome{errMsg: fmt.Sprintf("Error checking product %s: %v", tp.ID, err)}
	}

	if newPrice > 0 {
		if err := t.products.AddPriceHistory(ctx, tp.ID, newPrice); err != nil {
			return checkOutcome{errMsg: fmt.Sprintf("Error checking product %s: %v", tp.ID, err)}
		}
	}

	percentChange := models.PriceChangePercent(oldPrice, newPrice)

	log.Printf("💰 Product %s: %s → %s (%+.1f%%)",
		tp.ID, models.FormatPrice(oldPrice), models.FormatPrice(newPrice), percentChange)

	if newPrice > 0 && math.Abs(percentChange) >= PriceChangeThreshold {
		updated := tp.Product
		updated.CurrentPrice = newPrice
		if info.Name != models.PlaceholderProductName {
			updated.Name = info.Name
		}

		if sent := t.notifier.NotifyPriceChange(ctx, tp.TelegramID, updated, oldPrice, percentChange); sent {
			n := models.Notification{
				ProductID:     tp.ID,
				OldPrice:      oldPrice,
				NewPrice:      newPrice,
				PercentChange: percentChange,
			}
			if err := t.notifications.RecordNotification(ctx, n); err != nil {
				return checkOutcome{errMsg: fmt.Sprintf("Error checking product %s: %v", tp.ID, err)}
			}
			return checkOutcome{notified: true}
		}
	}

	return checkOutcome{}
}

// CheckUserPrices re-checks one user's products. Unlike the full run it
// backfills the initial price when it is still the zero sentinel, and
// reports how many products actually changed.
func (t *PriceTracker) CheckUserPrices(ctx context.Context, userID string) models.UserCheckResult {
	result := models.UserCheckResult{Errors: []string{}}

	products, err := t.products.ByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to load products for user %s: %v", userID, err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load products: %v", err))
		return result
	}

	for _, tp := range products {
		result.Checked++

		info := t.fetcher.Fetch(ctx, tp.URL)
		if info == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Не найден: %s", truncateName(tp.Name, 30)))
			continue
		}

		upd := models.ProductUpdate{ID: tp.ID, LastCheckedAt: time.Now()}
		hasUpdate := false

		if info.Price > 0 {
			price := info.Price
			upd.CurrentPrice = &price
			initial := tp.InitialPrice
			if initial == 0 {
				initial = price
			}
			upd.InitialPrice = &initial
			hasUpdate = true

			if err := t.products.AddPriceHistory(ctx, tp.ID, price); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Ошибка: %s - %v", truncateName(tp.Name, 30), err))
				continue
			}
		}

		if tp.HasPlaceholderName() && info.Name != models.PlaceholderProductName {
			upd.Name = &info.Name
			hasUpdate = true
		}

		if hasUpdate {
			if err := t.products.ApplyCheckUpdate(ctx, upd); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Ошибка: %s - %v", truncateName(tp.Name, 30), err))
				continue
			}
			result.Updated++
		}
	}

	return result
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit])
}
