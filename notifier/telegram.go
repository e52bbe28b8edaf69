// Package notifier delivers price-change alerts to users over the
// Telegram Bot API.
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends price-change messages through a bot.
// Delivery failures are reported as false, never as errors.
type TelegramNotifier struct {
	client  *resty.Client
	apiBase string
	token   string
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier creates a notifier for the given bot token.
// An empty token produces a notifier that drops every message.
func NewTelegramNotifier(token string, timeout time.Duration) *TelegramNotifier {
	client := resty.New()
	client.SetTimeout(timeout)

	return &TelegramNotifier{
		client:  client,
		apiBase: telegramAPIBase,
		token:   token,
	}
}

// NotifyPriceChange sends a price-change alert to a Telegram chat and
// reports whether delivery succeeded.
func (n *TelegramNotifier) NotifyPriceChange(ctx context.Context, chatID string, product models.Product, oldPrice int64, percentChange float64) bool {
	if n.token == "" {
		log.Println("Telegram bot token not configured, dropping notification")
		return false
	}

	message := BuildPriceChangeMessage(product, oldPrice, percentChange)

	method := "sendMessage"
	body := map[string]string{
		"chat_id":    chatID,
		"text":       message,
		"parse_mode": "HTML",
	}
	if product.Image.Valid && product.Image.String != "" {
		method = "sendPhoto"
		body = map[string]string{
			"chat_id":    chatID,
			"photo":      product.Image.String,
			"caption":    message,
			"parse_mode": "HTML",
		}
	}

	var parsed telegramResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post(fmt.Sprintf("%s/bot%s/%s", n.apiBase, n.token, method))
	if err != nil {
		log.Printf("Failed to send notification to chat %s: %v", chatID, err)
		return false
	}
	if !parsed.OK {
		log.Printf("Telegram rejected notification to chat %s (status %d): %s", chatID, resp.StatusCode(), parsed.Description)
		return false
	}

	return true
}

// BuildPriceChangeMessage renders the alert text in Telegram HTML markup
func BuildPriceChangeMessage(product models.Product, oldPrice int64, percentChange float64) string {
	changeEmoji := "📈"
	closing := "⚠️ Цена выросла"
	if percentChange < 0 {
		changeEmoji = "📉"
		closing = "🎉 Хорошая возможность для покупки!"
	}

	sign := ""
	if percentChange > 0 {
		sign = "+"
	}

	name := product.Name
	ellipsis := ""
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
		ellipsis = "..."
	}

	return fmt.Sprintf(`
%s <b>Цена изменилась!</b>

📦 <b>%s%s</b>

💰 Была: %s
💰 Стала: <b>%s</b>
📊 Изменение: %s%.1f%%

🔗 <a href="%s">Открыть на Ozon</a>

%s
`,
		changeEmoji, name, ellipsis,
		models.FormatPrice(oldPrice), models.FormatPrice(product.CurrentPrice),
		sign, percentChange,
		product.URL, closing,
	)
}
