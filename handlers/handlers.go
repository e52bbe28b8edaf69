package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
	"github.com/solpolar1990-debug/ozon-price-tracker/repository"
	"github.com/solpolar1990-debug/ozon-price-tracker/scheduler"
	"github.com/solpolar1990-debug/ozon-price-tracker/scraper"
	"github.com/solpolar1990-debug/ozon-price-tracker/services"
)

// Handlers wires the HTTP surface to the tracker core
type Handlers struct {
	users         *repository.UserRepository
	products      *repository.ProductRepository
	notifications *repository.NotificationRepository
	tracker       *services.PriceTracker
	fetcher       *scraper.Fetcher
	tasks         *scheduler.TaskManager
	cronSecret    string
}

// NewHandlers creates the HTTP handler set
func NewHandlers(
	users *repository.UserRepository,
	products *repository.ProductRepository,
	notifications *repository.NotificationRepository,
	tracker *services.PriceTracker,
	fetcher *scraper.Fetcher,
	tasks *scheduler.TaskManager,
	cronSecret string,
) *Handlers {
	return &Handlers{
		users:         users,
		products:      products,
		notifications: notifications,
		tracker:       tracker,
		fetcher:       fetcher,
		tasks:         tasks,
		cronSecret:    cronSecret,
	}
}

// AddProductRequest is the payload for tracking a new product
type AddProductRequest struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	URL        string `json:"url"`
}

// RunPriceCheck triggers a full reconciliation run. Invoked by the
// external cron as well as manually; guarded by the cron secret.
func (h *Handlers) RunPriceCheck(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeCron(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	log.Println("🔄 Cron job started: checking prices...")

	result := h.tracker.CheckAllPrices(r.Context())
	stats := h.trackingStats(r)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"timestamp": time.Now().Format(time.RFC3339),
		"result":    result,
		"stats":     stats,
	})
}

// authorizeCron accepts requests carrying the configured secret.
// With no secret configured every request is allowed (development mode).
func (h *Handlers) authorizeCron(r *http.Request) bool {
	if h.cronSecret == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	return auth == "Bearer "+h.cronSecret
}

// GetStats returns aggregate tracking statistics
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.trackingStats(r))
}

func (h *Handlers) trackingStats(r *http.Request) models.TrackingStats {
	ctx := r.Context()
	stats := models.TrackingStats{}

	if count, err := h.products.CountProducts(ctx); err == nil {
		stats.TotalProducts = count
	}
	if count, err := h.users.CountUsers(ctx); err == nil {
		stats.TotalUsers = count
	}
	if count, err := h.notifications.CountNotifications(ctx); err == nil {
		stats.TotalNotifications = count
	}

	return stats
}

// ValidateURL reports whether a URL is a trackable Ozon product reference
func (h *Handlers) ValidateURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":   rawURL,
		"valid": scraper.IsValidProductURL(rawURL),
	})
}

// LookupProduct resolves a product URL and looks up its current price
func (h *Handlers) LookupProduct(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	if !scraper.IsValidProductURL(rawURL) {
		writeError(w, http.StatusBadRequest, "not a valid Ozon product URL")
		return
	}

	info := h.fetcher.Fetch(r.Context(), rawURL)
	if info == nil {
		writeError(w, http.StatusUnprocessableEntity, "could not resolve a product ID from the URL")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// AddProduct starts tracking a product for a user
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.TelegramID == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "telegram_id and url are required")
		return
	}

	if !scraper.IsValidProductURL(req.URL) {
		writeError(w, http.StatusBadRequest, "not a valid Ozon product URL")
		return
	}

	ctx := r.Context()

	user, err := h.users.UpsertUser(ctx, req.TelegramID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	info := h.fetcher.Fetch(ctx, req.URL)
	if info == nil {
		writeError(w, http.StatusUnprocessableEntity, "could not resolve a product ID from the URL")
		return
	}

	existing, err := h.products.FindByUserAndOzonID(ctx, user.ID, info.ProductID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check existing products")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "product is already tracked",
			"product": existing,
		})
		return
	}

	product, err := h.products.CreateProduct(ctx, user.ID, info.ProductID, req.URL, info.Name, info.Price, info.Image)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	if err := h.products.AddPriceHistory(ctx, product.ID, product.CurrentPrice); err != nil {
		log.Printf("Failed to record initial price point for %s: %v", product.ID, err)
	}

	writeJSON(w, http.StatusCreated, product)
}

// ListProducts returns a user's tracked products
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "telegram_id parameter is required")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	products, err := h.products.GetProductsByUser(ctx, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

// DeleteProduct removes a product from a user's tracking list
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]
	telegramID := r.URL.Query().Get("telegram_id")
	if telegramID == "" {
		writeError(w, http.StatusBadRequest, "telegram_id parameter is required")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.products.DeleteProduct(ctx, productID, user.ID); err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetPriceHistory returns recent price points for a product
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	history, err := h.products.GetPriceHistory(r.Context(), productID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get price history")
		return
	}
	if history == nil {
		history = []models.PriceHistory{}
	}

	writeJSON(w, http.StatusOK, history)
}

// GetProductNotifications returns the alert history of a product
func (h *Handlers) GetProductNotifications(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	ctx := r.Context()
	if _, err := h.products.GetProductByID(ctx, productID); err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	notifications, err := h.notifications.GetNotificationsByProduct(ctx, productID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, notifications)
}

// CheckUserNow runs a synchronous price check over one user's products
func (h *Handlers) CheckUserNow(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegramId"]

	user, err := h.users.GetUserByTelegramID(r.Context(), telegramID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	result := h.tracker.CheckUserPrices(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, result)
}

// CheckUserAsync queues a price check over one user's products
func (h *Handlers) CheckUserAsync(w http.ResponseWriter, r *http.Request) {
	telegramID := mux.Vars(r)["telegramId"]

	user, err := h.users.GetUserByTelegramID(r.Context(), telegramID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	task := h.tasks.SubmitTask(user.ID)
	writeJSON(w, http.StatusAccepted, task)
}

// GetTaskStatus returns the state of an async check task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.tasks.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// GetTaskStats returns task manager counters
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tasks.Stats())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
