package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/solpolar1990-debug/ozon-price-tracker/config"
	"github.com/solpolar1990-debug/ozon-price-tracker/database"
	"github.com/solpolar1990-debug/ozon-price-tracker/handlers"
	"github.com/solpolar1990-debug/ozon-price-tracker/middleware"
	"github.com/solpolar1990-debug/ozon-price-tracker/notifier"
	"github.com/solpolar1990-debug/ozon-price-tracker/repository"
	"github.com/solpolar1990-debug/ozon-price-tracker/scheduler"
	"github.com/solpolar1990-debug/ozon-price-tracker/scraper"
	"github.com/solpolar1990-debug/ozon-price-tracker/search"
	"github.com/solpolar1990-debug/ozon-price-tracker/services"
)

var startTime = time.Now()

// Metrics struct for basic monitoring
type Metrics struct {
	Timestamp       time.Time `json:"timestamp"`
	Uptime          string    `json:"uptime"`
	Goroutines      int       `json:"goroutines"`
	MemoryUsage     string    `json:"memory_usage"`
	TrackedProducts int       `json:"tracked_products"`
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create tables
	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	productRepo := repository.NewProductRepository()
	notificationRepo := repository.NewNotificationRepository()

	// Initialize the search backend
	var searchClient search.Client
	if cfg.SearchProvider == "google" && cfg.GoogleAPIKey != "" && cfg.GoogleSearchEngineID != "" {
		searchClient = search.NewGoogleClient(cfg.GoogleAPIKey, cfg.GoogleSearchEngineID, cfg.SearchTimeout)
		log.Println("Using Google Custom Search")
	} else {
		searchClient = search.NewDuckDuckGoClient(cfg.SearchTimeout)
		log.Println("Using DuckDuckGo search")
	}

	// Initialize lookup, notifier and the reconciliation engine
	fetcher := scraper.NewFetcher(searchClient)
	telegramNotifier := notifier.NewTelegramNotifier(cfg.TelegramBotToken, cfg.NotifyTimeout)
	tracker := services.NewPriceTracker(productRepo, notificationRepo, fetcher, telegramNotifier, cfg.CheckWorkers)

	// Initialize and start the scheduled price checker
	priceChecker := scheduler.NewPriceChecker(tracker, cfg.CronSpec, cfg.CheckRunTimeout)
	priceChecker.Start()
	defer priceChecker.Stop()

	// Initialize the async task manager for on-demand user checks
	taskManager := scheduler.NewTaskManager(tracker.CheckUserPrices, cfg.CheckWorkers, cfg.CheckRunTimeout)
	defer taskManager.Stop()

	// Initialize handlers
	h := handlers.NewHandlers(userRepo, productRepo, notificationRepo, tracker, fetcher, taskManager, cfg.CronSecret)

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitRPS)))

	// Health and monitoring endpoints
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/metrics", getMetrics).Methods("GET")
	r.HandleFunc("/stats", h.GetStats).Methods("GET")

	// Cron entry point (secret-guarded)
	r.HandleFunc("/api/cron/check-prices", h.RunPriceCheck).Methods("GET", "POST")

	// API v1 routes
	apiV1 := r.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/validate", h.ValidateURL).Methods("GET")
	apiV1.HandleFunc("/lookup", h.LookupProduct).Methods("GET")

	apiV1.HandleFunc("/products", h.AddProduct).Methods("POST")
	apiV1.HandleFunc("/products", h.ListProducts).Methods("GET")
	apiV1.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	apiV1.HandleFunc("/products/{id}/history", h.GetPriceHistory).Methods("GET")
	apiV1.HandleFunc("/products/{id}/notifications", h.GetProductNotifications).Methods("GET")

	apiV1.HandleFunc("/users/{telegramId}/check", h.CheckUserNow).Methods("POST")
	apiV1.HandleFunc("/users/{telegramId}/check-async", h.CheckUserAsync).Methods("POST")

	apiV1.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	apiV1.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("🌐 Server starting on port %s", cfg.Port)
	log.Printf("📋 Endpoints:")
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /metrics - System metrics")
	log.Printf("   GET  /stats - Tracking statistics")
	log.Printf("   GET  /api/cron/check-prices - Run full price check")
	log.Printf("   POST /api/v1/products - Track a product")
	log.Printf("   GET  /api/v1/products - List tracked products")
	log.Printf("   GET  /api/v1/lookup - Look up a product price")

	// Start server
	log.Fatal(http.ListenAndServe(cfg.Host+":"+cfg.Port, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service":     "ozon-price-tracker",
		"status":      "healthy",
		"timestamp":   time.Now(),
		"api_version": "v1",
	}
	writeJSON(w, http.StatusOK, response)
}

func getMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	productRepo := repository.NewProductRepository()
	trackedProducts, err := productRepo.CountProducts(r.Context())
	if err != nil {
		trackedProducts = 0
	}

	metricsData := Metrics{
		Timestamp:       time.Now(),
		Uptime:          time.Since(startTime).String(),
		Goroutines:      runtime.NumGoroutine(),
		MemoryUsage:     fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
		TrackedProducts: trackedProducts,
	}

	writeJSON(w, http.StatusOK, metricsData)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
