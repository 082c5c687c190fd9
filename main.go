package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/darfolio/backend/src/config"
	"github.com/username/darfolio/backend/src/database"
	"github.com/username/darfolio/backend/src/handlers"
	"github.com/username/darfolio/backend/src/logger"
	"github.com/username/darfolio/backend/src/processors"
	"github.com/username/darfolio/backend/src/services"
	"github.com/username/darfolio/backend/src/taxrules"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool)
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loadTaxRules() *taxrules.Resolver {
	if config.Cfg.TaxRulesPath == "" {
		logger.L.Info("Using compiled-in tax rule tables")
		return taxrules.Default()
	}
	resolver, err := taxrules.Load(config.Cfg.TaxRulesPath)
	if err != nil {
		stdlog.Fatalf("failed to load tax rules from %s: %v", config.Cfg.TaxRulesPath, err)
	}
	logger.L.Info("Tax rule tables loaded", "path", config.Cfg.TaxRulesPath)
	return resolver
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Darfolio backend server starting...")

	limiter = rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	taxRules := loadTaxRules()
	reportCache := cache.New(config.Cfg.ReportCacheExpiration, config.Cfg.ReportCacheCleanupInterval)

	operationStore := services.NewSQLiteOperationStore(database.DB)
	positionProcessor := processors.NewPositionProcessor(taxRules)
	monthlyAggregator := processors.NewMonthlyAggregator()
	taxProcessor := processors.NewTaxProcessor(taxRules)

	darfService := services.NewDarfService(
		operationStore,
		positionProcessor,
		monthlyAggregator,
		taxProcessor,
		reportCache,
	)

	operationHandler := handlers.NewOperationHandler(darfService)
	darfHandler := handlers.NewDarfHandler(darfService)
	portfolioHandler := handlers.NewPortfolioHandler(darfService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Darfolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "service": "darfolio"})
		})

		r.Post("/operations", operationHandler.HandleCreateOperation)
		r.Get("/operations", operationHandler.HandleListOperations)
		r.Delete("/operations/{id}", operationHandler.HandleDeleteOperation)
		r.Get("/assets/types", operationHandler.HandleGetAssetTypes)

		r.Get("/darf/calculate/{year}/{month}", darfHandler.HandleCalculateDARF)

		r.Get("/portfolio/summary", portfolioHandler.HandleGetPortfolioSummary)
		r.Get("/portfolio/positions", portfolioHandler.HandleGetPositions)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
