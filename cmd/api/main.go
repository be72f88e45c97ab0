package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"voxcart-core-auth-layer/internal/application"
	"voxcart-core-auth-layer/internal/config"
	apiinfra "voxcart-core-auth-layer/internal/infrastructure/api"
	"voxcart-core-auth-layer/internal/infrastructure/encryption"
	"voxcart-core-auth-layer/internal/infrastructure/metrics"
	"voxcart-core-auth-layer/internal/infrastructure/repository"
	shopifyinfra "voxcart-core-auth-layer/internal/infrastructure/shopify"
	"voxcart-core-auth-layer/internal/infrastructure/statecache"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	securitymiddleware "voxcart-core-auth-layer/internal/infrastructure/middleware"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)

	// Connect to Redis. The state store runs without this tier when it is
	// down, so a failed ping only warns.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable at startup, continuing with memory and cookie state tiers")
	}

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Initialize repositories
	sessionRepo := repository.NewMongoSessionRepository(db, encryptionService)
	stateRepo := repository.NewRedisStateRepository(redisClient)

	stateCache := statecache.New(statecache.DefaultSweepInterval, logger)
	defer stateCache.Stop()

	authMetrics := metrics.New(prometheus.DefaultRegisterer)

	platformClient := shopifyinfra.NewClient(
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.Scopes,
		cfg.AppURL+"/auth/callback",
		logger,
	)

	// Initialize application services
	stateStore := application.NewStateStore(
		stateRepo,
		stateCache,
		authMetrics,
		logger,
		cfg.StateTTL,
		cfg.SecureCookies(),
	)

	authService := application.NewAuthService(
		stateStore,
		sessionRepo,
		platformClient,
		authMetrics,
		logger,
		cfg.AppURL,
		cfg.ValidateTokens,
	)

	authHandlers := apiinfra.NewAuthHandlers(authService, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.InputValidationMiddleware(logger))
	r.Use(securitymiddleware.AuditLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation - public
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // The URL pointing to API definition
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth routes. Begin is rate limited per client address, the callback
	// is guarded by signature verification instead.
	r.Group(func(r chi.Router) {
		r.Use(securitymiddleware.RateLimitMiddleware(logger, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
		r.Get("/auth/begin", authHandlers.HandleBegin)
	})
	r.Get("/auth/callback", authHandlers.HandleCallback)

	logger.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
