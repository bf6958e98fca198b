package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/cache"
	"github.com/dustin/foodrec-backend/internal/embedding"
	"github.com/dustin/foodrec-backend/internal/product"
	"github.com/dustin/foodrec-backend/internal/profile"
	"github.com/dustin/foodrec-backend/internal/recommendation"
	"github.com/dustin/foodrec-backend/internal/repository"
	"github.com/dustin/foodrec-backend/internal/similarity"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/internal/worker"
	"github.com/dustin/foodrec-backend/pkg/database"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

func main() {
	// Load configuration from environment variables
	cfg := config.Load()

	// Initialize logger with validation and defaults
	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	appLogger.Info("Starting foodrec backend service")

	// Connect to database with validation and defaults
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database: " + err.Error())
	}
	appLogger.Info("Database connection established")

	if err := db.AutoMigrate(&product.Product{}); err != nil {
		appLogger.Fatal("Failed to migrate database: " + err.Error())
	}
	appLogger.Info("Database migration completed")

	// Vector index gateway: HTTP in production, in-process for development
	var gateway vectorindex.Gateway
	if cfg.VectorIndex.Mode == "memory" {
		gateway = vectorindex.NewMemory()
		appLogger.Info("Vector index gateway initialized in memory mode")
	} else {
		gateway = vectorindex.NewClient(&cfg.VectorIndex, appLogger)
		appLogger.Info("Vector index gateway initialized with URL: " + cfg.VectorIndex.URL)
	}

	embeddingClient := embedding.NewClient(&cfg.Embedding)
	appLogger.Info("Embedding client initialized with URL: " + cfg.Embedding.URL)

	resultCache := buildResultCache(&cfg.Cache, appLogger)

	// Scoring pipeline
	engine := similarity.NewEngine(similarityWeights(&cfg.Recommender))
	aggregator := profile.NewAggregator(gateway, appLogger)
	productRecommender := recommendation.NewProductRecommender(&cfg.Recommender, gateway, engine, resultCache, appLogger)
	userRecommender := recommendation.NewUserRecommender(&cfg.Recommender, gateway, aggregator, resultCache, appLogger)
	recommendationService := recommendation.NewService(productRecommender, userRecommender, gateway, appLogger)

	// Catalog ingestion
	productRepo := repository.NewGORMProductRepository(db, appLogger)
	productService := product.NewService(productRepo, embeddingClient, gateway, appLogger)

	// Initialize HTTP handlers
	productHandler := product.NewHandler(productService)
	recommendationHandler := recommendation.NewHandler(recommendationService, gateway)

	// Initialize background worker for failed index writes
	indexRetryWorker, err := worker.NewRetryWorker(
		&cfg.Worker,
		"product-index-retry",
		productService.RetryFailedIndexing,
		appLogger,
	)
	if err != nil {
		appLogger.Fatal("Failed to initialize retry worker: " + err.Error())
	}
	if err := indexRetryWorker.Start(); err != nil {
		appLogger.Error("Failed to start index retry worker: " + err.Error())
	}

	// Setup HTTP router with middleware
	router := gin.New()
	router.Use(requestid.New())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "foodrec-backend",
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":                 "healthy",
			"timestamp":              time.Now(),
			"service":                "foodrec-backend",
			"retry_worker":           indexRetryWorker.IsRunning(),
			"database":               "connected",
			"vector_index_available": gateway.IsAvailable(c.Request.Context()),
			"cache":                  resultCache.Stats(c.Request.Context()),
		})
	})

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production" // default
	}
	authMiddleware := createJWTMiddleware(jwtSecret)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		productHandler.RegisterRoutes(v1, authMiddleware)
		recommendationHandler.RegisterRoutes(v1, authMiddleware)
	}

	// Parse server configuration with defaults
	serverPort := cfg.Server.Port
	if serverPort == "" {
		serverPort = "8080" // default
	}

	serverReadTimeout := 30 * time.Second // default
	if cfg.Server.ReadTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.ReadTimeout); err == nil {
			serverReadTimeout = duration
		}
	}

	serverWriteTimeout := 30 * time.Second // default
	if cfg.Server.WriteTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.WriteTimeout); err == nil {
			serverWriteTimeout = duration
		}
	}

	serverEnvironment := cfg.Server.Environment
	if serverEnvironment == "" {
		serverEnvironment = "development" // default
	}

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	// Start server in goroutine for graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server: " + err.Error())
		}
	}()

	appLogger.Info("Server started successfully on port " + serverPort + " (" + serverEnvironment + " environment)")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Stop retry worker first
	if err := indexRetryWorker.Stop(); err != nil {
		appLogger.Error("Error stopping retry worker: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown: " + err.Error())
	}

	appLogger.Info("Server shutdown complete")
}

// buildResultCache selects the cache backend from config. Memory is the
// default; redis serves multi-replica deployments.
func buildResultCache(cfg *config.CacheConfig, appLogger *logger.Logger) cache.Store {
	ttl := cache.DefaultTTL
	if cfg.TTL != "" {
		if duration, err := time.ParseDuration(cfg.TTL); err == nil {
			ttl = duration
		}
	}

	if cfg.Backend == "redis" {
		redisAddr := cfg.RedisAddr
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		redisDB := 0
		if cfg.RedisDB != "" {
			if parsed, err := strconv.Atoi(cfg.RedisDB); err == nil {
				redisDB = parsed
			}
		}

		client := redis.NewClient(&redis.Options{
			Addr: redisAddr,
			DB:   redisDB,
		})
		appLogger.Info("Result cache initialized with redis backend: " + redisAddr)
		return cache.NewRedis(client, ttl, appLogger)
	}

	maxEntries := cache.DefaultMaxEntries
	if cfg.MaxEntries != "" {
		if parsed, err := strconv.Atoi(cfg.MaxEntries); err == nil && parsed > 0 {
			maxEntries = parsed
		}
	}
	appLogger.Info("Result cache initialized with memory backend")
	return cache.NewMemory(ttl, maxEntries)
}

// similarityWeights parses the fusion weight knobs, falling back to the
// default scoring policy.
func similarityWeights(cfg *config.RecommenderConfig) similarity.Weights {
	weights := similarity.DefaultWeights()
	if value, err := strconv.ParseFloat(cfg.NutritionWeight, 64); err == nil && value > 0 {
		weights.Nutrition = value
	}
	if value, err := strconv.ParseFloat(cfg.IngredientWeight, 64); err == nil && value > 0 {
		weights.Ingredient = value
	}
	return weights
}

// createJWTMiddleware creates a simple JWT validation middleware
func createJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
