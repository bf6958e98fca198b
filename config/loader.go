package config

import "os"

// Load reads configuration from environment variables as raw strings
// Components handle validation and defaults during initialization
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         os.Getenv("SERVER_PORT"),
			Environment:  os.Getenv("SERVER_ENV"),
			ReadTimeout:  os.Getenv("SERVER_READ_TIMEOUT"),
			WriteTimeout: os.Getenv("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Expiration: os.Getenv("JWT_EXPIRATION"),
		},
		Worker: WorkerConfig{
			RetryInterval: os.Getenv("WORKER_RETRY_INTERVAL"),
		},
		Logging: LoggingConfig{
			Level:       os.Getenv("LOG_LEVEL"),
			Format:      os.Getenv("LOG_FORMAT"),
			ServiceName: os.Getenv("SERVICE_NAME"),
		},
		VectorIndex: VectorIndexConfig{
			Mode:           os.Getenv("VECTOR_INDEX_MODE"),
			URL:            os.Getenv("VECTOR_INDEX_URL"),
			RequestTimeout: os.Getenv("VECTOR_INDEX_TIMEOUT"),
			HealthInterval: os.Getenv("VECTOR_INDEX_HEALTH_INTERVAL"),
		},
		Embedding: EmbeddingConfig{
			URL:            os.Getenv("EMBEDDING_SERVICE_URL"),
			RequestTimeout: os.Getenv("EMBEDDING_SERVICE_TIMEOUT"),
		},
		Cache: CacheConfig{
			Backend:    os.Getenv("CACHE_BACKEND"),
			TTL:        os.Getenv("CACHE_TTL"),
			MaxEntries: os.Getenv("CACHE_MAX_ENTRIES"),
			RedisAddr:  os.Getenv("CACHE_REDIS_ADDR"),
			RedisDB:    os.Getenv("CACHE_REDIS_DB"),
		},
		Recommender: RecommenderConfig{
			NutritionWeight:  os.Getenv("RECOMMENDER_NUTRITION_WEIGHT"),
			IngredientWeight: os.Getenv("RECOMMENDER_INGREDIENT_WEIGHT"),
			DefaultLimit:     os.Getenv("RECOMMENDER_DEFAULT_LIMIT"),
			UserDefaultLimit: os.Getenv("RECOMMENDER_USER_DEFAULT_LIMIT"),
			MaxLimit:         os.Getenv("RECOMMENDER_MAX_LIMIT"),
		},
	}
}
