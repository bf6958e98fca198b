package config

// Config contains all configuration grouped by domain
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Worker      WorkerConfig
	Logging     LoggingConfig
	VectorIndex VectorIndexConfig
	Embedding   EmbeddingConfig
	Cache       CacheConfig
	Recommender RecommenderConfig
}

// All config structs use string fields only - packages handle conversion during initialization
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  string
	WriteTimeout string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret     string
	Expiration string
}

type WorkerConfig struct {
	RetryInterval string
}

type LoggingConfig struct {
	Level       string
	Format      string
	ServiceName string
}

type VectorIndexConfig struct {
	Mode           string // "http" (default) or "memory" for local development
	URL            string
	RequestTimeout string
	HealthInterval string
}

type EmbeddingConfig struct {
	URL            string
	RequestTimeout string
}

type CacheConfig struct {
	Backend    string // "memory" (default) or "redis"
	TTL        string
	MaxEntries string
	RedisAddr  string
	RedisDB    string
}

// RecommenderConfig carries the scoring policy knobs. The default values are
// fixed product decisions, not tuned from data - see similarity.DefaultWeights.
type RecommenderConfig struct {
	NutritionWeight  string
	IngredientWeight string
	DefaultLimit     string
	UserDefaultLimit string
	MaxLimit         string
}
