package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Debug       bool
	Port        string
	GinMode     string
	DBUrl       string
	FrontendURL string
	// Comma-separated extra CORS origins
	AllowedOrigins []string
	EnableSwagger  bool

	// Auth: HS256 shared secret and/or an RS256 JWKS endpoint
	JWTSecret  string
	JWKSURL    string
	CronSecret string

	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string

	Vincere   VincereConfig
	Sync      SyncConfig
	Storage   StorageConfig
	Hydration HydrationConfig
}

// VincereConfig holds the ATS tenant credentials.
type VincereConfig struct {
	Enabled          bool
	Domain           string
	ClientID         string
	APIKey           string
	RefreshToken     string
	RefreshTokenFile string
	Timeout          time.Duration
	// DictionaryPath points at the custom-field dictionary YAML. Empty uses
	// the embedded default.
	DictionaryPath string
}

// SyncConfig is the dispatcher and retry queue policy.
type SyncConfig struct {
	MaxAttempts   int
	RequestDelay  time.Duration
	AsyncTimeout  time.Duration
	Workers       int
	Backlog       int
	DrainLimit    int
	DrainInterval time.Duration
	StaleAfter    time.Duration
	LockTTL       time.Duration
}

// StorageConfig is the S3-compatible object store.
type StorageConfig struct {
	Provider        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
}

// HydrationConfig controls first-login imports and CV indexing.
type HydrationConfig struct {
	GeminiAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int
	MinTextLength       int
}

func LoadConfig() (*Config, error) {
	// Load .env file; absent in production
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Debug:          getEnvBool("DEBUG", false),
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		DBUrl:          getEnv("DATABASE_URL", ""),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		EnableSwagger:  getEnvBool("ENABLE_SWAGGER", false),

		JWTSecret:  getEnv("JWT_SECRET", getEnv("SUPABASE_JWT_SECRET", "")),
		JWKSURL:    getEnv("JWKS_URL", ""),
		CronSecret: getEnv("CRON_SECRET", ""),

		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),

		Vincere: VincereConfig{
			Enabled:          getEnvBool("VINCERE_ENABLED", false),
			Domain:           getEnv("VINCERE_DOMAIN", ""),
			ClientID:         getEnv("VINCERE_CLIENT_ID", ""),
			APIKey:           getEnv("VINCERE_API_KEY", ""),
			RefreshToken:     getEnv("VINCERE_REFRESH_TOKEN", ""),
			RefreshTokenFile: getEnv("VINCERE_REFRESH_TOKEN_FILE", ""),
			Timeout:          getEnvDuration("VINCERE_TIMEOUT", 30*time.Second),
			DictionaryPath:   getEnv("VINCERE_DICTIONARY_PATH", ""),
		},
		Sync: SyncConfig{
			MaxAttempts:   getEnvInt("SYNC_MAX_ATTEMPTS", 5),
			RequestDelay:  time.Duration(getEnvInt("SYNC_REQUEST_DELAY_MS", 200)) * time.Millisecond,
			AsyncTimeout:  getEnvDuration("SYNC_ASYNC_TIMEOUT", 2*time.Minute),
			Workers:       getEnvInt("SYNC_WORKERS", 4),
			Backlog:       getEnvInt("SYNC_BACKLOG", 256),
			DrainLimit:    getEnvInt("SYNC_DRAIN_LIMIT", 25),
			DrainInterval: getEnvDuration("SYNC_DRAIN_INTERVAL", 5*time.Minute),
			StaleAfter:    getEnvDuration("SYNC_STALE_AFTER", 15*time.Minute),
			LockTTL:       getEnvDuration("SYNC_LOCK_TTL", 2*time.Minute),
		},
		Storage: StorageConfig{
			Provider:        getEnv("S3_PROVIDER", "wasabi"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("S3_REGION", "ap-southeast-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Hydration: HydrationConfig{
			GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),
			MinTextLength:       getEnvInt("HYDRATION_MIN_TEXT_LENGTH", 200),
		},
	}

	if cfg.FrontendURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Locks and rate limits are process-local.")
	}
	if !cfg.Vincere.Enabled {
		log.Println("WARNING: VINCERE_ENABLED is false. ATS sync is disabled.")
	}

	return cfg, nil
}

// Validate rejects combinations that would fail later at request time.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && c.JWKSURL == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or JWKS_URL is required"))
	}
	if c.Vincere.Enabled {
		if c.Vincere.Domain == "" || c.Vincere.ClientID == "" || c.Vincere.APIKey == "" {
			errs = append(errs, errors.New("VINCERE_DOMAIN, VINCERE_CLIENT_ID and VINCERE_API_KEY are required when VINCERE_ENABLED"))
		}
		if c.Vincere.RefreshToken == "" && c.Vincere.RefreshTokenFile == "" {
			errs = append(errs, errors.New("VINCERE_REFRESH_TOKEN or VINCERE_REFRESH_TOKEN_FILE is required when VINCERE_ENABLED"))
		}
	}
	if c.Sync.MaxAttempts < 1 {
		errs = append(errs, errors.New("SYNC_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Sync.DrainLimit < 1 {
		errs = append(errs, errors.New("SYNC_DRAIN_LIMIT must be at least 1"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "15m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
