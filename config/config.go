package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Favorite keying modes.
const (
	// FavoriteKeyingCaller 收藏记录归属于调用者本人
	FavoriteKeyingCaller = "caller"
	// FavoriteKeyingOwner 收藏记录归属于歌曲所有者（旧版行为）
	FavoriteKeyingOwner = "owner"
)

// Authorization modes for attaching covers and deleting songs.
const (
	// AuthPolicyOwner 歌曲所有者或管理员
	AuthPolicyOwner = "owner"
	// AuthPolicyOpen 任意已登录用户（旧版行为）
	AuthPolicyOpen = "open"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	DBDriver   string // mysql or sqlite
	DBPath     string // sqlite database file
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBLogSQL   bool

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 身份校验
	JWTSecret   string
	JWTIssuer   string
	AdminTokens []string
	AuthPolicy  string

	FavoriteKeying   string
	SignedURLTTL     time.Duration // lifetime of presigned playback URLs
	UploadURLTTL     time.Duration // lifetime of one-time upload URLs
	UploadRatePerMin int

	LogLevel      string
	LogPath       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	keying := strings.ToLower(getEnv("FAVORITE_KEYING", FavoriteKeyingCaller))
	if keying != FavoriteKeyingOwner {
		keying = FavoriteKeyingCaller
	}
	policy := strings.ToLower(getEnv("AUTH_POLICY", AuthPolicyOwner))
	if policy != AuthPolicyOpen {
		policy = AuthPolicyOwner
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBPath:     getEnv("DB_PATH", "tunebox.db"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for the password
		DBName:     getEnv("DB_NAME", "tunebox"),
		DBLogSQL:   getEnvBool("DB_LOG_SQL", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "tunebox"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   getEnv("JWT_ISSUER", ""),
		AdminTokens: getEnvList("ADMIN_TOKENS"),
		AuthPolicy:  policy,

		FavoriteKeying:   keying,
		SignedURLTTL:     getEnvDuration("SIGNED_URL_TTL", time.Hour),
		UploadURLTTL:     getEnvDuration("UPLOAD_URL_TTL", 15*time.Minute),
		UploadRatePerMin: getEnvInt("UPLOAD_RATE_PER_MIN", 30),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
	}
}
