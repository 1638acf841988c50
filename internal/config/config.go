package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const testJWTSecret = "test_secret_key_minimum_32_characters_long_for_testing_only"

type Config struct {
	AppEnv      string
	ServerAddr  string
	APIPrefix   string
	CORSOrigins string
	BodyLimitMB int

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	MongoURI      string
	MongoDatabase string

	RedisURL string

	Storage StorageConfig

	JWTSecret    string
	JWTExpiresIn time.Duration

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	OTELEnabled     bool
	OTELServiceName string
	OTELProtocol    string

	LogLevel  string
	LogFormat string
}

// StorageConfig groups the credentials of every supported object store.
// Only the block matching Driver is required.
type StorageConfig struct {
	Driver string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	CloudFrontURL string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string

	UploadDir string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":5000"),
		APIPrefix:   getEnv("API_PREFIX", "/api"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 110),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mongo")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pixelarts"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "pixelarts.db"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "pixelarts"),

		RedisURL: getEnv("REDIS_URL", ""),

		Storage: StorageConfig{
			CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "pixelarts-media"),

			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", ""),
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
			CloudFrontURL: getEnv("CLOUDFRONT_URL", ""),

			MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinIOBucket:    getEnv("MINIO_BUCKET", "pixelarts-media"),
			MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),
			MinIOPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		},

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:5000/api/auth/google/callback"),

		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "pixelarts-api"),
		OTELProtocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", defaultStorageDriver(cfg.Storage)))

	if cfg.JWTSecret == "" && cfg.IsTest() {
		cfg.JWTSecret = testJWTSecret
	}

	return cfg
}

func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// Validate reports every missing or unusable setting for the selected drivers.
func (c *Config) Validate() error {
	var problems []string

	if err := ValidateJWTSecret(c.JWTSecret, c.IsTest()); err != nil {
		problems = append(problems, err.Error())
	}

	switch c.DBDriver {
	case "mongo":
		if c.MongoURI == "" {
			problems = append(problems, "MONGODB_URI is required for DB_DRIVER=mongo")
		}
	case "postgres", "mysql":
		for key, value := range map[string]string{
			"DB_HOST": c.DBHost,
			"DB_NAME": c.DBName,
			"DB_USER": c.DBUser,
		} {
			if value == "" {
				problems = append(problems, fmt.Sprintf("%s is required for DB_DRIVER=%s", key, c.DBDriver))
			}
		}
	case "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	s := c.Storage
	switch s.Driver {
	case "cloudinary":
		if s.CloudinaryCloudName == "" || s.CloudinaryAPIKey == "" || s.CloudinaryAPISecret == "" {
			problems = append(problems, "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for STORAGE_DRIVER=cloudinary")
		}
	case "s3":
		if s.S3Bucket == "" || s.S3Region == "" {
			problems = append(problems, "S3_BUCKET and S3_REGION are required for STORAGE_DRIVER=s3")
		}
	case "minio":
		if s.MinIOEndpoint == "" || s.MinIOAccessKey == "" || s.MinIOSecretKey == "" {
			problems = append(problems, "MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for STORAGE_DRIVER=minio")
		}
	case "local":
	default:
		problems = append(problems, fmt.Sprintf("unsupported STORAGE_DRIVER %q", s.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func ValidateJWTSecret(secret string, testMode bool) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long (current: %d)", len(secret))
	}

	if secret == testJWTSecret && !testMode {
		return fmt.Errorf("cannot use default test secret in production")
	}

	return nil
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func defaultStorageDriver(s StorageConfig) string {
	if s.CloudinaryCloudName != "" && s.CloudinaryAPIKey != "" && s.CloudinaryAPISecret != "" {
		return "cloudinary"
	}
	return "local"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
