// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTAccessTTL  time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL time.Duration `mapstructure:"JWT_REFRESH_TTL"`

	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBReadHost     string `mapstructure:"DB_READ_HOST"`
	DBReadPort     string `mapstructure:"DB_READ_PORT"`
	DBReadUser     string `mapstructure:"DB_READ_USER"`
	DBReadPassword string `mapstructure:"DB_READ_PASSWORD"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`

	RedisURL         string        `mapstructure:"REDIS_URL"`
	RedisPoolSize    int           `mapstructure:"REDIS_POOL_SIZE"`
	RedisDialTimeout time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	RedisOpTimeout   time.Duration `mapstructure:"REDIS_OP_TIMEOUT"`

	MediaRoot          string `mapstructure:"MEDIA_ROOT"`
	MediaBaseURL       string `mapstructure:"MEDIA_BASE_URL"`
	MediaTranscodeWebP bool   `mapstructure:"MEDIA_TRANSCODE_WEBP"`
	MaxUploadSizeMB    int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	TopPostsWindow      time.Duration `mapstructure:"TOP_POSTS_WINDOW"`
	SuggestedUsersLimit int           `mapstructure:"SUGGESTED_USERS_LIMIT"`
	VerificationCodeTTL time.Duration `mapstructure:"VERIFICATION_CODE_TTL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	DevBootstrapRoot bool   `mapstructure:"DEV_BOOTSTRAP_ROOT"`
	DevRootUsername  string `mapstructure:"DEV_ROOT_USERNAME"`
	DevRootEmail     string `mapstructure:"DEV_ROOT_EMAIL"`
	DevRootPassword  string `mapstructure:"DEV_ROOT_PASSWORD"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base config file is optional.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8375")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	v.SetDefault("FEATURE_FLAGS", "record_post_views=on,realtime_notifications=on")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "picfeed")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_READ_HOST", "")
	v.SetDefault("DB_READ_PORT", "5432")
	v.SetDefault("DB_READ_USER", "user")
	v.SetDefault("DB_READ_PASSWORD", "password")
	v.SetDefault("SQLITE_PATH", "picfeed.db")

	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REDIS_POOL_SIZE", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_OP_TIMEOUT", "3s")

	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_BASE_URL", "/media")
	v.SetDefault("MEDIA_TRANSCODE_WEBP", true)
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 10)

	v.SetDefault("TOP_POSTS_WINDOW", "168h")
	v.SetDefault("SUGGESTED_USERS_LIMIT", 10)
	v.SetDefault("VERIFICATION_CODE_TTL", "300s")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@picfeed.local")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	v.SetDefault("DEV_BOOTSTRAP_ROOT", false)
	v.SetDefault("DEV_ROOT_USERNAME", "picfeed_root")
	v.SetDefault("DEV_ROOT_EMAIL", "root@picfeed.local")
	v.SetDefault("DEV_ROOT_PASSWORD", "")
}

// IsProduction reports whether the config targets production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.New("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	switch strings.ToLower(c.DBDriver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TopPostsWindow <= 0 {
		return errors.New("TOP_POSTS_WINDOW must be positive")
	}
	if c.SuggestedUsersLimit <= 0 {
		return errors.New("SUGGESTED_USERS_LIMIT must be positive")
	}
	if c.VerificationCodeTTL <= 0 {
		return errors.New("VERIFICATION_CODE_TTL must be positive")
	}
	if c.MaxUploadSizeMB <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
