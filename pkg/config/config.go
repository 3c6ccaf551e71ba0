package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	Port        int
	FrontendURL string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Mail       MailConfig
	Uploads    UploadsConfig
	BulkImport BulkImportConfig
	CORS       CORSConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
	Security   SecurityConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the signing secret and the lifetime of each token purpose.
type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	SetupTTL   time.Duration
	ResetTTL   time.Duration
}

// MailConfig configures the outbound SMTP transport.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	FromName string
}

// UploadsConfig bounds multipart uploads and sets where images are stored.
type UploadsConfig struct {
	Dir           string
	PublicPrefix  string
	MaxImageBytes int64
	MaxSheetBytes int64
	MaxImages     int
}

type BulkImportConfig struct {
	MaxRows int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig applies to the login and forgot-password routes.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// SecurityConfig gates admin-only routes behind session tokens.
type SecurityConfig struct {
	RequireAdminAuth bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		SessionTTL: parseDuration(v.GetString("JWT_SESSION_TTL"), 7*24*time.Hour),
		SetupTTL:   parseDuration(v.GetString("JWT_SETUP_TTL"), 24*time.Hour),
		ResetTTL:   parseDuration(v.GetString("JWT_RESET_TTL"), time.Hour),
	}

	cfg.Mail = MailConfig{
		Enabled:  v.GetBool("MAIL_ENABLED"),
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("EMAIL_USER"),
		Password: v.GetString("EMAIL_PASS"),
		FromName: v.GetString("MAIL_FROM_NAME"),
	}

	cfg.Uploads = UploadsConfig{
		Dir:           v.GetString("UPLOADS_DIR"),
		PublicPrefix:  "/uploads",
		MaxImageBytes: positiveInt64(v.GetInt64("UPLOADS_MAX_IMAGE_BYTES"), 5*1024*1024),
		MaxSheetBytes: positiveInt64(v.GetInt64("UPLOADS_MAX_SHEET_BYTES"), 10*1024*1024),
		MaxImages:     v.GetInt("UPLOADS_MAX_IMAGES"),
	}
	if cfg.Uploads.MaxImages <= 0 {
		cfg.Uploads.MaxImages = 5
	}

	cfg.BulkImport = BulkImportConfig{MaxRows: v.GetInt("BULK_IMPORT_MAX_ROWS")}
	if cfg.BulkImport.MaxRows <= 0 {
		cfg.BulkImport.MaxRows = 10
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	cfg.Security = SecurityConfig{RequireAdminAuth: v.GetBool("REQUIRE_ADMIN_AUTH")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 9000)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "SUPER_SECRET_KEY")
	v.SetDefault("JWT_ISSUER", "hms-api")
	v.SetDefault("JWT_SESSION_TTL", "168h")
	v.SetDefault("JWT_SETUP_TTL", "24h")
	v.SetDefault("JWT_RESET_TTL", "1h")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_USER", "")
	v.SetDefault("EMAIL_PASS", "")
	v.SetDefault("MAIL_FROM_NAME", "HMS Team")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_IMAGE_BYTES", 5*1024*1024)
	v.SetDefault("UPLOADS_MAX_SHEET_BYTES", 10*1024*1024)
	v.SetDefault("UPLOADS_MAX_IMAGES", 5)
	v.SetDefault("BULK_IMPORT_MAX_ROWS", 10)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("REQUIRE_ADMIN_AUTH", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveInt64(value, fallback int64) int64 {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
