package config

import (
	"errors"
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
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Cron      CronConfig
	CORS      CORSConfig
	Log       LogConfig
	Documents DocumentsConfig
	Backups   BackupsConfig
	Alerts    AlertsConfig
	SMTP      SMTPConfig
	Company   CompanyConfig
	Throttle  ThrottleConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig governs session issuance and the first-run admin bootstrap.
type AuthConfig struct {
	SessionTTL        time.Duration
	CookieName        string
	BootstrapAdmin    bool
	BootstrapEmail    string
	BootstrapPassword string
}

// CronConfig holds the shared secret accepted from scheduled automation.
type CronConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DocumentsConfig controls document storage, download tokens and locking.
type DocumentsConfig struct {
	StorageDir       string
	DownloadSecret   string
	DownloadTokenTTL time.Duration
	LockTTL          time.Duration
	MaxFileSizeBytes int64
}

// BackupsConfig controls backup archive storage and retention.
type BackupsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Retention       time.Duration
}

// AlertsConfig tunes document expiration alert processing.
type AlertsConfig struct {
	Enabled      bool
	NoticeWindow time.Duration
}

// SMTPConfig configures outbound alert mail. Delivery is skipped when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// CompanyConfig carries the company block merged into GET /api/config responses.
type CompanyConfig struct {
	Name string
	CNPJ string
}

// ThrottleConfig limits login attempts per client IP.
type ThrottleConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		SessionTTL:        parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		CookieName:        v.GetString("SESSION_COOKIE_NAME"),
		BootstrapAdmin:    v.GetBool("AUTH_BOOTSTRAP_ADMIN"),
		BootstrapEmail:    v.GetString("AUTH_BOOTSTRAP_EMAIL"),
		BootstrapPassword: v.GetString("AUTH_BOOTSTRAP_PASSWORD"),
	}

	cfg.Cron = CronConfig{Secret: v.GetString("CRON_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxDocSize := v.GetInt64("DOCUMENTS_MAX_FILE_SIZE")
	if maxDocSize <= 0 {
		maxDocSize = 50 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		StorageDir:       v.GetString("DOCUMENTS_STORAGE_DIR"),
		DownloadSecret:   v.GetString("DOCUMENTS_DOWNLOAD_SECRET"),
		DownloadTokenTTL: parseDuration(v.GetString("DOCUMENTS_DOWNLOAD_TOKEN_TTL"), 5*time.Minute),
		LockTTL:          parseDuration(v.GetString("DOCUMENTS_LOCK_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxDocSize,
	}

	cfg.Backups = BackupsConfig{
		StorageDir:      v.GetString("BACKUPS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("BACKUPS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("BACKUPS_SIGNED_URL_TTL"), time.Hour),
		Retention:       parseDuration(v.GetString("BACKUPS_RETENTION"), 30*24*time.Hour),
	}

	cfg.Alerts = AlertsConfig{
		Enabled:      v.GetBool("ENABLE_ALERTS"),
		NoticeWindow: parseDuration(v.GetString("ALERTS_NOTICE_WINDOW"), 7*24*time.Hour),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		User:     v.GetString("SMTP_USER"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.Company = CompanyConfig{
		Name: v.GetString("COMPANY_NAME"),
		CNPJ: v.GetString("COMPANY_CNPJ"),
	}

	cfg.Throttle = ThrottleConfig{
		Enabled: v.GetBool("ENABLE_LOGIN_THROTTLE"),
		RPS:     v.GetFloat64("LOGIN_THROTTLE_RPS"),
		Burst:   v.GetInt("LOGIN_THROTTLE_BURST"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sigmadocs_ged")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "session_token")
	v.SetDefault("AUTH_BOOTSTRAP_ADMIN", true)
	v.SetDefault("AUTH_BOOTSTRAP_EMAIL", "admin@sigmadocs.com.br")
	v.SetDefault("AUTH_BOOTSTRAP_PASSWORD", "admin123")

	v.SetDefault("CRON_SECRET", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./documents")
	v.SetDefault("DOCUMENTS_DOWNLOAD_SECRET", "dev_download_secret")
	v.SetDefault("DOCUMENTS_DOWNLOAD_TOKEN_TTL", "5m")
	v.SetDefault("DOCUMENTS_LOCK_TTL", "30m")
	v.SetDefault("DOCUMENTS_MAX_FILE_SIZE", 50*1024*1024)

	v.SetDefault("BACKUPS_STORAGE_DIR", "./backups")
	v.SetDefault("BACKUPS_SIGNED_URL_SECRET", "dev_backups_secret")
	v.SetDefault("BACKUPS_SIGNED_URL_TTL", "1h")
	v.SetDefault("BACKUPS_RETENTION", "720h")

	v.SetDefault("ENABLE_ALERTS", false)
	v.SetDefault("ALERTS_NOTICE_WINDOW", "168h")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@sigmadocs.com.br")

	v.SetDefault("COMPANY_NAME", "SigmaDocs")
	v.SetDefault("COMPANY_CNPJ", "")

	v.SetDefault("ENABLE_LOGIN_THROTTLE", true)
	v.SetDefault("LOGIN_THROTTLE_RPS", 1)
	v.SetDefault("LOGIN_THROTTLE_BURST", 5)
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
