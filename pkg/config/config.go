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
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	SMTP      SMTPConfig
	Gemini    GeminiConfig
	Outreach  OutreachConfig
	Exams     ExamConfig
	Dashboard DashboardConfig
	Notifier  NotifierConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig configures the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
}

// GeminiConfig configures the generative text-completion client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OutreachConfig tunes the autonomous lead follow-up batch.
type OutreachConfig struct {
	BatchSize int
	MinScore  int
}

// ExamConfig governs proctored exam sessions and grading.
type ExamConfig struct {
	PassThreshold    int
	MaxSecurityFlags int
	SessionGrace     time.Duration
	SweepInterval    time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// NotifierConfig tunes the result-notification worker queue.
type NotifierConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		User:     v.GetString("SMTP_USER"),
		Password: v.GetString("SMTP_PASS"),
		FromName: v.GetString("SMTP_FROM_NAME"),
	}

	cfg.Gemini = GeminiConfig{
		APIKey: v.GetString("GEMINI_API_KEY"),
		Model:  v.GetString("GEMINI_MODEL"),
	}

	cfg.Outreach = OutreachConfig{
		BatchSize: v.GetInt("OUTREACH_BATCH_SIZE"),
		MinScore:  v.GetInt("OUTREACH_MIN_SCORE"),
	}

	cfg.Exams = ExamConfig{
		PassThreshold:    v.GetInt("EXAM_PASS_THRESHOLD"),
		MaxSecurityFlags: v.GetInt("EXAM_MAX_SECURITY_FLAGS"),
		SessionGrace:     parseDuration(v.GetString("EXAM_SESSION_GRACE"), 30*time.Second),
		SweepInterval:    parseDuration(v.GetString("EXAM_SESSION_SWEEP_INTERVAL"), 15*time.Second),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notifier = NotifierConfig{
		Workers:    v.GetInt("NOTIFIER_WORKERS"),
		MaxRetries: v.GetInt("NOTIFIER_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFIER_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "careerlab_os")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "careerlab-os")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM_NAME", "Career Lab Consulting")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")

	v.SetDefault("OUTREACH_BATCH_SIZE", 5)
	v.SetDefault("OUTREACH_MIN_SCORE", 50)

	v.SetDefault("EXAM_PASS_THRESHOLD", 50)
	v.SetDefault("EXAM_MAX_SECURITY_FLAGS", 500)
	v.SetDefault("EXAM_SESSION_GRACE", "30s")
	v.SetDefault("EXAM_SESSION_SWEEP_INTERVAL", "15s")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("NOTIFIER_WORKERS", 1)
	v.SetDefault("NOTIFIER_MAX_RETRIES", 3)
	v.SetDefault("NOTIFIER_RETRY_DELAY", "5s")
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
