package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	JWTSecret        string
	BusinessTimezone string
	Location         *time.Location

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ScheduleCacheTTL time.Duration

	SMTPHost  string
	SMTPPort  int
	EmailUser string
	EmailPass string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	ReminderLead       time.Duration
	MaxDaysAhead       int
	LoginRatePerMinute int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("BUSINESS_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHEDULE_CACHE_TTL", "60s")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("REMINDER_LEAD", "24h")
	v.SetDefault("MAX_DAYS_AHEAD", 90)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables directly")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                   v.GetString("PORT"),
		Env:                    strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:               v.GetString("LOG_LEVEL"),
		DBDriver:               strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		BusinessTimezone:       v.GetString("BUSINESS_TIMEZONE"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		ScheduleCacheTTL:       v.GetDuration("SCHEDULE_CACHE_TTL"),
		SMTPHost:               v.GetString("SMTP_HOST"),
		SMTPPort:               v.GetInt("SMTP_PORT"),
		EmailUser:              v.GetString("EMAIL_USER"),
		EmailPass:              v.GetString("EMAIL_PASS"),
		CloudinaryCloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    v.GetString("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: v.GetString("CLOUDINARY_UPLOAD_PRESET"),
		ReminderLead:           v.GetDuration("REMINDER_LEAD"),
		MaxDaysAhead:           v.GetInt("MAX_DAYS_AHEAD"),
		LoginRatePerMinute:     v.GetInt("LOGIN_RATE_PER_MINUTE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is not set")
		}
		c.JWTSecret = "dev_secret_key"
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	c.Location = loc
	if c.MaxDaysAhead < 1 {
		return fmt.Errorf("MAX_DAYS_AHEAD must be positive, got %d", c.MaxDaysAhead)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.EmailUser != ""
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
