package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Freeeeeet/edulite_core/internal/policy"
)

type Config struct {
	DBDSN                         string
	Environment                   string
	TelegramToken                 string
	MigrationsDir                 string
	CourseCreationRequiresTeacher bool
	SuggestionInterval            time.Duration
	EventQueueSize                int

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

var ErrMissingDSN = errors.New("DB_DSN is required but not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DSN", "")
	v.SetDefault("ENV", "development")
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("COURSE_CREATION_REQUIRES_TEACHER", true)
	v.SetDefault("SUGGESTION_INTERVAL", 24*time.Hour)
	v.SetDefault("EVENT_QUEUE_SIZE", 256)
}

// Load reads envFile when present, then the process environment.
func Load(envFile string) (*Config, error) {
	loaded := godotenv.Load(envFile) == nil

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBDSN:                         v.GetString("DB_DSN"),
		Environment:                   v.GetString("ENV"),
		TelegramToken:                 v.GetString("TELEGRAM_TOKEN"),
		MigrationsDir:                 v.GetString("MIGRATIONS_DIR"),
		CourseCreationRequiresTeacher: v.GetBool("COURSE_CREATION_REQUIRES_TEACHER"),
		SuggestionInterval:            v.GetDuration("SUGGESTION_INTERVAL"),
		EventQueueSize:                v.GetInt("EVENT_QUEUE_SIZE"),
	}

	if cfg.DBDSN == "" {
		return nil, ErrMissingDSN
	}
	if cfg.SuggestionInterval <= 0 {
		return nil, fmt.Errorf("SUGGESTION_INTERVAL must be positive, got %s", cfg.SuggestionInterval)
	}
	if cfg.EventQueueSize <= 0 {
		return nil, fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", cfg.EventQueueSize)
	}
	return cfg, nil
}

// Policy returns the toggles handed to the policy evaluator.
func (c *Config) Policy() policy.Config {
	return policy.Config{CourseCreationRequiresTeacher: c.CourseCreationRequiresTeacher}
}

func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != ""
}
