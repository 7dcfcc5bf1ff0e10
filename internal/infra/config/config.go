package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL        string
	RedisAddress       string
	RedisPassword      string
	RedisDB            int
	TelegramBotToken   string
	TelegramUseTestAPI bool
	FrontendURL        string
	InitSecret         string
	HTTPAddress        string
	SessionTTL         time.Duration
	LogLevel           string
}

var requiredKeys = []string{
	"DATABASE_URL",
	"TELEGRAM_BOT_TOKEN",
	"FRONTEND_URL",
	"INIT_SECRET",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for _, key := range append(requiredKeys,
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"TELEGRAM_USE_TEST_API", "HTTP_ADDRESS", "SESSION_TTL", "LOG_LEVEL",
	) {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("SESSION_TTL", "24h")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for _, key := range requiredKeys {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("required configuration %s is not set", key)
		}
	}

	sessionTTL, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisAddress:       v.GetString("REDIS_ADDRESS"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		TelegramBotToken:   v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramUseTestAPI: v.GetBool("TELEGRAM_USE_TEST_API"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		InitSecret:         v.GetString("INIT_SECRET"),
		HTTPAddress:        v.GetString("HTTP_ADDRESS"),
		SessionTTL:         sessionTTL,
		LogLevel:           v.GetString("LOG_LEVEL"),
	}, nil
}
