package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	WebPort             int           `mapstructure:"WEB_PORT"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	LLMHost             string        `mapstructure:"LLM_HOST"`
	LLMAPIKey           string        `mapstructure:"LLM_API_KEY"`
	LLMRequestTimeout   time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	MaxRepairAttempts   int           `mapstructure:"MAX_REPAIR_ATTEMPTS"`
	MaxExecutionSteps   uint64        `mapstructure:"MAX_EXECUTION_STEPS"`
	MaxCodeBytes        int           `mapstructure:"MAX_CODE_BYTES"`
	MaxUploadBytes      int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	CacheSize           int           `mapstructure:"CACHE_SIZE"`
	CleanupEnabled      bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupInterval     time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	SessionRetentionAge time.Duration `mapstructure:"SESSION_RETENTION_AGE"`
	RateLimitPerMin     int           `mapstructure:"RATE_LIMIT_PER_MIN"`
	RateLimitBurstSize  int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
}

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")        // For running locally
	viper.AddConfigPath("../")      // For running from docker subdir
	viper.AddConfigPath("./config") // Common config folder
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("WEB_PORT", 8090)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LLM_HOST", "https://generativelanguage.googleapis.com/v1beta/openai")
	viper.SetDefault("LLM_API_KEY", "")
	viper.SetDefault("LLM_REQUEST_TIMEOUT", 120)
	viper.SetDefault("MAX_REPAIR_ATTEMPTS", 3)
	viper.SetDefault("MAX_EXECUTION_STEPS", 5_000_000)
	viper.SetDefault("MAX_CODE_BYTES", 64*1024)
	viper.SetDefault("MAX_UPLOAD_BYTES", 20*1024*1024)
	viper.SetDefault("CACHE_SIZE", 512)
	viper.SetDefault("CLEANUP_ENABLED", true)
	viper.SetDefault("CLEANUP_INTERVAL", 1)
	viper.SetDefault("SESSION_RETENTION_AGE", 24)
	viper.SetDefault("RATE_LIMIT_PER_MIN", 20)
	viper.SetDefault("RATE_LIMIT_BURST_SIZE", 5)

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	// Convert seconds/hours to proper time.Duration
	config.LLMRequestTimeout = config.LLMRequestTimeout * time.Second
	config.CleanupInterval = config.CleanupInterval * time.Hour
	config.SessionRetentionAge = config.SessionRetentionAge * time.Hour

	if config.MaxRepairAttempts < 1 {
		config.MaxRepairAttempts = 1
	}

	return &config
}
