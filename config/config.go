package config

import (
	"journal/pkg/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	AuthJWTSecret        string `mapstructure:"AUTH_JWT_SECRET"`
	WorkerSecret         string `mapstructure:"WORKER_SECRET"`
	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
	WorkerBatchSize      int    `mapstructure:"WORKER_BATCH_SIZE"`
	StorageURL           string `mapstructure:"STORAGE_URL"`
	StorageServiceKey    string `mapstructure:"STORAGE_SERVICE_KEY"`
	GeminiAPIKey         string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel          string `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL        string `mapstructure:"GEMINI_BASE_URL"`
	TranscriptionTimeout int    `mapstructure:"TRANSCRIPTION_TIMEOUT_SECONDS"`
	TranscriptionRPM     int    `mapstructure:"TRANSCRIPTION_REQUESTS_PER_MINUTE"`
	LogLevel             string `mapstructure:"LOG_LEVEL"`
	LogFormat            string `mapstructure:"LOG_FORMAT"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
	"CORS_ALLOW_ORIGINS",
	"AUTH_JWT_SECRET", "WORKER_SECRET",
	"SCHEDULER_ENABLED", "WORKER_BATCH_SIZE",
	"STORAGE_URL", "STORAGE_SERVICE_KEY",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"TRANSCRIPTION_TIMEOUT_SECONDS", "TRANSCRIPTION_REQUESTS_PER_MINUTE",
	"LOG_LEVEL", "LOG_FORMAT",
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "production")
	viper.SetDefault("SERVER_PORT", 8288)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_PORT", 6379)
	viper.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("WORKER_BATCH_SIZE", 5)
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("TRANSCRIPTION_TIMEOUT_SECONDS", 60)
	viper.SetDefault("TRANSCRIPTION_REQUESTS_PER_MINUTE", 30)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()
	setDefaults()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	if isEnvironmentProvided() {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")
		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	ConfigInstance = config
	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
	)
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

// isEnvironmentProvided reports whether the process environment already carries the
// settings a deployment must supply, in which case .env files are ignored.
func isEnvironmentProvided() bool {
	return viper.GetString("DB_HOST") != "" && viper.GetString("AUTH_JWT_SECRET") != ""
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error("Fatal error: invalid server port", "port", config.ServerPort)
	}

	if config.AuthJWTSecret == "" {
		return log.ErrMsg("Fatal error: AUTH_JWT_SECRET is required")
	}

	if config.WorkerBatchSize < 0 {
		return log.Error("Fatal error: invalid worker batch size", "batchSize", config.WorkerBatchSize)
	}

	if config.TranscriptionTimeout <= 0 {
		return log.Error(
			"Fatal error: invalid transcription timeout",
			"seconds", config.TranscriptionTimeout,
		)
	}

	return nil
}
