package config

import (
	"digitaldome/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	SecretKey            string `mapstructure:"SECRET_KEY"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset   int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	MediaRoot            string `mapstructure:"MEDIA_ROOT"`
	MediaBaseURL         string `mapstructure:"MEDIA_BASE_URL"`
	TMDBAPIKey           string `mapstructure:"TMDB_API_KEY"`
	IGDBClientID         string `mapstructure:"IGDB_CLIENT_ID"`
	IGDBClientSecret     string `mapstructure:"IGDB_CLIENT_SECRET"`
	OpenAIAPIKey         string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel          string `mapstructure:"OPENAI_MODEL"`
	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
}

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "SECRET_KEY",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
		"CORS_ALLOW_ORIGINS", "MEDIA_ROOT", "MEDIA_BASE_URL",
		"TMDB_API_KEY", "IGDB_CLIENT_ID", "IGDB_CLIENT_SECRET",
		"OPENAI_API_KEY", "OPENAI_MODEL", "SCHEDULER_ENABLED",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
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
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.SecretKey == "" {
		return log.ErrMsg("Fatal error: SECRET_KEY is required")
	}

	if config.MediaRoot == "" {
		config.MediaRoot = "media"
	}

	// IGDB credentials come as a pair
	if config.IGDBClientID != "" && config.IGDBClientSecret == "" {
		return log.ErrMsg("Fatal error: IGDB_CLIENT_SECRET required when IGDB_CLIENT_ID is set")
	}

	ConfigInstance = config
	return nil
}
