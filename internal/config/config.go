package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggerConfig struct {
	LogLevel string
}

type AppConfig struct {
	Environment string
	Domain      string
	PSQL        PostgresConfig
	Redis       RedisConfig
	CSRF        struct {
		Key    string
		Secure bool
	}
	Server struct {
		Address string
	}
	Logging LoggerConfig
	GitHub  GitHubOAuthConfig
	Google  GoogleOAuthConfig
}

func LoadEnvConfig(envFiles ...string) (*AppConfig, error) {
	var cfg AppConfig
	// A missing .env file is fine: deployments may supply the environment
	// directly.
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg.Domain = GetEnvOrDie("DOMAIN")
	cfg.Environment = GetEnvOrDie("ENVIRONMENT")

	// DB
	cfg.PSQL = DefaultPostgresConfig()

	// Redis
	redisDb, err := strconv.Atoi(GetEnvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_DB: %w", err)
	}
	cfg.Redis = RedisConfig{
		Addr:     GetEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDb,
	}

	// CSRF
	cfg.CSRF.Key = GetEnvOrDie("CSRF_TOKEN")
	cfg.CSRF.Secure = GetEnvOrDie("CSRF_SECURE") == "true"

	// Server
	cfg.Server.Address = GetEnvOrDie("SERVER_ADDRESS")

	cfg.Logging = LoggerConfig{
		LogLevel: GetEnvWithDefault("LOG_LEVEL", "info"),
	}

	cfg.GitHub = GitHubOAuthConfig{
		ClientID:     GetEnvOrDie("GITHUB_CLIENT_ID"),
		ClientSecret: GetEnvOrDie("GITHUB_CLIENT_SECRET"),
	}

	cfg.Google = GoogleOAuthConfig{
		ClientID:     GetEnvOrDie("GOOGLE_CLIENT_ID"),
		ClientSecret: GetEnvOrDie("GOOGLE_CLIENT_SECRET"),
	}

	return &cfg, nil
}

func GetEnvWithDefault(envName, defaultValue string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvOrDie(envName string) string {
	value := os.Getenv(envName)
	if value == "" {
		panic("Environment variable " + envName + " is not set")
	}
	return value
}
