package config

import (
	"fmt"
	"time"

	"github.com/assetwise/assetwise/internal/db"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AllowedOrigins  []string
	MigrationsPath  string
	ShutdownTimeout time.Duration
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Config aggregates all runtime configuration.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Auth     AuthConfig
}

// DefaultServerConfig returns sensible local development defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		AllowedOrigins:  []string{"http://localhost:3000"},
		MigrationsPath:  "./migrations",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server:   DefaultServerConfig(),
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()           // allow environment overrides
	v.SetEnvPrefix("ASSETWISE") // map env vars like ASSETWISE_DATABASE_HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("server.migrations_path")
	v.BindEnv("auth.jwt_secret")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.migrations_path") {
		cfg.Server.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("server.read_timeout") {
		cfg.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	}
	if v.IsSet("server.write_timeout") {
		cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	}

	if v.IsSet("auth.jwt_secret") {
		cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	}
	if v.IsSet("auth.token_ttl") {
		cfg.Auth.TokenTTL = v.GetDuration("auth.token_ttl")
	}

	return cfg, nil
}
