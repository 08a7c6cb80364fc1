package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stream   StreamConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int
	Host         string
	MaxBodyBytes int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// StreamConfig holds /ws/stream timeouts
type StreamConfig struct {
	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "spncipher"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Stream: StreamConfig{
			HandshakeTimeout: getEnvDuration("STREAM_HANDSHAKE_TIMEOUT", 10*time.Second),
			IdleTimeout:      getEnvDuration("STREAM_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}

// Addr returns the host:port the gateway listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses a Go duration ("90s", "12h") or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`
Server: %s (max body %d bytes)
Database: postgres://%s@%s:%d/%s
JWT Secret: *** (ttl %v)
Stream: handshake %v, idle %v`,
		c.Addr(), c.Server.MaxBodyBytes,
		c.Database.User, c.Database.Host, c.Database.Port, c.Database.Database,
		c.JWT.TTL,
		c.Stream.HandshakeTimeout, c.Stream.IdleTimeout,
	)
}
