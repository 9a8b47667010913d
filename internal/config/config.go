package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Server   ServerConfig
	GRPC     GRPCConfig
	Log      LogConfig
	Upstream UpstreamConfig
	Hook     HookConfig
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// GRPCConfig contains gRPC server settings
type GRPCConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// UpstreamConfig contains settings for the HTTP client that delivers hook payloads
type UpstreamConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// HookConfig contains defaults applied to hook rules that omit them
type HookConfig struct {
	DefaultWait    time.Duration // debounce quiet period / throttle window
	DefaultTimeout time.Duration // async delivery timeout, 0 = none
	ClientWindow   time.Duration // per-client trigger throttle window
}

// Load reads environment variables into Config. It expects godotenv to have been
// executed by the caller when needed (e.g. in development).
func Load() Config {
	server := ServerConfig{
		Host:         getEnv("APP_HOST", "0.0.0.0"),
		Port:         getEnvAsInt("APP_PORT", 3000),
		ReadTimeout:  getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvAsDuration("APP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  getEnvAsDuration("APP_IDLE_TIMEOUT", 10*time.Second),
	}

	grpc := GRPCConfig{
		Enabled: getEnvAsBool("GRPC_ENABLED", true),
		Host:    getEnv("GRPC_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("GRPC_PORT", 50051),
	}

	logCfg := LogConfig{
		Level:  getEnv("LOG_LEVEL", "debug"),
		Format: getEnv("LOG_FORMAT", "console"),
	}

	upstream := UpstreamConfig{
		Timeout:      getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		MaxBodyBytes: int64(getEnvAsInt("UPSTREAM_MAX_BODY_BYTES", 1<<20)),
	}

	hook := HookConfig{
		DefaultWait:    getEnvAsDuration("HOOK_DEFAULT_WAIT", time.Second),
		DefaultTimeout: getEnvAsDuration("HOOK_DEFAULT_TIMEOUT", 0),
		ClientWindow:   getEnvAsDuration("HOOK_CLIENT_WINDOW", 100*time.Millisecond),
	}

	return Config{
		Server:   server,
		GRPC:     grpc,
		Log:      logCfg,
		Upstream: upstream,
		Hook:     hook,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	dur, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return dur
}

// LoadDotEnv loads a .env file when one exists in the working directory.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
}

// ServerAddr returns the HTTP server address in host:port format
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GRPCAddr returns the gRPC server address in host:port format
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
}
