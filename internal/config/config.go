// Package config assembles the client configuration from defaults, an
// optional TOML file, BYTEHAUL_* environment variables, and flags —
// each layer overriding the previous one.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds everything the client binary needs. Protocol behavior
// depends only on these values, never on where they came from.
type Config struct {
	Host        string        // receiver host name or IP
	Port        int           // receiver port
	Root        string        // directory (or single file) to send
	Transport   string        // "tcp", "quic" or "ws"
	WSURL       string        // full ws:// URL, only for -transport ws
	ChunkSize   int           // payload read/write unit in bytes
	MaxAttempts int           // connect-and-send attempts per file
	RetryDelay  time.Duration // fixed delay between attempts
	LogLevel    string        // debug, info, warn, error
}

func defaults() Config {
	return Config{
		Host:        "127.0.0.1",
		Port:        8889,
		Root:        ".",
		Transport:   "tcp",
		ChunkSize:   4096,
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		LogLevel:    "info",
	}
}

// Parse builds the configuration from the process environment and args.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("haul", flag.ContinueOnError)
	return parseWithFlagSet(fs, args, os.Getenv)
}

func parseWithFlagSet(fs *flag.FlagSet, args []string, getenv func(string) string) (Config, error) {
	cfg := defaults()

	// A config file named by flag must be loaded before the other flags
	// apply, so peek for it first.
	configPath := getenv("BYTEHAUL_CONFIG")
	for i, arg := range args {
		if (arg == "-config" || arg == "--config") && i+1 < len(args) {
			configPath = args[i+1]
		}
	}
	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg, getenv)

	var configFlag string
	fs.StringVar(&configFlag, "config", configPath, "TOML config file")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "receiver host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "receiver port")
	fs.StringVar(&cfg.Root, "root", cfg.Root, "directory or file to send")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport: tcp, quic or ws")
	fs.StringVar(&cfg.WSURL, "ws-url", cfg.WSURL, "websocket URL (transport ws)")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "payload chunk size in bytes")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "attempts per file")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "delay between attempts")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type fileConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Root        string `toml:"root"`
	Transport   string `toml:"transport"`
	WSURL       string `toml:"ws_url"`
	ChunkSize   int    `toml:"chunk_size"`
	MaxAttempts int    `toml:"max_attempts"`
	RetryDelay  string `toml:"retry_delay"`
	LogLevel    string `toml:"log_level"`
}

func loadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("root") {
		cfg.Root = strings.TrimSpace(raw.Root)
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("ws_url") {
		cfg.WSURL = strings.TrimSpace(raw.WSURL)
	}
	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("max_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}
	if meta.IsDefined("retry_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RetryDelay))
		if err != nil {
			return fmt.Errorf("parse retry_delay: %w", err)
		}
		cfg.RetryDelay = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("BYTEHAUL_HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("BYTEHAUL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := getenv("BYTEHAUL_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := getenv("BYTEHAUL_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := getenv("BYTEHAUL_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := getenv("BYTEHAUL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	switch c.Transport {
	case "tcp", "quic":
	case "ws":
		if c.WSURL == "" {
			return fmt.Errorf("transport ws requires -ws-url")
		}
	default:
		return fmt.Errorf("unknown transport %q (want tcp, quic or ws)", c.Transport)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}
	return nil
}
