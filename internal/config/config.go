package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/chainsub/internal/notify"
)

// Config is the chainsub runtime configuration.
type Config struct {
	Endpoint        string
	Topics          []string
	RenderMode      notify.Mode
	TrackGaps       bool
	MaxTopicBytes   int
	MaxPayloadBytes int
	MetricsAddr     string
	LogLevel        string
}

// fileConfig is the chainsub.toml key mapping.
type fileConfig struct {
	Endpoint        string   `toml:"endpoint"`
	Topics          []string `toml:"topics"`
	Render          string   `toml:"render"`
	TrackGaps       bool     `toml:"track_gaps"`
	MaxTopicBytes   int      `toml:"max_topic_bytes"`
	MaxPayloadBytes int      `toml:"max_payload_bytes"`
	MetricsAddr     string   `toml:"metrics_addr"`
	LogLevel        string   `toml:"log_level"`
}

func Default() Config {
	limits := notify.DefaultLimits()
	return Config{
		Endpoint:        "tcp://127.0.0.1:28332",
		Topics:          nil, // all topics
		RenderMode:      notify.ModeHex,
		TrackGaps:       true,
		MaxTopicBytes:   limits.MaxTopicBytes,
		MaxPayloadBytes: limits.MaxPayloadBytes,
		MetricsAddr:     "",
		LogLevel:        "info",
	}
}

// Load reads a TOML config and overlays it on the defaults. Only keys
// present in the file override; absent keys keep their default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("topics") {
		cfg.Topics = raw.Topics
	}
	if meta.IsDefined("render") {
		mode, err := notify.ParseMode(raw.Render)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg.RenderMode = mode
	}
	if meta.IsDefined("track_gaps") {
		cfg.TrackGaps = raw.TrackGaps
	}
	if meta.IsDefined("max_topic_bytes") {
		cfg.MaxTopicBytes = raw.MaxTopicBytes
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("config missing endpoint")
	}
	for i, topic := range cfg.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("topic[%d] is empty", i)
		}
	}
	if cfg.MaxTopicBytes < 0 {
		return fmt.Errorf("max_topic_bytes must not be negative")
	}
	if cfg.MaxPayloadBytes < 0 {
		return fmt.Errorf("max_payload_bytes must not be negative")
	}
	return nil
}

// Limits converts the configured bounds into classifier limits.
func (c Config) Limits() notify.Limits {
	return notify.Limits{
		MaxTopicBytes:   c.MaxTopicBytes,
		MaxPayloadBytes: c.MaxPayloadBytes,
	}
}
