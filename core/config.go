package core

import (
	"fmt"
	"strings"
	"time"
)

type InboundConfig struct {
	ReplayWindowSeconds int  `koanf:"replay_window_seconds" mapstructure:"replay_window_seconds"`
	AllowUnverified     bool `koanf:"allow_unverified" mapstructure:"allow_unverified"`
}

type OutboundConfig struct {
	MaxAttempts           int `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSeconds int `koanf:"initial_backoff_seconds" mapstructure:"initial_backoff_seconds"`
	MaxBackoffSeconds     int `koanf:"max_backoff_seconds" mapstructure:"max_backoff_seconds"`
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	ResponseBodyLimit     int `koanf:"response_body_limit" mapstructure:"response_body_limit"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Inbound     InboundConfig  `koanf:"inbound" mapstructure:"inbound"`
	Outbound    OutboundConfig `koanf:"outbound" mapstructure:"outbound"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "webhooks",
		Inbound: InboundConfig{
			ReplayWindowSeconds: 300,
		},
		Outbound: OutboundConfig{
			MaxAttempts:           6,
			InitialBackoffSeconds: 10,
			MaxBackoffSeconds:     600,
			RequestTimeoutSeconds: 10,
			ResponseBodyLimit:     2000,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Inbound.ReplayWindowSeconds < 0 {
		return fmt.Errorf("core: inbound.replay_window_seconds must not be negative")
	}
	if c.Outbound.MaxAttempts < 1 {
		return fmt.Errorf("core: outbound.max_attempts must be at least 1")
	}
	if c.Outbound.InitialBackoffSeconds < 1 {
		return fmt.Errorf("core: outbound.initial_backoff_seconds must be at least 1")
	}
	if c.Outbound.MaxBackoffSeconds < c.Outbound.InitialBackoffSeconds {
		return fmt.Errorf("core: outbound.max_backoff_seconds must not be below initial_backoff_seconds")
	}
	if c.Outbound.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("core: outbound.request_timeout_seconds must be at least 1")
	}
	if c.Outbound.ResponseBodyLimit < 0 {
		return fmt.Errorf("core: outbound.response_body_limit must not be negative")
	}
	return nil
}

func (c Config) ReplayWindow() time.Duration {
	return time.Duration(c.Inbound.ReplayWindowSeconds) * time.Second
}

func (c Config) InitialBackoff() time.Duration {
	return time.Duration(c.Outbound.InitialBackoffSeconds) * time.Second
}

func (c Config) MaxBackoff() time.Duration {
	return time.Duration(c.Outbound.MaxBackoffSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Outbound.RequestTimeoutSeconds) * time.Second
}
