/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package config loads catalog store settings from a YAML file with
// environment overrides. A .env file in the working directory is honored for
// local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ragamala/catalogstore/ratelimit"
)

// Config carries everything needed to wire a catalog against one table.
type Config struct {
	// Table is the DynamoDB table name.
	Table string `yaml:"table"`
	// Region is the AWS region hosting the table.
	Region string `yaml:"region"`
	// Endpoint overrides the DynamoDB endpoint, for local development.
	Endpoint string `yaml:"endpoint"`
	// CursorSecret signs pagination cursors. When empty a random
	// per-process secret is used and cursors do not survive restarts.
	CursorSecret string `yaml:"cursorSecret"`
	// RateLimits overrides the per-class request budgets.
	RateLimits map[string]ratelimit.ClassConfig `yaml:"rateLimits"`
	// Trusted lists identity keys (user:<id> or ip:<addr>) exempt from
	// rate limiting, on top of loopback which is always exempt.
	Trusted []string `yaml:"trusted"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Table:      "catalog",
		Region:     "us-east-1",
		RateLimits: ratelimit.DefaultClasses(),
		LogLevel:   "info",
	}
}

// Load reads configuration from path, falling back to defaults for anything
// unset. An empty path skips the file and loads defaults plus environment
// overrides only.
func Load(path string) (*Config, error) {
	// Missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()

	if cfg.RateLimits == nil {
		cfg.RateLimits = ratelimit.DefaultClasses()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CATALOG_TABLE"); v != "" {
		c.Table = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("CATALOG_DYNAMODB_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("CATALOG_CURSOR_SECRET"); v != "" {
		c.CursorSecret = v
	}
	if v := os.Getenv("CATALOG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.Table == "" {
		return fmt.Errorf("config: table name is required")
	}
	if c.Region == "" {
		return fmt.Errorf("config: region is required")
	}
	for class, limit := range c.RateLimits {
		if limit.Max < 1 || limit.WindowMS < 1 {
			return fmt.Errorf("config: rate limit class %q needs positive max and window", class)
		}
	}
	return nil
}
