/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragamala/catalogstore/ratelimit"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "catalog", cfg.Table)
	assert.NotEmpty(t, cfg.Region)
	assert.Equal(t, ratelimit.DefaultClasses()[ratelimit.ClassSearch], cfg.RateLimits[ratelimit.ClassSearch])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table: catalog-prod
region: ap-south-1
cursorSecret: sssh
logLevel: debug
trusted:
  - user:health-checker
rateLimits:
  search:
    max: 10
    windowMs: 30000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "catalog-prod", cfg.Table)
	assert.Equal(t, "ap-south-1", cfg.Region)
	assert.Equal(t, "sssh", cfg.CursorSecret)
	assert.Equal(t, []string{"user:health-checker"}, cfg.Trusted)
	assert.Equal(t, ratelimit.ClassConfig{Max: 10, WindowMS: 30000}, cfg.RateLimits["search"])
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("table: from-file\nregion: us-east-1\n"), 0o600))
	t.Setenv("CATALOG_TABLE", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Table)
}

func TestLoadRejectsBadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table: catalog
region: us-east-1
rateLimits:
  search:
    max: 0
    windowMs: 1000
`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
