package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, log.INFO, cfg.LogLevel)
	assert.Equal(t, ruleset.DefaultDebounce, cfg.Validator.Debounce)
	assert.Equal(t, ruleset.DefaultConcurrency, cfg.Validator.Concurrency)
	assert.Equal(t, ruleset.DefaultGeoSiteURL, cfg.RuleSet.GeoSiteURL)
	assert.Equal(t, 10*time.Minute, cfg.RuleSet.CacheTTL)
	assert.Equal(t, C.Path.Database(), cfg.Server.DBPath)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Empty(t, cfg.Filters)
	assert.Len(t, cfg.ValidatorOptions(), 2)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log-level: debug
api:
  base-url: https://manager.example.com
  timeout: 3s
validator:
  debounce: 250ms
  concurrency: 2
rule-set:
  github-proxy: https://ghproxy.example
  cache-ttl: 1h
server:
  listen: 0.0.0.0:8080
  db-path: /var/lib/manager/rules.db
filters:
  - name: Streaming
    enabled: true
  - name: Gaming
country-groups:
  - name: Japan
    emoji: "🇯🇵"
    node-count: 3
`))
	require.NoError(t, err)

	assert.Equal(t, log.DEBUG, cfg.LogLevel)
	assert.Equal(t, "https://manager.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Validator.Debounce)
	assert.Equal(t, 2, cfg.Validator.Concurrency)
	assert.Equal(t, "https://ghproxy.example/", cfg.RuleSet.GithubProxy)
	assert.Equal(t, time.Hour, cfg.ProberOption().CacheTTL)
	assert.Equal(t, "/var/lib/manager/rules.db", cfg.Server.DBPath)

	require.Len(t, cfg.Filters, 2)
	assert.True(t, cfg.Filters[0].Enabled)
	assert.False(t, cfg.Filters[1].Enabled)
	require.Len(t, cfg.CountryGroups, 1)
	assert.Equal(t, "🇯🇵 Japan", cfg.CountryGroups[0].Label())
	assert.Equal(t, 3, cfg.CountryGroups[0].NodeCount)
}

func TestParse_Invalid(t *testing.T) {
	for name, raw := range map[string]string{
		"log level":   "log-level: loud",
		"base url":    "api:\n  base-url: ftp://x",
		"debounce":    "validator:\n  debounce: soon",
		"concurrency": "validator:\n  concurrency: 0",
		"cache ttl":   "rule-set:\n  cache-ttl: -1s",
		"filter":      "filters:\n  - enabled: true",
		"node count":  "country-groups:\n  - name: X\n    node-count: -1",
	} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestParseWithPath(t *testing.T) {
	dir := t.TempDir()

	cfg, err := ParseWithPath(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, log.INFO, cfg.LogLevel)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ParseWithPath(empty)
	assert.Error(t, err)

	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log-level: error\n"), 0o644))
	cfg, err = ParseWithPath(file)
	require.NoError(t, err)
	assert.Equal(t, log.ERROR, cfg.LogLevel)
}
