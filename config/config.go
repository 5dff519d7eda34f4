package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"gopkg.in/yaml.v3"
)

// API is where the client commands find the management server.
type API struct {
	BaseURL string
	Timeout time.Duration
}

// Validator tunes the per-session rule set validator.
type Validator struct {
	Debounce    time.Duration
	Concurrency int
}

// RuleSet configures the prober that backs /api/ruleset/validate.
type RuleSet struct {
	GeoSiteURL  string
	GeoIPURL    string
	GithubProxy string
	CacheTTL    time.Duration
	Timeout     time.Duration
}

// Server configures the reference REST server.
type Server struct {
	Listen       string
	DBPath       string
	AllowOrigins []string
}

// Config is the parsed manager configuration
type Config struct {
	LogLevel      log.LogLevel
	API           API
	Validator     Validator
	RuleSet       RuleSet
	Server        Server
	Filters       []R.Filter
	CountryGroups []R.CountryGroup
}

type RawAPI struct {
	BaseURL string `yaml:"base-url"`
	Timeout string `yaml:"timeout"`
}

type RawValidator struct {
	Debounce    string `yaml:"debounce"`
	Concurrency int    `yaml:"concurrency"`
}

type RawRuleSet struct {
	GeoSiteURL  string `yaml:"geosite-url"`
	GeoIPURL    string `yaml:"geoip-url"`
	GithubProxy string `yaml:"github-proxy"`
	CacheTTL    string `yaml:"cache-ttl"`
	Timeout     string `yaml:"timeout"`
}

type RawServer struct {
	Listen       string   `yaml:"listen"`
	DBPath       string   `yaml:"db-path"`
	AllowOrigins []string `yaml:"allow-origins"`
}

type RawConfig struct {
	LogLevel      log.LogLevel     `yaml:"log-level"`
	API           RawAPI           `yaml:"api"`
	Validator     RawValidator     `yaml:"validator"`
	RuleSet       RawRuleSet       `yaml:"rule-set"`
	Server        RawServer        `yaml:"server"`
	Filters       []R.Filter       `yaml:"filters"`
	CountryGroups []R.CountryGroup `yaml:"country-groups"`
}

func readConfig(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration file %s is empty", path)
	}
	return data, nil
}

// ParseWithPath parses the file at path. A missing file yields the
// default configuration.
func ParseWithPath(path string) (*Config, error) {
	buf, err := readConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugln("[Config] %s not found, using defaults", path)
		return Parse(nil)
	}
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	rawCfg, err := UnmarshalRawConfig(buf)
	if err != nil {
		return nil, err
	}
	return ParseRawConfig(rawCfg)
}

func UnmarshalRawConfig(buf []byte) (*RawConfig, error) {
	// config with default value
	rawCfg := &RawConfig{
		LogLevel: log.INFO,
		API: RawAPI{
			BaseURL: "http://127.0.0.1:9091",
			Timeout: "15s",
		},
		Validator: RawValidator{
			Debounce:    ruleset.DefaultDebounce.String(),
			Concurrency: ruleset.DefaultConcurrency,
		},
		RuleSet: RawRuleSet{
			GeoSiteURL: ruleset.DefaultGeoSiteURL,
			GeoIPURL:   ruleset.DefaultGeoIPURL,
			CacheTTL:   "10m",
			Timeout:    "10s",
		},
		Server: RawServer{
			Listen:       "127.0.0.1:9091",
			AllowOrigins: []string{"*"},
		},
		Filters:       []R.Filter{},
		CountryGroups: []R.CountryGroup{},
	}

	if err := yaml.Unmarshal(buf, rawCfg); err != nil {
		return nil, err
	}
	return rawCfg, nil
}

func ParseRawConfig(rawCfg *RawConfig) (*Config, error) {
	config := &Config{
		LogLevel:      rawCfg.LogLevel,
		Filters:       rawCfg.Filters,
		CountryGroups: rawCfg.CountryGroups,
	}

	api, err := parseAPI(rawCfg.API)
	if err != nil {
		return nil, err
	}
	config.API = api

	validator, err := parseValidator(rawCfg.Validator)
	if err != nil {
		return nil, err
	}
	config.Validator = validator

	ruleSet, err := parseRuleSet(rawCfg.RuleSet)
	if err != nil {
		return nil, err
	}
	config.RuleSet = ruleSet

	config.Server = Server{
		Listen:       rawCfg.Server.Listen,
		DBPath:       rawCfg.Server.DBPath,
		AllowOrigins: rawCfg.Server.AllowOrigins,
	}
	if config.Server.DBPath == "" {
		config.Server.DBPath = C.Path.Database()
	} else {
		config.Server.DBPath = C.Path.Resolve(config.Server.DBPath)
	}

	for idx, filter := range config.Filters {
		if strings.TrimSpace(filter.Name) == "" {
			return nil, fmt.Errorf("filter %d: name is empty", idx)
		}
	}
	for idx, group := range config.CountryGroups {
		if strings.TrimSpace(group.Name) == "" {
			return nil, fmt.Errorf("country group %d: name is empty", idx)
		}
		if group.NodeCount < 0 {
			return nil, fmt.Errorf("country group %s: negative node count", group.Name)
		}
	}
	return config, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", field)
	}
	return d, nil
}

func parseAPI(raw RawAPI) (API, error) {
	u, err := url.Parse(raw.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return API{}, fmt.Errorf("api.base-url %q is not a http(s) url", raw.BaseURL)
	}
	timeout, err := parseDuration("api.timeout", raw.Timeout)
	if err != nil {
		return API{}, err
	}
	return API{BaseURL: raw.BaseURL, Timeout: timeout}, nil
}

func parseValidator(raw RawValidator) (Validator, error) {
	debounce, err := parseDuration("validator.debounce", raw.Debounce)
	if err != nil {
		return Validator{}, err
	}
	if raw.Concurrency <= 0 {
		return Validator{}, fmt.Errorf("validator.concurrency must be positive, got %d", raw.Concurrency)
	}
	return Validator{Debounce: debounce, Concurrency: raw.Concurrency}, nil
}

func parseRuleSet(raw RawRuleSet) (RuleSet, error) {
	cacheTTL, err := parseDuration("rule-set.cache-ttl", raw.CacheTTL)
	if err != nil {
		return RuleSet{}, err
	}
	timeout, err := parseDuration("rule-set.timeout", raw.Timeout)
	if err != nil {
		return RuleSet{}, err
	}
	if raw.GithubProxy != "" && !strings.HasSuffix(raw.GithubProxy, "/") {
		raw.GithubProxy += "/"
	}
	return RuleSet{
		GeoSiteURL:  raw.GeoSiteURL,
		GeoIPURL:    raw.GeoIPURL,
		GithubProxy: raw.GithubProxy,
		CacheTTL:    cacheTTL,
		Timeout:     timeout,
	}, nil
}

// ValidatorOptions turns the validator section into ruleset options.
func (c *Config) ValidatorOptions() []ruleset.Option {
	return []ruleset.Option{
		ruleset.WithDelay(c.Validator.Debounce),
		ruleset.WithConcurrency(c.Validator.Concurrency),
	}
}

// ProberOption turns the rule-set section into a prober option.
func (c *Config) ProberOption() ruleset.ProberOption {
	return ruleset.ProberOption{
		GeoSiteURL:  c.RuleSet.GeoSiteURL,
		GeoIPURL:    c.RuleSet.GeoIPURL,
		GithubProxy: c.RuleSet.GithubProxy,
		Timeout:     c.RuleSet.Timeout,
		CacheTTL:    c.RuleSet.CacheTTL,
	}
}
