package ruleset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultGeoSiteURL = "https://raw.githubusercontent.com/SagerNet/sing-geosite/rule-set"
	DefaultGeoIPURL   = "https://raw.githubusercontent.com/SagerNet/sing-geoip/rule-set"

	defaultProbeTimeout = 10 * time.Second
	defaultCacheTTL     = 10 * time.Minute
)

type ProberOption struct {
	GeoSiteURL  string
	GeoIPURL    string
	GithubProxy string
	Timeout     time.Duration
	CacheTTL    time.Duration
	Client      *http.Client
}

// Prober is the Verifier behind the REST API: a rule set exists if its
// compiled .srs file can be fetched from the rule set repository.
type Prober struct {
	geoSiteURL  string
	geoIPURL    string
	githubProxy string
	timeout     time.Duration
	client      *http.Client
	cache       *cache.Cache
}

func NewProber(option ProberOption) *Prober {
	p := &Prober{
		geoSiteURL:  strings.TrimRight(option.GeoSiteURL, "/"),
		geoIPURL:    strings.TrimRight(option.GeoIPURL, "/"),
		githubProxy: option.GithubProxy,
		timeout:     option.Timeout,
		client:      option.Client,
	}
	if p.geoSiteURL == "" {
		p.geoSiteURL = DefaultGeoSiteURL
	}
	if p.geoIPURL == "" {
		p.geoIPURL = DefaultGeoIPURL
	}
	if p.timeout <= 0 {
		p.timeout = defaultProbeTimeout
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	ttl := option.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	p.cache = cache.New(ttl, 2*ttl)
	return p
}

// URL returns the remote location of a rule set.
func (p *Prober) URL(kind C.RuleType, name string) (string, error) {
	var base string
	switch kind {
	case C.GeoSite:
		base = p.geoSiteURL
	case C.GeoIP:
		base = p.geoIPURL
	default:
		return "", ErrUnsupportedKind
	}
	return p.githubProxy + base + "/" + url.PathEscape(R.RuleSetTag(kind, name)) + ".srs", nil
}

func (p *Prober) Validate(ctx context.Context, kind C.RuleType, name string) (*R.ValidationResult, error) {
	if !kind.IsRuleSet() {
		return nil, ErrUnsupportedKind
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\ \t") {
		return &R.ValidationResult{Valid: false, Message: fmt.Sprintf("invalid %s rule set name", kind)}, nil
	}

	tag := R.RuleSetTag(kind, name)
	if cached, ok := p.cache.Get(tag); ok {
		result := cached.(R.ValidationResult)
		return &result, nil
	}

	target, err := p.URL(kind, name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", tag, err)
	}
	_ = resp.Body.Close()

	var result R.ValidationResult
	switch {
	case resp.StatusCode == http.StatusOK:
		result = R.ValidationResult{
			Valid:   true,
			URL:     target,
			Tag:     tag,
			Message: fmt.Sprintf("%s rule set %s found", kind, name),
		}
	case resp.StatusCode == http.StatusNotFound:
		result = R.ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("%s rule set %s not found", kind, name),
		}
	default:
		return nil, fmt.Errorf("probe %s: unexpected status %d", tag, resp.StatusCode)
	}

	log.Debugln("[RuleSet] probe %s: %t", tag, result.Valid)
	p.cache.Set(tag, result, cache.DefaultExpiration)
	return &result, nil
}
