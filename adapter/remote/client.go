// Package remote talks to the management REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/go-chi/render"
)

const defaultTimeout = 15 * time.Second

type Option struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// StatusError is a non-2xx answer of the API.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// Unwrap maps 404 to rules.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return R.ErrNotFound
	}
	return nil
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client implements rules.Store and ruleset.Verifier on top of the API.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func New(option Option) (*Client, error) {
	base, err := url.Parse(option.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: unsupported scheme", option.BaseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		timeout: option.Timeout,
		client:  option.Client,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		reader = buf
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugln("[Remote] %s %s failed: %s", method, path, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		var msg errorBody
		if render.DecodeJSON(resp.Body, &msg) == nil {
			statusErr.Message = msg.Message
		}
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := render.DecodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var resp envelope[[]T]
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []T{}, nil
	}
	return resp.Data, nil
}

func (c *Client) RuleGroups(ctx context.Context) ([]R.RuleGroup, error) {
	return list[R.RuleGroup](ctx, c, "/api/rule-groups")
}

func (c *Client) Rules(ctx context.Context) ([]R.Rule, error) {
	return list[R.Rule](ctx, c, "/api/rules")
}

func (c *Client) Filters(ctx context.Context) ([]R.Filter, error) {
	return list[R.Filter](ctx, c, "/api/filters")
}

func (c *Client) CountryGroups(ctx context.Context) ([]R.CountryGroup, error) {
	return list[R.CountryGroup](ctx, c, "/api/country-groups")
}

func (c *Client) ToggleRuleGroup(ctx context.Context, id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, http.MethodPut, "/api/rule-groups/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) UpdateRuleGroupOutbound(ctx context.Context, id string, outbound string) error {
	body := map[string]string{"outbound": outbound}
	return c.do(ctx, http.MethodPut, "/api/rule-groups/"+url.PathEscape(id)+"/outbound", nil, body, nil)
}

func (c *Client) AddRule(ctx context.Context, rule R.Rule) (*R.Rule, error) {
	var resp envelope[*R.Rule]
	if err := c.do(ctx, http.MethodPost, "/api/rules", nil, rule, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) UpdateRule(ctx context.Context, id string, rule R.Rule) error {
	return c.do(ctx, http.MethodPut, "/api/rules/"+url.PathEscape(id), nil, rule, nil)
}

func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/rules/"+url.PathEscape(id), nil, nil, nil)
}

// Validate asks the API whether a geosite/geoip rule set exists.
func (c *Client) Validate(ctx context.Context, kind C.RuleType, name string) (*R.ValidationResult, error) {
	if !kind.IsRuleSet() {
		return nil, ruleset.ErrUnsupportedKind
	}
	query := url.Values{}
	query.Set("type", kind.String())
	query.Set("name", name)

	result := &R.ValidationResult{}
	if err := c.do(ctx, http.MethodGet, "/api/ruleset/validate", query, nil, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RouteRules fetches the route rules the server would hand to sing-box.
func (c *Client) RouteRules(ctx context.Context) ([]R.RouteRule, error) {
	return list[R.RouteRule](ctx, c, "/api/route-rules")
}
