package rules

import (
	"errors"
	"fmt"
	"strings"

	C "github.com/xiaobei/singbox-manager/constant"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrEmptyName   = errors.New("rule name is empty")
	ErrEmptyValues = errors.New("rule values are empty")
	ErrBadType     = errors.New("unsupported rule type")
	ErrNoOutbound  = errors.New("outbound is empty")
)

// Rule is a user-owned custom rule. Lower Priority is evaluated earlier.
type Rule struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	RuleType C.RuleType `json:"rule_type" yaml:"rule-type"`
	Values   []string   `json:"values" yaml:"values"`
	Outbound string     `json:"outbound" yaml:"outbound"`
	Enabled  bool       `json:"enabled" yaml:"enabled"`
	Priority int        `json:"priority" yaml:"priority"`
}

// Clone returns a deep copy, the Values slice included.
func (r Rule) Clone() Rule {
	r.Values = append([]string(nil), r.Values...)
	return r
}

// Verify checks the invariants a persisted rule must hold. Lexical
// correctness of domains, CIDRs and ports is left to the proxy.
func (r Rule) Verify() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if !r.RuleType.Valid() {
		return fmt.Errorf("rule %s: %w %d", r.Name, ErrBadType, int(r.RuleType))
	}
	if len(NormalizeValues(r.Values)) == 0 {
		return fmt.Errorf("rule %s: %w", r.Name, ErrEmptyValues)
	}
	if r.Outbound == "" {
		return fmt.Errorf("rule %s: %w", r.Name, ErrNoOutbound)
	}
	return nil
}

// RuleGroup is a preset category. Only Outbound and Enabled are mutable.
type RuleGroup struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	SiteRules []string `json:"site_rules" yaml:"site-rules"`
	IPRules   []string `json:"ip_rules,omitempty" yaml:"ip-rules"`
	Outbound  string   `json:"outbound" yaml:"outbound"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

func (g RuleGroup) Clone() RuleGroup {
	g.SiteRules = append([]string(nil), g.SiteRules...)
	g.IPRules = append([]string(nil), g.IPRules...)
	return g
}

// Filter is a named node filter. Only enabled filters are offered as outbounds.
type Filter struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// CountryGroup is a dynamically discovered group of nodes by country.
type CountryGroup struct {
	Name      string `json:"name" yaml:"name"`
	Emoji     string `json:"emoji" yaml:"emoji"`
	NodeCount int    `json:"node_count" yaml:"node-count"`
}

// Label is the outbound value a country group is selected by.
func (g CountryGroup) Label() string {
	return g.Emoji + " " + g.Name
}

// ValidationResult is the remote answer for a single rule set name.
// URL and Tag are only meaningful when Valid is true.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	URL     string `json:"url"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}
