package rules

import "context"

// Store is the remote source of truth for rules and rule groups. Every
// mutation fully replaces the targeted fields, so repeating a call is safe.
type Store interface {
	RuleGroups(ctx context.Context) ([]RuleGroup, error)
	Rules(ctx context.Context) ([]Rule, error)
	Filters(ctx context.Context) ([]Filter, error)
	CountryGroups(ctx context.Context) ([]CountryGroup, error)

	ToggleRuleGroup(ctx context.Context, id string, enabled bool) error
	UpdateRuleGroupOutbound(ctx context.Context, id string, outbound string) error

	AddRule(ctx context.Context, rule Rule) (*Rule, error)
	UpdateRule(ctx context.Context, id string, rule Rule) error
	DeleteRule(ctx context.Context, id string) error
}
