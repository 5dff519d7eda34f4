package rules

import (
	"sort"

	C "github.com/xiaobei/singbox-manager/constant"
)

const (
	MaxDisplayValues    = 3
	MaxDisplaySiteRules = 2
)

// SortByPriority returns a copy of rules ordered by ascending priority.
// Rules with equal priority keep their store order.
func SortByPriority(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

type RuleRow struct {
	ID            string
	Name          string
	RuleType      C.RuleType
	TypeLabel     string
	Outbound      string
	OutboundColor string
	Values        []string
	MoreValues    int
	Priority      int
	Enabled       bool
}

// Present projects custom rules into display rows in evaluation order.
func Present(rules []Rule) []RuleRow {
	sorted := SortByPriority(rules)
	rows := make([]RuleRow, 0, len(sorted))
	for _, rule := range sorted {
		values, more := truncate(rule.Values, MaxDisplayValues)
		rows = append(rows, RuleRow{
			ID:            rule.ID,
			Name:          rule.Name,
			RuleType:      rule.RuleType,
			TypeLabel:     Info(rule.RuleType).Short,
			Outbound:      rule.Outbound,
			OutboundColor: ChipColor(rule.Outbound),
			Values:        values,
			MoreValues:    more,
			Priority:      rule.Priority,
			Enabled:       rule.Enabled,
		})
	}
	return rows
}

type GroupRow struct {
	ID            string
	Name          string
	Icon          string
	SiteRules     []string
	MoreSiteRules int
	Outbound      string
	Enabled       bool
}

// PresentGroups keeps catalog order.
func PresentGroups(groups []RuleGroup) []GroupRow {
	rows := make([]GroupRow, 0, len(groups))
	for _, group := range groups {
		siteRules, more := truncate(group.SiteRules, MaxDisplaySiteRules)
		rows = append(rows, GroupRow{
			ID:            group.ID,
			Name:          group.Name,
			Icon:          IconFor(group.ID),
			SiteRules:     siteRules,
			MoreSiteRules: more,
			Outbound:      group.Outbound,
			Enabled:       group.Enabled,
		})
	}
	return rows
}

// truncate copies at most n leading items; the caller's slice is never
// aliased.
func truncate(items []string, n int) ([]string, int) {
	if len(items) <= n {
		return append([]string(nil), items...), 0
	}
	return append([]string(nil), items[:n]...), len(items) - n
}
