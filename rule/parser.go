package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
)

var ErrNoUsablePort = errors.New("no usable port")

// RouteRule is one entry of sing-box's route.rules.
type RouteRule map[string]any

// RuleSetTag is the sing-box rule_set tag of a geosite/geoip name.
func RuleSetTag(tp C.RuleType, name string) string {
	return tp.String() + "-" + name
}

func parsePort(v string) (uint16, bool) {
	port, err := strconv.ParseUint(v, 10, 16)
	return uint16(port), err == nil
}

// parsePortRange accepts sing-box's "start:end" form, either side may be
// omitted but not both.
func parsePortRange(v string) (string, bool) {
	start, end, ok := strings.Cut(v, ":")
	if !ok || (start == "" && end == "") {
		return "", false
	}
	if start != "" {
		if _, ok := parsePort(start); !ok {
			return "", false
		}
	}
	if end != "" {
		if _, ok := parsePort(end); !ok {
			return "", false
		}
	}
	if start != "" && end != "" {
		a, _ := parsePort(start)
		b, _ := parsePort(end)
		if a > b {
			return "", false
		}
	}
	return start + ":" + end, true
}

func parsePorts(values []string) (ports []uint16, ranges []string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if port, ok := parsePort(v); ok {
			ports = append(ports, port)
			continue
		}
		if portRange, ok := parsePortRange(v); ok {
			ranges = append(ranges, portRange)
		}
	}
	return
}

// ParseRouteRule converts a custom rule into the route rule the proxy
// evaluates. Unparsable ports are skipped; the proxy owns lexical checks.
func ParseRouteRule(rule Rule) (RouteRule, error) {
	values := NormalizeValues(rule.Values)
	if len(values) == 0 {
		return nil, fmt.Errorf("rule %s: %w", rule.Name, ErrEmptyValues)
	}

	parsed := RouteRule{"outbound": rule.Outbound}
	switch rule.RuleType {
	case C.DomainSuffix, C.DomainKeyword, C.Domain, C.IPCIDR:
		parsed[rule.RuleType.String()] = values
	case C.Port:
		ports, ranges := parsePorts(values)
		if len(ports) == 0 && len(ranges) == 0 {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, ErrNoUsablePort)
		}
		switch len(ports) {
		case 0:
		case 1:
			parsed["port"] = ports[0]
		default:
			parsed["port"] = ports
		}
		if len(ranges) > 0 {
			parsed["port_range"] = ranges
		}
	case C.GeoSite, C.GeoIP:
		tags := make([]string, 0, len(values))
		for _, v := range values {
			tags = append(tags, RuleSetTag(rule.RuleType, v))
		}
		parsed["rule_set"] = tags
	default:
		return nil, fmt.Errorf("unsupported rule type %s", rule.RuleType)
	}
	return parsed, nil
}

// ParseRouteRules converts enabled rules in priority order. Custom rules
// come before preset groups, which keep catalog order. A rule that yields
// nothing the proxy can evaluate is logged and left out.
func ParseRouteRules(rules []Rule, groups []RuleGroup) ([]RouteRule, error) {
	var parsed []RouteRule
	for _, rule := range SortByPriority(rules) {
		if !rule.Enabled {
			continue
		}
		routeRule, err := ParseRouteRule(rule)
		if err != nil {
			log.Warnln("[Rule] skip rule %s: %s", rule.Name, err.Error())
			continue
		}
		parsed = append(parsed, routeRule)
	}

	for _, group := range groups {
		if !group.Enabled {
			continue
		}
		if len(group.SiteRules) > 0 {
			parsed = append(parsed, RouteRule{
				"rule_set": groupTags(C.GeoSite, group.SiteRules),
				"outbound": group.Outbound,
			})
		}
		if len(group.IPRules) > 0 {
			parsed = append(parsed, RouteRule{
				"rule_set": groupTags(C.GeoIP, group.IPRules),
				"outbound": group.Outbound,
			})
		}
	}
	return parsed, nil
}

func groupTags(tp C.RuleType, names []string) []string {
	tags := make([]string, 0, len(names))
	for _, name := range names {
		tags = append(tags, RuleSetTag(tp, name))
	}
	return tags
}
