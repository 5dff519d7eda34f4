package constant

import (
	"fmt"
	"strings"
)

// Rule Type
const (
	DomainSuffix RuleType = iota
	DomainKeyword
	Domain
	IPCIDR
	GeoSite
	GeoIP
	Port
)

// RuleTypes lists every rule type in the order the editor offers them.
var RuleTypes = []RuleType{DomainSuffix, DomainKeyword, Domain, IPCIDR, GeoSite, GeoIP, Port}

type RuleType int

func (rt RuleType) String() string {
	switch rt {
	case DomainSuffix:
		return "domain_suffix"
	case DomainKeyword:
		return "domain_keyword"
	case Domain:
		return "domain"
	case IPCIDR:
		return "ip_cidr"
	case GeoSite:
		return "geosite"
	case GeoIP:
		return "geoip"
	case Port:
		return "port"
	default:
		return "unknown"
	}
}

// IsRuleSet reports whether values of this type are rule set tags that
// must be resolved remotely before a rule can be saved.
func (rt RuleType) IsRuleSet() bool {
	return rt == GeoSite || rt == GeoIP
}

// Valid reports whether rt is a member of the closed enumeration.
func (rt RuleType) Valid() bool {
	return rt >= DomainSuffix && rt <= Port
}

func ParseRuleType(tp string) (RuleType, error) {
	switch strings.ToLower(strings.TrimSpace(tp)) {
	case "domain_suffix":
		return DomainSuffix, nil
	case "domain_keyword":
		return DomainKeyword, nil
	case "domain":
		return Domain, nil
	case "ip_cidr":
		return IPCIDR, nil
	case "geosite":
		return GeoSite, nil
	case "geoip":
		return GeoIP, nil
	case "port":
		return Port, nil
	default:
		return 0, fmt.Errorf("unsupported rule type %q", tp)
	}
}

func (rt RuleType) MarshalText() ([]byte, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("unsupported rule type %d", int(rt))
	}
	return []byte(rt.String()), nil
}

func (rt *RuleType) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleType(string(text))
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}
