package rules

import (
	C "github.com/xiaobei/singbox-manager/constant"
)

// TypeInfo is how the editor presents a rule type.
type TypeInfo struct {
	Label       string
	Short       string
	Placeholder string
}

var typeInfos = map[C.RuleType]TypeInfo{
	C.DomainSuffix: {
		Label:       "Domain suffix (domain_suffix)",
		Short:       "Domain suffix",
		Placeholder: "One domain suffix per line, e.g.:\ngoogle.com\nyoutube.com",
	},
	C.DomainKeyword: {
		Label:       "Domain keyword (domain_keyword)",
		Short:       "Domain keyword",
		Placeholder: "One value per line",
	},
	C.Domain: {
		Label:       "Full domain (domain)",
		Short:       "Full domain",
		Placeholder: "One value per line",
	},
	C.IPCIDR: {
		Label:       "IP range (ip_cidr)",
		Short:       "IP range",
		Placeholder: "One IP range per line, e.g.:\n192.168.0.0/16\n10.0.0.0/8",
	},
	C.GeoSite: {
		Label:       "GeoSite rule set",
		Short:       "GeoSite",
		Placeholder: "One geosite rule set name per line, e.g.:\ngoogle\nyoutube\ncursor",
	},
	C.GeoIP: {
		Label:       "GeoIP rule set",
		Short:       "GeoIP",
		Placeholder: "One geoip rule set name per line, e.g.:\ncn\ngoogle",
	},
	C.Port: {
		Label:       "Port (port)",
		Short:       "Port",
		Placeholder: "One value per line",
	},
}

// Info returns the presentation of tp. Every member of C.RuleTypes has an
// entry; anything else falls back to the raw type name.
func Info(tp C.RuleType) TypeInfo {
	if info, ok := typeInfos[tp]; ok {
		return info
	}
	return TypeInfo{Label: tp.String(), Short: tp.String(), Placeholder: "One value per line"}
}

const (
	ColorSuccess = "success"
	ColorDanger  = "danger"
	ColorPrimary = "primary"
)

// ChipColor is the colour class of an outbound chip in the rule list.
func ChipColor(outbound string) string {
	switch outbound {
	case C.Direct:
		return ColorSuccess
	case C.Reject:
		return ColorDanger
	default:
		return ColorPrimary
	}
}
