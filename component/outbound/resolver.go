package outbound

import (
	"fmt"

	C "github.com/xiaobei/singbox-manager/constant"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/samber/lo"
)

// Option is one selectable outbound. Value is what gets stored on a rule
// or group; Label is for display only.
type Option struct {
	Target C.Outbound
	Value  string
	Label  string
}

var builtInLabels = map[string]string{
	C.Proxy:  "Proxy (proxy)",
	C.Direct: "DIRECT (direct)",
	C.Reject: "REJECT (block)",
}

// Resolve merges the static sentinels with the discovered country groups
// and enabled filters. Country groups producing the same label are all kept.
func Resolve(countryGroups []R.CountryGroup, filters []R.Filter) []Option {
	options := make([]Option, 0, len(C.BuiltInOutbounds)+len(countryGroups)+len(filters))
	for _, name := range C.BuiltInOutbounds {
		options = append(options, Option{
			Target: C.BuiltInOutbound(name),
			Value:  name,
			Label:  builtInLabels[name],
		})
	}

	for _, group := range countryGroups {
		label := group.Label()
		options = append(options, Option{
			Target: C.CountryGroupOutbound(label),
			Value:  label,
			Label:  fmt.Sprintf("%s (%d nodes)", label, group.NodeCount),
		})
	}

	for _, filter := range filters {
		if !filter.Enabled {
			continue
		}
		options = append(options, Option{
			Target: C.FilterOutbound(filter.Name),
			Value:  filter.Name,
			Label:  fmt.Sprintf("%s (filter)", filter.Name),
		})
	}
	return options
}

// Lookup finds the option a stored outbound string refers to. A built-in
// sentinel wins over a country group or filter with the same text.
func Lookup(options []Option, value string) (Option, bool) {
	if C.IsBuiltIn(value) {
		target := C.BuiltInOutbound(value)
		return Option{Target: target, Value: value, Label: builtInLabels[value]}, true
	}
	for _, option := range options {
		if option.Value == value {
			return option, true
		}
	}
	return Option{}, false
}

// Values projects options to their stored strings.
func Values(options []Option) []string {
	return lo.Map(options, func(option Option, _ int) string {
		return option.Value
	})
}
