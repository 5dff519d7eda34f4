package constant

// Built-in outbound sentinels. They are the only outbound names the proxy
// resolves without a node group or filter behind them.
const (
	Proxy  = "Proxy"
	Direct = "DIRECT"
	Reject = "REJECT"
)

// BuiltInOutbounds in the order they are always offered.
var BuiltInOutbounds = []string{Proxy, Direct, Reject}

type OutboundKind int

const (
	BuiltIn OutboundKind = iota
	CountryGroup
	Filter
	// Unknown marks a stored value no current source offers any more, e.g.
	// a filter that was disabled after the rule was saved.
	Unknown
)

func (k OutboundKind) String() string {
	switch k {
	case BuiltIn:
		return "BuiltIn"
	case CountryGroup:
		return "CountryGroup"
	case Filter:
		return "Filter"
	default:
		return "Unknown"
	}
}

// Outbound is a routing target. Name holds the sentinel for BuiltIn, the
// composed "<emoji> <name>" label for CountryGroup and the filter name for
// Filter, so a filter literally named "DIRECT" stays distinguishable from
// the sentinel until it is projected to a string.
type Outbound struct {
	Kind OutboundKind
	Name string
}

func BuiltInOutbound(name string) Outbound {
	return Outbound{Kind: BuiltIn, Name: name}
}

func CountryGroupOutbound(label string) Outbound {
	return Outbound{Kind: CountryGroup, Name: label}
}

func FilterOutbound(name string) Outbound {
	return Outbound{Kind: Filter, Name: name}
}

// String is the value stored in Rule.Outbound and RuleGroup.Outbound.
func (o Outbound) String() string {
	return o.Name
}

// IsBuiltIn reports whether name is one of the static sentinels.
func IsBuiltIn(name string) bool {
	switch name {
	case Proxy, Direct, Reject:
		return true
	}
	return false
}
