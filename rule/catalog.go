package rules

import (
	C "github.com/xiaobei/singbox-manager/constant"
)

// Icon keys understood by the frontend.
const (
	IconShield  = "shield"
	IconGlobe   = "globe"
	IconTv      = "tv"
	IconMessage = "message-circle"
	IconGithub  = "github"
	IconBot     = "bot"
	IconApple   = "apple"
	IconMonitor = "monitor"
)

var groupIcons = map[string]string{
	"ad-block":    IconShield,
	"ai-services": IconBot,
	"google":      IconGlobe,
	"youtube":     IconTv,
	"github":      IconGithub,
	"telegram":    IconMessage,
	"twitter":     IconMessage,
	"netflix":     IconTv,
	"spotify":     IconTv,
	"apple":       IconApple,
	"microsoft":   IconMonitor,
	"cn":          IconGlobe,
	"private":     IconShield,
}

// IconFor returns the icon of a preset group, falling back to the globe.
func IconFor(groupID string) string {
	if icon, ok := groupIcons[groupID]; ok {
		return icon
	}
	return IconGlobe
}

// DefaultRuleGroups is the closed preset catalog, in display order.
func DefaultRuleGroups() []RuleGroup {
	groups := []RuleGroup{
		{ID: "ad-block", Name: "Ad Block", SiteRules: []string{"category-ads-all"}, Outbound: C.Reject, Enabled: true},
		{ID: "ai-services", Name: "AI Services", SiteRules: []string{"openai", "anthropic", "google-gemini", "perplexity"}, Outbound: C.Proxy, Enabled: true},
		{ID: "google", Name: "Google", SiteRules: []string{"google"}, IPRules: []string{"google"}, Outbound: C.Proxy, Enabled: true},
		{ID: "youtube", Name: "YouTube", SiteRules: []string{"youtube"}, Outbound: C.Proxy, Enabled: true},
		{ID: "github", Name: "GitHub", SiteRules: []string{"github"}, Outbound: C.Proxy, Enabled: true},
		{ID: "telegram", Name: "Telegram", SiteRules: []string{"telegram"}, IPRules: []string{"telegram"}, Outbound: C.Proxy, Enabled: true},
		{ID: "twitter", Name: "Twitter", SiteRules: []string{"twitter"}, IPRules: []string{"twitter"}, Outbound: C.Proxy, Enabled: true},
		{ID: "netflix", Name: "Netflix", SiteRules: []string{"netflix"}, IPRules: []string{"netflix"}, Outbound: C.Proxy, Enabled: false},
		{ID: "spotify", Name: "Spotify", SiteRules: []string{"spotify"}, Outbound: C.Proxy, Enabled: false},
		{ID: "apple", Name: "Apple", SiteRules: []string{"apple", "icloud"}, Outbound: C.Direct, Enabled: true},
		{ID: "microsoft", Name: "Microsoft", SiteRules: []string{"microsoft"}, Outbound: C.Direct, Enabled: true},
		{ID: "cn", Name: "China", SiteRules: []string{"cn", "geolocation-cn"}, IPRules: []string{"cn"}, Outbound: C.Direct, Enabled: true},
		{ID: "private", Name: "Private Network", SiteRules: []string{"private"}, IPRules: []string{"private"}, Outbound: C.Direct, Enabled: true},
	}
	return groups
}
