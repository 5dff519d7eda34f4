package route

var (
	CtxKeyRuleID  = contextKey("rule id")
	CtxKeyGroupID = contextKey("rule group id")
)

type contextKey string

func (c contextKey) String() string {
	return "singbox-manager context value " + string(c)
}
