package outbound

import (
	"testing"

	C "github.com/xiaobei/singbox-manager/constant"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	options := Resolve(
		[]R.CountryGroup{{Name: "Hong Kong", Emoji: "🇭🇰", NodeCount: 5}},
		[]R.Filter{{Name: "Netflix", Enabled: true}, {Name: "Old", Enabled: false}},
	)

	assert.Equal(t, []string{"Proxy", "DIRECT", "REJECT", "🇭🇰 Hong Kong", "Netflix"}, Values(options))
	assert.Equal(t, "🇭🇰 Hong Kong (5 nodes)", options[3].Label)
	assert.Equal(t, C.CountryGroupOutbound("🇭🇰 Hong Kong"), options[3].Target)
	assert.Equal(t, "Netflix (filter)", options[4].Label)
	assert.Equal(t, "REJECT (block)", options[2].Label)
}

func TestResolve_Empty(t *testing.T) {
	assert.Equal(t, []string{"Proxy", "DIRECT", "REJECT"}, Values(Resolve(nil, nil)))
}

func TestResolve_KeepsDuplicates(t *testing.T) {
	options := Resolve(
		[]R.CountryGroup{{Name: "US", Emoji: "🇺🇸", NodeCount: 1}, {Name: "US", Emoji: "🇺🇸", NodeCount: 2}},
		[]R.Filter{{Name: "DIRECT", Enabled: true}},
	)
	require.Len(t, options, 6)
	assert.Equal(t, options[3].Value, options[4].Value)
	assert.Equal(t, C.FilterOutbound("DIRECT"), options[5].Target)
}

func TestLookup(t *testing.T) {
	options := Resolve(nil, []R.Filter{{Name: "DIRECT", Enabled: true}, {Name: "Streaming", Enabled: true}})

	option, ok := Lookup(options, "DIRECT")
	require.True(t, ok)
	assert.Equal(t, C.BuiltIn, option.Target.Kind)

	option, ok = Lookup(options, "Streaming")
	require.True(t, ok)
	assert.Equal(t, C.Filter, option.Target.Kind)

	_, ok = Lookup(options, "missing")
	assert.False(t, ok)
}
