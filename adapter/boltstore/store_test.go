package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	C "github.com/xiaobei/singbox-manager/constant"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	store, err := Open(path, Option{
		Filters:       []R.Filter{{Name: "Streaming", Enabled: true}},
		CountryGroups: []R.CountryGroup{{Name: "Japan", Emoji: "🇯🇵", NodeCount: 2}},
	})
	require.NoError(t, err)
	return store
}

func TestStore_Rules(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "rules.db"))
	defer store.Close()

	rules, err := store.Rules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	created, err := store.AddRule(ctx, R.Rule{
		Name:     "Block Google",
		RuleType: C.GeoSite,
		Values:   []string{"google", " youtube", "google"},
		Outbound: C.Reject,
		Enabled:  true,
		Priority: 50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"google", "youtube"}, created.Values)

	update := created.Clone()
	update.Enabled = false
	update.ID = "ignored"
	require.NoError(t, store.UpdateRule(ctx, created.ID, update))

	rules, err = store.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, created.ID, rules[0].ID)
	assert.False(t, rules[0].Enabled)
	assert.Equal(t, 50, rules[0].Priority)

	require.NoError(t, store.DeleteRule(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteRule(ctx, created.ID), R.ErrNotFound)
	assert.ErrorIs(t, store.UpdateRule(ctx, created.ID, update), R.ErrNotFound)
}

func TestStore_RejectsInvalidRule(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "rules.db"))
	defer store.Close()

	_, err := store.AddRule(ctx, R.Rule{Name: " ", RuleType: C.Domain, Values: []string{"a.com"}, Outbound: C.Direct})
	assert.ErrorIs(t, err, R.ErrEmptyName)

	_, err = store.AddRule(ctx, R.Rule{Name: "x", RuleType: C.Domain, Values: []string{"", " "}, Outbound: C.Direct})
	assert.ErrorIs(t, err, R.ErrEmptyValues)
}

func TestStore_RuleGroups(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.db")
	store := openStore(t, path)

	require.NoError(t, store.ToggleRuleGroup(ctx, "netflix", true))
	require.NoError(t, store.UpdateRuleGroupOutbound(ctx, "netflix", "🇯🇵 Japan"))
	assert.ErrorIs(t, store.ToggleRuleGroup(ctx, "missing", true), R.ErrNotFound)
	assert.Error(t, store.UpdateRuleGroupOutbound(ctx, "netflix", ""))
	require.NoError(t, store.Close())

	store = openStore(t, path)
	defer store.Close()
	groups, err := store.RuleGroups(ctx)
	require.NoError(t, err)

	catalog := R.DefaultRuleGroups()
	require.Len(t, groups, len(catalog))
	for i := range catalog {
		assert.Equal(t, catalog[i].ID, groups[i].ID)
	}

	var netflix R.RuleGroup
	for _, group := range groups {
		if group.ID == "netflix" {
			netflix = group
		}
	}
	assert.True(t, netflix.Enabled)
	assert.Equal(t, "🇯🇵 Japan", netflix.Outbound)
	assert.Equal(t, []string{"netflix"}, netflix.SiteRules)
}

func TestStore_StaticCollections(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "rules.db"))
	defer store.Close()

	filters, err := store.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []R.Filter{{Name: "Streaming", Enabled: true}}, filters)

	groups, err := store.CountryGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, "🇯🇵 Japan", groups[0].Label())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Rules(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
