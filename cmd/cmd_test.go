package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/xiaobei/singbox-manager/adapter/boltstore"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/editor"
	"github.com/xiaobei/singbox-manager/hub/route"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownSets map[string]bool

func (k knownSets) Validate(_ context.Context, kind C.RuleType, name string) (*R.ValidationResult, error) {
	if k[name] {
		return &R.ValidationResult{Valid: true, Tag: R.RuleSetTag(kind, name)}, nil
	}
	return &R.ValidationResult{Valid: false, Message: "not found"}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetErr(out)
	RootCmd.SetIn(bytes.NewBufferString("n\n"))
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	store, err := boltstore.Open(filepath.Join(dir, "rules.db"), boltstore.Option{})
	require.NoError(t, err)
	defer store.Close()
	server := httptest.NewServer(route.Router(store, knownSets{"google": true}, route.Option{}))
	defer server.Close()

	base := []string{"-d", dir, "--api", server.URL}

	out, err := run(t, append(base, "rules", "add", "--name", "Block Google", "--type", "geosite",
		"--value", "google", "--outbound", "REJECT", "--priority", "5")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "saved Block Google")

	_, err = run(t, append(base, "rules", "add", "--name", "Bad", "--type", "geosite",
		"--value", "nowhere", "--outbound", "REJECT")...)
	assert.ErrorIs(t, err, editor.ErrNotSubmittable)

	_, err = run(t, append(base, "rules", "add", "--name", "Bad", "--type", "domain",
		"--value", "a.com", "--outbound", "Nowhere")...)
	assert.Error(t, err)

	rules, err := store.Rules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 5, rules[0].Priority)
	assert.Equal(t, C.Reject, rules[0].Outbound)

	out, err = run(t, append(base, "rules", "delete", rules[0].ID)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Delete rule "Block Google"?`)
	assert.Contains(t, out, "cancelled")

	_, err = run(t, append(base, "groups", "disable", "google")...)
	require.NoError(t, err)
	groups, err := store.RuleGroups(context.Background())
	require.NoError(t, err)
	assert.False(t, groups[2].Enabled)

	_, err = run(t, append(base, "validate", "geosite", "google", "nowhere")...)
	assert.Error(t, err)

	out, err = run(t, append(base, "--json", "outbounds")...)
	require.NoError(t, err)
	var values []string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, []string{C.Proxy, C.Direct, C.Reject}, values)
}
