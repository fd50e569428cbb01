package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubKV struct {
	mount string
	data  map[string]map[string]any
	calls *int
	seen  *[]string
}

func (s stubKV) Get(_ context.Context, p string) (*vault.KVSecret, error) {
	*s.calls++
	*s.seen = append(*s.seen, s.mount+"|"+p)
	d, ok := s.data[p]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return &vault.KVSecret{Data: d}, nil
}

func newStub(t *testing.T, data map[string]map[string]any) (*Client, *int, *[]string) {
	calls := 0
	var seen []string
	c := newClient(func(m string) kvReader {
		return stubKV{mount: m, data: data, calls: &calls, seen: &seen}
	}, zaptest.NewLogger(t).Sugar())
	return c, &calls, &seen
}

func TestGetKV(t *testing.T) {
	c, _, seen := newStub(t, map[string]map[string]any{
		"app/larder": {"token": "abc", "port": 8080},
	})
	ctx := context.Background()

	v, err := c.GetKV(ctx, "secret/app/larder", "token", 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.Equal(t, []string{"secret|app/larder"}, *seen)

	_, err = c.GetKV(ctx, "secret/app/larder", "missing", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "secret/app/larder", "port", 0)
	assert.ErrorContains(t, err, "not a string")

	_, err = c.GetKV(ctx, "secret/nope", "token", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "", "token", 0)
	assert.Error(t, err)
}

func TestGetKV_Caches(t *testing.T) {
	c, calls, _ := newStub(t, map[string]map[string]any{"larder": {"k": "v"}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := c.GetKV(ctx, "secret/larder", "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, 1, *calls)

	_, err := c.GetKV(ctx, "secret/larder", "k", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "ttl 0 bypasses the cache")
}

func TestFromEnv_Unset(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	_, err := FromEnv(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("kv/a/b")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "a/b", r)

	m, r = splitMount("kv")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "", r)
}
