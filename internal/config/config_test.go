package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
upstream:
  base_url: https://noco.example.com/api/v2
  token: yaml-token
  recipes_table: m_recipes
  ideas_table: m_ideas
`

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "larder.yaml"), []byte(yaml), 0o644))
	}
	return root
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	root := writeRoot(t, baseYAML)

	cfg, err := Load(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, "https://noco.example.com/api/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, "m_recipes", cfg.Upstream.RecipesTable)
	assert.Equal(t, DefaultListenAddr, cfg.HTTP.ListenAddr)
	assert.Equal(t, DefaultTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	root := writeRoot(t, baseYAML+"\nhttp:\n  listen_addr: 127.0.0.1:9000\n")
	t.Setenv("NOCO_DB_API_TOKEN", "legacy-token")
	t.Setenv("LARDER_UPSTREAM__TIMEOUT", "3s")
	t.Setenv("LARDER_HTTP__FORCE_HTTPS", "true")

	cfg, err := Load(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, "legacy-token", cfg.Upstream.Token)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.HTTP.ForceHTTPS)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.ListenAddr)
}

func TestLoad_PrefixedEnvBeatsLegacy(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv("NOCO_DB_IDEAS_TABLE_ID", "legacy")
	t.Setenv("LARDER_UPSTREAM__IDEAS_TABLE", "modern")

	cfg, err := Load(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "modern", cfg.Upstream.IdeasTable)
}

func TestLoad_LegacyOnly(t *testing.T) {
	root := writeRoot(t, "")
	t.Setenv("NOCO_DB_BASE_URL", "http://noco.local/api/v2")
	t.Setenv("NOCO_DB_API_TOKEN", "tok")
	t.Setenv("NOCO_DB_RECIPES_TABLE_ID", "r")
	t.Setenv("NOCO_DB_IDEAS_TABLE_ID", "i")

	cfg, err := Load(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "http://noco.local/api/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, "r", cfg.Upstream.RecipesTable)
	assert.Equal(t, "i", cfg.Upstream.IdeasTable)
}

func TestLoad_ValidationNamesKeys(t *testing.T) {
	root := writeRoot(t, "upstream:\n  base_url: not a url\n")

	_, err := Load(context.Background(), Options{Root: root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.base_url")
	assert.Contains(t, err.Error(), "upstream.token")
}

func TestLoad_PasswordNeedsSessionKey(t *testing.T) {
	root := writeRoot(t, baseYAML+"\nauth:\n  password: hunter2\n")

	_, err := Load(context.Background(), Options{Root: root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.session_key")
}

func TestLoad_VaultReferences(t *testing.T) {
	root := writeRoot(t, baseYAML+"\nauth:\n  password: vault:secret/larder#password\n  session_key: 0123456789abcdef0123\n")
	t.Setenv("LARDER_UPSTREAM__TOKEN", "vault:secret/larder#noco_token")
	sg := fakeSecrets{
		"secret/larder#noco_token": "from-vault",
		"secret/larder#password":   "pw",
	}

	cfg, err := Load(context.Background(), Options{Root: root, Secrets: sg})
	require.NoError(t, err)
	assert.Equal(t, "from-vault", cfg.Upstream.Token)
	assert.Equal(t, "pw", cfg.Auth.Password)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_VaultWithoutSource(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv("LARDER_UPSTREAM__TOKEN", "vault:secret/larder#noco_token")

	_, err := Load(context.Background(), Options{Root: root})
	assert.ErrorIs(t, err, ErrNoSecrets)
}

func TestParseRef(t *testing.T) {
	path, key, ok := parseRef("vault:secret/app/larder#token")
	assert.True(t, ok)
	assert.Equal(t, "secret/app/larder", path)
	assert.Equal(t, "token", key)

	for _, bad := range []string{"vault:secret/larder", "vault:#k", "secret#k", "vault:p#"} {
		_, _, ok := parseRef(bad)
		assert.False(t, ok, bad)
	}
}

func TestRootDir_EnvOverride(t *testing.T) {
	t.Setenv("LARDER_ROOT", "/srv/larder")
	assert.Equal(t, "/srv/larder", RootDir())
}
