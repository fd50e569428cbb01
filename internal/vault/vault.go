// internal/vault/vault.go
//
// Vault client wrapper for Larder.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK with a KV-v2 helper and per-key
//     caching.  config.Load uses it to resolve `vault:` references.
//   - Secrets are read once at boot, so there is no background token
//     renewal.  A token that expires between restarts is the operator's
//     concern.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(logger)                   // during boot.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)      // via config.Load.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.  No em-dash.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by FromEnv when VAULT_ADDR is unset.
var ErrNotConfigured = errors.New("vault: VAULT_ADDR is not set")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	kv  func(mount string) kvReader
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// kvReader is the one SDK call we make; tests substitute it.
type kvReader interface {
	Get(ctx context.Context, secretPath string) (*vault.KVSecret, error)
}

// New constructs a client from the standard Vault environment.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token).
func New(log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	log.Debugw("vault client ready", "addr", cfg.Address)
	return newClient(func(mount string) kvReader { return apiCli.KVv2(mount) }, log), nil
}

// FromEnv returns New(log) when VAULT_ADDR is set and ErrNotConfigured
// otherwise.
func FromEnv(log *zap.SugaredLogger) (*Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return nil, ErrNotConfigured
	}
	return New(log)
}

func newClient(kv func(string) kvReader, log *zap.SugaredLogger) *Client {
	return &Client{kv: kv, log: log, cache: make(map[string]cached)}
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result
// is cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.kv(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	c.log.Debugw("vault secret read", "path", secretPath, "key", key)
	return sval, nil
}

//
// SECTION 2.  Helpers
//

// splitMount separates the KV mount from the secret path:
// "secret/app/larder" → ("secret", "app/larder").
func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	mount, rel, _ = strings.Cut(p, "/")
	return
}
