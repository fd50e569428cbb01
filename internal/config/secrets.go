// internal/config/secrets.go
//
// Vault reference resolution.
//
// Context
// -------
// Any string leaf in the merged tree shaped like
//
//	vault:<mount>/<path>#<key>
//
// is replaced with the secret it names before the tree is unmarshalled.
// Operators can therefore keep `upstream.token` or `auth.password` out of
// flat files while every other layer keeps working unchanged.
//
// Notes
// -----
//   • Resolution happens once at startup; values are not refreshed.
//   • A reference with no SecretGetter configured is a hard error.

package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	koanf "github.com/knadh/koanf/v2"
)

const vaultPrefix = "vault:"

// SecretGetter reads one key of a KV secret.  *vault.Client satisfies it.
type SecretGetter interface {
	GetKV(ctx context.Context, path, key string, ttl time.Duration) (string, error)
}

// ErrNoSecrets is returned when the tree holds a vault: reference but no
// SecretGetter was supplied.
var ErrNoSecrets = errors.New("config references vault but no secret source is configured")

// parseRef splits "vault:secret/larder#token" into ("secret/larder", "token").
func parseRef(s string) (path, key string, ok bool) {
	rest, found := strings.CutPrefix(s, vaultPrefix)
	if !found {
		return "", "", false
	}
	path, key, found = strings.Cut(rest, "#")
	if !found || path == "" || key == "" {
		return "", "", false
	}
	return path, key, true
}

// resolveSecrets rewrites every vault: leaf in k in place.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, sg SecretGetter) error {
	keys := k.Keys()
	sort.Strings(keys)

	for _, key := range keys {
		s, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		path, field, ok := parseRef(s)
		if !ok {
			return fmt.Errorf("config %s: malformed vault reference %q", key, s)
		}
		if sg == nil {
			return fmt.Errorf("config %s: %w", key, ErrNoSecrets)
		}
		val, err := sg.GetKV(ctx, path, field, 0)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}
	return nil
}
