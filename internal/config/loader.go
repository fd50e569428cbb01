// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` from four layers (highest
precedence last):

  1. Optional `conf/.env` under the resolved root (godotenv, never
     overrides variables already set by the process manager).
  2. Optional `conf/larder.yaml`.
  3. Legacy environment names from the first deployment
     (`NOCO_DB_BASE_URL`, `NOCO_DB_API_TOKEN`, `NOCO_DB_RECIPES_TABLE_ID`,
     `NOCO_DB_IDEAS_TABLE_ID`, `FLASK_APP_SECRET_KEY`).
  4. Environment variables prefixed `LARDER_`, where `__` maps to “.”
     (e.g., `LARDER_UPSTREAM__BASE_URL → upstream.base_url`).

After merging, `vault:` references are resolved, the tree is unmarshalled
into typed structs, defaults fill empty keys, and the result is
validated.  There is no package-level copy; callers pass the pointer to
whoever needs it.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read, env overlays.
  • ERROR spans – YAML parse, overlay, unmarshal, validation failures.
  • INFO  span  – final “config loaded” with key highlights (never secrets).
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds a `conf/` directory,
    which lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// Options tunes Load.  The zero value is usable.
type Options struct {
	Root    string       // overrides LARDER_ROOT and discovery
	Secrets SecretGetter // nil disables vault: references
}

const envPrefix = "LARDER_"

// legacyEnv maps environment names from earlier deployments onto
// koanf keys.
var legacyEnv = map[string]string{
	"NOCO_DB_BASE_URL":         "upstream.base_url",
	"NOCO_DB_API_TOKEN":        "upstream.token",
	"NOCO_DB_RECIPES_TABLE_ID": "upstream.recipes_table",
	"NOCO_DB_IDEAS_TABLE_ID":   "upstream.ideas_table",
	"FLASK_APP_SECRET_KEY":     "auth.session_key",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves LARDER_ROOT or climbs directories until conf/ is found.
// Falls back to the executable heuristic for the production layout.
func RootDir() string {
	if r := os.Getenv("LARDER_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if fi, err := os.Stat(filepath.Join(dir, "conf")); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overlays, resolves secrets, and validates.
func Load(ctx context.Context, opts Options) (*Config, error) {
	root := opts.Root
	if root == "" {
		root = RootDir()
	}
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "larder.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml absent", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		zap.S().Errorw("config legacy env overlay failed", "err", err)
		return nil, err
	}

	// LARDER_UPSTREAM__BASE_URL → upstream.base_url
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		if s == "ROOT" {
			return ""
		}
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, opts.Secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	cfg.applyDefaults()
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"upstream", cfg.Upstream.BaseURL,
		"auth", cfg.AuthEnabled(),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// legacyKey maps a known legacy name to its koanf key and skips the rest.
func legacyKey(name string) string {
	return legacyEnv[name]
}
