// internal/config/model.go
//
// Typed configuration model for Larder.
//
// Context
// -------
// These structs define the shape of the tree that loader.go builds from
// its overlay layers:
//
//   • optional `conf/.env`                       – dotenv values,
//   • optional `conf/larder.yaml`                – primary static file,
//   • legacy `NOCO_DB_*` names                   – older deployments,
//   • `LARDER_`-prefixed environment overrides   – highest precedence.
//
// Any string that begins with `vault:` is resolved through Vault before
// unmarshalling, so the model only ever holds plain values.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Paths.Root` is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Upstream section
//

// Upstream locates the hosted tabular API and the two collections.
//
// The token is a secret.  Keep it in `.env`, the environment, or Vault
// (`vault:secret/larder#noco_token`), never in the YAML file.
type Upstream struct {
	BaseURL      string        `koanf:"base_url"      validate:"required,url"`
	Token        string        `koanf:"token"         validate:"required"`
	RecipesTable string        `koanf:"recipes_table" validate:"required"`
	IdeasTable   string        `koanf:"ideas_table"   validate:"required"`
	Timeout      time.Duration `koanf:"timeout"       validate:"gte=0"`
}

//
// Auth section
//

// Auth configures the session gate.  An empty Password disables it.
type Auth struct {
	Password   string        `koanf:"password"`
	SessionKey string        `koanf:"session_key" validate:"required_with=Password,omitempty,min=16"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gte=0"`
}

//
// Log section
//

// Log picks the minimum level for the file and console cores.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	Path string `koanf:"path"`
}

//
// Paths section
//

// Paths carries filesystem locations.  Root is discovered at runtime.
// Templates, when set, overrides the embedded page templates.
type Paths struct {
	Root      string `koanf:"-"`
	Templates string `koanf:"templates"`
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load and passed to every
// constructor that needs it.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Upstream Upstream `koanf:"upstream"`
	Auth     Auth     `koanf:"auth"`
	Log      Log      `koanf:"log"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"paths"`
}

// Defaults applied after unmarshal when a key is left empty.
const (
	DefaultListenAddr = ":8080"
	DefaultTimeout    = 15 * time.Second
	DefaultSessionTTL = 30 * 24 * time.Hour
	DefaultLogLevel   = "info"
)

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultListenAddr
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultTimeout
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// AuthEnabled reports whether the session gate is on.
func (c *Config) AuthEnabled() bool { return c.Auth.Password != "" }
