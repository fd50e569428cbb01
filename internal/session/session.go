// internal/session/session.go
//
// Larder – single-password session gate.
//
// Context
//   The app has one shared password and no user table.  A successful login
//   sets a signed, stateless cookie:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with auth.session_key.  Verifies authenticity.
//
//   Verification checks the signature and that the issue time lies within
//   the configured TTL.  No server-side store is needed, so restarts and
//   multiple instances behave the same.  Rotating the key logs everyone out.
//
//   When no password is configured the gate is disabled and Require passes
//   every request through.
//
// Workflow
//   •  CheckPassword(pw)  → constant-time compare.
//   •  Login(w, r)        → set cookie.
//   •  Valid(r)           → verify cookie.
//   •  Require(next)      → redirect anonymous requests to /login.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/web"
)

const (
	CookieName = "larder_session"
	LoginPath  = "/login"

	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
)

// Options configures a Manager.
type Options struct {
	Password string
	Key      string
	TTL      time.Duration
}

// Manager issues and checks session cookies.  Safe for concurrent use.
type Manager struct {
	password []byte
	key      []byte
	ttl      time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

// New returns a Manager.  log may be nil.
func New(opts Options, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Manager{
		password: []byte(opts.Password),
		key:      []byte(opts.Key),
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Enabled reports whether a password is configured.
func (m *Manager) Enabled() bool { return len(m.password) > 0 }

// CheckPassword compares pw with the configured password in constant time.
func (m *Manager) CheckPassword(pw string) bool {
	if !m.Enabled() {
		return false
	}
	a := sha256.Sum256([]byte(pw))
	b := sha256.Sum256(m.password)
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

/*──────────────────────────── cookie ───────────────────────────────────────*/

// Login sets a fresh session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request) error {
	tok, err := m.token()
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Valid reports whether r carries a live session cookie.  Always true when
// the gate is disabled.
func (m *Manager) Valid(r *http.Request) bool {
	if !m.Enabled() {
		return true
	}
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	return m.verify(c.Value)
}

/*──────────────────────────── gate ─────────────────────────────────────────*/

// Require lets requests with a valid session through.  Others are sent to
// the login page with the original path in ?next=.
func (m *Manager) Require(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Valid(r) {
			next.ServeHTTP(w, r)
			return
		}
		m.log.Debugw("session required", "path", r.URL.Path)

		target := LoginPath
		if r.Method == http.MethodGet && !web.IsHTMX(r) {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		web.Redirect(w, r, target)
	})
}

/*──────────────────────────── token ────────────────────────────────────────*/

func (m *Manager) token() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(m.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, m.sign(nonce, ts)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (m *Manager) verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	nonce, ts, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := m.now()
	if now.Sub(issued) > m.ttl || issued.Sub(now) > time.Minute {
		return false
	}
	return hmac.Equal(sig, m.sign(nonce, ts))
}

func (m *Manager) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, m.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// SafeNext returns next when it is a local absolute path, and "/" otherwise.
func SafeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}
