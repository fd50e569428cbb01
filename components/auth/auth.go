// components/auth/auth.go
//
// Larder authentication component – login and logout.
//
// Routes (mounted at “/”, outside the session gate)
// -------------------------------------------------
//
//	GET  /login?next=     password form
//	POST /login           check password, set cookie, go to next
//	GET  /logout          clear cookie, back to /login
//
// With no password configured the gate is disabled and /login forwards to
// the index.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/larder/internal/component"
	"github.com/yanizio/larder/internal/form"
	"github.com/yanizio/larder/internal/session"
	"github.com/yanizio/larder/internal/view"
	"github.com/yanizio/larder/internal/web"
)

// Compile-time assertions.
var (
	_ component.Component = (*Component)(nil)
	_ component.Public    = (*Component)(nil)
)

//go:embed templates/*.html
var templatesFS embed.FS

// Component encapsulates login functionality.
type Component struct {
	sessions *session.Manager
	views    *view.Engine
	log      *zap.SugaredLogger
}

// New wires the component.  log may be nil.
func New(sessions *session.Manager, views *view.Engine, log *zap.SugaredLogger) *Component {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Component{sessions: sessions, views: views, log: log.With("component", "auth")}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Public keeps the login page reachable without a session.
func (c *Component) Public() bool { return true }

// Templates returns the embedded login page.
func (c *Component) Templates() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

// Routes adds /login and /logout.
func (c *Component) Routes(r chi.Router) {
	r.Get(session.LoginPath, c.handleLoginGET)
	r.Post(session.LoginPath, c.handleLoginPOST)
	r.Get("/logout", c.handleLogout)
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type loginForm struct {
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

type loginPage struct {
	Next   string
	Errors []form.ErrorField
}

func (c *Component) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	next := session.SafeNext(r.URL.Query().Get("next"))
	if !c.sessions.Enabled() || c.sessions.Valid(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	c.render(w, r, http.StatusOK, loginPage{Next: next})
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	if !c.sessions.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var in loginForm
	if err := form.Decode(r, &in); err != nil {
		var inv *form.Invalid
		if !errors.As(err, &inv) {
			web.Error(w, r, c.log, "Failed to read login form", err)
			return
		}
		c.render(w, r, http.StatusBadRequest, loginPage{Next: session.SafeNext(in.Next), Errors: inv.Fields})
		return
	}

	next := session.SafeNext(in.Next)
	if !c.sessions.CheckPassword(in.Password) {
		c.log.Warnw("login failed", "remote", r.RemoteAddr)
		c.render(w, r, http.StatusUnauthorized, loginPage{
			Next:   next,
			Errors: []form.ErrorField{{Name: "password", Message: "Incorrect password."}},
		})
		return
	}

	if err := c.sessions.Login(w, r); err != nil {
		web.Error(w, r, c.log, "Failed to start session", err)
		return
	}
	c.log.Infow("login", "remote", r.RemoteAddr)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	c.sessions.Logout(w)
	web.Redirect(w, r, session.LoginPath)
}

func (c *Component) render(w http.ResponseWriter, r *http.Request, code int, data loginPage) {
	if err := c.views.PageStatus(w, code, c.Name(), "login", data); err != nil {
		web.Error(w, r, c.log, "Failed to render page", err)
	}
}
