// cmd/web/main.go
//
// Larder – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Bootstrap logger (console) so config problems are visible.
//
//  2. Vault client when VAULT_ADDR is set; config values written as
//     `vault:<path>#<key>` resolve through it.
//
//  3. Load and validate config (.env → YAML → legacy env → LARDER_ env).
//
//  4. Start daily rotating logger (tees to console when running in a TTY).
//
//  5. Upstream client, one repository per collection.
//
//  6. View engine, optional GeoIP reader, session manager.
//
//  7. Router: request info → recover → security headers → HTTPS redirect,
//     /healthz and /metrics, then the components behind the session gate.
//
//  8. Serve until SIGINT / SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/larder/components/auth"
	"github.com/yanizio/larder/components/ideas"
	"github.com/yanizio/larder/components/recipes"
	"github.com/yanizio/larder/internal/component"
	"github.com/yanizio/larder/internal/config"
	"github.com/yanizio/larder/internal/fieldedit"
	"github.com/yanizio/larder/internal/logger"
	"github.com/yanizio/larder/internal/nocodb"
	"github.com/yanizio/larder/internal/record"
	"github.com/yanizio/larder/internal/requestinfo"
	"github.com/yanizio/larder/internal/server"
	"github.com/yanizio/larder/internal/session"
	"github.com/yanizio/larder/internal/store"
	"github.com/yanizio/larder/internal/vault"
	"github.com/yanizio/larder/internal/view"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("larder: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Bootstrap logger ────────────────────────────────────────────
	//
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	//
	// ── 2–3.  Secrets and config ────────────────────────────────────────
	//
	opts := config.Options{Root: config.RootDir()}
	vc, err := vault.FromEnv(boot.Sugar())
	switch {
	case err == nil:
		opts.Secrets = vc
	case errors.Is(err, vault.ErrNotConfigured):
		boot.Debug("vault not configured")
	default:
		return err
	}

	cfg, err := config.Load(ctx, opts)
	if err != nil {
		return err
	}

	//
	// ── 4.  Production logger ───────────────────────────────────────────
	//
	lg, err := logger.New(logger.Options{Root: cfg.Paths.Root, Level: cfg.Log.Level, Tee: logger.InTTY()})
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	//
	// ── 5.  Upstream and repositories ───────────────────────────────────
	//
	api := nocodb.New(nocodb.Options{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
	})
	recipeRepo := store.New(api, record.Recipes(cfg.Upstream.RecipesTable), lg)
	ideaRepo := store.New(api, record.Ideas(cfg.Upstream.IdeasTable), lg)

	//
	// ── 6.  Views, geo, sessions ────────────────────────────────────────
	//
	views := view.New(view.Options{
		Override:    cfg.Paths.Templates,
		PhotoOrigin: origin(cfg.Upstream.BaseURL),
		AuthEnabled: cfg.AuthEnabled(),
	}, lg)
	views.Register(fieldedit.Component, fieldedit.Templates())

	var geo requestinfo.GeoDB
	if gr, err := requestinfo.OpenGeo(cfg.GeoIP.Path); err != nil {
		lg.Warnw("geoip disabled", "path", cfg.GeoIP.Path, "err", err)
	} else if gr != nil {
		defer gr.Close()
		geo = gr
	}

	sessions := session.New(session.Options{
		Password: cfg.Auth.Password,
		Key:      cfg.Auth.SessionKey,
		TTL:      cfg.Auth.SessionTTL,
	}, lg)
	if !sessions.Enabled() {
		lg.Warn("auth.password is empty; session gate disabled")
	}

	//
	// ── 7.  Router ──────────────────────────────────────────────────────
	//
	handler := server.Router(server.Deps{
		Log:        lg,
		Geo:        geo,
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
		Gate:       sessions.Require,
		Views:      views,
		Components: []component.Component{
			auth.New(sessions, views, lg),
			recipes.New(recipeRepo, views, lg),
			ideas.New(ideaRepo, recipeRepo, views, lg),
		},
	})
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	//
	// ── 8.  Serve and drain ─────────────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Infow("listening", "addr", cfg.HTTP.ListenAddr, "upstream", api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// origin returns scheme://host of the API base URL.  Attachment paths are
// served from the host root, not under /api/v2.
func origin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Scheme + "://" + u.Host
}
