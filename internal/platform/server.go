package platform

import (
	"context"
	"crypto/rand"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"configdesk/internal/monitor"
	"configdesk/ui"
	"configdesk/util"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerConfig holds HTTP server tunables.
type HTTPServerConfig struct {
	Port         int           `toml:"port"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	IdleTimeout  time.Duration `toml:"idle_timeout"`
	EnableTLS    bool          `toml:"tls"`       // whether to use HTTPS
	CertFile     string        `toml:"cert_file"` // path to TLS certificate
	KeyFile      string        `toml:"key_file"`  // path to TLS private key
	// SessionKey signs the session cookie. Empty generates a key per process,
	// which logs everyone out on restart.
	SessionKey string `toml:"session_key"`
}

const sessionCookie = "configdesk"

// NewCookieStore returns the session cookie store for key.
func NewCookieStore(key string) *sessions.CookieStore {
	secret := []byte(key)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		slog.Warn("no session key configured; sessions end on restart")
	}
	return sessions.NewCookieStore(secret)
}

// SessionMiddleware assigns every browser a session id kept in a cookie and
// puts it in the request context.
func SessionMiddleware(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := store.Get(r, sessionCookie)
			id, ok := sess.Values["id"].(string)
			if !ok || id == "" {
				id = uuid.NewString()
				sess.Values["id"] = id
				sess.Options = &sessions.Options{
					Path:     "/",
					MaxAge:   60 * 60 * 24 * 7, // 1 week
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				}
				if err := sess.Save(r, w); err != nil {
					slog.Warn("session cookie", "err", err)
				}
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Services are the handlers' dependencies.
type Services struct {
	Documents Documents
	Editor    *EditorHandlers
	// Monitor is nil when the dashboard API is disabled.
	Monitor monitor.Reader
	Cookies sessions.Store
}

// NewRouter mounts every route.
func NewRouter(svc Services) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chiLogger)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", GetConfig(svc.Documents))
		r.Post("/config", PostConfig(svc.Documents))
		if svc.Monitor != nil {
			monitor.Routes(r, svc.Monitor)
		}
	})

	staticFS, _ := fs.Sub(ui.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Get("/favicon.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(ui.FaviconSVG)
	})
	r.Get("/help", templ.Handler(ui.Page("Help", util.MarkdownHTML(ui.DocsFS, "docs/help.md"))).ServeHTTP)

	if svc.Editor != nil {
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(svc.Cookies))
			r.Get("/", templ.Handler(ui.Index()).ServeHTTP)
			svc.Editor.Routes(r)
		})
	}
	return r
}

// RunHTTPServer starts an HTTP server and returns a channel that will receive
// an error when the server exits (gracefully or not).
func RunHTTPServer(ctx context.Context, cfg HTTPServerConfig, handler http.Handler) <-chan error {
	errCh := make(chan error, 1)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errCh <- err
			return
		}
		errCh <- ctx.Err()
	}()

	go func() {
		var err error
		if cfg.EnableTLS {
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	slog.Info("http server listening", "port", cfg.Port, "tls", cfg.EnableTLS)
	return errCh
}

// chiLogger is a lightweight slog adapter for chi middleware.
func chiLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t0 := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(t0)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if HTTPRequestsTotal != nil {
			HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			HTTPDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		}
		slog.Info("http", "method", r.Method, "path", r.URL.Path, "route", route, "status", status, "duration", duration)
	})
}

type sessionCtxKey struct{}

// SessionID returns the session ID from the request context.
func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionCtxKey{}).(string)
	return id
}
