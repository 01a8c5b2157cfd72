// Package server is the relay's HTTP surface: the device WebSocket and the settings API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/and161185/relax-alerting/internal/server/middleware"
	"github.com/and161185/relax-alerting/internal/settings"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxSettingBody = 4 << 10

// Server serves the relay HTTP routes.
type Server struct {
	Source  *settings.Source
	Channel http.Handler
	Config  *config.RelayConfig
}

func NewServer(source *settings.Source, channel http.Handler, cfg *config.RelayConfig) *Server {
	return &Server{Source: source, Channel: channel, Config: cfg}
}

// Router builds the route tree. The WebSocket route skips the body-rewriting
// middleware because the connection is hijacked.
func (srv *Server) Router() (http.Handler, error) {
	trusted, err := middleware.TrustedCIDR(srv.Config.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)

	router.With(trusted).Handle("/ws", srv.Channel)

	router.Group(func(r chi.Router) {
		r.Use(middleware.LogMiddleware(srv.Config.Logger))
		r.Use(middleware.CompressMiddleware)
		r.Use(middleware.DecompressMiddleware)

		r.Get("/ping", srv.PingHandler)
		r.Get("/settings", srv.GetSettingsHandler)
		r.Get("/settings/raw", srv.GetRawSettingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(trusted)
			r.Use(middleware.VerifyHashMiddleware(srv.Config.Key))
			r.Put("/settings/{key}", srv.PutSettingHandler)
		})
	})

	return router, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	handler, err := srv.Router()
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              srv.Config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.Config.Logger.Infow("relay listening", "addr", srv.Config.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.Source.Ping(r.Context()); err != nil {
		srv.Config.Logger.Warnw("settings store ping failed", "err", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetSettingsHandler returns the settings as the device would receive them.
func (srv *Server) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, srv.Source.Load(r.Context()))
}

// GetRawSettingsHandler returns the stored wrapped values.
func (srv *Server) GetRawSettingsHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := srv.Source.Raw(r.Context())
	if err != nil {
		srv.Config.Logger.Warnw("failed to read settings store", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	srv.writeJSON(w, raw)
}

// PutSettingHandler stores the request body as the value of one setting.
// The body may be the bare value or an already wrapped {"name": value}.
func (srv *Server) PutSettingHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingBody))
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	value := settings.Unwrap(strings.TrimSpace(string(body)))

	if err := srv.Source.Set(r.Context(), key, value); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		srv.Config.Logger.Warnw("failed to store setting", "key", key, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	srv.writeJSON(w, srv.Source.Load(r.Context()))
}

func (srv *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.Config.Logger.Warnw("failed to write response JSON", "err", err)
	}
}
