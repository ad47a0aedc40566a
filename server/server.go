// Package server exposes resolution and the manifest proxy over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/log"
	"github.com/cinegate/cinegate/metrics"
	"github.com/cinegate/cinegate/proxy"
	"github.com/cinegate/cinegate/resolver"
	"github.com/gorilla/mux"
)

const shutdownGrace = 10 * time.Second

// Server wires the resolve API and the proxy to one router.
type Server struct {
	dispatcher *dispatch.Dispatcher
	proxy      *proxy.Handler
	public     string
}

// New returns a Server resolving through d and proxying playlists fetched with f.
// public is the externally visible base URL; empty derives it per request.
func New(d *dispatch.Dispatcher, f fetch.Fetcher, public string) *Server {
	return &Server{
		dispatcher: d,
		proxy:      &proxy.Handler{Fetcher: f, Public: public},
		public:     public,
	}
}

// Router returns the handler serving every route.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverer, logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/resolve/{server}/{source}", s.handleResolve).Methods(http.MethodGet)
	api.HandleFunc("/resolve/{server}/{source}/", s.handleResolve).Methods(http.MethodGet)
	api.HandleFunc("/servers", s.handleServers).Methods(http.MethodGet)

	r.Handle(proxy.Prefix+"{"+proxy.TokenVar+"}/", s.proxy).Methods(http.MethodGet, http.MethodHead)
	r.Handle(proxy.Prefix+"{"+proxy.TokenVar+"}", s.proxy).Methods(http.MethodGet, http.MethodHead)

	r.Handle("/metrics", metrics.Handler())
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, dispatch.Result{Error: "no such route"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, srv *http.Server) error {
	srv.Handler = s.Router()

	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": srv.Addr}).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query()

	res := s.dispatcher.Resolve(r.Context(), dispatch.Request{
		Server:   vars["server"],
		SourceID: vars["source"],
		Force:    flag(query.Get("force")),
	})
	if !res.Success {
		respondJSON(w, Status(res.Err), res)
		return
	}

	if flag(query.Get("proxy")) {
		res.URL = proxy.Link(proxy.PublicBase(r, s.public), res.URL)
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	type server struct {
		Name    string   `json:"name"`
		Kind    string   `json:"kind"`
		Aliases []string `json:"aliases,omitempty"`
	}

	servers := s.dispatcher.Registry().Servers()
	out := make([]server, 0, len(servers))
	for _, srv := range servers {
		out = append(out, server{Name: srv.Name, Kind: srv.Kind.String(), Aliases: srv.Aliases})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": constant.Version,
	})
}

// Status maps a failed resolution to its HTTP status.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dispatch.ErrUnsupported), errors.Is(err, dispatch.ErrInvalidSource):
		return http.StatusBadRequest
	}

	switch resolver.ClassOf(err) {
	case resolver.ClassExtract, resolver.ClassCaptcha:
		return http.StatusNotFound
	case resolver.ClassTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func flag(v string) bool {
	switch v {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", constant.MimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("write response")
	}
}
