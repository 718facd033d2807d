package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Version is reported by the health endpoint
const Version = "0.2.0"

// Reporter is told about every finished restore, e.g. to show a notification.
type Reporter interface {
	Report(rep *restore.Report) error
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	restorer *restore.Restorer
	reporter Reporter
	upgrader websocket.Upgrader
	log      *zerolog.Logger
}

// NewServer creates a new API server. reporter may be nil.
func NewServer(restorer *restore.Restorer, reporter Reporter) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		restorer: restorer,
		reporter: reporter,
		upgrader: websocket.Upgrader{},
		log: logger.WithComponent("api"),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/tree", s.handleGetTree).Methods("GET")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleDeleteProfile).Methods("DELETE")
	api.HandleFunc("/profiles/{name}/save", s.handleSaveProfile).Methods("POST")
	api.HandleFunc("/profiles/{name}/load", s.handleLoadProfile).Methods("POST")

	// Restore progress
	api.HandleFunc("/events", s.handleEvents)
}

// Handler returns the root handler. Browser requests from other origins are
// refused since the routes overwrite profiles and spawn processes.
func (s *Server) Handler() http.Handler {
	return s.sameOrigin(s.router)
}

// Run serves on port until ctx is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// sameOrigin rejects requests whose Origin header names another host.
// Requests without an Origin (curl, the CLI) pass.
func (s *Server) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !sameHost(origin, r.Host) {
			s.log.Warn().Str("origin", origin).Str("method", r.Method).Str("path", r.URL.Path).Msg("Rejected cross-origin request")
			s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "cross-origin requests are not allowed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var fatal *restore.FatalError
	switch {
	case errors.Is(err, profile.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, profile.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.As(err, &fatal):
		switch fatal.Code {
		case restore.ExitProfileNotFound:
			status = http.StatusNotFound
		case restore.ExitNoProfile:
			status = http.StatusBadRequest
		case restore.ExitNoCommonOutput:
			status = http.StatusConflict
		}
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.restorer.Tree()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.restorer.Store().List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	tree, err := s.restorer.Store().Load(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.restorer.Store().Delete(mux.Vars(r)["name"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.restorer.Save(name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "profile": name})
}

func (s *Server) handleLoadProfile(w http.ResponseWriter, r *http.Request) {
	report, err := s.restorer.Load(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.reporter != nil {
		if err := s.reporter.Report(report); err != nil {
			s.log.Warn().Err(err).Msg("Failed to report restore")
		}
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so no event after it is lost
	updates := s.restorer.Subscribe()
	defer s.restorer.Unsubscribe(updates)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	// The client never sends anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}
