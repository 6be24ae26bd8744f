// Package dashboard serves the HTTP control surface and the WebSocket live feed.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"dex-pair-monitor/internal/blacklist"
	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/monitor"
	"dex-pair-monitor/internal/observability"
	"dex-pair-monitor/internal/render"
	"dex-pair-monitor/internal/storage"
)

// Controller drives the refresh loop.
type Controller interface {
	Start(cfg *domain.Config) error
	Stop() error
	UpdateConfig(cfg domain.Config) error
	Config() domain.Config
	Status() monitor.Status
}

// AlertReader lists recent alerts, newest first.
type AlertReader interface {
	Recent(limit int) []domain.Alert
}

// BlacklistManager manages blocked addresses.
type BlacklistManager interface {
	Add(ctx context.Context, entry domain.BlacklistEntry) (*domain.BlacklistEntry, error)
	Remove(ctx context.Context, address string) error
	List(ctx context.Context) ([]*domain.BlacklistEntry, error)
	Sync(ctx context.Context) error
	Len() int
}

// FrameSource returns the last rendered frame.
type FrameSource interface {
	Frame() render.Frame
}

// DefaultAlertLimit is the number of alerts returned when no limit is given.
const DefaultAlertLimit = 50

// Options contains configuration for creating a Server.
type Options struct {
	Controller Controller
	Alerts     AlertReader
	Blacklist  BlacklistManager
	Frames     FrameSource
	Hub        *Hub // optional, serves /ws
	Logger     *log.Logger
}

// Server is the HTTP control surface.
type Server struct {
	controller Controller
	alerts     AlertReader
	blacklist  BlacklistManager
	frames     FrameSource
	hub        *Hub
	logger     *log.Logger
	started    time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		controller: opts.Controller,
		alerts:     opts.Alerts,
		blacklist:  opts.Blacklist,
		frames:     opts.Frames,
		hub:        opts.Hub,
		logger:     logger,
		started:    time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("GET /config", s.handleGetConfig)
	mux.HandleFunc("PUT /config", s.handlePutConfig)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /snapshot.md", s.handleSnapshotMarkdown)
	mux.HandleFunc("GET /alerts", s.handleAlerts)

	if s.blacklist != nil {
		mux.HandleFunc("GET /blacklist", s.handleListBlacklist)
		mux.HandleFunc("POST /blacklist", s.handleAddBlacklist)
		mux.HandleFunc("DELETE /blacklist/{address}", s.handleRemoveBlacklist)
		mux.HandleFunc("POST /blacklist/sync", s.handleSyncBlacklist)
	}

	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}

	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// ConfigRequest overrides individual config fields. Absent fields keep their value.
type ConfigRequest struct {
	Endpoint        *string  `json:"endpoint"`
	MinLiquidityUSD *float64 `json:"minLiquidityUsd"`
	MaxAgeMinutes   *float64 `json:"maxAgeMinutes"`
	RefreshSeconds  *int     `json:"refreshSeconds"`
}

// Apply returns cfg with the request's fields applied.
func (req ConfigRequest) Apply(cfg domain.Config) domain.Config {
	if req.Endpoint != nil {
		cfg.Endpoint = *req.Endpoint
	}
	if req.MinLiquidityUSD != nil {
		cfg.Thresholds.MinLiquidityUSD = *req.MinLiquidityUSD
	}
	if req.MaxAgeMinutes != nil {
		cfg.Thresholds.MaxAgeMinutes = *req.MaxAgeMinutes
	}
	if req.RefreshSeconds != nil {
		cfg.RefreshSeconds = *req.RefreshSeconds
	}
	return cfg
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	monitor.Status
	Uptime          string `json:"uptime"`
	BlacklistTokens int    `json:"blacklistTokens"`
	WSClients       int    `json:"wsClients"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var cfg *domain.Config
	if r.ContentLength != 0 {
		req, err := decodeConfigRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		applied := req.Apply(s.controller.Config())
		cfg = &applied
	}

	if err := s.controller.Start(cfg); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.logger.Println("start requested")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "starting"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Stop(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.logger.Println("stop requested")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Config())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	req, err := decodeConfigRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := req.Apply(s.controller.Config())
	if err := s.controller.UpdateConfig(cfg); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: s.controller.Status(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.blacklist != nil {
		resp.BlacklistTokens = s.blacklist.Len()
	}
	if s.hub != nil {
		resp.WSClients = s.hub.Clients()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.frames.Frame())
}

func (s *Server) handleSnapshotMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, render.Markdown(s.frames.Frame()))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := DefaultAlertLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.alerts.Recent(limit))
}

type blacklistRequest struct {
	Address string               `json:"address"`
	Kind    domain.BlacklistKind `json:"kind"`
	Reason  string               `json:"reason"`
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.blacklist.List(r.Context())
	if err != nil {
		s.logger.Printf("list blacklist: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*domain.BlacklistEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	entry, err := s.blacklist.Add(r.Context(), domain.BlacklistEntry{
		Address: req.Address,
		Kind:    req.Kind,
		Reason:  req.Reason,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Printf("add blacklist entry: %v", err)
		}
		writeError(w, status, err)
		return
	}
	s.logger.Printf("blacklisted %s %s", entry.Kind, entry.Address)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if err := s.blacklist.Remove(r.Context(), address); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Printf("remove blacklist entry: %v", err)
		}
		writeError(w, status, err)
		return
	}
	s.logger.Printf("removed %s from blacklist", address)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncBlacklist(w http.ResponseWriter, r *http.Request) {
	if err := s.blacklist.Sync(r.Context()); err != nil {
		s.logger.Printf("sync blacklist: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tokens": s.blacklist.Len()})
}

func decodeConfigRequest(r *http.Request) (ConfigRequest, error) {
	var req ConfigRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, blacklist.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, monitor.ErrAlreadyRunning),
		errors.Is(err, monitor.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, monitor.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
