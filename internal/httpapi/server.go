// Package httpapi exposes the Lifecycle Engine's mutations and reads over
// HTTP, with a role-based authorization layer in front of every route.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/engine"
	"github.com/packetgov/kernel/internal/integrity"
	"github.com/packetgov/kernel/internal/readcache"
)

// Server adapts an Engine and Integrity service to HTTP.
type Server struct {
	Engine       *engine.Engine
	StatusReader readcache.StatusReader
	Integrity    *integrity.Service
	Logger       zerolog.Logger

	mux *http.ServeMux
}

// NewServer builds a Server with its routes registered. statusReader may
// be eng itself, or an eng wrapped in a read cache.
func NewServer(eng *engine.Engine, statusReader readcache.StatusReader, integritySvc *integrity.Service, logger zerolog.Logger) *Server {
	s := &Server{Engine: eng, StatusReader: statusReader, Integrity: integritySvc, Logger: logger}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// NewHTTPServer wraps Server in a *http.Server with the kernel's standard
// timeouts, ready to ListenAndServe.
func NewHTTPServer(addr string, s *Server, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /v1/status", s.withRole("status", s.handleStatus))
	s.mux.HandleFunc("GET /v1/ready", s.withRole("ready", s.handleReady))
	s.mux.HandleFunc("GET /v1/briefing", s.withRole("briefing", s.handleBriefing))
	s.mux.HandleFunc("GET /v1/integrity", s.withRole("integrity", s.handleIntegrity))

	s.mux.HandleFunc("POST /v1/claim", s.withRole("claim", s.handleClaim))
	s.mux.HandleFunc("POST /v1/done", s.withRole("done", s.handleDone))
	s.mux.HandleFunc("POST /v1/note", s.withRole("note", s.handleNote))
	s.mux.HandleFunc("POST /v1/fail", s.withRole("fail", s.handleFail))
	s.mux.HandleFunc("POST /v1/reset", s.withRole("reset", s.handleReset))
}

type envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// withRole enforces the RBAC role table before invoking next. The caller's
// role travels as the X-Kernel-Role header; an absent header defaults to
// operator, matching the reference server's default identity.
func (s *Server) withRole(action string, next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := normalizeRole(r.Header.Get("X-Kernel-Role"))
		if !roleAllows(role, action) {
			writeJSON(w, http.StatusForbidden, envelope{OK: false, Message: "forbidden", Action: action})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

type claimRequest struct {
	PacketID string `json:"packet_id"`
	Agent    string `json:"agent"`
}

type mutationRequest struct {
	PacketID string `json:"packet_id"`
	Agent    string `json:"agent"`
	Notes    string `json:"notes"`
	Reason   string `json:"reason"`
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func (s *Server) writeResult(w http.ResponseWriter, action string, result *engine.Result, err error) {
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Action: action, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: result.OK, Action: action, Message: result.Message, Data: result})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	req, err := decode[claimRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Message: "invalid request body"})
		return
	}
	result, err := s.Engine.Claim(req.PacketID, req.Agent)
	s.writeResult(w, "claim", result, err)
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	req, err := decode[mutationRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Message: "invalid request body"})
		return
	}
	result, err := s.Engine.Done(req.PacketID, req.Agent, req.Notes)
	s.writeResult(w, "done", result, err)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	req, err := decode[mutationRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Message: "invalid request body"})
		return
	}
	result, err := s.Engine.Note(req.PacketID, req.Agent, req.Notes)
	s.writeResult(w, "note", result, err)
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	req, err := decode[mutationRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Message: "invalid request body"})
		return
	}
	result, err := s.Engine.Fail(req.PacketID, req.Agent, req.Reason)
	s.writeResult(w, "fail", result, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	req, err := decode[mutationRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{OK: false, Message: "invalid request body"})
		return
	}
	result, err := s.Engine.Reset(req.PacketID, req.Agent)
	s.writeResult(w, "reset", result, err)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state, err := s.StatusReader.Status()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{OK: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: state})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.Engine.Ready()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{OK: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: ids})
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	briefing, err := s.Engine.Briefing(10, false)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{OK: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: briefing})
}

func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	if s.Integrity == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{OK: false, Message: "integrity service not configured"})
		return
	}
	mode := dcl.ModeFast
	if r.URL.Query().Get("mode") == "full" {
		mode = dcl.ModeFull
	}
	report, err := s.Integrity.Verify(mode)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{OK: false, Message: err.Error()})
		return
	}
	code := http.StatusOK
	if !report.OK {
		code = http.StatusConflict
	}
	writeJSON(w, code, envelope{OK: report.OK, Data: report})
}
