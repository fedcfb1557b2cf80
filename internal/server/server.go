// Package server exposes the dashboard session as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/naka-gawa/github-pr-dashboard/internal/dashboard"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
)

// Session is the part of dashboard.Session the handlers use.
type Session interface {
	Snapshot() dashboard.State
	SetToken(ctx context.Context, token string) error
	SelectOrganization(ctx context.Context, login string) error
	SelectRepository(ctx context.Context, name string) error
	Refresh(ctx context.Context) error
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type selectOrganizationRequest struct {
	Login string `json:"login" validate:"required,max=100"`
}

type selectRepositoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// Handler serves the dashboard API.
type Handler struct {
	session  Session
	validate *validator.Validate
	logger   *log.Logger
}

// NewHandler creates a Handler.
func NewHandler(session Session, logger *log.Logger) *Handler {
	return &Handler{
		session:  session,
		validate: validator.New(),
		logger:   logger,
	}
}

// Router builds the chi router with the dashboard routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(h.logger))

	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.state)
		r.Post("/token", h.setToken)
		r.Post("/organizations/select", h.selectOrganization)
		r.Post("/repositories/select", h.selectRepository)
		r.Post("/refresh", h.refresh)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) setToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, h.session.SetToken(r.Context(), req.Token))
}

func (h *Handler) selectOrganization(w http.ResponseWriter, r *http.Request) {
	var req selectOrganizationRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, h.session.SelectOrganization(r.Context(), req.Login))
}

func (h *Handler) selectRepository(w http.ResponseWriter, r *http.Request) {
	var req selectRepositoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, h.session.SelectRepository(r.Context(), req.Name))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	h.apply(w, h.session.Refresh(r.Context()))
}

// maxRequestBodyBytes caps the size of a JSON request body.
const maxRequestBodyBytes = 64 << 10

// decode reads and validates a JSON body, answering 400 on failure and 413
// when the body exceeds maxRequestBodyBytes.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body is too large")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return false
	}
	return true
}

// apply answers with the new state, or maps the session error to a status.
func (h *Handler) apply(w http.ResponseWriter, err error) {
	if err == nil {
		h.respondJSON(w, http.StatusOK, h.session.Snapshot())
		return
	}

	var (
		denied *gateway.AccessDeniedError
		apiErr *gateway.APIError
	)
	switch {
	case errors.As(err, &denied):
		h.respondError(w, http.StatusForbidden, "ACCESS_DENIED", err.Error())
	case errors.Is(err, dashboard.ErrStale):
		h.respondError(w, http.StatusConflict, "STALE_SELECTION", err.Error())
	case errors.Is(err, dashboard.ErrNoOrganization):
		h.respondError(w, http.StatusConflict, "NO_ORGANIZATION", err.Error())
	case errors.Is(err, dashboard.ErrNoToken):
		h.respondError(w, http.StatusUnauthorized, "NO_TOKEN", err.Error())
	case errors.As(err, &apiErr):
		h.respondError(w, http.StatusBadGateway, "GITHUB_API_ERROR", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("failed to encode JSON response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
