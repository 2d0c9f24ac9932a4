package replacementshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kare/internal/domain/audit"
	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/replacement"
	"kare/internal/transport/http/api"
	"kare/internal/transport/http/middleware"
	"kare/internal/transport/http/shared"
)

type Handler struct {
	Service *replacement.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *replacement.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/replacements", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReplacementsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermReplacementsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermReplacementsRead, h.Perms)).Get("/stats", h.handleStats)
		r.Get("/mine", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermReplacementsRead, h.Perms)).Get("/{replacementID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermReplacementsWrite, h.Perms)).Post("/{replacementID}/finalize", h.handleFinalize)
		r.With(middleware.RequirePermission(auth.PermReplacementsWrite, h.Perms)).Post("/{replacementID}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var in replacement.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	rep, err := h.Service.Create(r.Context(), user, in)
	if err != nil {
		h.writeDomainError(w, r, err, "replacement_create_failed", "failed to create replacement")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionReplacementCreate, "replacement", rep.ID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil,
		map[string]string{"incapacityId": rep.IncapacityID, "coverEmployeeId": rep.CoverEmployeeID}); err != nil {
		slog.Warn("audit replacement create failed", "err", err)
	}
	api.Created(w, rep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := replacement.ListFilter{
		IncapacityID:    strings.TrimSpace(r.URL.Query().Get("incapacityId")),
		CoverEmployeeID: strings.TrimSpace(r.URL.Query().Get("coverEmployeeId")),
		State:           strings.TrimSpace(r.URL.Query().Get("state")),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "replacement_list_failed", "failed to list replacements", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

// handleMine lists assignments where the caller is the covering employee.
// Deliberately open to every authenticated user.
func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.Mine(r.Context(), user)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "replacement_list_failed", "failed to list replacements", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "replacement_stats_failed", "failed to compute stats", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Service.Get(r.Context(), chi.URLParam(r, "replacementID"))
	if err != nil {
		h.writeDomainError(w, r, err, "replacement_get_failed", "failed to load replacement")
		return
	}
	api.Success(w, rep, middleware.GetRequestID(r.Context()))
}

type closeRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload closeRequest
	if r.Body != nil {
		// Body is optional on finalize.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	replacementID := chi.URLParam(r, "replacementID")
	rep, err := h.Service.Finalize(r.Context(), replacementID, payload.Notes)
	if err != nil {
		h.writeDomainError(w, r, err, "replacement_finalize_failed", "failed to finalize replacement")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionReplacementClose, "replacement", replacementID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		map[string]string{"state": replacement.StateActive},
		map[string]string{"state": rep.State, "notes": payload.Notes}); err != nil {
		slog.Warn("audit replacement finalize failed", "err", err)
	}
	api.Success(w, rep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload closeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	replacementID := chi.URLParam(r, "replacementID")
	rep, err := h.Service.Cancel(r.Context(), replacementID, payload.Reason)
	if err != nil {
		h.writeDomainError(w, r, err, "replacement_cancel_failed", "failed to cancel replacement")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionReplacementClose, "replacement", replacementID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		map[string]string{"state": replacement.StateActive},
		map[string]string{"state": rep.State, "reason": payload.Reason}); err != nil {
		slog.Warn("audit replacement cancel failed", "err", err)
	}
	api.Success(w, rep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error, failCode, failMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, replacement.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "replacement not found", requestID)
	case errors.Is(err, incapacity.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "incapacity not found", requestID)
	case errors.Is(err, replacement.ErrActiveReplacementExists):
		api.Fail(w, http.StatusConflict, "active_replacement_exists", "the incapacity already has an active replacement", requestID)
	case errors.Is(err, replacement.ErrCoverConflict):
		api.Fail(w, http.StatusConflict, "cover_conflict", "the covering employee already holds an active assignment", requestID)
	case errors.Is(err, replacement.ErrCoverOnLeave):
		api.Fail(w, http.StatusConflict, "cover_on_leave", "the covering employee has an open incapacity", requestID)
	case errors.Is(err, replacement.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, replacement.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, failCode, failMessage, requestID)
	}
}
