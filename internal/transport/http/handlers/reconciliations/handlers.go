package reconciliationshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kare/internal/domain/audit"
	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/reconciliation"
	"kare/internal/domain/reports"
	"kare/internal/transport/http/api"
	"kare/internal/transport/http/middleware"
	"kare/internal/transport/http/shared"
)

type Handler struct {
	Service *reconciliation.Service
	Reports *reports.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *reconciliation.Service, reportsSvc *reports.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Reports: reportsSvc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reconciliations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReconciliationsRun, h.Perms)).Post("/", h.handleRun)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRead, h.Perms)).Get("/stats", h.handleStats)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRead, h.Perms)).Get("/by-incapacity/{incapacityID}", h.handleByIncapacity)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRead, h.Perms)).Get("/{reconciliationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRead, h.Perms)).Get("/{reconciliationID}/certificate", h.handleCertificate)
		r.With(middleware.RequirePermission(auth.PermReconciliationsRun, h.Perms)).Put("/{reconciliationID}/notes", h.handleAnnotate)
	})
}

type runRequest struct {
	IncapacityID string `json:"incapacityId"`
	Notes        string `json:"notes"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.IncapacityID) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "incapacityId is required", middleware.GetRequestID(r.Context()))
		return
	}

	rec, err := h.Service.Run(r.Context(), user, payload.IncapacityID, payload.Notes)
	if err != nil {
		h.writeDomainError(w, r, err, "reconciliation_failed", "failed to run reconciliation")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionReconciliationCreate, "reconciliation", rec.ID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil,
		map[string]any{"incapacityId": rec.IncapacityID, "totalPayable": rec.TotalPayable.StringFixed(2)}); err != nil {
		slog.Warn("audit reconciliation failed", "err", err)
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := reconciliation.ListFilter{
		IncapacityType: strings.TrimSpace(r.URL.Query().Get("type")),
		Limit:          page.Limit,
		Offset:         page.Offset,
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reconciliation_list_failed", "failed to list reconciliations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reconciliation_stats_failed", "failed to compute stats", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "reconciliationID"))
	if err != nil {
		h.writeDomainError(w, r, err, "reconciliation_get_failed", "failed to load reconciliation")
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleByIncapacity(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.ByIncapacity(r.Context(), chi.URLParam(r, "incapacityID"))
	if err != nil {
		h.writeDomainError(w, r, err, "reconciliation_get_failed", "failed to load reconciliation")
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "reconciliationID"))
	if err != nil {
		h.writeDomainError(w, r, err, "reconciliation_get_failed", "failed to load reconciliation")
		return
	}

	pdf, err := h.Reports.Certificate(rec)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "certificate_failed", "failed to render certificate", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="reconciliation-`+rec.ID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("certificate write failed", "err", err)
	}
}

type annotateRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload annotateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	reconciliationID := chi.URLParam(r, "reconciliationID")
	rec, err := h.Service.Annotate(r.Context(), reconciliationID, payload.Notes)
	if err != nil {
		h.writeDomainError(w, r, err, "reconciliation_update_failed", "failed to update notes")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionReconciliationNotes, "reconciliation", reconciliationID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil,
		map[string]string{"notes": payload.Notes}); err != nil {
		slog.Warn("audit reconciliation notes failed", "err", err)
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error, failCode, failMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, reconciliation.ErrNotFound), errors.Is(err, incapacity.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "reconciliation not found", requestID)
	case errors.Is(err, reconciliation.ErrAlreadyReconciled):
		api.Fail(w, http.StatusConflict, "already_reconciled", "this incapacity already has a reconciliation", requestID)
	case errors.Is(err, reconciliation.ErrPrecondition):
		api.Fail(w, http.StatusUnprocessableEntity, "precondition_failed", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, failCode, failMessage, requestID)
	}
}
