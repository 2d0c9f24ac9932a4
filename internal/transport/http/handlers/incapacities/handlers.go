package incapacitieshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kare/internal/domain/audit"
	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/platform/metrics"
	"kare/internal/platform/ocr"
	"kare/internal/transport/http/api"
	"kare/internal/transport/http/middleware"
	"kare/internal/transport/http/shared"
)

type Handler struct {
	Service          *incapacity.Service
	Perms            middleware.PermissionStore
	Audit            *audit.Service
	Metrics          *metrics.Collector
	MaxDocumentBytes int64
}

func NewHandler(service *incapacity.Service, perms middleware.PermissionStore, auditSvc *audit.Service, collector *metrics.Collector, maxDocumentBytes int64) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: collector, MaxDocumentBytes: maxDocumentBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incapacities", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermIncapacitiesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesRead, h.Perms)).Get("/stats", h.handleStats)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesRead, h.Perms)).Get("/{incapacityID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesRead, h.Perms)).Post("/{incapacityID}/state", h.handleTransition)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesWrite, h.Perms)).Post("/{incapacityID}/resubmit", h.handleResubmit)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesWrite, h.Perms)).Post("/{incapacityID}/document", h.handleUploadDocument)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesRead, h.Perms)).Get("/{incapacityID}/document", h.handleDownloadDocument)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesReview, h.Perms)).Post("/{incapacityID}/document/analyze", h.handleAnalyzeDocument)
		r.With(middleware.RequirePermission(auth.PermIncapacitiesWrite, h.Perms)).Delete("/{incapacityID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := incapacity.ListFilter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Area:       strings.TrimSpace(r.URL.Query().Get("area")),
		State:      strings.TrimSpace(r.URL.Query().Get("state")),
		Type:       strings.TrimSpace(r.URL.Query().Get("type")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	records, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "incapacity_list_failed", "failed to list incapacities", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	stats, err := h.Service.Stats(r.Context(), user)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "incapacity_stats_failed", "failed to compute stats", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "incapacityID"))
	if err != nil {
		h.writeDomainError(w, r, err, "incapacity_get_failed", "failed to load incapacity")
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	in, upload, ok := h.decodeCreate(w, r, user)
	if !ok {
		return
	}
	in.Document = upload

	rec, err := h.Service.Create(r.Context(), user, in)
	if err != nil {
		h.writeDomainError(w, r, err, "incapacity_create_failed", "failed to create incapacity")
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

type transitionRequest struct {
	Target string `json:"target"`
	Notes  string `json:"notes"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !incapacity.ValidState(payload.Target) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown target state", middleware.GetRequestID(r.Context()))
		return
	}

	incapacityID := chi.URLParam(r, "incapacityID")
	before, err := h.Service.Get(r.Context(), user, incapacityID)
	if err != nil {
		h.writeDomainError(w, r, err, "incapacity_get_failed", "failed to load incapacity")
		return
	}

	rec, err := h.Service.Transition(r.Context(), user, incapacityID, payload.Target, payload.Notes)
	if err != nil {
		h.writeDomainError(w, r, err, "incapacity_transition_failed", "failed to change state")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordTransition()
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionStateTransition, "incapacity", incapacityID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		map[string]string{"state": before.State},
		map[string]string{"state": rec.State, "notes": payload.Notes}); err != nil {
		slog.Warn("audit transition failed", "err", err)
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	incapacityID := chi.URLParam(r, "incapacityID")
	in, upload, decoded := h.decodeResubmit(w, r)
	if !decoded {
		return
	}

	rec, err := h.Service.Resubmit(r.Context(), user, incapacityID, in, upload)
	if err != nil {
		h.writeDomainError(w, r, err, "incapacity_resubmit_failed", "failed to resubmit incapacity")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionResubmit, "incapacity", incapacityID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil,
		map[string]any{"type": rec.Type, "totalDays": rec.TotalDays}); err != nil {
		slog.Warn("audit resubmit failed", "err", err)
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	upload, ok := h.readUpload(w, r, "document")
	if !ok {
		return
	}
	if upload == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a document file is required", middleware.GetRequestID(r.Context()))
		return
	}

	docID, err := h.Service.AttachDocument(r.Context(), user, chi.URLParam(r, "incapacityID"), *upload)
	if err != nil {
		h.writeDomainError(w, r, err, "document_upload_failed", "failed to store document")
		return
	}
	api.Created(w, map[string]string{"documentId": docID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	doc, data, err := h.Service.OpenDocument(r.Context(), user, chi.URLParam(r, "incapacityID"))
	if err != nil {
		h.writeDomainError(w, r, err, "document_download_failed", "failed to load document")
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Warn("document write failed", "err", err)
	}
}

func (h *Handler) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	extraction, err := h.Service.AnalyzeDocument(r.Context(), user, chi.URLParam(r, "incapacityID"))
	if err != nil {
		if errors.Is(err, ocr.ErrNotConfigured) {
			api.Fail(w, http.StatusServiceUnavailable, "ocr_unavailable", "document analysis is not configured", middleware.GetRequestID(r.Context()))
			return
		}
		h.writeDomainError(w, r, err, "document_analyze_failed", "failed to analyze document")
		return
	}
	api.Success(w, extraction, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "incapacityID")); err != nil {
		h.writeDomainError(w, r, err, "incapacity_delete_failed", "failed to delete incapacity")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type createRequest struct {
	EmployeeID string  `json:"employeeId"`
	Type       string  `json:"type"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Diagnosis  string  `json:"diagnosis"`
	WageBase   float64 `json:"wageBase"`
}

// decodeCreate accepts either a JSON body or a multipart form carrying the
// certificate in a "document" part.
func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request, user auth.UserContext) (incapacity.CreateInput, *incapacity.DocumentUpload, bool) {
	var payload createRequest
	var upload *incapacity.DocumentUpload

	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		upload, ok = h.readUpload(w, r, "document")
		if !ok {
			return incapacity.CreateInput{}, nil, false
		}
		payload.EmployeeID = r.FormValue("employeeId")
		payload.Type = r.FormValue("type")
		payload.StartDate = r.FormValue("startDate")
		payload.EndDate = r.FormValue("endDate")
		payload.Diagnosis = r.FormValue("diagnosis")
		if raw := r.FormValue("wageBase"); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid wage base", middleware.GetRequestID(r.Context()))
				return incapacity.CreateInput{}, nil, false
			}
			payload.WageBase = value
		}
	} else if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return incapacity.CreateInput{}, nil, false
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "incapacity type is required")
	v.Enum("type", payload.Type, incapacity.AllTypes, "unknown incapacity type")
	v.Required("diagnosis", payload.Diagnosis, "diagnosis is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if payload.WageBase < 0 {
		v.Add("wageBase", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return incapacity.CreateInput{}, nil, false
	}

	employeeID := strings.TrimSpace(payload.EmployeeID)
	// Only HR and admins may file on behalf of someone else.
	if employeeID == "" || (user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin) {
		employeeID = user.UserID
	}

	return incapacity.CreateInput{
		EmployeeID: employeeID,
		Type:       strings.ToLower(strings.TrimSpace(payload.Type)),
		StartDate:  start,
		EndDate:    end,
		Diagnosis:  payload.Diagnosis,
		WageBase:   payload.WageBase,
	}, upload, true
}

type resubmitRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Diagnosis string `json:"diagnosis"`
}

func (h *Handler) decodeResubmit(w http.ResponseWriter, r *http.Request) (incapacity.ResubmitInput, *incapacity.DocumentUpload, bool) {
	var payload resubmitRequest
	var upload *incapacity.DocumentUpload

	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		upload, ok = h.readUpload(w, r, "document")
		if !ok {
			return incapacity.ResubmitInput{}, nil, false
		}
		payload.Type = r.FormValue("type")
		payload.StartDate = r.FormValue("startDate")
		payload.EndDate = r.FormValue("endDate")
		payload.Diagnosis = r.FormValue("diagnosis")
	} else if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return incapacity.ResubmitInput{}, nil, false
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "incapacity type is required")
	v.Enum("type", payload.Type, incapacity.AllTypes, "unknown incapacity type")
	v.Required("diagnosis", payload.Diagnosis, "diagnosis is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return incapacity.ResubmitInput{}, nil, false
	}

	return incapacity.ResubmitInput{
		Type:      strings.ToLower(strings.TrimSpace(payload.Type)),
		StartDate: start,
		EndDate:   end,
		Diagnosis: payload.Diagnosis,
	}, upload, true
}

// readUpload parses the named multipart file part; a missing part is not an
// error, the caller decides whether a document is mandatory.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) (*incapacity.DocumentUpload, bool) {
	if err := r.ParseMultipartForm(h.MaxDocumentBytes + 1024*1024); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid document upload", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	defer file.Close()

	if h.MaxDocumentBytes > 0 && header.Size > h.MaxDocumentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "document_too_large", "document exceeds the size limit", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, h.MaxDocumentBytes+1))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read document", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	if h.MaxDocumentBytes > 0 && int64(len(data)) > h.MaxDocumentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "document_too_large", "document exceeds the size limit", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	return &incapacity.DocumentUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error, failCode, failMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, incapacity.ErrNotFound), errors.Is(err, incapacity.ErrDocumentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "incapacity not found", requestID)
	case errors.Is(err, incapacity.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, incapacity.ErrConcurrentModification):
		api.Fail(w, http.StatusConflict, "concurrent_modification", "the record changed underneath you, reload and retry", requestID)
	case errors.Is(err, incapacity.ErrUnauthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, incapacity.ErrDocumentRequired):
		api.Fail(w, http.StatusBadRequest, "document_required", "a supporting document is required", requestID)
	case errors.Is(err, incapacity.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, failCode, failMessage, requestID)
	}
}
