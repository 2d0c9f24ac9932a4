package usershandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kare/internal/domain/audit"
	"kare/internal/domain/auth"
	"kare/internal/transport/http/api"
	"kare/internal/transport/http/middleware"
	"kare/internal/transport/http/shared"
)

type Handler struct {
	Store *auth.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *auth.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/{userID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Put("/{userID}", h.handleUpdate)
	})
}

type userPayload struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FullName       string  `json:"fullName"`
	DocumentNumber string  `json:"documentNumber"`
	Area           string  `json:"area"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	WageBase       float64 `json:"wageBase"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", payload.Role, auth.AllRoles, "unknown role")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if payload.WageBase < 0 {
		v.Add("wageBase", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role := payload.Role
	if role == "" {
		role = auth.RoleEmployee
	}
	roleID, err := h.Store.RoleIDByName(r.Context(), strings.ToLower(role))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateUser(r.Context(), payload.Email, hash, payload.FullName, payload.DocumentNumber, payload.Area, roleID, payload.WageBase)
	if err != nil {
		api.Fail(w, http.StatusConflict, "user_create_failed", "email is already registered", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, audit.ActionUserUpdate, "user", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil,
		map[string]any{"email": payload.Email, "role": role, "area": payload.Area}); err != nil {
		slog.Warn("audit user create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	before, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", payload.Role, auth.AllRoles, "unknown role")
	v.Enum("status", payload.Status, []string{auth.UserStatusActive, auth.UserStatusDisabled}, "unknown status")
	if payload.WageBase < 0 {
		v.Add("wageBase", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role := payload.Role
	if role == "" {
		role = before.RoleName
	}
	roleID, err := h.Store.RoleIDByName(r.Context(), strings.ToLower(role))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}
	status := payload.Status
	if status == "" {
		status = before.Status
	}

	if err := h.Store.UpdateUser(r.Context(), userID, payload.FullName, payload.DocumentNumber, payload.Area, roleID, status, payload.WageBase); err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, audit.ActionUserUpdate, "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		map[string]any{"fullName": before.FullName, "role": before.RoleName, "status": before.Status, "wageBase": before.WageBase},
		map[string]any{"fullName": payload.FullName, "role": role, "status": status, "wageBase": payload.WageBase}); err != nil {
		slog.Warn("audit user update failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}
