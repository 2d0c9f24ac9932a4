package incapacitieshandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/transport/http/api"
	"kare/internal/transport/http/middleware"
)

func requestWithUser(r *http.Request, userID, role string) *http.Request {
	ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: userID, RoleID: "r-" + role, RoleName: role})
	return r.WithContext(ctx)
}

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", incapacity.ErrNotFound, http.StatusNotFound, "not_found"},
		{"invalid transition", fmt.Errorf("%w: validated to reported", incapacity.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
		{"concurrent modification", incapacity.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
		{"unauthorized", incapacity.ErrUnauthorized, http.StatusForbidden, "forbidden"},
		{"document required", incapacity.ErrDocumentRequired, http.StatusBadRequest, "document_required"},
		{"validation", fmt.Errorf("%w: rejection requires notes", incapacity.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"unknown", fmt.Errorf("connection refused"), http.StatusInternalServerError, "incapacity_get_failed"},
	}

	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/incapacities/abc", nil)
			h.writeDomainError(rec, req, tc.err, "incapacity_get_failed", "failed to load incapacity")

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var envelope api.Envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if envelope.Error == nil || envelope.Error.Code != tc.wantCode {
				t.Fatalf("error = %+v, want code %q", envelope.Error, tc.wantCode)
			}
		})
	}
}

func TestTransitionRejectsUnknownTarget(t *testing.T) {
	h := &Handler{}
	body := strings.NewReader(`{"target":"approved"}`)
	req := httptest.NewRequest(http.MethodPost, "/incapacities/abc/state", body)
	req = requestWithUser(req, "u1", "hr")
	rec := httptest.NewRecorder()

	h.handleTransition(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTransitionRequiresAuthentication(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/incapacities/abc/state", strings.NewReader(`{"target":"in_review"}`))
	rec := httptest.NewRecorder()

	h.handleTransition(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
