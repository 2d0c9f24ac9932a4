package replacementshandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kare/internal/domain/replacement"
	"kare/internal/transport/http/api"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", replacement.ErrNotFound, http.StatusNotFound, "not_found"},
		{"active exists", replacement.ErrActiveReplacementExists, http.StatusConflict, "active_replacement_exists"},
		{"cover conflict", replacement.ErrCoverConflict, http.StatusConflict, "cover_conflict"},
		{"cover on leave", replacement.ErrCoverOnLeave, http.StatusConflict, "cover_on_leave"},
		{"invalid state", fmt.Errorf("%w: replacement is not active", replacement.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{"validation", fmt.Errorf("%w: coverEmployeeId is required", replacement.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"unknown", fmt.Errorf("connection refused"), http.StatusInternalServerError, "replacement_create_failed"},
	}

	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/replacements", nil)
			h.writeDomainError(rec, req, tc.err, "replacement_create_failed", "failed to create replacement")

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

func TestCreateRequiresAuthentication(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/replacements", nil)
	rec := httptest.NewRecorder()

	h.handleCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
