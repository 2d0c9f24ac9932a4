package reconciliationshandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kare/internal/domain/reconciliation"
	"kare/internal/transport/http/api"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", reconciliation.ErrNotFound, http.StatusNotFound, "not_found"},
		{"already reconciled", reconciliation.ErrAlreadyReconciled, http.StatusConflict, "already_reconciled"},
		{"precondition", fmt.Errorf("%w: record is reported, want validated or paid", reconciliation.ErrPrecondition), http.StatusUnprocessableEntity, "precondition_failed"},
		{"unknown", fmt.Errorf("connection refused"), http.StatusInternalServerError, "reconciliation_failed"},
	}

	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/reconciliations", nil)
			h.writeDomainError(rec, req, tc.err, "reconciliation_failed", "failed to run reconciliation")

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

func TestRunRequiresAuthentication(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/reconciliations", nil)
	rec := httptest.NewRecorder()

	h.handleRun(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
