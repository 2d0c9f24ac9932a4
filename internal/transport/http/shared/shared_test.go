package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2025-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Fatalf("got %v, want %v", parsed, want)
	}

	parsed, err = ParseDate("2025-05-01T10:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Hour() != 10 {
		t.Fatalf("expected RFC3339 parse, got %v", parsed)
	}

	if _, err := ParseDate("01/05/2025"); err == nil {
		t.Fatal("expected error for unsupported format")
	}

	parsed, err = ParseDate("")
	if err != nil || !parsed.IsZero() {
		t.Fatalf("expected zero time for empty input, got %v, %v", parsed, err)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Required("diagnosis", "  ", "diagnosis is required")
	v.Enum("type", "vacation", []string{"eps", "arl"}, "unknown type")
	start, ok := v.Date("startDate", "2025-05-10")
	if !ok {
		t.Fatal("expected valid start date")
	}
	end, _ := v.Date("endDate", "2025-05-01")
	v.DateOrder("startDate", start, "endDate", end)

	if !v.HasIssues() {
		t.Fatal("expected validation issues")
	}
	issues := v.Issues()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %+v", len(issues), issues)
	}
}

func TestValidatorClean(t *testing.T) {
	v := NewValidator()
	v.Required("diagnosis", "lumbago", "diagnosis is required")
	v.Enum("type", "EPS", []string{"eps", "arl"}, "unknown type")
	if v.HasIssues() {
		t.Fatalf("unexpected issues: %+v", v.Issues())
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=500&offset=20", nil)
	page := ParsePagination(r, 50, 200)
	if page.Limit != 200 || page.Offset != 20 {
		t.Fatalf("unexpected pagination: %+v", page)
	}

	r = httptest.NewRequest("GET", "/", nil)
	page = ParsePagination(r, 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", page)
	}

	r = httptest.NewRequest("GET", "/?limit=-5&offset=-1", nil)
	page = ParsePagination(r, 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("expected invalid values ignored: %+v", page)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:1234"
	if ip := ClientIP(r); ip != "203.0.113.7" {
		t.Fatalf("got %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	if ip := ClientIP(r); ip != "198.51.100.9" {
		t.Fatalf("got %q", ip)
	}
}
