package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	h := NewPortalHandler(nil, nil, nil, slog.Default(), 0)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	return body.Error
}

func TestAppointmentRoutes_RejectBadInput(t *testing.T) {
	mux := newTestMux(t)

	cases := []struct {
		name    string
		target  string
		status  int
		wantErr string
	}{
		{"get by non-numeric id", "/api/appointments/abc", http.StatusBadRequest, "invalid appointment id"},
		{"get by zero id", "/api/appointments/0", http.StatusBadRequest, "invalid appointment id"},
		{"list with malformed date filter", "/api/appointments?date=05-03-2026", http.StatusBadRequest, "date must be YYYY-MM-DD"},
		{"list by non-numeric user", "/api/appointments/user/abc", http.StatusBadRequest, "invalid user id"},
		{"slots without date", "/api/available-slots", http.StatusBadRequest, "date is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := errorMessage(t, rec); got != tc.wantErr {
				t.Fatalf("error = %q, want %q", got, tc.wantErr)
			}
		})
	}
}

// /api/appointments/user/{userID} must route to the per-user handler, not be
// swallowed by the {id} pattern one level up.
func TestAppointmentRoutes_UserPatternWins(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/user/-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "invalid user id" {
		t.Fatalf("error = %q, want the per-user handler's message", got)
	}
}
