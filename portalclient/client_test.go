package portalclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bhcare/patient-portal/schedule"
)

func TestAppointments_SortedActiveFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appointments/user/3" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]schedule.Appointment{
			{ID: 1, Date: "2026-03-05", Status: "completed"},
			{ID: 2, Date: "2026-03-20", Status: "pending"},
			{ID: 3, Date: "2026-03-01", Status: "confirmed"},
		})
	}))
	defer srv.Close()

	appts, err := New(srv.URL).Appointments(context.Background(), 3)
	if err != nil {
		t.Fatalf("Appointments failed: %v", err)
	}
	wantIDs := []int64{3, 2, 1}
	for i, want := range wantIDs {
		if appts[i].ID != want {
			t.Fatalf("order = %+v, want ids %v", appts, wantIDs)
		}
	}
}

func TestAvailableSlots_Classified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("date") != "2026-03-05" || q.Get("service_type") != "Prenatal Care" {
			t.Errorf("query = %v", q)
		}
		_ = json.NewEncoder(w).Encode([]schedule.TimeSlot{
			{Time: "08:00", Display: "08:00 AM", Available: true},
			{Time: "13:30", Display: "01:30 PM", Available: false},
		})
	}))
	defer srv.Close()

	bands, err := New(srv.URL).AvailableSlots(context.Background(), "2026-03-05", "Prenatal Care")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	if len(bands.Morning) != 1 || len(bands.Afternoon) != 1 || len(bands.Evening) != 0 {
		t.Fatalf("bands = %+v", bands)
	}
}

// The available-slots response is a bare array on the wire; the client must
// decode it without any envelope.
func TestAvailableSlots_BareArrayBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"time":"08:00","display":"08:00 AM","available":true}]`))
	}))
	defer srv.Close()

	bands, err := New(srv.URL).AvailableSlots(context.Background(), "2026-03-05", "")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	if len(bands.Morning) != 1 || bands.Morning[0].Display != "08:00 AM" {
		t.Fatalf("bands = %+v", bands)
	}
}

func TestDo_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "This time slot is no longer available"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateAppointment(context.Background(), Draft{
		UserID: 1, Date: "2026-03-05", Time: "09:00", ServiceType: "x",
	})
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serr.StatusCode != http.StatusConflict || serr.Message != "This time slot is no longer available" {
		t.Fatalf("ServerError = %+v", serr)
	}
}

func TestDo_BearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode([]Service{})
	}))
	defer srv.Close()

	if _, err := New(srv.URL, WithToken("tok")).Services(context.Background()); err != nil {
		t.Fatalf("Services failed: %v", err)
	}
}
