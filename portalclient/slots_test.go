package portalclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bhcare/patient-portal/schedule"
)

// slotServer serves one morning slot per request. Requests for a date in
// block signal started (if set) and wait on their channel before replying.
func slotServer(t *testing.T, block map[string]chan struct{}, started chan<- struct{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if ch, ok := block[date]; ok {
			if started != nil {
				started <- struct{}{}
			}
			<-ch
		}
		_ = json.NewEncoder(w).Encode([]schedule.TimeSlot{
			{Time: "09:00", Display: "09:00 AM", Available: true},
		})
	}))
}

func TestSlotSession_LoadInstallsBands(t *testing.T) {
	srv := slotServer(t, nil, nil)
	defer srv.Close()

	s := NewSlotSession(New(srv.URL))
	bands, installed, err := s.Load(context.Background(), "2026-03-05", "General Consultation")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !installed {
		t.Fatal("result should have been installed")
	}
	if len(bands.Morning) != 1 || bands.Morning[0].Time != "09:00" {
		t.Fatalf("bands = %+v", bands)
	}
	date, service, current := s.Current()
	if date != "2026-03-05" || service != "General Consultation" || len(current.Morning) != 1 {
		t.Fatalf("Current() = %q, %q, %+v", date, service, current)
	}
}

func TestSlotSession_StaleResponseDiscarded(t *testing.T) {
	slowDate := "2026-03-05"
	block := map[string]chan struct{}{slowDate: make(chan struct{})}
	started := make(chan struct{}, 1)
	srv := slotServer(t, block, started)
	defer srv.Close()

	s := NewSlotSession(New(srv.URL))

	slowDone := make(chan bool, 1)
	go func() {
		_, installed, err := s.Load(context.Background(), slowDate, "")
		if err != nil {
			t.Error(err)
		}
		slowDone <- installed
	}()

	// The patient picks a new date only after the first request is in
	// flight, while its response is still pending.
	<-started
	_, installed, err := s.Load(context.Background(), "2026-03-06", "")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	close(block[slowDate])
	slowInstalled := <-slowDone

	if slowInstalled {
		t.Fatal("stale response must be discarded")
	}
	date, _, _ := s.Current()
	if installed && date != "2026-03-06" {
		t.Fatalf("installed date = %q, want 2026-03-06", date)
	}
	if date == slowDate {
		t.Fatal("stale response overwrote the newer selection")
	}
}

// A response may be superseded between its return and the moment it is
// stored; install must re-check the generation under the lock and refuse.
func TestSlotSession_InstallRechecksGeneration(t *testing.T) {
	s := NewSlotSession(New("http://example.com"))

	old := s.gen.Add(1)
	fresh := schedule.Bands{Morning: []schedule.TimeSlot{{Time: "09:00"}}}
	if !s.install(old, "2026-03-05", "", fresh) {
		t.Fatal("current generation must install")
	}

	// A newer selection begins after the old response was already in hand.
	s.gen.Add(1)
	stale := schedule.Bands{Morning: []schedule.TimeSlot{{Time: "10:00"}}}
	if s.install(old, "2026-03-04", "", stale) {
		t.Fatal("superseded generation must not install")
	}
	date, _, bands := s.Current()
	if date != "2026-03-05" || bands.Morning[0].Time != "09:00" {
		t.Fatalf("installed state = %q %+v, want the fresh result kept", date, bands)
	}
}
