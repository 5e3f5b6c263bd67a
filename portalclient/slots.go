package portalclient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bhcare/patient-portal/schedule"
)

// SlotSession loads slots for whatever date and service the patient has
// currently selected. Selections can change faster than responses arrive;
// each Load bumps a generation counter and a response is dropped unless its
// generation is still current, so a slow reply for an old date can never
// overwrite the slots of the new one.
type SlotSession struct {
	client *Client

	gen atomic.Uint64

	mu      sync.Mutex
	date    string
	service string
	bands   schedule.Bands
}

func NewSlotSession(client *Client) *SlotSession {
	return &SlotSession{client: client}
}

// Load fetches slots for the selection and installs them unless a newer
// Load started in the meantime. The returned bool reports whether the
// result was installed.
func (s *SlotSession) Load(ctx context.Context, date, serviceName string) (schedule.Bands, bool, error) {
	gen := s.gen.Add(1)

	bands, err := s.client.AvailableSlots(ctx, date, serviceName)
	if err != nil {
		return schedule.Bands{}, false, err
	}

	return bands, s.install(gen, date, serviceName, bands), nil
}

// install stores the result unless a newer Load started in the meantime.
// The generation is re-read under the mutex: checking it before locking
// would leave a window where a superseded response overwrites a fresh one.
func (s *SlotSession) install(gen uint64, date, serviceName string, bands schedule.Bands) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() != gen {
		return false
	}
	s.date = date
	s.service = serviceName
	s.bands = bands
	return true
}

// Current returns the installed slots and the selection they belong to.
func (s *SlotSession) Current() (date string, service string, bands schedule.Bands) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date, s.service, s.bands
}
