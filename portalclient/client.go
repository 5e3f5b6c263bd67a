// Package portalclient is the Go client for the patient portal API. Besides
// plain endpoint wrappers it carries the booking flow's client-side state:
// the draft-and-submit orchestrator, a stale-response-proof slot loader, and
// a background notification poller.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bhcare/patient-portal/schedule"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.do(ctx, http.MethodGet, "/api/services", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

type Service struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// AvailableSlots fetches the day's slot list, already grouped into morning,
// afternoon and evening bands. The server responds with a bare array.
func (c *Client) AvailableSlots(ctx context.Context, date, serviceName string) (schedule.Bands, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("service_type", serviceName)
	path := "/api/available-slots?" + q.Encode()
	var slots []schedule.TimeSlot
	if err := c.do(ctx, http.MethodGet, path, nil, &slots); err != nil {
		return schedule.Bands{}, err
	}
	return schedule.Classify(slots), nil
}

func (c *Client) Appointments(ctx context.Context, userID int64) ([]schedule.Appointment, error) {
	var appts []schedule.Appointment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/appointments/user/%d", userID), nil, &appts); err != nil {
		return nil, err
	}
	schedule.Sort(appts)
	return appts, nil
}

type createRequest struct {
	UserID      int64  `json:"user_id"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	ServiceType string `json:"service_type"`
	Reason      string `json:"reason,omitempty"`
}

func (c *Client) CreateAppointment(ctx context.Context, draft Draft) (schedule.Appointment, error) {
	var appt schedule.Appointment
	err := c.do(ctx, http.MethodPost, "/api/appointments", createRequest{
		UserID:      draft.UserID,
		Date:        draft.Date,
		Time:        draft.Time,
		ServiceType: draft.ServiceType,
		Reason:      draft.Reason,
	}, &appt)
	if err != nil {
		return schedule.Appointment{}, err
	}
	return appt, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id int64, reason string) error {
	path := fmt.Sprintf("/api/appointments/%d/cancel", id)
	return c.do(ctx, http.MethodPut, path, map[string]string{"reason": reason}, nil)
}

func (c *Client) Notifications(ctx context.Context, userID int64) ([]Notification, error) {
	var out []Notification
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/notifications/user/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Notification struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	EventType     string    `json:"event_type"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

// do performs one request. Non-2xx responses become *ServerError carrying
// the body's {"error": ...} message; transport failures become
// *NetworkError.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
