package model

// Service is a row of the health center's service catalog.
type Service struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// ScheduleWindow is one open booking window on a weekday, e.g. 08:00-12:00
// with room for 8 patients per time slot. Times are 24-hour "HH:MM".
type ScheduleWindow struct {
	StartTime string
	EndTime   string
	Capacity  int
}
