package storage

import (
	"context"
	"time"

	"github.com/bhcare/patient-portal/libs/db"
	"github.com/bhcare/patient-portal/services/portal-api/internal/model"
)

type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), duration_minutes
		FROM services
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

// WindowsFor returns the open booking windows for the given calendar date's
// weekday, ordered by start time. The schedule_slots table stores day_of_week
// with Monday as 0, so time.Weekday (Sunday as 0) is shifted.
func (r *CatalogRepository) WindowsFor(ctx context.Context, date time.Time) ([]model.ScheduleWindow, error) {
	dow := (int(date.Weekday()) + 6) % 7
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), capacity
		FROM schedule_slots
		WHERE day_of_week = $1 AND is_active
		ORDER BY start_time
	`, dow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []model.ScheduleWindow
	for rows.Next() {
		var w model.ScheduleWindow
		if err := rows.Scan(&w.StartTime, &w.EndTime, &w.Capacity); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return windows, nil
}
