package storage

import (
	"context"
	"time"

	"github.com/bhcare/patient-portal/libs/db"
)

// Notification is an in-app message shown on the patient's portal feed.
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

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, appointment_id, event_type, title, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, n.UserID, n.AppointmentID, n.EventType, n.Title, n.Body).Scan(&id)
	return id, err
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, COALESCE(appointment_id, 0), event_type, title, body, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.AppointmentID, &n.EventType, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// MarkRead flips the read flag. The user id guards against marking another
// patient's notification. Returns false when no row matched.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ContactFor returns the stored email and phone of a portal user, both
// possibly empty.
func (r *Repository) ContactFor(ctx context.Context, userID int64) (email string, phone string, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(email, ''), COALESCE(phone, '')
		FROM users
		WHERE id = $1
	`, userID).Scan(&email, &phone)
	return email, phone, err
}
