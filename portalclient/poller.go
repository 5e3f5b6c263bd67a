package portalclient

import (
	"context"
	"log/slog"
	"time"
)

// Poller periodically fetches the patient's notifications and hands them to
// a callback. Fetch errors are logged and the next tick tries again.
type Poller struct {
	client   *Client
	userID   int64
	interval time.Duration
	logger   *slog.Logger
	onUpdate func([]Notification)
}

func NewPoller(client *Client, userID int64, interval time.Duration, logger *slog.Logger, onUpdate func([]Notification)) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		client:   client,
		userID:   userID,
		interval: interval,
		logger:   logger,
		onUpdate: onUpdate,
	}
}

// Run polls until the context is cancelled. It fetches once immediately so
// the feed is populated without waiting a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	notifications, err := p.client.Notifications(ctx, p.userID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("notification poll failed", "err", err, "user_id", p.userID)
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(notifications)
	}
}
