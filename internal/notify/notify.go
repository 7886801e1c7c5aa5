// Package notify carries the user-visible notifications ("toasts") raised by
// the organizer.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level distinguishes confirmations from errors.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	ID          string    `json:"id"`
	Level       Level     `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, level Level, title, description string)
}

// Feed logs every notification and keeps the most recent ones for clients
// that poll for them.
type Feed struct {
	mu      sync.Mutex
	limit   int
	history []Notification
	logger  *slog.Logger
	now     func() time.Time
}

// NewFeed keeps at most limit notifications.
func NewFeed(limit int, logger *slog.Logger) *Feed {
	if limit < 1 {
		limit = 1
	}
	return &Feed{limit: limit, logger: logger, now: time.Now}
}

func (f *Feed) Notify(ctx context.Context, level Level, title, description string) {
	n := Notification{
		ID:          uuid.New().String(),
		Level:       level,
		Title:       title,
		Description: description,
		At:          f.now().UTC(),
	}

	logLevel := slog.LevelInfo
	if level == LevelError {
		logLevel = slog.LevelError
	}
	f.logger.Log(ctx, logLevel, "notification",
		slog.String("title", title),
		slog.String("description", description),
	)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, n)
	if over := len(f.history) - f.limit; over > 0 {
		f.history = append(f.history[:0:0], f.history[over:]...)
	}
}

// Recent returns the kept notifications, newest last.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.history))
	copy(out, f.history)
	return out
}

// Len returns the number of kept notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}
