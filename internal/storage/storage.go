// Package storage persists users and their tracked items.
package storage

import (
	"context"
	"errors"
	"time"

	"pricewatch/internal/domain"
)

// ErrNotFound is returned when a user row does not exist.
var ErrNotFound = errors.New("not found")

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// Store is the persistence contract. Mutations commit immediately; the
// only multi-row operation is DeleteUser, whose item cascade is enforced
// by the schema.
type Store interface {
	// CreateUser inserts a user with default schedule and preferences.
	// Reports whether a row was actually created (false if the user exists).
	CreateUser(ctx context.Context, id int64) (created bool, err error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetMode(ctx context.Context, id int64, mode domain.Mode) error
	SetSchedule(ctx context.Context, id int64, hour, minute, timezone int) error
	SetTimezone(ctx context.Context, id int64, timezone int) error
	SetPaused(ctx context.Context, id int64, paused bool) error
	// DeleteUser removes the user and all their tracked items.
	DeleteUser(ctx context.Context, id int64) error

	// AddItem reports whether a row was added (false on a duplicate
	// (user, market, article), which is a no-op).
	AddItem(ctx context.Context, item domain.Item) (added bool, err error)
	// DeleteItem reports whether the item existed.
	DeleteItem(ctx context.Context, userID int64, market string, article int64) (found bool, err error)
	ListItems(ctx context.Context, userID int64) ([]domain.Item, error)
	SetPrice(ctx context.Context, userID int64, market string, article, price int64) error

	Close() error
}
