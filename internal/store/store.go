// Package store persists traffic records and user credentials behind a
// driver-agnostic interface with Postgres and SQLite backends.
package store

import (
	"context"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// Store defines the persistence interface for the traffic dashboard.
type Store interface {
	// InsertTraffic persists a batch of records in a single transaction.
	// Either every record is inserted or none are.
	InsertTraffic(ctx context.Context, records []model.TrafficRecord) (int64, error)

	// ListTraffic returns up to limit records ordered by ascending id.
	ListTraffic(ctx context.Context, limit int) ([]model.TrafficRecord, error)

	// GetUserByUsername returns the credential for an exact username match,
	// or (nil, nil) when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*model.UserCredential, error)

	// CreateUser inserts a credential; existing usernames are left untouched.
	CreateUser(ctx context.Context, username, passwordHash string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// trafficColumns are the insertable columns of the traffic table, in the
// order the stores bind row values.
var trafficColumns = []string{"date", "time", "lon", "lat", "course", "velocity", "osm_id", "state"}
