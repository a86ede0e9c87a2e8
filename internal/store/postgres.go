package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cedar-analytics/traffic-cli/internal/db"
	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traffic (
	id       BIGSERIAL PRIMARY KEY,
	date     DATE,
	time     TEXT,
	lon      DOUBLE PRECISION,
	lat      DOUBLE PRECISION,
	course   DOUBLE PRECISION,
	velocity DOUBLE PRECISION,
	osm_id   TEXT,
	state    TEXT NOT NULL DEFAULT 'Unspecified'
);

CREATE INDEX IF NOT EXISTS idx_traffic_state ON traffic(state);`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// InsertTraffic bulk-loads records via COPY inside a single transaction.
// Any failure rolls back the whole batch.
func (s *PostgresStore) InsertTraffic(ctx context.Context, records []model.TrafficRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		d, err := dateValue(r.Date)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{d, r.Time, r.Lon, r.Lat, r.Course, r.Velocity, r.OSMID, r.State})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin insert traffic")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := db.CopyInto(ctx, tx, "traffic", trafficColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert traffic")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit insert traffic")
	}
	return n, nil
}

func (s *PostgresStore) ListTraffic(ctx context.Context, limit int) ([]model.TrafficRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, time, lon, lat, course, velocity, osm_id, state FROM traffic ORDER BY id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list traffic")
	}
	defer rows.Close()

	var records []model.TrafficRecord
	for rows.Next() {
		var r model.TrafficRecord
		var date *time.Time
		if err := rows.Scan(&r.ID, &date, &r.Time, &r.Lon, &r.Lat, &r.Course, &r.Velocity, &r.OSMID, &r.State); err != nil {
			return nil, eris.Wrap(err, "postgres: scan traffic row")
		}
		if date != nil {
			iso := date.Format("2006-01-02")
			r.Date = &iso
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list traffic iterate")
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*model.UserCredential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	)

	var u model.UserCredential
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get user")
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`,
		username, passwordHash,
	)
	return eris.Wrapf(err, "postgres: create user %s", username)
}

// dateValue converts the model's ISO date string to the time.Time pgx binds
// to a DATE column. A nil date stays NULL.
func dateValue(iso *string) (any, error) {
	if iso == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *iso)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: bad date %q", *iso)
	}
	return t, nil
}
