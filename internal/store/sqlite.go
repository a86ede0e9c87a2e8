package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traffic (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT,
	time     TEXT,
	lon      REAL,
	lat      REAL,
	course   REAL,
	velocity REAL,
	osm_id   TEXT,
	state    TEXT NOT NULL DEFAULT 'Unspecified'
);

CREATE INDEX IF NOT EXISTS idx_traffic_state ON traffic(state);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertTraffic inserts the batch inside one transaction via a prepared
// statement. Any failure rolls back the whole batch.
func (s *SQLiteStore) InsertTraffic(ctx context.Context, records []model.TrafficRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert traffic")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO traffic (date, time, lon, lat, course, velocity, osm_id, state) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert traffic")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Date, r.Time, r.Lon, r.Lat, r.Course, r.Velocity, r.OSMID, r.State); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert traffic row")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert traffic")
	}
	return n, nil
}

func (s *SQLiteStore) ListTraffic(ctx context.Context, limit int) ([]model.TrafficRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, time, lon, lat, course, velocity, osm_id, state FROM traffic ORDER BY id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list traffic")
	}
	defer rows.Close()

	var records []model.TrafficRecord
	for rows.Next() {
		var r model.TrafficRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.Time, &r.Lon, &r.Lat, &r.Course, &r.Velocity, &r.OSMID, &r.State); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan traffic row")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list traffic iterate")
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.UserCredential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username,
	)

	var u model.UserCredential
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get user")
	}
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	return eris.Wrapf(err, "sqlite: create user %s", username)
}
