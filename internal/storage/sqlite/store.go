package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite database holding tracks and their per-frame
// velocity estimates.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// migrateUp runs all pending migrations from the embedded migration files.
// Returns nil if the schema is already at the latest version.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

// TrackRecord identifies one tracked object.
type TrackRecord struct {
	TrackID          string
	SensorID         string
	CreatedUnixNanos int64
}

// EstimateRecord is one velocity estimate row for a track.
type EstimateRecord struct {
	TrackID      string
	TsUnixNanos  int64
	VX           float64
	VY           float64
	VZ           float64
	SpeedMps     float64
	HeadingRad   float64
	AlignmentX   float64
	AlignmentY   float64
	AlignmentZ   float64
	BestLogProb  float64
	Entropy      float64
	Candidates   int
	PointCount   int
}

// CreateTrack inserts a track row. Inserting the same track ID twice is
// an error.
func (s *Store) CreateTrack(rec TrackRecord) error {
	stmt := `INSERT INTO tracks (track_id, sensor_id, created_unix_nanos) VALUES (?, ?, ?)`
	if _, err := s.Exec(stmt, rec.TrackID, rec.SensorID, rec.CreatedUnixNanos); err != nil {
		return fmt.Errorf("insert track %s: %w", rec.TrackID, err)
	}
	return nil
}

// InsertEstimate persists one per-frame velocity estimate.
func (s *Store) InsertEstimate(rec EstimateRecord) error {
	stmt := `INSERT INTO velocity_estimates (
			track_id, ts_unix_nanos, vx, vy, vz, speed_mps, heading_rad,
			alignment_x, alignment_y, alignment_z,
			best_log_prob, entropy, candidates, point_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.Exec(stmt,
		rec.TrackID, rec.TsUnixNanos, rec.VX, rec.VY, rec.VZ, rec.SpeedMps, rec.HeadingRad,
		rec.AlignmentX, rec.AlignmentY, rec.AlignmentZ,
		rec.BestLogProb, rec.Entropy, rec.Candidates, rec.PointCount)
	if err != nil {
		return fmt.Errorf("insert estimate for track %s: %w", rec.TrackID, err)
	}
	return nil
}

// EstimatesForTrack returns all estimates for trackID ordered by timestamp.
func (s *Store) EstimatesForTrack(trackID string) ([]EstimateRecord, error) {
	stmt := `SELECT track_id, ts_unix_nanos, vx, vy, vz, speed_mps, heading_rad,
			alignment_x, alignment_y, alignment_z,
			best_log_prob, entropy, candidates, point_count
		 FROM velocity_estimates WHERE track_id = ? ORDER BY ts_unix_nanos`
	rows, err := s.Query(stmt, trackID)
	if err != nil {
		return nil, fmt.Errorf("query estimates for track %s: %w", trackID, err)
	}
	defer rows.Close()

	var out []EstimateRecord
	for rows.Next() {
		var r EstimateRecord
		if err := rows.Scan(
			&r.TrackID, &r.TsUnixNanos, &r.VX, &r.VY, &r.VZ, &r.SpeedMps, &r.HeadingRad,
			&r.AlignmentX, &r.AlignmentY, &r.AlignmentZ,
			&r.BestLogProb, &r.Entropy, &r.Candidates, &r.PointCount,
		); err != nil {
			return nil, fmt.Errorf("scan estimate row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimate rows: %w", err)
	}
	return out, nil
}

// Tracks returns all track rows ordered by creation time.
func (s *Store) Tracks() ([]TrackRecord, error) {
	rows, err := s.Query(`SELECT track_id, sensor_id, created_unix_nanos FROM tracks ORDER BY created_unix_nanos`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []TrackRecord
	for rows.Next() {
		var r TrackRecord
		if err := rows.Scan(&r.TrackID, &r.SensorID, &r.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan track row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track rows: %w", err)
	}
	return out, nil
}
