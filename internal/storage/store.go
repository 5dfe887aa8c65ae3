// Package storage persists simulation runs in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	conn *sqlx.DB
	log  *zap.Logger
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string, opts ...Option) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	s := &Store{conn: conn, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		dt REAL NOT NULL,
		duration REAL NOT NULL,
		steps INTEGER NOT NULL,
		reversals INTEGER NOT NULL,
		constants_json TEXT NOT NULL,
		gains_json TEXT NOT NULL,
		metrics_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		tick INTEGER NOT NULL,
		time REAL NOT NULL,
		cart_position REAL NOT NULL,
		angle REAL NOT NULL,
		angular_velocity REAL NOT NULL,
		cart_velocity REAL NOT NULL,
		drive_direction INTEGER NOT NULL,
		at_edge INTEGER NOT NULL,
		edge_timer REAL NOT NULL,
		integral_error REAL NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Mode      string             `json:"mode"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Reversals int                `json:"reversals"`
	Constants dynamo.Constants   `json:"constants"`
	Gains     control.Gains      `json:"gains"`
	Metrics   map[string]float64 `json:"metrics"`
}

type runRow struct {
	ID            string  `db:"id"`
	Mode          string  `db:"mode"`
	CreatedAt     int64   `db:"created_at"`
	Seed          int64   `db:"seed"`
	Dt            float64 `db:"dt"`
	Duration      float64 `db:"duration"`
	Steps         int     `db:"steps"`
	Reversals     int     `db:"reversals"`
	ConstantsJSON string  `db:"constants_json"`
	GainsJSON     string  `db:"gains_json"`
	MetricsJSON   string  `db:"metrics_json"`
}

func (r runRow) metadata() (RunMetadata, error) {
	meta := RunMetadata{
		ID:        r.ID,
		Mode:      r.Mode,
		Timestamp: time.Unix(0, r.CreatedAt).UTC(),
		Seed:      r.Seed,
		Dt:        r.Dt,
		Duration:  r.Duration,
		Steps:     r.Steps,
		Reversals: r.Reversals,
	}
	if err := json.Unmarshal([]byte(r.ConstantsJSON), &meta.Constants); err != nil {
		return meta, fmt.Errorf("run %s constants: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.GainsJSON), &meta.Gains); err != nil {
		return meta, fmt.Errorf("run %s gains: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.MetricsJSON), &meta.Metrics); err != nil {
		return meta, fmt.Errorf("run %s metrics: %w", r.ID, err)
	}
	return meta, nil
}

// Save writes the run and every recorded snapshot in one transaction. ID,
// Timestamp, Steps, Reversals and Metrics are filled from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Steps = result.StepsTaken
	meta.Reversals = result.Reversals
	meta.Metrics = make(map[string]float64, len(result.Metrics))
	for name, v := range result.Metrics {
		// JSON has no NaN; a diverged run keeps its finite metrics only.
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.log.Warn("dropping non-finite metric", zap.String("metric", name))
			continue
		}
		meta.Metrics[name] = v
	}

	constantsJSON, err := json.Marshal(meta.Constants)
	if err != nil {
		return "", err
	}
	gainsJSON, err := json.Marshal(meta.Gains)
	if err != nil {
		return "", err
	}
	metricsJSON, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", err
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO runs
		(id, mode, created_at, seed, dt, duration, steps, reversals, constants_json, gains_json, metrics_json)
		VALUES (:id, :mode, :created_at, :seed, :dt, :duration, :steps, :reversals, :constants_json, :gains_json, :metrics_json)`,
		runRow{
			ID:            meta.ID,
			Mode:          meta.Mode,
			CreatedAt:     meta.Timestamp.UnixNano(),
			Seed:          meta.Seed,
			Dt:            meta.Dt,
			Duration:      meta.Duration,
			Steps:         meta.Steps,
			Reversals:     meta.Reversals,
			ConstantsJSON: string(constantsJSON),
			GainsJSON:     string(gainsJSON),
			MetricsJSON:   string(metricsJSON),
		})
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO samples
		(run_id, tick, time, cart_position, angle, angular_velocity, cart_velocity,
		 drive_direction, at_edge, edge_timer, integral_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, snap := range result.Snapshots {
		atEdge := 0
		if snap.AtEdge {
			atEdge = 1
		}
		_, err := stmt.Exec(meta.ID, int64(snap.Tick), snap.Time, snap.CartPosition, snap.Angle,
			snap.AngularVelocity, snap.CartVelocity, snap.DriveDirection, atEdge,
			snap.EdgeTimer, snap.IntegralError)
		if err != nil {
			return "", fmt.Errorf("insert sample %d: %w", snap.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.log.Debug("run saved", zap.String("id", meta.ID), zap.Int("samples", len(result.Snapshots)))
	return meta.ID, nil
}

// List returns runs newest first.
func (s *Store) List() ([]RunMetadata, error) {
	var rows []runRow
	if err := s.conn.Select(&rows, "SELECT * FROM runs ORDER BY created_at DESC"); err != nil {
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(rows))
	for _, r := range rows {
		meta, err := r.metadata()
		if err != nil {
			s.log.Warn("skipping unreadable run", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load accepts a full run ID or a unique prefix of one.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	id, err := s.resolve(runID)
	if err != nil {
		return nil, err
	}

	var row runRow
	if err := s.conn.Get(&row, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	meta, err := row.metadata()
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSnapshots(runID string) ([]dynamo.Snapshot, error) {
	id, err := s.resolve(runID)
	if err != nil {
		return nil, err
	}

	var snaps []dynamo.Snapshot
	err = s.conn.Select(&snaps, `SELECT tick, time, cart_position, angle, angular_velocity, cart_velocity,
		drive_direction, at_edge, edge_timer, integral_error
		FROM samples WHERE run_id = ? ORDER BY tick`, id)
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) Delete(runID string) error {
	id, err := s.resolve(runID)
	if err != nil {
		return err
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM samples WHERE run_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) resolve(prefix string) (string, error) {
	var ids []string
	if err := s.conn.Select(&ids, "SELECT id FROM runs WHERE id LIKE ? LIMIT 2", prefix+"%"); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		for _, id := range ids {
			if id == prefix {
				return id, nil
			}
		}
		return "", fmt.Errorf("storage: run id %q is ambiguous", prefix)
	}
}
