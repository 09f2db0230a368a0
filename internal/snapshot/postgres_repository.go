package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

const schema = `
	CREATE TABLE IF NOT EXISTS transit_stops (
		position INTEGER PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		lat      DOUBLE PRECISION NOT NULL,
		lng      DOUBLE PRECISION NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transit_buses (
		position     INTEGER PRIMARY KEY,
		name         TEXT NOT NULL UNIQUE,
		stops        TEXT[] NOT NULL,
		is_roundtrip BOOLEAN NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transit_distances (
		from_stop TEXT NOT NULL,
		to_stop   TEXT NOT NULL,
		meters    INTEGER NOT NULL CHECK (meters > 0),
		PRIMARY KEY (from_stop, to_stop)
	);
	CREATE TABLE IF NOT EXISTS transit_settings (
		id            SMALLINT PRIMARY KEY CHECK (id = 1),
		bus_wait_time INTEGER,
		bus_velocity  DOUBLE PRECISION,
		render        JSONB,
		saved_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, s *Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `TRUNCATE transit_stops, transit_buses, transit_distances, transit_settings`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"transit_stops"},
		[]string{"position", "name", "lat", "lng"},
		pgx.CopyFromSlice(len(s.Stops), func(i int) ([]any, error) {
			return []any{i, s.Stops[i].Name, s.Stops[i].Lat, s.Stops[i].Lng}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy stops: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"transit_distances"},
		[]string{"from_stop", "to_stop", "meters"},
		pgx.CopyFromSlice(len(s.Distances), func(i int) ([]any, error) {
			return []any{s.Distances[i].From, s.Distances[i].To, s.Distances[i].Meters}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy distances: %w", err)
	}

	batch := &pgx.Batch{}
	for i, bus := range s.Buses {
		stops := bus.Stops
		if stops == nil {
			stops = []string{}
		}
		batch.Queue(`
			INSERT INTO transit_buses (position, name, stops, is_roundtrip)
			VALUES ($1, $2, $3, $4)
		`, i, bus.Name, stops, bus.IsRoundTrip)
	}

	var waitTime *int
	var velocity *float64
	if s.Routing != nil {
		waitTime = &s.Routing.BusWaitTime
		velocity = &s.Routing.BusVelocity
	}
	var render []byte
	if s.Render != nil {
		render, err = json.Marshal(s.Render)
		if err != nil {
			return fmt.Errorf("marshal render settings: %w", err)
		}
	}
	batch.Queue(`
		INSERT INTO transit_settings (id, bus_wait_time, bus_velocity, render)
		VALUES (1, $1, $2, $3)
	`, waitTime, velocity, render)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert buses: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot.
func (r *PostgresRepository) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only

	s := &Snapshot{}

	var waitTime *int
	var velocity *float64
	var render []byte
	err = tx.QueryRow(ctx, `
		SELECT bus_wait_time, bus_velocity, render
		FROM transit_settings
		WHERE id = 1
	`).Scan(&waitTime, &velocity, &render)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if waitTime != nil && velocity != nil {
		s.Routing = &router.Settings{BusWaitTime: *waitTime, BusVelocity: *velocity}
	}
	if render != nil {
		var settings mapview.Settings
		if err := json.Unmarshal(render, &settings); err != nil {
			return nil, fmt.Errorf("%w: render settings: %v", ErrCorrupt, err)
		}
		s.Render = &settings
	}

	rows, err := tx.Query(ctx, `SELECT name, lat, lng FROM transit_stops ORDER BY position`)
	if err != nil {
		return nil, err
	}
	s.Stops, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Stop, error) {
		var stop Stop
		err := row.Scan(&stop.Name, &stop.Lat, &stop.Lng)
		return stop, err
	})
	if err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT from_stop, to_stop, meters FROM transit_distances ORDER BY from_stop, to_stop`)
	if err != nil {
		return nil, err
	}
	s.Distances, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Distance, error) {
		var d Distance
		err := row.Scan(&d.From, &d.To, &d.Meters)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT name, stops, is_roundtrip FROM transit_buses ORDER BY position`)
	if err != nil {
		return nil, err
	}
	s.Buses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Bus, error) {
		var bus Bus
		err := row.Scan(&bus.Name, &bus.Stops, &bus.IsRoundTrip)
		return bus, err
	})
	if err != nil {
		return nil, fmt.Errorf("load buses: %w", err)
	}

	return s, nil
}

var _ Repository = (*PostgresRepository)(nil)
