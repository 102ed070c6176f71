// Package routeserver is a small routing service for development and demos.
// Places and their ordered approach paths live in sqlite and are served over
// the same JSON wire format the navigator's routing client consumes.
package routeserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// ErrUnknownDestination is returned for a destination ID with no place.
var ErrUnknownDestination = errors.New("invalid destination")

const schema = `
CREATE TABLE IF NOT EXISTS places (
	id        INTEGER PRIMARY KEY,
	name      TEXT    NOT NULL,
	latitude  REAL    NOT NULL,
	longitude REAL    NOT NULL
);
CREATE TABLE IF NOT EXISTS route_nodes (
	place_id  INTEGER NOT NULL REFERENCES places(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	node_id   INTEGER NOT NULL,
	name      TEXT    NOT NULL,
	latitude  REAL    NOT NULL,
	longitude REAL    NOT NULL,
	PRIMARY KEY (place_id, seq)
);`

// Store persists places and route nodes.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the sqlite database at path. Use
// ":memory:" for an ephemeral store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// An in-memory database is private to its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{
		"PRAGMA foreign_keys=ON",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutPlace inserts or replaces a place together with its ordered approach
// path. The path should end at (or next to) the place itself.
func (s *Store) PutPlace(ctx context.Context, p model.Place, path []model.Waypoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO places (id, name, latitude, longitude) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
		   latitude = excluded.latitude, longitude = excluded.longitude`,
		p.ID, p.Name, p.Latitude, p.Longitude,
	); err != nil {
		return fmt.Errorf("upsert place %d: %w", p.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM route_nodes WHERE place_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear route for place %d: %w", p.ID, err)
	}
	for i, wp := range path {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO route_nodes (place_id, seq, node_id, name, latitude, longitude)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, i, wp.ID, wp.Name, wp.Latitude, wp.Longitude,
		); err != nil {
			return fmt.Errorf("insert route node %d for place %d: %w", wp.ID, p.ID, err)
		}
	}
	return tx.Commit()
}

// ListPlaces returns every place ordered by name.
func (s *Store) ListPlaces(ctx context.Context) ([]model.Place, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude FROM places ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// GetPlace returns the place with the given ID or ErrUnknownDestination.
func (s *Store) GetPlace(ctx context.Context, id int64) (model.Place, error) {
	var p model.Place
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude FROM places WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Place{}, ErrUnknownDestination
	}
	if err != nil {
		return model.Place{}, fmt.Errorf("query place %d: %w", id, err)
	}
	return p, nil
}

// Path returns the stored approach path for a place, in order.
func (s *Store) Path(ctx context.Context, placeID int64) ([]model.Waypoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, name, latitude, longitude FROM route_nodes
		 WHERE place_id = ? ORDER BY seq`, placeID)
	if err != nil {
		return nil, fmt.Errorf("query route for place %d: %w", placeID, err)
	}
	defer rows.Close()

	var path []model.Waypoint
	for rows.Next() {
		var wp model.Waypoint
		if err := rows.Scan(&wp.ID, &wp.Name, &wp.Latitude, &wp.Longitude); err != nil {
			return nil, fmt.Errorf("scan route node: %w", err)
		}
		path = append(path, wp)
	}
	return path, rows.Err()
}
