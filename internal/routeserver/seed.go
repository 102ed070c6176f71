package routeserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// Seed is the JSON document used to populate a store.
type Seed struct {
	Places []SeedPlace `json:"places"`
}

// SeedPlace is a destination and its ordered approach path.
type SeedPlace struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Path      []SeedWaypoint `json:"path"`
}

// SeedWaypoint is one node of an approach path.
type SeedWaypoint struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DecodeSeed parses and validates a seed document.
func DecodeSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[int64]bool, len(seed.Places))
	for _, p := range seed.Places {
		if p.ID <= 0 {
			return nil, fmt.Errorf("place %q: id must be positive", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate place id %d", p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			return nil, fmt.Errorf("place %d: name is required", p.ID)
		}
		if err := validCoordinate(p.Latitude, p.Longitude); err != nil {
			return nil, fmt.Errorf("place %d: %w", p.ID, err)
		}
		for _, wp := range p.Path {
			if err := validCoordinate(wp.Latitude, wp.Longitude); err != nil {
				return nil, fmt.Errorf("place %d node %d: %w", p.ID, wp.ID, err)
			}
		}
	}
	return &seed, nil
}

// LoadSeedFile reads a seed document from disk.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// Apply writes every place in the seed to the store.
func (seed *Seed) Apply(ctx context.Context, store *Store) error {
	for _, p := range seed.Places {
		path := make([]model.Waypoint, len(p.Path))
		for i, wp := range p.Path {
			path[i] = model.Waypoint{ID: wp.ID, Name: wp.Name, Latitude: wp.Latitude, Longitude: wp.Longitude}
		}
		place := model.Place{ID: p.ID, Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude}
		if err := store.PutPlace(ctx, place, path); err != nil {
			return err
		}
	}
	return nil
}

func validCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range", lon)
	}
	return nil
}
