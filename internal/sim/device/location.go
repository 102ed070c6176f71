package device

import (
	"sync"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// Location simulates the platform location service. Start moves it to
// StartStatus (Running unless configured otherwise).
type Location struct {
	mu sync.Mutex

	enabledByUser bool
	status        model.LocationServiceStatus
	startStatus   model.LocationServiceStatus
	lat, lon      float64
	starts, stops int
}

// NewLocation returns a user-enabled location service that reports (lat, lon).
func NewLocation(lat, lon float64) *Location {
	return &Location{
		enabledByUser: true,
		status:        model.LocationStopped,
		startStatus:   model.LocationRunning,
		lat:           lat,
		lon:           lon,
	}
}

func (l *Location) EnabledByUser() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabledByUser
}

func (l *Location) Start() {
	l.mu.Lock()
	l.status = l.startStatus
	l.starts++
	l.mu.Unlock()
}

func (l *Location) Stop() {
	l.mu.Lock()
	l.status = model.LocationStopped
	l.stops++
	l.mu.Unlock()
}

func (l *Location) Status() model.LocationServiceStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Location) LastReading() (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lat, l.lon
}

func (l *Location) SetEnabledByUser(enabled bool) {
	l.mu.Lock()
	l.enabledByUser = enabled
	l.mu.Unlock()
}

// SetStartStatus sets the status Start transitions to.
func (l *Location) SetStartStatus(s model.LocationServiceStatus) {
	l.mu.Lock()
	l.startStatus = s
	l.mu.Unlock()
}

// SetStatus forces the current status, e.g. to finish an Initializing start.
func (l *Location) SetStatus(s model.LocationServiceStatus) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
}

func (l *Location) SetReading(lat, lon float64) {
	l.mu.Lock()
	l.lat, l.lon = lat, lon
	l.mu.Unlock()
}

// Counts reports how many times Start and Stop were called.
func (l *Location) Counts() (starts, stops int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.starts, l.stops
}

// Permissions simulates runtime permission prompts. Requests are granted
// unless the permission was denied with Deny.
type Permissions struct {
	mu       sync.Mutex
	granted  map[model.Permission]bool
	denied   map[model.Permission]bool
	requests map[model.Permission]int
}

// NewPermissions returns a permission set with the given permissions already
// granted.
func NewPermissions(granted ...model.Permission) *Permissions {
	p := &Permissions{
		granted:  make(map[model.Permission]bool),
		denied:   make(map[model.Permission]bool),
		requests: make(map[model.Permission]int),
	}
	for _, g := range granted {
		p.granted[g] = true
	}
	return p
}

func (p *Permissions) Has(perm model.Permission) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted[perm]
}

func (p *Permissions) Request(perm model.Permission) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests[perm]++
	if !p.denied[perm] {
		p.granted[perm] = true
	}
}

// Deny makes future requests for perm fail and revokes any grant.
func (p *Permissions) Deny(perm model.Permission) {
	p.mu.Lock()
	p.denied[perm] = true
	delete(p.granted, perm)
	p.mu.Unlock()
}

// Requests reports how many times perm was requested.
func (p *Permissions) Requests(perm model.Permission) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[perm]
}
