package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route lookup outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeCancelled = "cancelled"
)

// NavigatorCollector bundles Prometheus metrics for the navigation session:
// tick throughput, state-machine phases, emitted events, route lookups and
// anchor placement.
type NavigatorCollector struct {
	gatherer prometheus.Gatherer

	Ticks               prometheus.Counter
	EnablementPhase     prometheus.Gauge
	Localized           prometheus.Gauge
	LocalizingSeconds   prometheus.Gauge
	Events              *prometheus.CounterVec
	RouteLookups        *prometheus.CounterVec
	RouteLookupDuration prometheus.Histogram
	AnchorsPlaced       prometheus.Counter
	AnchorsFailed       prometheus.Counter
}

// NewNavigatorCollector registers navigator metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registry reuses the existing collectors.
func NewNavigatorCollector(reg prometheus.Registerer) (*NavigatorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navigator_ticks_total",
		Help: "Number of meaningful ticks evaluated by the session loop.",
	}), "navigator_ticks_total")
	if err != nil {
		return nil, err
	}

	enablement, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "navigator_enablement_phase",
		Help: "Geospatial enablement phase (0=disabled, 1=requested, 2=settling, 3=enabled, 4=unsupported).",
	}), "navigator_enablement_phase")
	if err != nil {
		return nil, err
	}

	localized, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "navigator_localized",
		Help: "1 while the session is localized, 0 otherwise.",
	}), "navigator_localized")
	if err != nil {
		return nil, err
	}

	localizing, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "navigator_localizing_seconds",
		Help: "Accumulated seconds spent in the current Localizing phase.",
	}), "navigator_localizing_seconds")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigator_events_total",
		Help: "Semantic events emitted to the presentation layer, labeled by type.",
	}, []string{"type"}), "navigator_events_total")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navigator_route_lookups_total",
		Help: "Route lookups performed, labeled by outcome.",
	}, []string{"outcome"}), "navigator_route_lookups_total")
	if err != nil {
		return nil, err
	}

	lookupDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "navigator_route_lookup_duration_seconds",
		Help:    "Latency of route lookups against the routing service.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "navigator_route_lookup_duration_seconds")
	if err != nil {
		return nil, err
	}

	placed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navigator_anchors_placed_total",
		Help: "Directional anchors successfully placed.",
	}), "navigator_anchors_placed_total")
	if err != nil {
		return nil, err
	}

	failed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navigator_anchors_failed_total",
		Help: "Waypoints whose anchor could not be created.",
	}), "navigator_anchors_failed_total")
	if err != nil {
		return nil, err
	}

	return &NavigatorCollector{
		gatherer:            gatherer,
		Ticks:               ticks,
		EnablementPhase:     enablement,
		Localized:           localized,
		LocalizingSeconds:   localizing,
		Events:              events,
		RouteLookups:        lookups,
		RouteLookupDuration: lookupDuration,
		AnchorsPlaced:       placed,
		AnchorsFailed:       failed,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *NavigatorCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *NavigatorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one evaluated tick along with the resulting phases.
func (c *NavigatorCollector) ObserveTick(enablementPhase int, localized bool, localizingSeconds float64) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.EnablementPhase != nil {
		c.EnablementPhase.Set(float64(enablementPhase))
	}
	if c.Localized != nil {
		v := 0.0
		if localized {
			v = 1
		}
		c.Localized.Set(v)
	}
	if c.LocalizingSeconds != nil {
		c.LocalizingSeconds.Set(localizingSeconds)
	}
}

// IncEvent counts an emitted event by type name.
func (c *NavigatorCollector) IncEvent(eventType string) {
	if c == nil || c.Events == nil {
		return
	}
	c.Events.WithLabelValues(eventType).Inc()
}

// ObserveRouteLookup records a lookup's outcome and latency.
func (c *NavigatorCollector) ObserveRouteLookup(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	if c.RouteLookups != nil {
		c.RouteLookups.WithLabelValues(outcome).Inc()
	}
	if c.RouteLookupDuration != nil {
		c.RouteLookupDuration.Observe(d.Seconds())
	}
}

// AddAnchors records placement results for one route.
func (c *NavigatorCollector) AddAnchors(placed, failed int) {
	if c == nil {
		return
	}
	if c.AnchorsPlaced != nil && placed > 0 {
		c.AnchorsPlaced.Add(float64(placed))
	}
	if c.AnchorsFailed != nil && failed > 0 {
		c.AnchorsFailed.Add(float64(failed))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
