// Package observe exports engine state as Prometheus metrics.
package observe

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trafficsim/trafficsim/sim"
)

// EngineView is the read-only engine surface the collector samples.
// *sim.Engine satisfies it.
type EngineView interface {
	Stats() sim.Stats
	ActiveCount() int
	CurrentTime() float64
	Nodes() []sim.NodeSnapshot
	RoundTrips() []float64
}

// Packet outcome label values of PacketsTotal.
const (
	OutcomeSpawned   = "spawned"
	OutcomeProcessed = "processed"
	OutcomeDropped   = "dropped"
	OutcomeExpired   = "expired"
)

// Collector bundles the simulation's Prometheus metrics and keeps them in
// step with an engine through Observe.
type Collector struct {
	gatherer prometheus.Gatherer

	PacketsTotal  *prometheus.CounterVec
	ActivePackets prometheus.Gauge
	SimClock      prometheus.Gauge
	NodeLoad      *prometheus.GaugeVec
	NodeInService *prometheus.GaugeVec
	NodeQueued    *prometheus.GaugeVec
	RoundTripMs   prometheus.Histogram

	last      sim.Stats
	lastTrips int
}

// NewCollector registers the simulation metrics against reg, defaulting to
// the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	packets, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trafficsim_packets_total",
		Help: "Packets by lifecycle outcome: spawned, processed, dropped or expired.",
	}, []string{"outcome"}), "trafficsim_packets_total")
	if err != nil {
		return nil, err
	}
	active, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trafficsim_active_packets",
		Help: "Packets currently in the pool.",
	}), "trafficsim_active_packets")
	if err != nil {
		return nil, err
	}
	clock, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trafficsim_clock_ms",
		Help: "Virtual simulation time in milliseconds.",
	}), "trafficsim_clock_ms")
	if err != nil {
		return nil, err
	}
	nodeLabels := []string{"node", "kind"}
	load, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trafficsim_node_load_ratio",
		Help: "(in_service + queued) / max_concurrent per node.",
	}, nodeLabels), "trafficsim_node_load_ratio")
	if err != nil {
		return nil, err
	}
	inService, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trafficsim_node_in_service",
		Help: "Packets holding a service slot per node.",
	}, nodeLabels), "trafficsim_node_in_service")
	if err != nil {
		return nil, err
	}
	queued, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trafficsim_node_queued",
		Help: "Packets waiting in the queue per node.",
	}, nodeLabels), "trafficsim_node_queued")
	if err != nil {
		return nil, err
	}
	roundTrip, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trafficsim_round_trip_ms",
		Help:    "Virtual time from emission to completed round trip.",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
	}), "trafficsim_round_trip_ms")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		PacketsTotal:  packets,
		ActivePackets: active,
		SimClock:      clock,
		NodeLoad:      load,
		NodeInService: inService,
		NodeQueued:    queued,
		RoundTripMs:   roundTrip,
	}, nil
}

// Observe brings every metric up to date with the engine. Counters advance
// by the growth of the engine's counters since the previous call; after an
// engine reset the new values are counted from zero.
func (c *Collector) Observe(e EngineView) {
	if c == nil {
		return
	}
	s := e.Stats()
	c.addDelta(OutcomeSpawned, s.Spawned, c.last.Spawned)
	c.addDelta(OutcomeProcessed, s.Processed, c.last.Processed)
	c.addDelta(OutcomeDropped, s.Dropped, c.last.Dropped)
	c.addDelta(OutcomeExpired, s.Expired, c.last.Expired)
	c.last = s

	trips := e.RoundTrips()
	if len(trips) < c.lastTrips {
		c.lastTrips = 0
	}
	for _, rt := range trips[c.lastTrips:] {
		c.RoundTripMs.Observe(rt)
	}
	c.lastTrips = len(trips)

	c.ActivePackets.Set(float64(e.ActiveCount()))
	c.SimClock.Set(e.CurrentTime())

	c.NodeLoad.Reset()
	c.NodeInService.Reset()
	c.NodeQueued.Reset()
	for _, n := range e.Nodes() {
		id := strconv.FormatUint(uint64(n.ID), 10)
		kind := n.Kind.String()
		c.NodeLoad.WithLabelValues(id, kind).Set(float64(n.Load))
		c.NodeInService.WithLabelValues(id, kind).Set(float64(n.InService))
		c.NodeQueued.WithLabelValues(id, kind).Set(float64(n.Queued))
	}
}

func (c *Collector) addDelta(outcome string, now, before int) {
	delta := now - before
	if delta < 0 {
		delta = now
	}
	if delta > 0 {
		c.PacketsTotal.WithLabelValues(outcome).Add(float64(delta))
	}
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// suitable for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// register adds col to reg, reusing an already registered collector of the
// same type.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
