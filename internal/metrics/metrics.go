package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_traffic_events_generated_total",
		Help: "Total number of traffic events emitted by the generator.",
	}, []string{"store_id"})
	EventsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_traffic_events_persisted_total",
		Help: "Total number of traffic events written to storage.",
	})
	EventsPersistFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_traffic_events_persist_failed_total",
		Help: "Total number of traffic events that could not be written to storage.",
	})
	EventsSkippedDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_traffic_events_skipped_degraded_total",
		Help: "Total number of traffic events not written because storage was degraded.",
	})
	BroadcastFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_traffic_broadcast_failed_total",
		Help: "Total number of broadcast attempts that failed, by target.",
	}, []string{"target"})
	StorageDegraded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_traffic_storage_degraded",
		Help: "1 while the event sink runs without storage, 0 when connected.",
	})
	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_traffic_live_clients",
		Help: "Number of connected live feed subscribers.",
	})
)
