// Package monitoring exposes prometheus metrics for the reservation
// engine. Collectors are registered once via promauto; callers record
// through the helper functions so instrument names stay in one place.
package monitoring

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    reservationOps = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "reservation_operations_total",
            Help: "Reservation operations by kind, operation and outcome",
        },
        []string{"kind", "operation", "status"},
    )

    holdDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "reservation_hold_duration_seconds",
            Help:    "Time a hold spent open before commit or release",
            Buckets: prometheus.ExponentialBuckets(1, 2, 12),
        },
        []string{"kind", "outcome"},
    )

    sweepReleased = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "sweep_released_total",
            Help: "Holds released by the expiry sweep, by partition",
        },
        []string{"partition"},
    )

    sweepRuns = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "sweep_runs_total",
            Help: "Sweep iterations by outcome",
        },
        []string{"status"},
    )
)

// TrackOperation counts one reserve/commit/release call.
func TrackOperation(kind, operation, status string) {
    reservationOps.WithLabelValues(kind, operation, status).Inc()
}

// TrackHoldDuration observes how long a hold stayed open.
func TrackHoldDuration(kind, outcome string, d time.Duration) {
    holdDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// TrackSweep records one sweep iteration and what it released.
func TrackSweep(status string, gaReleased, seatsReleased int) {
    sweepRuns.WithLabelValues(status).Inc()
    if gaReleased > 0 {
        sweepReleased.WithLabelValues("ga").Add(float64(gaReleased))
    }
    if seatsReleased > 0 {
        sweepReleased.WithLabelValues("seats").Add(float64(seatsReleased))
    }
}
