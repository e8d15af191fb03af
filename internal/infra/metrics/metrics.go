package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the platform counters. New returns unregistered collectors so
// tests can use a throwaway instance; Register attaches them to a registry.
type Metrics struct {
	BookingsCreated    prometheus.Counter
	BookingConflicts   prometheus.Counter
	SeriesMaterialized prometheus.Counter
	WaitlistNotified   prometheus.Counter
	WaitlistAutoBooked prometheus.Counter
	SweepDuration      prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labbook_bookings_created_total",
			Help: "Reservations successfully created.",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labbook_booking_conflicts_total",
			Help: "Booking attempts rejected by conflict detection.",
		}),
		SeriesMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labbook_series_materialized_total",
			Help: "Recurring series successfully materialized.",
		}),
		WaitlistNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labbook_waitlist_offers_total",
			Help: "Slot offers sent to waiting list entries.",
		}),
		WaitlistAutoBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labbook_waitlist_auto_booked_total",
			Help: "Reservations auto-booked from the waiting list.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labbook_waitlist_sweep_duration_seconds",
			Help:    "Duration of waiting list sweep passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.BookingsCreated,
		m.BookingConflicts,
		m.SeriesMaterialized,
		m.WaitlistNotified,
		m.WaitlistAutoBooked,
		m.SweepDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
