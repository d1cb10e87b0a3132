package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentsBooked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spa",
			Name:      "appointments_booked_total",
			Help:      "Count of appointments accepted by the booking guard, by type.",
		},
		[]string{"type"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spa",
			Name:      "booking_conflicts_total",
			Help:      "Count of bookings or reschedules rejected for overlapping an existing appointment.",
		},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spa",
			Name:      "appointment_status_changes_total",
			Help:      "Count of appointment status transitions, by target status.",
		},
		[]string{"status"},
	)

	slotGeneration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spa",
			Name:      "slot_generation_seconds",
			Help:      "Time spent computing availability slots.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentsBooked, bookingConflicts, statusChanges, slotGeneration)
	})
}

func IncAppointmentBooked(appointmentType string) {
	appointmentsBooked.WithLabelValues(appointmentType).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// ObserveSlotGeneration records the time elapsed since start.
func ObserveSlotGeneration(start time.Time) {
	slotGeneration.Observe(time.Since(start).Seconds())
}
