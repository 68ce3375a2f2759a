package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts booking outcomes.  A nil *BookingMetrics is valid
// and records nothing.
type BookingMetrics struct {
	bookings *prometheus.CounterVec
	seats    prometheus.Counter
	released prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_bookings_total",
				Help: "Booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		seats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservation_seats_booked_total",
			Help: "Seats taken by successful bookings",
		}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservation_seats_released_total",
			Help: "Seats returned by cancellations and deletions",
		}),
	}
	reg.MustRegister(m.bookings, m.seats, m.released)
	return m
}

// Booked records a successful booking of n seats.
func (m *BookingMetrics) Booked(n int) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues("booked").Inc()
	m.seats.Add(float64(n))
}

// Rejected records a failed booking with a short reason label.
func (m *BookingMetrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(reason).Inc()
}

// Released records n seats returned to availability.
func (m *BookingMetrics) Released(n int) {
	if m == nil {
		return
	}
	m.released.Add(float64(n))
}
