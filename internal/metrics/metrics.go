package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_bookings_created_total",
			Help: "Number of bookings created",
		},
	)

	BookingsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_bookings_confirmed_total",
			Help: "Number of bookings with confirmed payment",
		},
	)

	BookingsRejectedFull = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_bookings_rejected_full_total",
			Help: "Number of booking attempts rejected because the class was full",
		},
	)

	AttendanceMarked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_attendance_marked_total",
			Help: "Number of attendance marks recorded",
		},
	)

	PaymentNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_payment_notifications_total",
			Help: "Gateway payment notifications received, by outcome",
		},
		[]string{"outcome"},
	)
)

func Register() {
	prometheus.MustRegister(
		BookingsCreated,
		BookingsConfirmed,
		BookingsRejectedFull,
		AttendanceMarked,
		PaymentNotifications,
	)
}
