package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookhive"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	seatsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_total",
			Help:      "Seats reserved or released by committed booking transitions.",
		},
		[]string{"direction"},
	)

	integrityFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_integrity_faults_total",
			Help:      "Seat ledger invariant violations detected at runtime.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Booking notifications delivered by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_tasks_total",
			Help:      "Spreadsheet sync task results.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOperations, seatsMoved, integrityFaults, notifications, syncTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveBooking counts one booking operation; outcome is "ok" or an error kind.
func ObserveBooking(operation, outcome string) {
	bookingOperations.WithLabelValues(operation, outcome).Inc()
}

func AddSeatsReserved(n int) {
	seatsMoved.WithLabelValues("reserved").Add(float64(n))
}

func AddSeatsReleased(n int) {
	seatsMoved.WithLabelValues("released").Add(float64(n))
}

func IncIntegrityFault() {
	integrityFaults.Inc()
}

func IncNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}

func IncSyncTask(outcome string) {
	syncTasks.WithLabelValues(outcome).Inc()
}
