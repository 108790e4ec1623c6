package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mmo_services",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mmo_services",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mmo_services",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	chatConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mmo_services",
			Subsystem: "chat",
			Name:      "connected_clients",
			Help:      "Current number of connected chat clients.",
		},
	)

	chatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mmo_services",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total number of chat messages routed, by channel.",
		},
		[]string{"channel"},
	)

	chatDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mmo_services",
			Subsystem: "chat",
			Name:      "dropped_clients_total",
			Help:      "Clients disconnected because their send buffer filled.",
		},
	)

	registeredServers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mmo_services",
			Subsystem: "master",
			Name:      "registered_servers",
			Help:      "Current number of registered game servers.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chatConnected,
		chatMessages,
		chatDropped,
		registeredServers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// SetConnectedClients records the chat hub's current client count.
func SetConnectedClients(n int) {
	chatConnected.Set(float64(n))
}

// RecordChatMessage counts a routed chat message for a channel kind.
func RecordChatMessage(channel string) {
	chatMessages.WithLabelValues(channel).Inc()
}

// RecordDroppedClient counts a client disconnected for backpressure.
func RecordDroppedClient() {
	chatDropped.Inc()
}

// SetRegisteredServers records the master directory's current size.
func SetRegisteredServers(n int) {
	registeredServers.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource ids so metric cardinality stays bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "characters":
		if len(parts) == 1 {
			return "/characters"
		}
		if len(parts) >= 3 && parts[2] == "customization" {
			return "/characters/:id/customization"
		}
		return "/characters/:id"
	case "auth":
		if len(parts) >= 2 {
			return "/auth/" + parts[1]
		}
		return "/auth"
	default:
		return "/" + parts[0]
	}
}
