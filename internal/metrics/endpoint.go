package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricEndpointRequestsTotal = "edna_endpoint_requests_total"
	MetricEndpointReceivedTotal = "edna_endpoint_received_items_total"
)

// EndpointMetrics counts traffic seen by the development collection
// endpoint.
type EndpointMetrics struct {
	requests *prometheus.CounterVec
	received *prometheus.CounterVec
}

func NewEndpointMetrics() *EndpointMetrics {
	return &EndpointMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEndpointRequestsTotal,
				Help: "Total number of requests by route and status code",
			},
			[]string{"route", "code"},
		),
		received: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEndpointReceivedTotal,
				Help: "Total number of accepted items by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *EndpointMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.received} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *EndpointMetrics) IncRequest(route, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}

func (m *EndpointMetrics) AddReceived(kind string, n int) {
	m.received.WithLabelValues(kind).Add(float64(n))
}
