package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var prometheusTracksActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mediatrack_tracks_active",
	Help: "Number of tracks registered in the tracks manager",
})

var prometheusTracksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mediatrack_tracks_total",
	Help: "Total number of tracks registered in the tracks manager",
})

var prometheusOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mediatrack_operations_total",
	Help: "Total number of track control operations by operation and result",
}, []string{"operation", "result"})

var prometheusEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mediatrack_events_total",
	Help: "Total number of backend notifications dispatched to tracks",
}, []string{"kind"})

var prometheusEventHandlerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mediatrack_event_handler_errors_total",
	Help: "Total number of failed event handler invocations",
})

var prometheusHTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mediatrack_http_requests_total",
	Help: "Total number of control API requests by route",
}, []string{"route"})

var prometheusWSConnActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mediatrack_ws_conn_active",
	Help: "Number of active event stream websocket connections",
})

func observeOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	prometheusOperationsTotal.WithLabelValues(operation, result).Inc()
}
