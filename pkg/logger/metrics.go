package logger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"reqlog/pkg/sink"
)

const (
	dropReasonCreateDir = "create_dir"
	dropReasonAppend    = "append"
	dropReasonEncode    = "encode"
	dropReasonClosed    = "closed"
)

// Metrics counts request records by outcome. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RecordsWritten *prometheus.CounterVec
	RecordsDropped *prometheus.CounterVec
}

// NewMetrics creates and registers the request log metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_log_records_written_total",
				Help: "Request records appended to the log file.",
			},
			[]string{"format"},
		),
		RecordsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_log_records_dropped_total",
				Help: "Request records dropped because they could not be written.",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(m.RecordsWritten, m.RecordsDropped)

	return m
}

func (m *Metrics) written(f Format) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(string(f)).Inc()
}

func (m *Metrics) dropped(err error) {
	if m == nil {
		return
	}
	m.RecordsDropped.WithLabelValues(dropReason(err)).Inc()
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, sink.ErrCreateDir):
		return dropReasonCreateDir
	case errors.Is(err, sink.ErrAppend):
		return dropReasonAppend
	case errors.Is(err, ErrClosed):
		return dropReasonClosed
	default:
		return dropReasonEncode
	}
}
