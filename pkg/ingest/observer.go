package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/integrations/pkg/file"
)

// Observer captures telemetry for ingestion operations.
type Observer interface {
	RecordVerdict(policy string, v file.Verdict)
	RecordUpload(policy string, duration time.Duration, sizeBytes int, err error)
	RecordDelete(duration time.Duration, ok bool)
	RecordSign(duration time.Duration, err error)
}

// PrometheusObserver exports ingestion metrics to Prometheus.
type PrometheusObserver struct {
	verdicts          *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	uploadBytes       *prometheus.CounterVec
}

// NewPrometheusObserver registers verdict, latency, error and byte metrics.
// Collectors already registered under the same names are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "ingest"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	verdicts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verdicts_total",
		Help:      "Classification outcomes by policy, status and accepting signal.",
	}, []string{"policy", "status", "via"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of object store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	errs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Count of failed object store operations.",
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	uploaded, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Cumulative payload size successfully written to object storage.",
	}, []string{"policy"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusObserver{
		verdicts:          verdicts,
		operationDuration: duration,
		operationErrors:   errs,
		uploadBytes:       uploaded,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register ingest metric: %w", err)
	}
	return c, nil
}

// RecordVerdict counts a classification outcome.
func (o *PrometheusObserver) RecordVerdict(policy string, v file.Verdict) {
	if o == nil {
		return
	}
	via := string(v.Via)
	if via == "" {
		via = "none"
	}
	o.verdicts.WithLabelValues(policy, string(v.Status), via).Inc()
}

// RecordUpload tracks upload duration, size and failures.
func (o *PrometheusObserver) RecordUpload(policy string, duration time.Duration, sizeBytes int, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues("put").Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues("put").Inc()
		return
	}
	o.uploadBytes.WithLabelValues(policy).Add(float64(sizeBytes))
}

func (o *PrometheusObserver) RecordDelete(duration time.Duration, ok bool) {
	var err error
	if !ok {
		err = errDeleteFailed
	}
	recordOperation(o, "delete", duration, err)
}

func (o *PrometheusObserver) RecordSign(duration time.Duration, err error) {
	recordOperation(o, "sign", duration, err)
}

var errDeleteFailed = errors.New("delete failed")

func recordOperation(o *PrometheusObserver, op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(op).Inc()
	}
}

type nopObserver struct{}

func (nopObserver) RecordVerdict(string, file.Verdict) {}

func (nopObserver) RecordUpload(string, time.Duration, int, error) {}

func (nopObserver) RecordDelete(time.Duration, bool) {}

func (nopObserver) RecordSign(time.Duration, error) {}
