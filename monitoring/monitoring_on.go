//go:build monitoring
// +build monitoring

package monitoring

import (
	"errors"
	"net/http"
	"sync"

	"github.com/animiq/nip76/nipcfg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nip76"

var (
	started sync.Once

	eventsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Number of document events created and signed.",
	})

	eventsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_read_total",
		Help:      "Number of document events decrypted successfully.",
	})

	readFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_read_failures_total",
		Help:      "Number of events dropped while reading, by reason.",
	}, []string{"reason"})

	pointersEncoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pointers_encoded_total",
		Help:      "Number of pointer tokens encoded.",
	})

	pointersDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pointers_decoded_total",
		Help:      "Number of pointer tokens decoded.",
	})
)

// Register adds the collectors to reg.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsCreated, eventsRead, readFailures, pointersEncoded,
		pointersDecoded,
	}
	for _, c := range collectors {
		err := reg.Register(c)

		var already prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &already) {
			return err
		}
	}

	return nil
}

// ExportPrometheusMetrics registers the collectors with the default registry
// and launches the Prometheus exporter on the configured address.
func ExportPrometheusMetrics(cfg nipcfg.Prometheus) error {
	var err error
	started.Do(func() {
		if err = Register(prometheus.DefaultRegisterer); err != nil {
			return
		}

		log.Infof("Prometheus exporter started on %v/metrics", cfg.Listen)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			err := http.ListenAndServe(cfg.Listen, mux)
			if err != nil {
				log.Errorf("Prometheus exporter stopped: %v", err)
			}
		}()
	})

	return err
}

// IncrementEventsCreated counts a created event.
func IncrementEventsCreated() {
	eventsCreated.Inc()
}

// IncrementEventsRead counts a successfully read event.
func IncrementEventsRead() {
	eventsRead.Inc()
}

// IncrementReadFailures counts a dropped event.
func IncrementReadFailures(reason string) {
	readFailures.WithLabelValues(reason).Inc()
}

// IncrementPointersEncoded counts an encoded pointer.
func IncrementPointersEncoded() {
	pointersEncoded.Inc()
}

// IncrementPointersDecoded counts a decoded pointer.
func IncrementPointersDecoded() {
	pointersDecoded.Inc()
}
