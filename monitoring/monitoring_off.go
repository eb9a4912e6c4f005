//go:build !monitoring
// +build !monitoring

package monitoring

import (
	"fmt"

	"github.com/animiq/nip76/nipcfg"
)

// ExportPrometheusMetrics is a stub so that callers compile regardless of
// the monitoring build tag.
func ExportPrometheusMetrics(_ nipcfg.Prometheus) error {
	return fmt.Errorf("nip76 must be built with the monitoring tag to " +
		"enable exporting Prometheus metrics")
}

// IncrementEventsCreated no-ops as monitoring is disabled.
func IncrementEventsCreated() {}

// IncrementEventsRead no-ops as monitoring is disabled.
func IncrementEventsRead() {}

// IncrementReadFailures no-ops as monitoring is disabled.
func IncrementReadFailures(_ string) {}

// IncrementPointersEncoded no-ops as monitoring is disabled.
func IncrementPointersEncoded() {}

// IncrementPointersDecoded no-ops as monitoring is disabled.
func IncrementPointersDecoded() {}
