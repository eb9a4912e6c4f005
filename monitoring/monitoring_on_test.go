//go:build monitoring
// +build monitoring

package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	// Registering twice is tolerated.
	require.NoError(t, Register(reg))

	before := testutil.ToFloat64(eventsCreated)
	IncrementEventsCreated()
	require.Equal(t, before+1, testutil.ToFloat64(eventsCreated))

	IncrementReadFailures("decrypt")
	IncrementReadFailures("decrypt")
	require.Equal(t, 2.0, testutil.ToFloat64(
		readFailures.WithLabelValues("decrypt"),
	))
}
