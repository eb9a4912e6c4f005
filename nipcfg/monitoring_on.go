//go:build monitoring
// +build monitoring

package nipcfg

// Prometheus configures the Prometheus exporter.
type Prometheus struct {
	// Listen is the address the exporter serves /metrics on.
	Listen string `long:"listen" description:"the interface we should listen on for Prometheus"`

	// Enable indicates whether to export metrics.
	Enable bool `long:"enable" description:"enable Prometheus exporting of nip76 metrics"`
}

// DefaultPrometheus returns the default configuration for the Prometheus
// exporter.
func DefaultPrometheus() Prometheus {
	return Prometheus{
		Listen: "127.0.0.1:8989",
		Enable: false,
	}
}

// Enabled returns whether or not Prometheus monitoring is enabled.
func (p *Prometheus) Enabled() bool {
	return p.Enable
}
