//go:build !monitoring
// +build !monitoring

package nipcfg

// Prometheus holds no options unless the binary is built with the
// monitoring tag.
type Prometheus struct{}

// DefaultPrometheus returns the empty exporter config.
func DefaultPrometheus() Prometheus {
	return Prometheus{}
}

// Enabled always reports false without the monitoring tag.
func (p *Prometheus) Enabled() bool {
	return false
}
