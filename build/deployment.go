package build

// DeploymentType is an enum specifying the deployment to compile.
type DeploymentType byte

const (
	// Development is a deployment that enables stdout logging for tests
	// and a more verbose default log level.
	Development DeploymentType = iota

	// Production is a deployment whose subsystem loggers stay disabled
	// until a root logger is wired in.
	Production
)

// String returns a human readable name for a build type.
func (b DeploymentType) String() string {
	switch b {
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}
