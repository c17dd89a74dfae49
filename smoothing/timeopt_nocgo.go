//go:build windows || no_cgo

package smoothing

import (
	"go.viam.com/pathsmoother/logging"
)

// newNloptRefiner is not supported on no_cgo builds.
func newNloptRefiner(Config, logging.Logger) (timeRefiner, error) {
	return nil, newConfigurationError("time_optimizer", "%q requires a cgo build", NloptTimeOptimizer)
}
