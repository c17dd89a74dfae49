package smoothing

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/trajectory"
)

var (
	// ErrDegenerateInput is matched by errors raised for malformed waypoint input: fewer than two
	// waypoints or coincident consecutive waypoints.
	ErrDegenerateInput = errors.New("degenerate waypoint input")
	// ErrNoPathFound is returned by a VisibilityGraph that cannot connect two waypoints.
	ErrNoPathFound = errors.New("no visible path found")
	// ErrSingular is returned when the inner quadratic program cannot be solved.
	ErrSingular = errors.New("optimization failed: singular system")
	// ErrNotConverged is matched by NotConvergedError.
	ErrNotConverged = errors.New("optimization failed: not converged")
	// ErrConfiguration is matched by ConfigurationError.
	ErrConfiguration = errors.New("invalid smoothing configuration")
)

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func newConfigurationError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) hold.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DegenerateInputError reports malformed waypoints. Index is the offending waypoint, or -1 when the
// sequence as a whole is invalid.
type DegenerateInputError struct {
	Index  int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrDegenerateInput, e.Reason)
	}
	return fmt.Sprintf("%s: waypoint %d %s", ErrDegenerateInput, e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrDegenerateInput) hold.
func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// NotConvergedError is returned when segment-time refinement runs out of iterations. The
// best trajectory found so far is attached; callers that accept a best-effort result read it from
// Best, the optimizer never returns it in place of a converged result.
type NotConvergedError struct {
	Best *trajectory.Trajectory
	Cost Cost
	// Iterations and Evaluations have the meaning of the Solution fields of the same name.
	Iterations  int
	Evaluations int
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("%s after %d iterations (best cost %.6g)", ErrNotConverged, e.Iterations, e.Cost.Total())
}

// Is makes errors.Is(err, ErrNotConverged) hold.
func (e *NotConvergedError) Is(target error) bool {
	return target == ErrNotConverged
}
