package smoothing

import (
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/trajectory"
)

// Output is the result of Smooth: always a trajectory, plus its uniformly sampled states when
// resampling is requested.
type Output struct {
	Trajectory *trajectory.Trajectory `json:"trajectory"`
	States     []trajectory.State     `json:"states,omitempty"`
}

// Materialize returns the trajectory as is, or, when resample is set, together with its states
// sampled every dt seconds. A period that is not positive or exceeds the duration is a
// ConfigurationError.
func Materialize(traj *trajectory.Trajectory, resample bool, dt float64) (*Output, error) {
	if traj == nil {
		return nil, errors.New("cannot materialize a nil trajectory")
	}
	out := &Output{Trajectory: traj}
	if !resample {
		return out, nil
	}
	states, err := traj.Sample(dt)
	if err != nil {
		if errors.Is(err, trajectory.ErrInvalidSamplingPeriod) {
			return nil, newConfigurationError("sampling_dt", "%v", err)
		}
		return nil, err
	}
	out.States = states
	return out, nil
}
