package trajectory

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/utils"
)

// Segment is one polynomial piece of a trajectory, valid for segment-local time in [0, Duration).
type Segment struct {
	duration    float64
	polynomials [NumDimensions]Polynomial
}

// NewSegment creates a segment from one polynomial per dimension (x, y, z, yaw). All polynomials
// must share a degree.
func NewSegment(duration float64, polynomials []Polynomial) (Segment, error) {
	if !utils.IsFinite(duration) || duration <= 0 {
		return Segment{}, errors.Errorf("segment duration must be positive and finite, got %v", duration)
	}
	if len(polynomials) != NumDimensions {
		return Segment{}, errors.Errorf("segment needs %d polynomials, got %d", NumDimensions, len(polynomials))
	}
	seg := Segment{duration: duration}
	for dim, poly := range polynomials {
		if poly.Degree() < 0 {
			return Segment{}, errors.Errorf("polynomial for dimension %d is empty", dim)
		}
		if poly.Degree() != polynomials[0].Degree() {
			return Segment{}, errors.Errorf("polynomial degree mismatch: dimension %d has degree %d, expected %d",
				dim, poly.Degree(), polynomials[0].Degree())
		}
		seg.polynomials[dim] = poly
	}
	return seg, nil
}

// Duration returns the segment duration in seconds.
func (s Segment) Duration() float64 {
	return s.duration
}

// Degree returns the polynomial degree shared by all dimensions.
func (s Segment) Degree() int {
	return s.polynomials[0].Degree()
}

// Polynomial returns the polynomial of dimension dim (DimX..DimYaw).
func (s Segment) Polynomial(dim int) Polynomial {
	return s.polynomials[dim]
}

// Evaluate returns the derivative-th time derivative of the position and yaw at segment-local time t.
func (s Segment) Evaluate(t float64, derivative int) (r3.Vector, float64) {
	return r3.Vector{
		X: s.polynomials[DimX].Evaluate(t, derivative),
		Y: s.polynomials[DimY].Evaluate(t, derivative),
		Z: s.polynomials[DimZ].Evaluate(t, derivative),
	}, s.polynomials[DimYaw].Evaluate(t, derivative)
}

func (s Segment) stateAt(t float64) State {
	var state State
	state.Position, state.Yaw = s.Evaluate(t, 0)
	state.Velocity, state.YawRate = s.Evaluate(t, 1)
	state.Acceleration, _ = s.Evaluate(t, 2)
	state.Jerk, _ = s.Evaluate(t, 3)
	state.Yaw = utils.WrapAngle(state.Yaw)
	return state
}
