// Package trajectory defines piecewise-polynomial trajectories and the kinematic states sampled from them.
package trajectory

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// The dimensions every segment carries a polynomial for.
const (
	DimX = iota
	DimY
	DimZ
	DimYaw
	// NumDimensions is the number of polynomials per segment.
	NumDimensions
)

// State is a kinematic state of the vehicle. As an input waypoint only the position is required;
// the derivatives and yaw default to zero. Sampled states additionally carry their time from the
// start of the trajectory.
type State struct {
	Time         float64   `json:"time"`
	Position     r3.Vector `json:"position"`
	Velocity     r3.Vector `json:"velocity"`
	Acceleration r3.Vector `json:"acceleration"`
	Jerk         r3.Vector `json:"jerk"`
	Yaw          float64   `json:"yaw"`
	YawRate      float64   `json:"yaw_rate"`
}

// NewState returns a state at rest at the given position.
func NewState(position r3.Vector) State {
	return State{Position: position}
}

// Derivative returns the n-th time derivative of the position held by the state, and the matching
// derivative of the yaw. Derivatives this state does not track are zero.
func (s State) Derivative(n int) (r3.Vector, float64) {
	switch n {
	case 0:
		return s.Position, s.Yaw
	case 1:
		return s.Velocity, s.YawRate
	case 2:
		return s.Acceleration, 0
	case 3:
		return s.Jerk, 0
	default:
		return r3.Vector{}, 0
	}
}

// Positions extracts the positions of a sequence of states.
func Positions(states []State) []r3.Vector {
	return lo.Map(states, func(s State, _ int) r3.Vector { return s.Position })
}

func component(v r3.Vector, dim int) float64 {
	switch dim {
	case DimX:
		return v.X
	case DimY:
		return v.Y
	default:
		return v.Z
	}
}

// Component returns the value of dimension dim (DimX..DimYaw) for the n-th derivative of the state.
func (s State) Component(dim, n int) float64 {
	v, yaw := s.Derivative(n)
	if dim == DimYaw {
		return yaw
	}
	return component(v, dim)
}
