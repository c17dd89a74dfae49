package smoothing

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/trajectory"
	"go.viam.com/pathsmoother/utils"
)

// VisibilityGraph finds obstacle-free polylines between two positions. Implementations return
// ErrNoPathFound (possibly wrapped) when the positions cannot be connected. The returned polyline
// may or may not repeat its endpoints.
type VisibilityGraph interface {
	ShortestVisiblePath(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error)
}

// ResampleWaypoints routes every consecutive waypoint pair through the visibility graph and splices
// the intermediate polyline vertices into the sequence. Spliced waypoints carry the yaw of the
// waypoint they follow and no derivatives. The input is not modified. Graph errors are returned
// wrapped, so ErrNoPathFound and context errors stay matchable.
func ResampleWaypoints(ctx context.Context, graph VisibilityGraph, waypoints []trajectory.State) ([]trajectory.State, error) {
	if graph == nil {
		return nil, newConfigurationError("resample_visibility", "is set but no visibility graph is configured")
	}
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}

	out := []trajectory.State{waypoints[0]}
	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]
		polyline, err := graph.ShortestVisiblePath(ctx, from.Position, to.Position)
		if err != nil {
			return nil, errors.Wrapf(err, "between waypoints %d and %d", i-1, i)
		}
		for _, p := range polyline {
			if near(p, from.Position) || near(p, to.Position) || near(p, out[len(out)-1].Position) {
				continue
			}
			spliced := trajectory.NewState(p)
			spliced.Yaw = from.Yaw
			out = append(out, spliced)
		}
		out = append(out, to)
	}
	return out, nil
}

func near(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < utils.DefaultEpsilon
}
