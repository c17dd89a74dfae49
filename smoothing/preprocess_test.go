package smoothing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/pathsmoother/smoothing"
	"go.viam.com/pathsmoother/testutils/inject"
	"go.viam.com/pathsmoother/trajectory"
)

// detourGraph routes every pair through a point one unit above their midpoint, echoing endpoints.
func detourGraph() *inject.VisibilityGraph {
	return &inject.VisibilityGraph{
		ShortestVisiblePathFunc: func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
			mid := from.Add(to).Mul(0.5).Add(r3.Vector{Z: 1})
			return []r3.Vector{from, mid, mid, to}, nil
		},
	}
}

func TestResampleWaypoints(t *testing.T) {
	wps := states(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{X: 2, Y: 2})
	wps[0].Yaw = 0.5
	wps[1].Yaw = -1

	out, err := smoothing.ResampleWaypoints(context.Background(), detourGraph(), wps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, trajectory.Positions(out), test.ShouldResemble, []r3.Vector{
		{}, {X: 1, Z: 1}, {X: 2}, {X: 2, Y: 1, Z: 1}, {X: 2, Y: 2},
	})
	test.That(t, out[1].Yaw, test.ShouldEqual, 0.5)
	test.That(t, out[3].Yaw, test.ShouldEqual, -1.)
	test.That(t, out[1].Velocity, test.ShouldResemble, r3.Vector{})
	// The input is untouched.
	test.That(t, wps, test.ShouldHaveLength, 3)

	straight := &inject.VisibilityGraph{
		ShortestVisiblePathFunc: func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
			return []r3.Vector{from, to}, nil
		},
	}
	out, err = smoothing.ResampleWaypoints(context.Background(), straight, wps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, wps)
}

func TestResampleWaypointsFailures(t *testing.T) {
	wps := states(r3.Vector{}, r3.Vector{X: 2})

	_, err := smoothing.ResampleWaypoints(context.Background(), nil, wps)
	test.That(t, errors.Is(err, smoothing.ErrConfiguration), test.ShouldBeTrue)

	blocked := &inject.VisibilityGraph{
		ShortestVisiblePathFunc: func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
			return nil, smoothing.ErrNoPathFound
		},
	}
	_, err = smoothing.ResampleWaypoints(context.Background(), blocked, wps)
	test.That(t, errors.Is(err, smoothing.ErrNoPathFound), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "between waypoints 0 and 1")

	broken := &inject.VisibilityGraph{
		ShortestVisiblePathFunc: func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
			return nil, errors.New("graph not built")
		},
	}
	_, err = smoothing.ResampleWaypoints(context.Background(), broken, wps)
	test.That(t, errors.Is(err, smoothing.ErrNoPathFound), test.ShouldBeFalse)
	test.That(t, err.Error(), test.ShouldContainSubstring, "graph not built")
	test.That(t, err.Error(), test.ShouldContainSubstring, "between waypoints 0 and 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waiting := &inject.VisibilityGraph{
		ShortestVisiblePathFunc: func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
			return nil, ctx.Err()
		},
	}
	_, err = smoothing.ResampleWaypoints(ctx, waiting, wps)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, errors.Is(err, smoothing.ErrNoPathFound), test.ShouldBeFalse)
}
