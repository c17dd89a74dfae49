package smoothing

import (
	"context"
	"math"

	"go.viam.com/pathsmoother/trajectory"
	"go.viam.com/pathsmoother/utils"
)

// GetTrajectoryBetweenTwoPoints splits start to goal into num_segments equal-duration segments.
// Internal boundaries are free, or pulled toward evenly spaced points on the start-goal line when
// add_waypoints is set. Refinement keeps the segment durations equal. With resample_visibility the
// visibility polyline is fetched first and, if it bends, smoothed as a waypoint sequence.
func (s *LocoSmoother) GetTrajectoryBetweenTwoPoints(
	ctx context.Context, start, goal trajectory.State,
) (*trajectory.Trajectory, error) {
	endpoints := []trajectory.State{start, goal}
	if err := validateWaypoints(endpoints); err != nil {
		return nil, err
	}
	if s.cfg.NumSegments < 1 {
		return nil, newConfigurationError("num_segments", "must be at least 1, got %d", s.cfg.NumSegments)
	}
	if s.cfg.ResampleVisibility {
		resampled, err := ResampleWaypoints(ctx, s.graph, endpoints)
		if err != nil {
			return nil, err
		}
		if len(resampled) > 2 {
			s.logger.Debugw("visibility path has intermediate points", "waypoints", len(resampled))
			return s.smoothWaypoints(resampled)
		}
	}

	seed, err := EstimateSegmentTimes(endpoints, s.cfg)
	if err != nil {
		return nil, err
	}
	n := s.cfg.NumSegments
	segmentTime := math.Max(seed[0]/float64(n), s.cfg.MinSegmentTime)

	kind := FreeBoundary
	if s.cfg.AddWaypoints {
		kind = SoftBoundary
	}
	problem := Problem{
		Waypoints:   straightLineWaypoints(start, goal, n),
		Boundaries:  make([]BoundaryConstraint, n-1),
		Durations:   make([]float64, n),
		UniformTime: true,
	}
	for i := range problem.Boundaries {
		problem.Boundaries[i] = kind
	}
	for i := range problem.Durations {
		problem.Durations[i] = segmentTime
	}
	s.logger.Debugw("two-point smoothing", "segments", n, "segment_time", segmentTime, "boundaries", kind.String())
	sol, err := s.optimizer.Solve(problem)
	if err != nil {
		return nil, err
	}
	return sol.Trajectory, nil
}

// straightLineWaypoints returns n+1 states: start, n-1 evenly spaced points on the line to goal with
// yaw interpolated along the shortest rotation, and goal.
func straightLineWaypoints(start, goal trajectory.State, n int) []trajectory.State {
	out := make([]trajectory.State, 0, n+1)
	out = append(out, start)
	delta := goal.Position.Sub(start.Position)
	yawDelta := utils.AngleDiff(start.Yaw, goal.Yaw)
	for j := 1; j < n; j++ {
		frac := float64(j) / float64(n)
		wp := trajectory.NewState(start.Position.Add(delta.Mul(frac)))
		wp.Yaw = utils.WrapAngle(start.Yaw + frac*yawDelta)
		out = append(out, wp)
	}
	return append(out, goal)
}
