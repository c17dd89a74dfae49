package smoothing

import (
	"context"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
)

func init() {
	RegisterSmoother(LocoSmootherType, func(cfg Config, logger logging.Logger, opts Options) (TrajectorySmoother, error) {
		return newLocoSmoother(cfg, logger, opts)
	})
}

// LocoSmoother runs the full pipeline: optional visibility resampling, segment-time seeding, the
// LOCO optimization with hard or soft waypoints, and segment-time refinement.
type LocoSmoother struct {
	cfg       Config
	optimizer *Optimizer
	graph     VisibilityGraph
	logger    logging.Logger
}

// NewLocoSmoother returns a LOCO smoother.
func NewLocoSmoother(cfg Config, logger logging.Logger, opts ...Option) (*LocoSmoother, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return newLocoSmoother(cfg, logger, options)
}

func newLocoSmoother(cfg Config, logger logging.Logger, opts Options) (*LocoSmoother, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ResampleVisibility && opts.VisibilityGraph == nil {
		return nil, newConfigurationError("resample_visibility", "is set but no visibility graph is configured")
	}
	optimizer, err := NewOptimizer(cfg, opts.weights(cfg), logger.Sublogger("optimizer"))
	if err != nil {
		return nil, err
	}
	return &LocoSmoother{cfg: cfg, optimizer: optimizer, graph: opts.VisibilityGraph, logger: logger}, nil
}

// Config returns the smoother's configuration.
func (s *LocoSmoother) Config() Config {
	return s.cfg
}

// GetTrajectoryBetweenWaypoints smooths a waypoint sequence. Internal waypoints are hard constraints
// unless add_waypoints is set, in which case they are soft costs.
func (s *LocoSmoother) GetTrajectoryBetweenWaypoints(
	ctx context.Context, waypoints []trajectory.State,
) (*trajectory.Trajectory, error) {
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	if s.cfg.ResampleVisibility {
		resampled, err := ResampleWaypoints(ctx, s.graph, waypoints)
		if err != nil {
			return nil, err
		}
		s.logger.Debugw("resampled waypoints through visibility graph", "before", len(waypoints), "after", len(resampled))
		waypoints = resampled
	}
	return s.smoothWaypoints(waypoints)
}

func (s *LocoSmoother) smoothWaypoints(waypoints []trajectory.State) (*trajectory.Trajectory, error) {
	times, err := EstimateSegmentTimes(waypoints, s.cfg)
	if err != nil {
		return nil, err
	}
	kind := HardBoundary
	if s.cfg.AddWaypoints {
		kind = SoftBoundary
	}
	boundaries := make([]BoundaryConstraint, len(waypoints)-2)
	for i := range boundaries {
		boundaries[i] = kind
	}
	s.logger.Debugw("loco smoothing", "waypoints", len(waypoints), "boundaries", kind.String())
	sol, err := s.optimizer.Solve(Problem{Waypoints: waypoints, Boundaries: boundaries, Durations: times})
	if err != nil {
		return nil, err
	}
	return sol.Trajectory, nil
}

// GetPathBetweenWaypoints samples GetTrajectoryBetweenWaypoints.
func (s *LocoSmoother) GetPathBetweenWaypoints(
	ctx context.Context, waypoints []trajectory.State,
) ([]trajectory.State, error) {
	traj, err := s.GetTrajectoryBetweenWaypoints(ctx, waypoints)
	return samplePath(traj, err, s.cfg.SamplingDt)
}

// GetPathBetweenTwoPoints samples GetTrajectoryBetweenTwoPoints.
func (s *LocoSmoother) GetPathBetweenTwoPoints(
	ctx context.Context, start, goal trajectory.State,
) ([]trajectory.State, error) {
	traj, err := s.GetTrajectoryBetweenTwoPoints(ctx, start, goal)
	return samplePath(traj, err, s.cfg.SamplingDt)
}

// Smooth smooths the waypoints and materializes the result.
func (s *LocoSmoother) Smooth(ctx context.Context, waypoints []trajectory.State) (*Output, error) {
	return smooth(ctx, s, waypoints)
}
