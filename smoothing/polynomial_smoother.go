package smoothing

import (
	"context"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
)

func init() {
	RegisterSmoother(PolynomialSmootherType, func(cfg Config, logger logging.Logger, opts Options) (TrajectorySmoother, error) {
		return newPolynomialSmoother(cfg, logger, opts)
	})
}

// PolynomialSmoother is the baseline smoother: waypoints are hard constraints and segment times are
// the seed estimates, never refined. The visibility pass, soft waypoints and multi-segment
// two-point split are not applied.
type PolynomialSmoother struct {
	cfg       Config
	optimizer *Optimizer
	logger    logging.Logger
}

// NewPolynomialSmoother returns a baseline polynomial smoother.
func NewPolynomialSmoother(cfg Config, logger logging.Logger, opts ...Option) (*PolynomialSmoother, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return newPolynomialSmoother(cfg, logger, options)
}

func newPolynomialSmoother(cfg Config, logger logging.Logger, opts Options) (*PolynomialSmoother, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fixedTime := cfg
	fixedTime.OptimizeTime = false
	optimizer, err := NewOptimizer(fixedTime, opts.weights(cfg), logger.Sublogger("optimizer"))
	if err != nil {
		return nil, err
	}
	return &PolynomialSmoother{cfg: cfg, optimizer: optimizer, logger: logger}, nil
}

// Config returns the smoother's configuration.
func (s *PolynomialSmoother) Config() Config {
	return s.cfg
}

// GetTrajectoryBetweenWaypoints fits one segment per consecutive waypoint pair through every waypoint.
func (s *PolynomialSmoother) GetTrajectoryBetweenWaypoints(
	ctx context.Context, waypoints []trajectory.State,
) (*trajectory.Trajectory, error) {
	times, err := EstimateSegmentTimes(waypoints, s.cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("polynomial smoothing", "waypoints", len(waypoints))
	sol, err := s.optimizer.Solve(Problem{Waypoints: waypoints, Durations: times})
	if err != nil {
		return nil, err
	}
	return sol.Trajectory, nil
}

// GetPathBetweenWaypoints samples GetTrajectoryBetweenWaypoints.
func (s *PolynomialSmoother) GetPathBetweenWaypoints(
	ctx context.Context, waypoints []trajectory.State,
) ([]trajectory.State, error) {
	traj, err := s.GetTrajectoryBetweenWaypoints(ctx, waypoints)
	return samplePath(traj, err, s.cfg.SamplingDt)
}

// GetTrajectoryBetweenTwoPoints fits a single segment from start to goal.
func (s *PolynomialSmoother) GetTrajectoryBetweenTwoPoints(
	ctx context.Context, start, goal trajectory.State,
) (*trajectory.Trajectory, error) {
	return s.GetTrajectoryBetweenWaypoints(ctx, []trajectory.State{start, goal})
}

// GetPathBetweenTwoPoints samples GetTrajectoryBetweenTwoPoints.
func (s *PolynomialSmoother) GetPathBetweenTwoPoints(
	ctx context.Context, start, goal trajectory.State,
) ([]trajectory.State, error) {
	traj, err := s.GetTrajectoryBetweenTwoPoints(ctx, start, goal)
	return samplePath(traj, err, s.cfg.SamplingDt)
}

// Smooth smooths the waypoints and materializes the result.
func (s *PolynomialSmoother) Smooth(ctx context.Context, waypoints []trajectory.State) (*Output, error) {
	return smooth(ctx, s, waypoints)
}
