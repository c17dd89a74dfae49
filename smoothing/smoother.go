// Package smoothing turns waypoint sequences into smooth piecewise-polynomial trajectories by solving
// the LOCO problem: a weighted sum of derivative smoothness, total time and waypoint deviation.
package smoothing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
)

// TrajectorySmoother computes trajectories and sampled paths through waypoints.
type TrajectorySmoother interface {
	// GetTrajectoryBetweenWaypoints returns a trajectory from the first to the last waypoint that
	// passes through (hard) or near (soft) the others.
	GetTrajectoryBetweenWaypoints(ctx context.Context, waypoints []trajectory.State) (*trajectory.Trajectory, error)
	// GetPathBetweenWaypoints samples GetTrajectoryBetweenWaypoints every sampling period.
	GetPathBetweenWaypoints(ctx context.Context, waypoints []trajectory.State) ([]trajectory.State, error)
	// GetTrajectoryBetweenTwoPoints returns a trajectory from start to goal.
	GetTrajectoryBetweenTwoPoints(ctx context.Context, start, goal trajectory.State) (*trajectory.Trajectory, error)
	// GetPathBetweenTwoPoints samples GetTrajectoryBetweenTwoPoints every sampling period.
	GetPathBetweenTwoPoints(ctx context.Context, start, goal trajectory.State) ([]trajectory.State, error)
	// Smooth dispatches on the number of waypoints and materializes the result according to the
	// resample_trajectory setting.
	Smooth(ctx context.Context, waypoints []trajectory.State) (*Output, error)
	// Config returns the configuration the smoother was built with.
	Config() Config
}

// Options holds the collaborators and overrides of a smoother.
type Options struct {
	VisibilityGraph VisibilityGraph
	// Weights overrides Config.Weights when set.
	Weights *CostWeights
}

// Option configures a smoother.
type Option func(*Options)

// WithVisibilityGraph sets the graph used when resample_visibility is enabled.
func WithVisibilityGraph(graph VisibilityGraph) Option {
	return func(o *Options) {
		o.VisibilityGraph = graph
	}
}

// WithCostWeights overrides the cost weights of the configuration.
func WithCostWeights(weights CostWeights) Option {
	return func(o *Options) {
		o.Weights = &weights
	}
}

// Constructor builds a smoother variant.
type Constructor func(cfg Config, logger logging.Logger, opts Options) (TrajectorySmoother, error)

var (
	registryMu       sync.RWMutex
	smootherRegistry = map[string]Constructor{}
)

// RegisterSmoother makes a smoother variant available to New under the given type name.
func RegisterSmoother(name string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := smootherRegistry[name]; old {
		panic(fmt.Errorf("smoother type [%s] already registered", name))
	}
	smootherRegistry[name] = c
}

// RegisteredSmoothers returns the names of every registered smoother variant.
func RegisteredSmoothers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(smootherRegistry))
	for name := range smootherRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the smoother variant named by cfg.Type.
func New(cfg Config, logger logging.Logger, opts ...Option) (TrajectorySmoother, error) {
	registryMu.RLock()
	c, have := smootherRegistry[cfg.Type]
	registryMu.RUnlock()
	if !have {
		return nil, newConfigurationError("type", "unknown smoother type %q", cfg.Type)
	}
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return c(cfg, logger, options)
}

func (o Options) weights(cfg Config) CostWeights {
	if o.Weights != nil {
		return *o.Weights
	}
	return cfg.Weights
}

// smooth implements TrajectorySmoother.Smooth on top of the other methods.
func smooth(ctx context.Context, s TrajectorySmoother, waypoints []trajectory.State) (*Output, error) {
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	var (
		traj *trajectory.Trajectory
		err  error
	)
	if len(waypoints) == 2 {
		traj, err = s.GetTrajectoryBetweenTwoPoints(ctx, waypoints[0], waypoints[1])
	} else {
		traj, err = s.GetTrajectoryBetweenWaypoints(ctx, waypoints)
	}
	if err != nil {
		return nil, err
	}
	cfg := s.Config()
	return Materialize(traj, cfg.ResampleTrajectory, cfg.SamplingDt)
}

func samplePath(traj *trajectory.Trajectory, err error, dt float64) ([]trajectory.State, error) {
	if err != nil {
		return nil, err
	}
	out, err := Materialize(traj, true, dt)
	if err != nil {
		return nil, err
	}
	return out.States, nil
}
