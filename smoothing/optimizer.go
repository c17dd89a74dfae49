package smoothing

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
	"go.viam.com/pathsmoother/utils"
)

// Problem is one LOCO optimization: the boundary states of every segment and the seed durations.
type Problem struct {
	// Waypoints holds len(Durations)+1 states. The first and last are matched up to derivative k-1.
	Waypoints []trajectory.State
	// Boundaries holds one entry per internal waypoint. Nil means every internal waypoint is hard.
	Boundaries []BoundaryConstraint
	// Durations are the seed segment times.
	Durations []float64
	// UniformTime keeps the ratio between segment durations fixed while refining times.
	UniformTime bool
}

func (p Problem) validate() error {
	if len(p.Waypoints) < 2 {
		return &DegenerateInputError{Index: -1, Reason: "at least two waypoints are required"}
	}
	if len(p.Durations) != len(p.Waypoints)-1 {
		return errors.Errorf("%d waypoints need %d segment durations, got %d",
			len(p.Waypoints), len(p.Waypoints)-1, len(p.Durations))
	}
	if p.Boundaries != nil && len(p.Boundaries) != len(p.Waypoints)-2 {
		return errors.Errorf("%d waypoints have %d internal boundaries, got %d",
			len(p.Waypoints), len(p.Waypoints)-2, len(p.Boundaries))
	}
	for i, d := range p.Durations {
		if !utils.IsFinite(d) || d <= 0 {
			return errors.Errorf("segment %d duration must be positive and finite, got %v", i, d)
		}
	}
	return nil
}

// Solution is the result of a converged optimization.
type Solution struct {
	Trajectory *trajectory.Trajectory
	Cost       Cost
	// Iterations is the number of outer time-refinement steps, zero when times are fixed. The
	// descent refiner counts its descent iterations. The nlopt refiner has no iteration count of its
	// own and reports objective evaluations.
	Iterations int
	// Evaluations is the number of inner solves made by the time refinement, for either refiner.
	Evaluations int
}

// Optimizer solves LOCO problems: an inner equality-constrained QP over polynomial coefficients and,
// optionally, an outer refinement of the segment durations.
type Optimizer struct {
	degree         int
	derivative     int
	continuity     int
	minSegmentTime float64
	optimizeTime   bool
	weights        CostWeights
	refiner        timeRefiner
	logger         logging.Logger
}

// NewOptimizer returns an optimizer for the given configuration and weights.
func NewOptimizer(cfg Config, weights CostWeights, logger logging.Logger) (*Optimizer, error) {
	cfg.Weights = weights
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opt := &Optimizer{
		degree:         cfg.PolynomialDegree,
		derivative:     cfg.DerivativeToOptimize,
		continuity:     cfg.ContinuityOrder,
		minSegmentTime: cfg.MinSegmentTime,
		optimizeTime:   cfg.OptimizeTime,
		weights:        weights,
		logger:         logger,
	}
	if cfg.OptimizeTime {
		refiner, err := newTimeRefiner(cfg, logger)
		if err != nil {
			return nil, err
		}
		opt.refiner = refiner
	}
	return opt, nil
}

// Solve optimizes the problem. If time refinement runs out of iterations a *NotConvergedError
// carrying the best trajectory is returned instead of a solution.
func (o *Optimizer) Solve(problem Problem) (*Solution, error) {
	if err := problem.validate(); err != nil {
		return nil, err
	}
	inner := newQP(o, problem)
	seed := lo.Map(problem.Durations, func(d float64, _ int) float64 { return math.Max(d, o.minSegmentTime) })

	if !o.optimizeTime {
		sol, err := inner.solve(seed)
		if err != nil {
			return nil, err
		}
		return o.finish(sol, 0, 0)
	}

	params := newTimeParameters(seed, o.minSegmentTime, problem.UniformTime)
	evaluations := 0
	objective := func(x []float64) (float64, error) {
		evaluations++
		sol, err := inner.solve(params.durations(x))
		if err != nil {
			return math.Inf(1), err
		}
		return sol.cost.Total(), nil
	}

	result, err := o.refiner.refine(objective, params.initial(), params.lower())
	if err != nil {
		return nil, err
	}
	best, err := inner.solve(params.durations(result.x))
	if err != nil {
		return nil, err
	}
	if !result.converged {
		o.logger.Warnw("segment time refinement did not converge",
			"iterations", result.iterations, "evaluations", evaluations, "cost", best.cost.Total())
		traj, err := best.trajectory()
		if err != nil {
			return nil, err
		}
		return nil, &NotConvergedError{Best: traj, Cost: best.cost, Iterations: result.iterations, Evaluations: evaluations}
	}
	return o.finish(best, result.iterations, evaluations)
}

func (o *Optimizer) finish(sol *qpSolution, iterations, evaluations int) (*Solution, error) {
	traj, err := sol.trajectory()
	if err != nil {
		return nil, err
	}
	o.logger.Debugw("loco solution",
		"segments", len(sol.durations),
		"duration", traj.Duration(),
		"smoothness", sol.cost.Smoothness,
		"time", sol.cost.Time,
		"waypoint", sol.cost.Waypoint,
		"iterations", iterations,
		"evaluations", evaluations)
	return &Solution{Trajectory: traj, Cost: sol.cost, Iterations: iterations, Evaluations: evaluations}, nil
}

// timeParameters maps the refiner's variables to segment durations. Free mode uses one
// log-duration per segment; uniform mode uses a single log-scale applied to every seed duration.
type timeParameters struct {
	seed    []float64
	minTime float64
	uniform bool
}

func newTimeParameters(seed []float64, minTime float64, uniform bool) *timeParameters {
	return &timeParameters{seed: seed, minTime: minTime, uniform: uniform}
}

func (tp *timeParameters) initial() []float64 {
	if tp.uniform {
		return []float64{0}
	}
	return lo.Map(tp.seed, func(d float64, _ int) float64 { return math.Log(d) })
}

func (tp *timeParameters) lower() []float64 {
	if tp.uniform {
		return []float64{math.Log(tp.minTime / lo.Min(tp.seed))}
	}
	return lo.Map(tp.seed, func(float64, int) float64 { return math.Log(tp.minTime) })
}

func (tp *timeParameters) durations(x []float64) []float64 {
	if tp.uniform {
		scale := math.Exp(x[0])
		return lo.Map(tp.seed, func(d float64, _ int) float64 { return math.Max(tp.minTime, d*scale) })
	}
	return lo.Map(x, func(v float64, _ int) float64 { return math.Max(tp.minTime, math.Exp(v)) })
}
