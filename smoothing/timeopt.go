package smoothing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/pathsmoother/logging"
)

const (
	// finite-difference step on log-durations.
	fdStep = 1e-3
	// largest change of a log-duration in one iteration.
	maxLogStep = 0.5
	// minimum curvature for a Newton step along a coordinate.
	minCurvature   = 1e-12
	armijoConstant = 1e-4
	maxBacktracks  = 30
)

// objectiveFunc evaluates the LOCO cost for a vector of time parameters.
type objectiveFunc func(x []float64) (float64, error)

type refinement struct {
	x []float64
	// iterations counts descent steps, or objective evaluations for refiners without steps.
	iterations int
	converged  bool
}

// timeRefiner minimizes an objective over time parameters bounded below.
type timeRefiner interface {
	refine(objective objectiveFunc, x0, lower []float64) (refinement, error)
}

func newTimeRefiner(cfg Config, logger logging.Logger) (timeRefiner, error) {
	switch cfg.TimeOptimizer {
	case DescentTimeOptimizer:
		return &descentRefiner{
			maxIterations: cfg.MaxIterations,
			tolerance:     cfg.ConvergenceTolerance,
			logger:        logger,
		}, nil
	case NloptTimeOptimizer:
		return newNloptRefiner(cfg, logger)
	default:
		return nil, newConfigurationError("time_optimizer", "unknown refiner %q", cfg.TimeOptimizer)
	}
}

// descentRefiner is a projected diagonal-Newton descent with Armijo backtracking. Gradient and
// curvature come from central finite differences of the objective.
type descentRefiner struct {
	maxIterations int
	tolerance     float64
	logger        logging.Logger
}

func (d *descentRefiner) refine(objective objectiveFunc, x0, lower []float64) (refinement, error) {
	x := project(x0, lower)
	f, err := objective(x)
	if err != nil {
		return refinement{}, errors.Wrap(err, "cannot evaluate seed segment times")
	}

	for iter := 1; iter <= d.maxIterations; iter++ {
		grad, curv := d.derivatives(objective, x, f, lower)
		step := make([]float64, len(x))
		for i := range step {
			if curv[i] > minCurvature {
				step[i] = -grad[i] / curv[i]
			} else {
				step[i] = -grad[i]
			}
			step[i] = math.Max(-maxLogStep, math.Min(maxLogStep, step[i]))
			if x[i] <= lower[i] && step[i] < 0 {
				step[i] = 0
			}
		}
		if floats.Dot(grad, step) >= 0 {
			d.logger.Debugw("no descent direction", "iteration", iter, "cost", f)
			return refinement{x: x, iterations: iter, converged: true}, nil
		}

		next, fNext, ok := d.lineSearch(objective, x, f, grad, step, lower)
		if !ok {
			d.logger.Debugw("line search found no decrease", "iteration", iter, "cost", f)
			return refinement{x: x, iterations: iter, converged: true}, nil
		}
		change := math.Abs(f-fNext) / math.Max(1, math.Abs(f))
		d.logger.Debugw("time refinement", "iteration", iter, "cost", fNext, "relative_change", change)
		x, f = next, fNext
		if change < d.tolerance {
			return refinement{x: x, iterations: iter, converged: true}, nil
		}
	}
	return refinement{x: x, iterations: d.maxIterations}, nil
}

// derivatives returns the finite-difference gradient and diagonal curvature at x. Coordinates within
// one step of their lower bound use a forward difference and report no curvature.
func (d *descentRefiner) derivatives(objective objectiveFunc, x []float64, f float64, lower []float64) ([]float64, []float64) {
	grad := make([]float64, len(x))
	curv := make([]float64, len(x))
	shifted := append([]float64(nil), x...)
	for i := range x {
		shifted[i] = x[i] + fdStep
		fHi, err := objective(shifted)
		shifted[i] = x[i]
		if err != nil {
			continue
		}
		if x[i]-fdStep < lower[i] {
			grad[i] = (fHi - f) / fdStep
			continue
		}

		shifted[i] = x[i] - fdStep
		fLo, err := objective(shifted)
		shifted[i] = x[i]
		if err != nil {
			grad[i] = (fHi - f) / fdStep
			continue
		}
		grad[i] = (fHi - fLo) / (2 * fdStep)
		curv[i] = (fHi - 2*f + fLo) / (fdStep * fdStep)
	}
	return grad, curv
}

func (d *descentRefiner) lineSearch(
	objective objectiveFunc, x []float64, f float64, grad, step, lower []float64,
) ([]float64, float64, bool) {
	alpha := 1.
	trial := make([]float64, len(x))
	for i := 0; i < maxBacktracks; i++ {
		for j := range trial {
			trial[j] = x[j] + alpha*step[j]
		}
		trial = project(trial, lower)
		fTrial, err := objective(trial)
		moved := make([]float64, len(x))
		floats.SubTo(moved, trial, x)
		if err == nil && fTrial <= f+armijoConstant*floats.Dot(grad, moved) && fTrial < f {
			return trial, fTrial, true
		}
		alpha /= 2
	}
	return nil, 0, false
}

func project(x, lower []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Max(v, lower[i])
	}
	return out
}
