//go:build !windows && !no_cgo

package smoothing

import (
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/pathsmoother/logging"
)

const (
	// log-durations may grow by at most this much above their seed.
	nloptUpperLogSpan = 5.
	// objective evaluations allowed per refinement iteration and variable.
	nloptEvalsPerIteration = 4
	maxEvalStatus          = "MAXEVAL_REACHED"
)

// nloptRefiner minimizes over log-durations with the Subplex algorithm.
type nloptRefiner struct {
	maxIterations int
	tolerance     float64
	logger        logging.Logger
}

func newNloptRefiner(cfg Config, logger logging.Logger) (timeRefiner, error) {
	return &nloptRefiner{
		maxIterations: cfg.MaxIterations,
		tolerance:     cfg.ConvergenceTolerance,
		logger:        logger,
	}, nil
}

func (n *nloptRefiner) refine(objective objectiveFunc, x0, lower []float64) (refinement, error) {
	start := project(x0, lower)
	bestCost, err := objective(start)
	if err != nil {
		return refinement{}, errors.Wrap(err, "cannot evaluate seed segment times")
	}
	best := append([]float64(nil), start...)

	opt, err := nlopt.NewNLopt(nlopt.LN_SBPLX, uint(len(start)))
	if err != nil {
		return refinement{}, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	upper := make([]float64, len(start))
	for i, v := range start {
		upper[i] = v + nloptUpperLogSpan
	}
	maxEval := n.maxIterations * nloptEvalsPerIteration * (len(start) + 1)
	evals := 0
	// Gradient is nil for derivative-free algorithms.
	minFunc := func(x, _ []float64) float64 {
		evals++
		cost, err := objective(x)
		if err != nil {
			return math.MaxFloat64
		}
		if cost < bestCost {
			bestCost = cost
			best = append(best[:0], x...)
		}
		return cost
	}

	err = multierr.Combine(
		opt.SetLowerBounds(lower),
		opt.SetUpperBounds(upper),
		opt.SetFtolRel(n.tolerance),
		opt.SetMinObjective(minFunc),
		opt.SetMaxEval(maxEval),
	)
	if err != nil {
		return refinement{}, errors.Wrap(err, "nlopt configuration error")
	}

	if _, _, err := opt.Optimize(start); err != nil {
		// Roundoff and similar failures still leave the best point seen usable.
		n.logger.Debugw("nlopt stopped early", "status", opt.LastStatus(), "error", err)
	}
	n.logger.Debugw("nlopt time refinement", "evaluations", evals, "status", opt.LastStatus(), "cost", bestCost)
	return refinement{
		x:          best,
		iterations: evals,
		converged:  opt.LastStatus() != maxEvalStatus && evals < maxEval,
	}, nil
}
