package smoothing

import (
	"go.uber.org/multierr"

	"go.viam.com/pathsmoother/utils"
)

// Names of the smoother variants accepted in Config.Type.
const (
	LocoSmootherType       = "loco"
	PolynomialSmootherType = "polynomial"
)

// Names of the segment-time refiners accepted in Config.TimeOptimizer.
const (
	DescentTimeOptimizer = "descent"
	NloptTimeOptimizer   = "nlopt"
)

// default values for the smoothing configuration.
const (
	defaultNumSegments          = 3
	defaultPolynomialDegree     = 9
	defaultDerivativeToOptimize = 4 // snap
	defaultContinuityOrder      = 4
	defaultSamplingDt           = 0.01
	defaultVMax                 = 1.0
	defaultMinSegmentTime       = 0.1
	defaultMaxIterations        = 100
	defaultConvergenceTolerance = 1e-6

	defaultSmoothnessWeight = 1.0
	defaultTimeWeight       = 1.0
	defaultWaypointWeight   = 100.0
)

// CostWeights scales the three terms of the LOCO objective.
type CostWeights struct {
	// Smoothness multiplies the integral of the squared optimized derivative.
	Smoothness float64 `json:"smoothness" jsonschema:"minimum=0"`
	// Time multiplies the total trajectory duration.
	Time float64 `json:"time" jsonschema:"minimum=0"`
	// Waypoint multiplies the squared deviation from soft waypoints.
	Waypoint float64 `json:"waypoint" jsonschema:"minimum=0"`
}

// Config is the parameter set of a smoother. It is validated once and never mutated during a call.
type Config struct {
	Type string `json:"type" jsonschema:"enum=loco,enum=polynomial"`

	// ResampleTrajectory makes Smooth return uniformly time-sampled states.
	ResampleTrajectory bool `json:"resample_trajectory"`
	// ResampleVisibility reroutes every waypoint pair through the visibility graph.
	ResampleVisibility bool `json:"resample_visibility"`
	// NumSegments is the number of equal segments used between exactly two waypoints.
	NumSegments int `json:"num_segments" jsonschema:"minimum=1"`
	// AddWaypoints adds waypoints as soft costs instead of hard constraints.
	AddWaypoints bool `json:"add_waypoints"`

	PolynomialDegree     int     `json:"polynomial_degree" jsonschema:"minimum=1"`
	DerivativeToOptimize int     `json:"derivative_to_optimize" jsonschema:"minimum=1"`
	ContinuityOrder      int     `json:"continuity_order" jsonschema:"minimum=0"`
	SamplingDt           float64 `json:"sampling_dt"`
	VMax                 float64 `json:"v_max"`
	// AMax enables velocity-ramp segment time seeding when positive.
	AMax           float64 `json:"a_max" jsonschema:"minimum=0"`
	MinSegmentTime float64 `json:"min_segment_time"`

	OptimizeTime         bool    `json:"optimize_time"`
	TimeOptimizer        string  `json:"time_optimizer" jsonschema:"enum=descent,enum=nlopt"`
	MaxIterations        int     `json:"max_iterations" jsonschema:"minimum=1"`
	ConvergenceTolerance float64 `json:"convergence_tolerance"`

	Weights CostWeights `json:"weights"`
}

// DefaultConfig returns the configuration of a minimum-snap LOCO smoother with time optimization.
func DefaultConfig() Config {
	return Config{
		Type:                 LocoSmootherType,
		NumSegments:          defaultNumSegments,
		PolynomialDegree:     defaultPolynomialDegree,
		DerivativeToOptimize: defaultDerivativeToOptimize,
		ContinuityOrder:      defaultContinuityOrder,
		SamplingDt:           defaultSamplingDt,
		VMax:                 defaultVMax,
		MinSegmentTime:       defaultMinSegmentTime,
		OptimizeTime:         true,
		TimeOptimizer:        DescentTimeOptimizer,
		MaxIterations:        defaultMaxIterations,
		ConvergenceTolerance: defaultConvergenceTolerance,
		Weights: CostWeights{
			Smoothness: defaultSmoothnessWeight,
			Time:       defaultTimeWeight,
			Waypoint:   defaultWaypointWeight,
		},
	}
}

// Validate checks every field and returns all problems found, each matching ErrConfiguration.
func (cfg *Config) Validate() error {
	var errs error
	check := func(ok bool, field, format string, args ...interface{}) {
		if !ok {
			errs = multierr.Append(errs, newConfigurationError(field, format, args...))
		}
	}

	check(cfg.Type == LocoSmootherType || cfg.Type == PolynomialSmootherType,
		"type", "must be %q or %q, got %q", LocoSmootherType, PolynomialSmootherType, cfg.Type)
	check(cfg.NumSegments >= 1, "num_segments", "must be at least 1, got %d", cfg.NumSegments)

	k := cfg.DerivativeToOptimize
	check(k >= 1, "derivative_to_optimize", "must be at least 1, got %d", k)
	if k >= 1 {
		check(cfg.PolynomialDegree >= 2*k-1, "polynomial_degree",
			"must be at least %d to minimize derivative %d, got %d", 2*k-1, k, cfg.PolynomialDegree)
		check(cfg.ContinuityOrder >= k-1 && cfg.ContinuityOrder <= cfg.PolynomialDegree-k, "continuity_order",
			"must be in [%d, %d], got %d", k-1, cfg.PolynomialDegree-k, cfg.ContinuityOrder)
	}

	check(positive(cfg.SamplingDt), "sampling_dt", "must be positive, got %v", cfg.SamplingDt)
	check(positive(cfg.VMax), "v_max", "must be positive, got %v", cfg.VMax)
	check(utils.IsFinite(cfg.AMax) && cfg.AMax >= 0, "a_max", "must not be negative, got %v", cfg.AMax)
	check(positive(cfg.MinSegmentTime), "min_segment_time", "must be positive, got %v", cfg.MinSegmentTime)

	check(cfg.TimeOptimizer == DescentTimeOptimizer || cfg.TimeOptimizer == NloptTimeOptimizer,
		"time_optimizer", "must be %q or %q, got %q", DescentTimeOptimizer, NloptTimeOptimizer, cfg.TimeOptimizer)
	check(cfg.MaxIterations >= 1, "max_iterations", "must be at least 1, got %d", cfg.MaxIterations)
	check(positive(cfg.ConvergenceTolerance), "convergence_tolerance",
		"must be positive, got %v", cfg.ConvergenceTolerance)

	errs = multierr.Append(errs, cfg.Weights.validate())
	return errs
}

func (w CostWeights) validate() error {
	var errs error
	if !positive(w.Smoothness) {
		errs = multierr.Append(errs, newConfigurationError("weights.smoothness", "must be positive, got %v", w.Smoothness))
	}
	if !utils.IsFinite(w.Time) || w.Time < 0 {
		errs = multierr.Append(errs, newConfigurationError("weights.time", "must not be negative, got %v", w.Time))
	}
	if !utils.IsFinite(w.Waypoint) || w.Waypoint < 0 {
		errs = multierr.Append(errs, newConfigurationError("weights.waypoint", "must not be negative, got %v", w.Waypoint))
	}
	return errs
}

func positive(f float64) bool {
	return utils.IsFinite(f) && f > 0
}
