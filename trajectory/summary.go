package trajectory

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Summary describes a sampled path.
type Summary struct {
	Samples         int     `json:"samples"`
	Duration        float64 `json:"duration"`
	Length          float64 `json:"length"`
	MaxSpeed        float64 `json:"max_speed"`
	MeanSpeed       float64 `json:"mean_speed"`
	P95Speed        float64 `json:"p95_speed"`
	MaxAcceleration float64 `json:"max_acceleration"`
}

// Summarize computes path length and speed/acceleration statistics of sampled states.
func Summarize(states []State) (Summary, error) {
	if len(states) < 2 {
		return Summary{}, errors.Errorf("need at least 2 states to summarize, got %d", len(states))
	}
	speeds := lo.Map(states, func(s State, _ int) float64 { return s.Velocity.Norm() })
	accels := lo.Map(states, func(s State, _ int) float64 { return s.Acceleration.Norm() })

	length := 0.
	for i := 1; i < len(states); i++ {
		length += states[i].Position.Distance(states[i-1].Position)
	}

	out := Summary{
		Samples:  len(states),
		Duration: states[len(states)-1].Time - states[0].Time,
		Length:   length,
	}
	var err error
	if out.MaxSpeed, err = stats.Max(speeds); err != nil {
		return Summary{}, err
	}
	if out.MeanSpeed, err = stats.Mean(speeds); err != nil {
		return Summary{}, err
	}
	if out.P95Speed, err = stats.Percentile(speeds, 95); err != nil {
		return Summary{}, err
	}
	if out.MaxAcceleration, err = stats.Max(accels); err != nil {
		return Summary{}, err
	}
	return out, nil
}
