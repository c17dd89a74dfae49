package smoothing

import (
	"math"

	"go.viam.com/pathsmoother/trajectory"
	"go.viam.com/pathsmoother/utils"
)

// validateWaypoints rejects sequences that cannot be smoothed: fewer than two waypoints, non-finite
// values, or consecutive waypoints closer than utils.DefaultEpsilon.
func validateWaypoints(waypoints []trajectory.State) error {
	if len(waypoints) < 2 {
		return &DegenerateInputError{Index: -1, Reason: "at least two waypoints are required"}
	}
	for i, wp := range waypoints {
		if !finiteState(wp) {
			return &DegenerateInputError{Index: i, Reason: "has a non-finite component"}
		}
		if i > 0 && wp.Position.Sub(waypoints[i-1].Position).Norm() < utils.DefaultEpsilon {
			return &DegenerateInputError{Index: i, Reason: "coincides with the previous waypoint"}
		}
	}
	return nil
}

func finiteState(s trajectory.State) bool {
	for _, v := range []float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
		s.Acceleration.X, s.Acceleration.Y, s.Acceleration.Z,
		s.Jerk.X, s.Jerk.Y, s.Jerk.Z,
		s.Yaw, s.YawRate,
	} {
		if !utils.IsFinite(v) {
			return false
		}
	}
	return true
}

// EstimateSegmentTimes returns one seed duration per consecutive waypoint pair. The duration is the
// distance over cfg.VMax, or the time of an accelerate-cruise-decelerate profile when cfg.AMax is
// positive, and never less than cfg.MinSegmentTime.
func EstimateSegmentTimes(waypoints []trajectory.State, cfg Config) ([]float64, error) {
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	if !positive(cfg.VMax) {
		return nil, newConfigurationError("v_max", "must be positive, got %v", cfg.VMax)
	}
	if !positive(cfg.MinSegmentTime) {
		return nil, newConfigurationError("min_segment_time", "must be positive, got %v", cfg.MinSegmentTime)
	}
	times := make([]float64, len(waypoints)-1)
	for i := range times {
		dist := waypoints[i+1].Position.Sub(waypoints[i].Position).Norm()
		times[i] = math.Max(cfg.MinSegmentTime, travelTime(dist, cfg.VMax, cfg.AMax))
	}
	return times, nil
}

// travelTime is the time to cover dist starting and ending at rest. Without an acceleration limit
// the vehicle is assumed to move at vMax throughout.
func travelTime(dist, vMax, aMax float64) float64 {
	if aMax <= 0 {
		return dist / vMax
	}
	rampDist := vMax * vMax / aMax
	if dist < rampDist {
		// Triangular profile: vMax is never reached.
		return 2 * math.Sqrt(dist/aMax)
	}
	return dist/vMax + vMax/aMax
}
