package trajectory

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/pathsmoother/utils"
)

// ErrInvalidSamplingPeriod is returned when a trajectory is sampled with a period that is not
// positive or that exceeds the trajectory duration.
var ErrInvalidSamplingPeriod = errors.New("invalid sampling period")

// Trajectory is an ordered, non-empty sequence of polynomial segments. Segment i starts at the sum of
// the durations of the segments before it.
type Trajectory struct {
	segments []Segment
	offsets  []float64
	duration float64
}

// New creates a trajectory from its segments. Segments must share their polynomial degree.
func New(segments []Segment) (*Trajectory, error) {
	if len(segments) == 0 {
		return nil, errors.New("trajectory needs at least one segment")
	}
	degree := segments[0].Degree()
	offsets := make([]float64, len(segments))
	total := 0.
	for i, seg := range segments {
		if seg.Degree() != degree {
			return nil, errors.Errorf("segment %d has degree %d, expected %d", i, seg.Degree(), degree)
		}
		if !utils.IsFinite(seg.Duration()) || seg.Duration() <= 0 {
			return nil, errors.Errorf("segment %d has invalid duration %v", i, seg.Duration())
		}
		offsets[i] = total
		total += seg.Duration()
	}
	return &Trajectory{
		segments: append([]Segment(nil), segments...),
		offsets:  offsets,
		duration: total,
	}, nil
}

// NumSegments returns the number of segments.
func (tr *Trajectory) NumSegments() int {
	return len(tr.segments)
}

// Segments returns a copy of the segments.
func (tr *Trajectory) Segments() []Segment {
	return append([]Segment(nil), tr.segments...)
}

// Segment returns segment i.
func (tr *Trajectory) Segment(i int) Segment {
	return tr.segments[i]
}

// Degree returns the polynomial degree shared by all segments.
func (tr *Trajectory) Degree() int {
	return tr.segments[0].Degree()
}

// Duration returns the total duration in seconds.
func (tr *Trajectory) Duration() float64 {
	return tr.duration
}

// SegmentTimes returns the duration of every segment.
func (tr *Trajectory) SegmentTimes() []float64 {
	return lo.Map(tr.segments, func(s Segment, _ int) float64 { return s.Duration() })
}

// StartTimes returns the time offset at which every segment starts.
func (tr *Trajectory) StartTimes() []float64 {
	return append([]float64(nil), tr.offsets...)
}

// locate returns the segment index active at time t and the segment-local time. t is clamped to
// [0, Duration]; the end time belongs to the last segment.
func (tr *Trajectory) locate(t float64) (int, float64) {
	t = utils.Clamp(t, 0, tr.duration)
	idx := sort.Search(len(tr.offsets), func(i int) bool { return tr.offsets[i] > t }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx, math.Min(t-tr.offsets[idx], tr.segments[idx].Duration())
}

// Evaluate returns the derivative-th time derivative of position and yaw at time t.
func (tr *Trajectory) Evaluate(t float64, derivative int) (r3.Vector, float64) {
	idx, local := tr.locate(t)
	return tr.segments[idx].Evaluate(local, derivative)
}

// StateAt returns the full kinematic state at time t, clamped to the trajectory's time range.
func (tr *Trajectory) StateAt(t float64) State {
	idx, local := tr.locate(t)
	state := tr.segments[idx].stateAt(local)
	state.Time = tr.offsets[idx] + local
	return state
}

// Sample evaluates the trajectory every dt seconds. It returns floor(Duration/dt)+1 states, the
// first at t=0 and the last pinned to t=Duration so that it coincides with the goal state.
func (tr *Trajectory) Sample(dt float64) ([]State, error) {
	if !utils.IsFinite(dt) || dt <= 0 {
		return nil, errors.Wrapf(ErrInvalidSamplingPeriod, "sampling period %v must be positive", dt)
	}
	if dt > tr.duration {
		return nil, errors.Wrapf(ErrInvalidSamplingPeriod,
			"sampling period %v exceeds trajectory duration %v", dt, tr.duration)
	}
	// The small slack keeps an exact multiple from losing its last sample to rounding.
	count := int(math.Floor(tr.duration/dt+1e-9)) + 1
	states := make([]State, 0, count)
	for i := 0; i < count-1; i++ {
		states = append(states, tr.StateAt(float64(i)*dt))
	}
	return append(states, tr.StateAt(tr.duration)), nil
}
