package trajectory

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func mustPoly(t *testing.T, coeffs ...float64) Polynomial {
	t.Helper()
	p, err := NewPolynomial(coeffs...)
	test.That(t, err, test.ShouldBeNil)
	return p
}

// lineSegment moves along x from x0 at constant speed v for duration d.
func lineSegment(t *testing.T, x0, v, d float64) Segment {
	t.Helper()
	zero := mustPoly(t, 0, 0)
	seg, err := NewSegment(d, []Polynomial{mustPoly(t, x0, v), zero, zero, zero})
	test.That(t, err, test.ShouldBeNil)
	return seg
}

func TestPolynomialEvaluate(t *testing.T) {
	// p(t) = 1 + 2t + 3t^2 + 4t^3
	p := mustPoly(t, 1, 2, 3, 4)
	test.That(t, p.Degree(), test.ShouldEqual, 3)
	for _, x := range []float64{-1.5, 0, 0.25, 2} {
		test.That(t, p.Evaluate(x, 0), test.ShouldAlmostEqual, 1+2*x+3*x*x+4*x*x*x)
		test.That(t, p.Evaluate(x, 1), test.ShouldAlmostEqual, 2+6*x+12*x*x)
		test.That(t, p.Evaluate(x, 2), test.ShouldAlmostEqual, 6+24*x)
		test.That(t, p.Evaluate(x, 3), test.ShouldAlmostEqual, 24.)
		test.That(t, p.Evaluate(x, 4), test.ShouldAlmostEqual, 0.)
	}

	_, err := NewPolynomial()
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPolynomial(1, math.NaN())
	test.That(t, err, test.ShouldNotBeNil)

	// Coefficients are copied in and out.
	coeffs := []float64{1, 2}
	p2 := mustPoly(t, coeffs...)
	coeffs[0] = 100
	test.That(t, p2.Evaluate(0, 0), test.ShouldEqual, 1.)
	out := p2.Coefficients()
	out[1] = 100
	test.That(t, p2.Evaluate(1, 0), test.ShouldEqual, 3.)
}

func TestNewSegmentValidation(t *testing.T) {
	lin := mustPoly(t, 0, 1)
	quad := mustPoly(t, 0, 1, 2)

	_, err := NewSegment(0, []Polynomial{lin, lin, lin, lin})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSegment(math.Inf(1), []Polynomial{lin, lin, lin, lin})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSegment(1, []Polynomial{lin, lin, lin})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSegment(1, []Polynomial{lin, lin, quad, lin})
	test.That(t, err, test.ShouldNotBeNil)

	seg, err := NewSegment(2, []Polynomial{lin, lin, lin, lin})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seg.Duration(), test.ShouldEqual, 2.)
	test.That(t, seg.Degree(), test.ShouldEqual, 1)
}

func TestTrajectoryLocateAndState(t *testing.T) {
	_, err := New(nil)
	test.That(t, err, test.ShouldNotBeNil)

	tr, err := New([]Segment{lineSegment(t, 0, 1, 1), lineSegment(t, 1, 2, 2)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr.NumSegments(), test.ShouldEqual, 2)
	test.That(t, tr.Duration(), test.ShouldEqual, 3.)
	test.That(t, tr.SegmentTimes(), test.ShouldResemble, []float64{1, 2})
	test.That(t, tr.StartTimes(), test.ShouldResemble, []float64{0, 1})

	test.That(t, tr.StateAt(0.5).Position.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, tr.StateAt(0.5).Velocity.X, test.ShouldAlmostEqual, 1.)
	// The boundary belongs to the second segment.
	test.That(t, tr.StateAt(1).Velocity.X, test.ShouldAlmostEqual, 2.)
	test.That(t, tr.StateAt(2).Position.X, test.ShouldAlmostEqual, 3.)
	test.That(t, tr.StateAt(2).Time, test.ShouldAlmostEqual, 2.)
	// Out of range times clamp.
	test.That(t, tr.StateAt(-1).Position.X, test.ShouldAlmostEqual, 0.)
	test.That(t, tr.StateAt(10).Position.X, test.ShouldAlmostEqual, 5.)
	test.That(t, tr.StateAt(10).Time, test.ShouldAlmostEqual, 3.)

	vel, yawRate := tr.Evaluate(2.5, 1)
	test.That(t, vel, test.ShouldResemble, r3.Vector{X: 2})
	test.That(t, yawRate, test.ShouldEqual, 0.)

	mismatched, err := NewSegment(1, []Polynomial{mustPoly(t, 0, 1, 1), mustPoly(t, 0, 0, 0), mustPoly(t, 0, 0, 0), mustPoly(t, 0, 0, 0)})
	test.That(t, err, test.ShouldBeNil)
	_, err = New([]Segment{lineSegment(t, 0, 1, 1), mismatched})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrajectorySample(t *testing.T) {
	tr, err := New([]Segment{lineSegment(t, 0, 1, 1), lineSegment(t, 1, 2, 1.05)})
	test.That(t, err, test.ShouldBeNil)

	states, err := tr.Sample(0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, states, test.ShouldHaveLength, int(math.Floor(2.05/0.1))+1)
	test.That(t, states[0].Time, test.ShouldEqual, 0.)
	test.That(t, states[0].Position.X, test.ShouldAlmostEqual, 0.)
	last := states[len(states)-1]
	test.That(t, last.Time, test.ShouldAlmostEqual, 2.05)
	test.That(t, last.Position.X, test.ShouldAlmostEqual, 3.1)
	for i := 1; i < len(states)-1; i++ {
		test.That(t, states[i].Time, test.ShouldAlmostEqual, float64(i)*0.1)
	}

	// An exact multiple keeps its final sample.
	states, err = tr.Sample(0.025)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, states, test.ShouldHaveLength, 83)

	_, err = tr.Sample(3)
	test.That(t, errors.Is(err, ErrInvalidSamplingPeriod), test.ShouldBeTrue)
	_, err = tr.Sample(0)
	test.That(t, errors.Is(err, ErrInvalidSamplingPeriod), test.ShouldBeTrue)
}

func TestTrajectoryJSONRoundTrip(t *testing.T) {
	seg, err := NewSegment(1.5, []Polynomial{
		mustPoly(t, 1, 2, 3), mustPoly(t, 0, 0, 1), mustPoly(t, 2, 0, 0), mustPoly(t, 0.1, 0.2, 0),
	})
	test.That(t, err, test.ShouldBeNil)
	tr, err := New([]Segment{seg, seg})
	test.That(t, err, test.ShouldBeNil)

	data, err := json.Marshal(tr)
	test.That(t, err, test.ShouldBeNil)

	var decoded Trajectory
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	test.That(t, decoded.Duration(), test.ShouldEqual, 3.)
	for _, tm := range []float64{0, 0.7, 1.5, 2.9} {
		test.That(t, decoded.StateAt(tm), test.ShouldResemble, tr.StateAt(tm))
	}

	test.That(t, json.Unmarshal([]byte(`{"segments":[{"duration":-1,"coefficients":[[1],[1],[1],[1]]}]}`), &decoded),
		test.ShouldNotBeNil)
	test.That(t, json.Unmarshal([]byte(`{"segments":[]}`), &decoded), test.ShouldNotBeNil)
}

func TestSummarize(t *testing.T) {
	tr, err := New([]Segment{lineSegment(t, 0, 1, 1), lineSegment(t, 1, 2, 1)})
	test.That(t, err, test.ShouldBeNil)
	states, err := tr.Sample(0.5)
	test.That(t, err, test.ShouldBeNil)

	summary, err := Summarize(states)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Samples, test.ShouldEqual, 5)
	test.That(t, summary.Duration, test.ShouldAlmostEqual, 2.)
	test.That(t, summary.Length, test.ShouldAlmostEqual, 3.)
	test.That(t, summary.MaxSpeed, test.ShouldAlmostEqual, 2.)
	test.That(t, summary.MeanSpeed, test.ShouldAlmostEqual, 1.6)
	test.That(t, summary.MaxAcceleration, test.ShouldAlmostEqual, 0.)

	_, err = Summarize(states[:1])
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Positions(states)[4], test.ShouldResemble, r3.Vector{X: 3})
}
