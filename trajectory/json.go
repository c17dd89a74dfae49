package trajectory

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type segmentJSON struct {
	Duration float64 `json:"duration"`
	// Coefficients holds one ascending-order coefficient list per dimension: x, y, z, yaw.
	Coefficients [][]float64 `json:"coefficients"`
}

type trajectoryJSON struct {
	Duration float64       `json:"duration"`
	Segments []segmentJSON `json:"segments"`
}

// MarshalJSON encodes the trajectory as its segment durations and polynomial coefficients.
func (tr *Trajectory) MarshalJSON() ([]byte, error) {
	out := trajectoryJSON{Duration: tr.duration, Segments: make([]segmentJSON, 0, len(tr.segments))}
	for _, seg := range tr.segments {
		sj := segmentJSON{Duration: seg.Duration(), Coefficients: make([][]float64, 0, NumDimensions)}
		for dim := 0; dim < NumDimensions; dim++ {
			sj.Coefficients = append(sj.Coefficients, seg.Polynomial(dim).Coefficients())
		}
		out.Segments = append(out.Segments, sj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a trajectory produced by MarshalJSON, re-checking its invariants.
func (tr *Trajectory) UnmarshalJSON(data []byte) error {
	var in trajectoryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	segments := make([]Segment, 0, len(in.Segments))
	for i, sj := range in.Segments {
		polys := make([]Polynomial, 0, len(sj.Coefficients))
		for _, coeffs := range sj.Coefficients {
			poly, err := NewPolynomial(coeffs...)
			if err != nil {
				return errors.Wrapf(err, "segment %d", i)
			}
			polys = append(polys, poly)
		}
		seg, err := NewSegment(sj.Duration, polys)
		if err != nil {
			return errors.Wrapf(err, "segment %d", i)
		}
		segments = append(segments, seg)
	}
	decoded, err := New(segments)
	if err != nil {
		return err
	}
	*tr = *decoded
	return nil
}
