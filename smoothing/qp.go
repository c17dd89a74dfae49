package smoothing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/pathsmoother/trajectory"
	"go.viam.com/pathsmoother/utils"
)

// maxKKTCondition is the largest condition number estimate accepted for the KKT system.
const maxKKTCondition = 1e14

// BoundaryConstraint selects how an internal boundary between two segments is treated.
type BoundaryConstraint int

const (
	// HardBoundary forces the trajectory through the waypoint.
	HardBoundary BoundaryConstraint = iota
	// SoftBoundary penalizes the squared distance to the waypoint.
	SoftBoundary
	// FreeBoundary only enforces continuity; the waypoint is ignored.
	FreeBoundary
)

func (b BoundaryConstraint) String() string {
	switch b {
	case HardBoundary:
		return "hard"
	case SoftBoundary:
		return "soft"
	case FreeBoundary:
		return "free"
	default:
		return "unknown"
	}
}

// Cost is the LOCO objective split into its weighted terms.
type Cost struct {
	Smoothness float64 `json:"smoothness"`
	Time       float64 `json:"time"`
	Waypoint   float64 `json:"waypoint"`
}

// Total returns the objective value.
func (c Cost) Total() float64 {
	return c.Smoothness + c.Time + c.Waypoint
}

// qpSolution holds the coefficients of every segment in normalized time, indexed by segment,
// dimension and power.
type qpSolution struct {
	durations    []float64
	coefficients [][trajectory.NumDimensions][]float64
	cost         Cost
}

// qp is the fixed-time inner problem. It is built once per Solve and evaluated for many duration
// vectors.
type qp struct {
	degree     int
	derivative int
	continuity int
	weights    CostWeights

	// waypoints with yaw unwrapped along the sequence.
	waypoints  []trajectory.State
	boundaries []BoundaryConstraint
	// costMatrix is the squared-derivative integral over the unit interval.
	costMatrix *mat.SymDense
}

func newQP(opt *Optimizer, problem Problem) *qp {
	waypoints := make([]trajectory.State, len(problem.Waypoints))
	copy(waypoints, problem.Waypoints)
	for i := 1; i < len(waypoints); i++ {
		waypoints[i].Yaw = waypoints[i-1].Yaw + utils.AngleDiff(problem.Waypoints[i-1].Yaw, problem.Waypoints[i].Yaw)
	}
	boundaries := problem.Boundaries
	if boundaries == nil {
		boundaries = make([]BoundaryConstraint, len(waypoints)-2)
	}
	return &qp{
		degree:     opt.degree,
		derivative: opt.derivative,
		continuity: opt.continuity,
		weights:    opt.weights,
		waypoints:  waypoints,
		boundaries: boundaries,
		costMatrix: unitCostMatrix(opt.degree, opt.derivative),
	}
}

// unitCostMatrix returns Q with Q[m][n] = integral over [0,1] of the k-th derivatives of tau^m and tau^n.
func unitCostMatrix(degree, k int) *mat.SymDense {
	n := degree + 1
	q := mat.NewSymDense(n, nil)
	for a := k; a < n; a++ {
		for b := a; b < n; b++ {
			q.SetSym(a, b, utils.FallingFactorial(a, k)*utils.FallingFactorial(b, k)/float64(a+b-2*k+1))
		}
	}
	return q
}

// basis returns the r-th time derivative of every power of tau at tau, for a segment of duration t.
func basis(degree, r int, tau, t float64) []float64 {
	row := make([]float64, degree+1)
	scale := math.Pow(t, -float64(r))
	for m := r; m <= degree; m++ {
		row[m] = utils.FallingFactorial(m, r) * math.Pow(tau, float64(m-r)) * scale
	}
	return row
}

// constraintSet accumulates the rows of the equality constraints, their right-hand side per
// dimension and, for stiff soft waypoints, the regularizing diagonal entry of the row.
type constraintSet struct {
	numVars int
	rows    [][]float64
	rhs     [][trajectory.NumDimensions]float64
	diag    []float64
}

func (cs *constraintSet) add(rhs [trajectory.NumDimensions]float64) []float64 {
	row := make([]float64, cs.numVars)
	cs.rows = append(cs.rows, row)
	cs.rhs = append(cs.rhs, rhs)
	cs.diag = append(cs.diag, 0)
	return row
}

func (p *qp) target(waypoint, r int) [trajectory.NumDimensions]float64 {
	var out [trajectory.NumDimensions]float64
	for dim := range out {
		out[dim] = p.waypoints[waypoint].Component(dim, r)
	}
	return out
}

// softTerm penalizes the position of segment seg at normalized time tau against a waypoint.
type softTerm struct {
	seg      int
	tau      float64
	waypoint int
}

// softTerms places every soft waypoint on the shorter of its two adjacent segments. Position
// continuity makes both placements equivalent.
func (p *qp) softTerms(durations []float64) []softTerm {
	var terms []softTerm
	for j, kind := range p.boundaries {
		if kind != SoftBoundary {
			continue
		}
		term := softTerm{seg: j, tau: 1, waypoint: j + 1}
		if durations[j+1] < durations[j] {
			term.seg, term.tau = j+1, 0
		}
		terms = append(terms, term)
	}
	return terms
}

// variableScales returns T_i^(k-1/2) per segment. Coefficients divided by it make every smoothness
// block of the Hessian equal to 2*Q.
func (p *qp) variableScales(durations []float64) []float64 {
	scales := make([]float64, len(durations))
	for i, t := range durations {
		scales[i] = math.Pow(t, float64(p.derivative)-0.5)
	}
	return scales
}

// stiff reports whether a soft term outweighs the smoothness block of its segment. Stiff terms
// are solved as regularized constraints, the others stay in the Hessian.
func (p *qp) stiff(scale float64) bool {
	return p.weights.Waypoint*scale*scale > p.weights.Smoothness
}

func (p *qp) constraints(durations, scales []float64, soft []softTerm) *constraintSet {
	n := p.degree + 1
	nSeg := len(durations)
	cs := &constraintSet{numVars: nSeg * n}
	last := nSeg - 1
	put := func(row []float64, seg, r int, tau, sign float64) {
		floats.AddScaled(row[seg*n:(seg+1)*n], sign*scales[seg], basis(p.degree, r, tau, durations[seg]))
	}

	for r := 0; r < p.derivative; r++ {
		put(cs.add(p.target(0, r)), 0, r, 0, 1)
		put(cs.add(p.target(nSeg, r)), last, r, 1, 1)
	}

	for j := 1; j < nSeg; j++ {
		firstContinuous := 0
		if p.boundaries[j-1] == HardBoundary {
			target := p.target(j, 0)
			put(cs.add(target), j-1, 0, 1, 1)
			put(cs.add(target), j, 0, 0, 1)
			firstContinuous = 1
		}
		for r := firstContinuous; r <= p.continuity; r++ {
			row := cs.add([trajectory.NumDimensions]float64{})
			put(row, j-1, r, 1, 1)
			put(row, j, r, 0, -1)
		}
	}

	// A stiff soft term w*(e.x - p)^2 becomes e.x - mu/(2w) = p with its own multiplier mu.
	for _, term := range soft {
		if !p.stiff(scales[term.seg]) {
			continue
		}
		put(cs.add(p.target(term.waypoint, 0)), term.seg, 0, term.tau, 1)
		cs.diag[len(cs.diag)-1] = -1 / (2 * p.weights.Waypoint)
	}
	return cs
}

// solve minimizes the smoothness and waypoint terms for fixed durations. All four dimensions share
// one LU factorization of the KKT system.
func (p *qp) solve(durations []float64) (*qpSolution, error) {
	n := p.degree + 1
	nSeg := len(durations)
	numVars := nSeg * n
	scales := p.variableScales(durations)
	soft := p.softTerms(durations)
	cs := p.constraints(durations, scales, soft)
	size := numVars + len(cs.rows)

	kkt := mat.NewDense(size, size, nil)
	rhs := mat.NewDense(size, trajectory.NumDimensions, nil)

	for i := 0; i < nSeg; i++ {
		block := kkt.Slice(i*n, (i+1)*n, i*n, (i+1)*n).(*mat.Dense)
		block.Scale(2*p.weights.Smoothness, p.costMatrix)
	}
	for _, term := range soft {
		scale := scales[term.seg]
		if p.stiff(scale) {
			continue
		}
		e := basis(p.degree, 0, term.tau, durations[term.seg])
		floats.Scale(scale, e)
		off := term.seg * n
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				kkt.Set(off+a, off+b, kkt.At(off+a, off+b)+2*p.weights.Waypoint*e[a]*e[b])
			}
			for dim := 0; dim < trajectory.NumDimensions; dim++ {
				wp := p.waypoints[term.waypoint].Component(dim, 0)
				rhs.Set(off+a, dim, rhs.At(off+a, dim)+2*p.weights.Waypoint*wp*e[a])
			}
		}
	}
	for i, row := range cs.rows {
		for col, v := range row {
			if v == 0 {
				continue
			}
			kkt.Set(numVars+i, col, v)
			kkt.Set(col, numVars+i, v)
		}
		kkt.Set(numVars+i, numVars+i, cs.diag[i])
		for dim, v := range cs.rhs[i] {
			rhs.Set(numVars+i, dim, v)
		}
	}

	equilibration := equilibrate(kkt)
	rhs.Apply(func(i, _ int, v float64) float64 { return v * equilibration[i] }, rhs)

	var lu mat.LU
	lu.Factorize(kkt)
	if cond := lu.Cond(); math.IsNaN(cond) || cond > maxKKTCondition {
		return nil, errors.Wrapf(ErrSingular, "KKT condition estimate %.3g with %d segments", cond, nSeg)
	}
	var sol mat.Dense
	if err := lu.SolveTo(&sol, false, rhs); err != nil {
		return nil, errors.Wrap(ErrSingular, err.Error())
	}

	out := &qpSolution{
		durations:    append([]float64(nil), durations...),
		coefficients: make([][trajectory.NumDimensions][]float64, nSeg),
	}
	for i := range out.coefficients {
		for dim := 0; dim < trajectory.NumDimensions; dim++ {
			coeffs := mat.Col(nil, dim, sol.Slice(i*n, (i+1)*n, 0, trajectory.NumDimensions))
			for m := range coeffs {
				coeffs[m] *= equilibration[i*n+m] * scales[i]
				if !utils.IsFinite(coeffs[m]) {
					return nil, errors.Wrap(ErrSingular, "KKT solution is not finite")
				}
			}
			out.coefficients[i][dim] = coeffs
		}
	}
	out.cost = p.cost(out)
	return out, nil
}

const (
	equilibrationPasses    = 10
	equilibrationTolerance = 1e-3
)

// equilibrate scales the symmetric matrix in place to D*K*D, with every row and column of unit
// max-abs, by repeated square-root row scaling. It returns the diagonal of D.
func equilibrate(k *mat.Dense) []float64 {
	size, _ := k.Dims()
	total := make([]float64, size)
	for i := range total {
		total[i] = 1
	}
	step := make([]float64, size)
	for pass := 0; pass < equilibrationPasses; pass++ {
		converged := true
		for i := range step {
			step[i] = 1
			if rmax := floats.Norm(k.RawRowView(i), math.Inf(1)); rmax > 0 {
				step[i] = 1 / math.Sqrt(rmax)
				if math.Abs(1-rmax) > equilibrationTolerance {
					converged = false
				}
			}
		}
		if converged {
			break
		}
		k.Apply(func(i, j int, v float64) float64 { return v * step[i] * step[j] }, k)
		floats.Mul(total, step)
	}
	return total
}

func (p *qp) cost(sol *qpSolution) Cost {
	var c Cost
	for i, t := range sol.durations {
		c.Time += p.weights.Time * t
		scale := p.weights.Smoothness * math.Pow(t, float64(1-2*p.derivative))
		for dim := 0; dim < trajectory.NumDimensions; dim++ {
			a := mat.NewVecDense(p.degree+1, sol.coefficients[i][dim])
			c.Smoothness += scale * mat.Inner(a, p.costMatrix, a)
		}
	}
	for j, kind := range p.boundaries {
		if kind != SoftBoundary {
			continue
		}
		for dim := 0; dim < trajectory.NumDimensions; dim++ {
			end := floats.Sum(sol.coefficients[j][dim])
			c.Waypoint += p.weights.Waypoint * utils.Square(end-p.waypoints[j+1].Component(dim, 0))
		}
	}
	return c
}

// trajectory converts the normalized-time coefficients to natural time.
func (sol *qpSolution) trajectory() (*trajectory.Trajectory, error) {
	segments := make([]trajectory.Segment, len(sol.durations))
	for i, t := range sol.durations {
		polys := make([]trajectory.Polynomial, trajectory.NumDimensions)
		for dim := range polys {
			natural := make([]float64, len(sol.coefficients[i][dim]))
			for m, c := range sol.coefficients[i][dim] {
				natural[m] = c / math.Pow(t, float64(m))
			}
			poly, err := trajectory.NewPolynomial(natural...)
			if err != nil {
				return nil, errors.Wrapf(ErrSingular, "segment %d: %v", i, err)
			}
			polys[dim] = poly
		}
		seg, err := trajectory.NewSegment(t, polys)
		if err != nil {
			return nil, err
		}
		segments[i] = seg
	}
	return trajectory.New(segments)
}
