// Package planner serves and calls a path planner over HTTP. A plan is requested between a start and
// a goal state; the most recent plan can then be republished to whoever consumes paths.
package planner

import (
	"context"

	"github.com/google/uuid"

	"go.viam.com/pathsmoother/smoothing"
	"go.viam.com/pathsmoother/trajectory"
)

// Planner computes a trajectory from start to goal.
type Planner interface {
	Plan(ctx context.Context, start, goal trajectory.State) (*trajectory.Trajectory, error)
}

// Publisher hands a planned path to its consumers.
type Publisher interface {
	PublishPath(ctx context.Context, id uuid.UUID, path []trajectory.State) error
}

// PlanRequest is the body of a plan request.
type PlanRequest struct {
	Start trajectory.State `json:"start"`
	Goal  trajectory.State `json:"goal"`
}

// PlanResponse is a computed plan.
type PlanResponse struct {
	ID         uuid.UUID              `json:"id"`
	Trajectory *trajectory.Trajectory `json:"trajectory"`
	Path       []trajectory.State     `json:"path"`
	// Converged is false when the trajectory is the best effort of a time refinement that ran out of
	// iterations.
	Converged bool `json:"converged"`
}

type smootherPlanner struct {
	smoother smoothing.TrajectorySmoother
}

// NewSmootherPlanner returns a Planner that smooths the straight line from start to goal.
func NewSmootherPlanner(smoother smoothing.TrajectorySmoother) Planner {
	return &smootherPlanner{smoother: smoother}
}

func (p *smootherPlanner) Plan(ctx context.Context, start, goal trajectory.State) (*trajectory.Trajectory, error) {
	return p.smoother.GetTrajectoryBetweenTwoPoints(ctx, start, goal)
}
