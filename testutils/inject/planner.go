package inject

import (
	"context"

	"github.com/google/uuid"

	"go.viam.com/pathsmoother/planner"
	"go.viam.com/pathsmoother/trajectory"
)

// Planner is an injected planner.
type Planner struct {
	planner.Planner
	PlanFunc func(ctx context.Context, start, goal trajectory.State) (*trajectory.Trajectory, error)
}

// Plan calls the injected Plan or the real version.
func (p *Planner) Plan(ctx context.Context, start, goal trajectory.State) (*trajectory.Trajectory, error) {
	if p.PlanFunc == nil {
		return p.Planner.Plan(ctx, start, goal)
	}
	return p.PlanFunc(ctx, start, goal)
}

// Publisher is an injected path publisher.
type Publisher struct {
	planner.Publisher
	PublishPathFunc func(ctx context.Context, id uuid.UUID, path []trajectory.State) error
}

// PublishPath calls the injected PublishPath or the real version.
func (p *Publisher) PublishPath(ctx context.Context, id uuid.UUID, path []trajectory.State) error {
	if p.PublishPathFunc == nil {
		return p.Publisher.PublishPath(ctx, id, path)
	}
	return p.PublishPathFunc(ctx, id, path)
}
