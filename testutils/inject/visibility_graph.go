package inject

import (
	"context"

	"github.com/golang/geo/r3"

	"go.viam.com/pathsmoother/smoothing"
)

// VisibilityGraph is an injected visibility graph.
type VisibilityGraph struct {
	smoothing.VisibilityGraph
	ShortestVisiblePathFunc func(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error)
}

// ShortestVisiblePath calls the injected ShortestVisiblePath or the real version.
func (g *VisibilityGraph) ShortestVisiblePath(ctx context.Context, from, to r3.Vector) ([]r3.Vector, error) {
	if g.ShortestVisiblePathFunc == nil {
		return g.VisibilityGraph.ShortestVisiblePath(ctx, from, to)
	}
	return g.ShortestVisiblePathFunc(ctx, from, to)
}
