package cli

import (
	"image/color"

	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/pathsmoother/trajectory"
)

const plotSize = 6 * vg.Inch

func (r *runner) plotAction(c *cli.Context) error {
	waypoints, err := waypointsFromFlags(c)
	if err != nil {
		return err
	}
	s, err := r.newSmoother(c)
	if err != nil {
		return err
	}
	path, err := smoothPath(c, s, waypoints)
	if err != nil {
		return err
	}
	p, err := newPathPlot(path, waypoints)
	if err != nil {
		return err
	}
	out := c.Path(flagOut)
	if err := p.Save(plotSize, plotSize, out); err != nil {
		return err
	}
	r.logger.Infow("wrote plot", "file", out, "samples", len(path), "waypoints", len(waypoints))
	return nil
}

// newPathPlot draws the XY projection of the sampled path and marks the waypoints.
func newPathPlot(path, waypoints []trajectory.State) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Smoothed path"
	p.X.Label.Text = "x [m]"
	p.Y.Label.Text = "y [m]"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys(path))
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1.5)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	points, err := plotter.NewScatter(xys(waypoints))
	if err != nil {
		return nil, err
	}
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)
	points.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}

	p.Add(line, points)
	p.Legend.Add("path", line)
	p.Legend.Add("waypoints", points)
	p.Legend.Top = true
	return p, nil
}

func xys(states []trajectory.State) plotter.XYs {
	pts := make(plotter.XYs, 0, len(states))
	for _, s := range states {
		pts = append(pts, plotter.XY{X: s.Position.X, Y: s.Position.Y})
	}
	return pts
}
