package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pathsmoother/config"
	"go.viam.com/pathsmoother/smoothing"
	"go.viam.com/pathsmoother/trajectory"
)

func (r *runner) newSmoother(c *cli.Context) (smoothing.TrajectorySmoother, error) {
	cfg, err := r.loadConfig(c)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("smoothing config", "type", cfg.Type, "degree", cfg.PolynomialDegree,
		"derivative", cfg.DerivativeToOptimize, "optimize_time", cfg.OptimizeTime)
	return smoothing.New(*cfg, r.logger.Sublogger("smoothing"))
}

func (r *runner) trajectoryAction(c *cli.Context) error {
	waypoints, err := waypointsFromFlags(c)
	if err != nil {
		return err
	}
	s, err := r.newSmoother(c)
	if err != nil {
		return err
	}
	out, err := s.Smooth(c.Context, waypoints)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, out)
}

// smoothPath samples the trajectory through the waypoints, using the two-point case for a pair.
func smoothPath(c *cli.Context, s smoothing.TrajectorySmoother, waypoints []trajectory.State) ([]trajectory.State, error) {
	if len(waypoints) == 2 {
		return s.GetPathBetweenTwoPoints(c.Context, waypoints[0], waypoints[1])
	}
	return s.GetPathBetweenWaypoints(c.Context, waypoints)
}

func (r *runner) pathAction(c *cli.Context) error {
	format := c.String(flagFormat)
	if format != formatJSON && format != formatCSV {
		return errors.Errorf("unknown --%s %q, expected %s or %s", flagFormat, format, formatJSON, formatCSV)
	}
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

	if format == formatCSV {
		err = writeCSV(c.App.Writer, path)
	} else {
		err = writeJSON(c.App.Writer, path)
	}
	if err != nil {
		return err
	}

	summary, err := trajectory.Summarize(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.ErrWriter,
		"samples: %d  duration: %.3fs  length: %.3fm  speed max/mean/p95: %.3f/%.3f/%.3f m/s  max accel: %.3f m/s^2\n",
		summary.Samples, summary.Duration, summary.Length,
		summary.MaxSpeed, summary.MeanSpeed, summary.P95Speed, summary.MaxAcceleration)
	return err
}

func (r *runner) schemaAction(c *cli.Context) error {
	return writeJSON(c.App.Writer, config.Schema())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var csvHeader = []string{
	"time", "x", "y", "z", "vx", "vy", "vz", "ax", "ay", "az", "jx", "jy", "jz", "yaw", "yaw_rate",
}

func writeCSV(w io.Writer, states []trajectory.State) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	format := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
	for _, s := range states {
		record := []string{format(s.Time)}
		for _, v := range []r3.Vector{s.Position, s.Velocity, s.Acceleration, s.Jerk} {
			record = append(record, format(v.X), format(v.Y), format(v.Z))
		}
		record = append(record, format(s.Yaw), format(s.YawRate))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
