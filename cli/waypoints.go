package cli

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pathsmoother/trajectory"
)

// waypointsFromFlags returns the waypoints given by --waypoints, or by --start and --goal.
func waypointsFromFlags(c *cli.Context) ([]trajectory.State, error) {
	file := c.Path(flagWaypoints)
	start, goal := c.String(flagStart), c.String(flagGoal)
	switch {
	case file != "" && (start != "" || goal != ""):
		return nil, errors.Errorf("use either --%s or --%s and --%s", flagWaypoints, flagStart, flagGoal)
	case file != "":
		return readWaypoints(file)
	case start != "" && goal != "":
		from, err := parseState(start)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", flagStart)
		}
		to, err := parseState(goal)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --%s", flagGoal)
		}
		return []trajectory.State{from, to}, nil
	default:
		return nil, errors.Errorf("need --%s, or both --%s and --%s", flagWaypoints, flagStart, flagGoal)
	}
}

// readWaypoints reads a JSON array of states, or CSV rows of x,y,z[,yaw] when the file ends in .csv.
func readWaypoints(path string) ([]trajectory.State, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck
		f.Close()
	}()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSVWaypoints(f)
	}
	var waypoints []trajectory.State
	if err := json.NewDecoder(f).Decode(&waypoints); err != nil {
		return nil, errors.Wrapf(err, "cannot decode waypoints from %q", path)
	}
	return waypoints, nil
}

func readCSVWaypoints(r io.Reader) ([]trajectory.State, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	waypoints := make([]trajectory.State, 0, len(records))
	for i, record := range records {
		state, err := stateFromFields(record)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		waypoints = append(waypoints, state)
	}
	return waypoints, nil
}

// parseState parses "x,y,z" or "x,y,z,yaw".
func parseState(s string) (trajectory.State, error) {
	return stateFromFields(strings.Split(s, ","))
}

func stateFromFields(fields []string) (trajectory.State, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return trajectory.State{}, errors.Errorf("expected x,y,z[,yaw], got %d values", len(fields))
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return trajectory.State{}, err
		}
		values[i] = v
	}
	state := trajectory.NewState(r3.Vector{X: values[0], Y: values[1], Z: values[2]})
	if len(values) == 4 {
		state.Yaw = values[3]
	}
	return state, nil
}
