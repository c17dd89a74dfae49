package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/pathsmoother/smoothing"
	"go.viam.com/pathsmoother/trajectory"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"pathsmoother"}, args...))
	return out.String(), errOut.String(), err
}

func writeWaypoints(t *testing.T, waypoints []trajectory.State) string {
	t.Helper()
	data, err := json.Marshal(waypoints)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(t.TempDir(), "waypoints.json")
	test.That(t, os.WriteFile(path, data, 0o600), test.ShouldBeNil)
	return path
}

var lShape = []trajectory.State{
	trajectory.NewState(r3.Vector{}),
	trajectory.NewState(r3.Vector{X: 2}),
	trajectory.NewState(r3.Vector{X: 2, Y: 2}),
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"polynomial_degree"`)
	test.That(t, json.Valid([]byte(out)), test.ShouldBeTrue)
}

func TestTrajectoryCommand(t *testing.T) {
	file := writeWaypoints(t, lShape)
	out, _, err := runApp(t, "--set", "optimize_time=false", "--set", "resample_trajectory=true",
		"trajectory", "--waypoints", file)
	test.That(t, err, test.ShouldBeNil)

	var result smoothing.Output
	test.That(t, json.Unmarshal([]byte(out), &result), test.ShouldBeNil)
	test.That(t, result.Trajectory.NumSegments(), test.ShouldEqual, 2)
	test.That(t, result.States, test.ShouldNotBeEmpty)
	end := result.Trajectory.StateAt(result.Trajectory.Duration())
	test.That(t, end.Position.Distance(lShape[2].Position), test.ShouldBeLessThan, 1e-6)

	_, _, err = runApp(t, "trajectory")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--waypoints")

	_, _, err = runApp(t, "trajectory", "--waypoints", file, "--start", "0,0,0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPathCommandCSV(t *testing.T) {
	out, errOut, err := runApp(t, "--set", "optimize_time=false", "--set", "sampling_dt=0.05",
		"path", "--start", "0,0,0", "--goal", "2,0,1", "--format", "csv")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "samples:")

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, records[0], test.ShouldResemble, csvHeader)
	test.That(t, len(records), test.ShouldBeGreaterThan, 3)

	last := records[len(records)-1]
	x, err := strconv.ParseFloat(last[1], 64)
	test.That(t, err, test.ShouldBeNil)
	z, err := strconv.ParseFloat(last[3], 64)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x, test.ShouldAlmostEqual, 2., 1e-6)
	test.That(t, z, test.ShouldAlmostEqual, 1., 1e-6)
}

func TestPathCommandJSON(t *testing.T) {
	file := writeWaypoints(t, lShape)
	out, _, err := runApp(t, "--set", "optimize_time=false", "path", "--waypoints", file)
	test.That(t, err, test.ShouldBeNil)

	var states []trajectory.State
	test.That(t, json.Unmarshal([]byte(out), &states), test.ShouldBeNil)
	test.That(t, states[0].Position.Distance(lShape[0].Position), test.ShouldBeLessThan, 1e-6)
	test.That(t, states[len(states)-1].Position.Distance(lShape[2].Position), test.ShouldBeLessThan, 1e-6)

	_, _, err = runApp(t, "path", "--waypoints", file, "--format", "yaml")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "yaml")
}

func TestConfigFlags(t *testing.T) {
	file := writeWaypoints(t, lShape)
	cfgFile := filepath.Join(t.TempDir(), "smoothing.json")
	test.That(t, os.WriteFile(cfgFile, []byte(`{"v_max": -1}`), 0o600), test.ShouldBeNil)

	_, _, err := runApp(t, "--config", cfgFile, "trajectory", "--waypoints", file)
	test.That(t, errors.Is(err, smoothing.ErrConfiguration), test.ShouldBeTrue)

	// overrides win over the file
	out, _, err := runApp(t, "--config", cfgFile, "--set", "v_max=2", "--set", "optimize_time=false",
		"trajectory", "--waypoints", file)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"segments"`)

	_, _, err = runApp(t, "--set", "v_max", "trajectory", "--waypoints", file)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "key=value")
}

func TestDegenerateWaypoints(t *testing.T) {
	file := writeWaypoints(t, []trajectory.State{lShape[0], lShape[0]})
	_, _, err := runApp(t, "trajectory", "--waypoints", file)
	test.That(t, errors.Is(err, smoothing.ErrDegenerateInput), test.ShouldBeTrue)
}

func TestLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "pathsmoother.log")
	_, errOut, err := runApp(t, "--debug", "--log-file", logFile, "--set", "optimize_time=false",
		"path", "--start", "0,0,0", "--goal", "1,1,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "smoothing config")

	data, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "smoothing config")
}

func TestPlotCommand(t *testing.T) {
	file := writeWaypoints(t, lShape)
	out := filepath.Join(t.TempDir(), "path.png")
	_, _, err := runApp(t, "--set", "optimize_time=false", "plot", "--waypoints", file, "--out", out)
	test.That(t, err, test.ShouldBeNil)
	info, err := os.Stat(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	_, _, err = runApp(t, "plot", "--waypoints", file)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadWaypoints(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "waypoints.CSV")
	test.That(t, os.WriteFile(csvFile, []byte("# x,y,z,yaw\n0,0,0\n1, 2, 3, 1.5\n"), 0o600), test.ShouldBeNil)
	waypoints, err := readWaypoints(csvFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, waypoints, test.ShouldHaveLength, 2)
	test.That(t, waypoints[1].Position, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, waypoints[1].Yaw, test.ShouldEqual, 1.5)

	badFile := filepath.Join(dir, "bad.csv")
	test.That(t, os.WriteFile(badFile, []byte("0,0\n"), 0o600), test.ShouldBeNil)
	_, err = readWaypoints(badFile)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 1")

	_, err = readWaypoints(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	state, err := parseState("1,2,3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state, test.ShouldResemble, trajectory.NewState(r3.Vector{X: 1, Y: 2, Z: 3}))
	_, err = parseState("1,2,x")
	test.That(t, err, test.ShouldNotBeNil)
}
