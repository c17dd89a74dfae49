// Package cli contains the pathsmoother command line application.
package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pathsmoother/config"
	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/smoothing"
)

// Flags.
const (
	flagDebug      = "debug"
	flagLogFile    = "log-file"
	flagConfig     = "config"
	flagSet        = "set"
	flagWaypoints  = "waypoints"
	flagStart      = "start"
	flagGoal       = "goal"
	flagFormat     = "format"
	flagOut        = "out"
	flagAddr       = "addr"
	flagName       = "name"
	flagPublishDir = "publish-dir"

	formatJSON = "json"
	formatCSV  = "csv"

	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

// runner holds what the global flags set up for every command.
type runner struct {
	logger  logging.Logger
	logFile *logging.FileAppender
}

// NewApp returns the pathsmoother application writing results to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	r := &runner{}
	waypointFlags := []cli.Flag{
		&cli.PathFlag{
			Name:    flagWaypoints,
			Aliases: []string{"w"},
			Usage:   "read waypoints from `FILE` (JSON array of states, or CSV rows of x,y,z[,yaw])",
		},
		&cli.StringFlag{
			Name:  flagStart,
			Usage: "start position as x,y,z[,yaw], used with --goal instead of --waypoints",
		},
		&cli.StringFlag{
			Name:  flagGoal,
			Usage: "goal position as x,y,z[,yaw]",
		},
	}

	return &cli.App{
		Name:            "pathsmoother",
		Usage:           "turn waypoints into smooth minimum-derivative trajectories",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotating it as it grows",
			},
			&cli.PathFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load smoothing configuration from `FILE`",
			},
			&cli.StringSliceFlag{
				Name:  flagSet,
				Usage: "override a configuration value, e.g. --set v_max=2 --set weights.time=5",
			},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			{
				Name:   "trajectory",
				Usage:  "smooth waypoints and print the trajectory as JSON",
				Flags:  waypointFlags,
				Action: r.trajectoryAction,
			},
			{
				Name:  "path",
				Usage: "smooth waypoints and print states sampled every sampling_dt",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagFormat,
						Value: formatJSON,
						Usage: "output format: json or csv",
					},
				}, waypointFlags...),
				Action: r.pathAction,
			},
			{
				Name:  "plot",
				Usage: "plot the smoothed path and its waypoints in the XY plane",
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "write the plot to `FILE` (.png, .svg or .pdf)",
					},
				}, waypointFlags...),
				Action: r.plotAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the smoothing configuration",
				Action: r.schemaAction,
			},
			{
				Name:  "serve",
				Usage: "serve the planner over HTTP, reloading the configuration file on change",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagAddr,
						Value: "localhost:8090",
						Usage: "listen address",
					},
					&cli.StringFlag{
						Name:  flagName,
						Value: smoothing.LocoSmootherType,
						Usage: "planner name; routes are served under /<name>/",
					},
					&cli.PathFlag{
						Name:  flagPublishDir,
						Usage: "write published paths into `DIR`",
					},
				},
				Action: r.serveAction,
			},
		},
	}
}

func (r *runner) before(c *cli.Context) error {
	r.logger = logging.NewBlankLogger("pathsmoother")
	r.logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(flagDebug) {
		r.logger.SetLevel(logging.DEBUG)
	} else {
		r.logger.SetLevel(logging.INFO)
	}
	if path := c.Path(flagLogFile); path != "" {
		r.logFile = logging.NewFileAppender(path, logFileMaxSizeMB, logFileMaxBackups)
		r.logger.AddAppender(r.logFile)
	}
	return nil
}

func (r *runner) after(c *cli.Context) error {
	if r.logger == nil {
		return nil
	}
	// Sync errors on terminals and pipes are expected.
	//nolint:errcheck
	r.logger.Sync()
	if r.logFile != nil {
		return r.logFile.Close()
	}
	return nil
}

// loadConfig reads --config (or the defaults) and applies the --set overrides.
func (r *runner) loadConfig(c *cli.Context) (*smoothing.Config, error) {
	base := smoothing.DefaultConfig()
	if path := c.Path(flagConfig); path != "" {
		cfg, err := config.Read(path, r.logger)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot load config %q", path)
		}
		base = *cfg
	}
	return r.applyOverrides(c, base)
}

func (r *runner) applyOverrides(c *cli.Context, base smoothing.Config) (*smoothing.Config, error) {
	overrides, err := config.ParseOverrides(c.StringSlice(flagSet))
	if err != nil {
		return nil, err
	}
	return config.Apply(base, overrides, r.logger)
}
