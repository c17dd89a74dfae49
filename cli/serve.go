package cli

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
	"goji.io"

	"go.viam.com/pathsmoother/config"
	"go.viam.com/pathsmoother/planner"
	"go.viam.com/pathsmoother/smoothing"
)

const shutdownTimeout = 5 * time.Second

func (r *runner) serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	smoother, err := smoothing.New(*cfg, r.logger.Sublogger("smoothing"))
	if err != nil {
		return err
	}

	var publisher planner.Publisher
	if dir := c.Path(flagPublishDir); dir != "" {
		if publisher, err = planner.NewDirPublisher(dir, r.logger.Sublogger("publisher")); err != nil {
			return err
		}
	}
	server := planner.NewServer(planner.NewSmootherPlanner(smoother), cfg.SamplingDt, publisher, r.logger.Sublogger("planner"))
	mux := goji.NewMux()
	prefix := "/" + c.String(flagName)
	server.Mount(mux, prefix)

	if path := c.Path(flagConfig); path != "" {
		watcher, err := config.NewWatcher(path, r.logger.Sublogger("config"))
		if err != nil {
			return err
		}
		defer utils.UncheckedErrorFunc(watcher.Close)
		utils.PanicCapturingGo(func() {
			watcher.Run(ctx, func(reloaded *smoothing.Config) {
				r.reload(c, server, *reloaded)
			})
		})
	}

	listener, err := net.Listen("tcp", c.String(flagAddr))
	if err != nil {
		return err
	}
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	utils.PanicCapturingGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.UncheckedError(httpServer.Shutdown(shutdownCtx))
	})

	r.logger.Infow("serving planner", "addr", listener.Addr().String(), "prefix", prefix)
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reload swaps in a smoother built from a changed configuration file. The --set overrides keep
// precedence over the file.
func (r *runner) reload(c *cli.Context, server *planner.Server, base smoothing.Config) {
	cfg, err := r.applyOverrides(c, base)
	if err != nil {
		r.logger.Warnw("keeping previous planner, reloaded config is invalid", "error", err)
		return
	}
	smoother, err := smoothing.New(*cfg, r.logger.Sublogger("smoothing"))
	if err != nil {
		r.logger.Warnw("keeping previous planner, cannot build smoother", "error", err)
		return
	}
	server.SetPlanner(planner.NewSmootherPlanner(smoother), cfg.SamplingDt)
}
