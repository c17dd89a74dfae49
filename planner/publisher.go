package planner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
)

// DirPublisher writes every published path to <dir>/<id>.json.
type DirPublisher struct {
	dir    string
	logger logging.Logger
}

// NewDirPublisher returns a publisher writing into dir, creating it if needed.
func NewDirPublisher(dir string, logger logging.Logger) (*DirPublisher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create publish directory %q", dir)
	}
	return &DirPublisher{dir: dir, logger: logger}, nil
}

// PublishPath writes the path as a JSON array of states.
func (p *DirPublisher) PublishPath(ctx context.Context, id uuid.UUID, path []trajectory.State) error {
	data, err := json.Marshal(path)
	if err != nil {
		return err
	}
	name := filepath.Join(p.dir, id.String()+".json")
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return err
	}
	p.logger.Infow("published path", "id", id, "file", name, "samples", len(path))
	return nil
}
