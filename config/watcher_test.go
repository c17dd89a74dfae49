package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/smoothing"
)

// replaceFile writes data next to path and renames it over path so that readers never see a
// partial file.
func replaceFile(t *testing.T, path, data string) {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "next.json")
	test.That(t, os.WriteFile(tmp, []byte(data), 0o600), test.ShouldBeNil)
	test.That(t, os.Rename(tmp, path), test.ShouldBeNil)
}

func TestWatcher(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "smoothing.json")
	test.That(t, os.WriteFile(path, []byte(`{}`), 0o600), test.ShouldBeNil)

	w, err := NewWatcher(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, w.Close(), test.ShouldBeNil)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *smoothing.Config, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(cfg *smoothing.Config) { changes <- cfg })
	}()
	defer func() {
		cancel()
		<-done
	}()

	// other files in the directory are ignored
	test.That(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"v_max": 9}`), 0o600), test.ShouldBeNil)

	replaceFile(t, path, `{"v_max": -1}`)
	deadline := time.Now().Add(5 * time.Second)
	for logs.FilterMessage("ignoring invalid config change").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for invalid config to be rejected")
		}
		time.Sleep(10 * time.Millisecond)
	}
	test.That(t, len(changes), test.ShouldEqual, 0)

	replaceFile(t, path, `{"v_max": 4}`)
	select {
	case cfg := <-changes:
		test.That(t, cfg.VMax, test.ShouldEqual, 4.)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "smoothing.json"),
		logging.NewTestLogger(t), func(*smoothing.Config) {})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot watch")
}

func TestWatchStopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoothing.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Watch(ctx, path, logging.NewTestLogger(t), func(*smoothing.Config) {})
	test.That(t, err, test.ShouldBeNil)
}
