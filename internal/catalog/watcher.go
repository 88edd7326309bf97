package catalog

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Watcher periodically re-reads the catalog file on a cron schedule.
// Reloads install a fresh snapshot; in-flight mapping sessions keep the
// snapshot they started with.
type Watcher struct {
	cron   *cron.Cron
	loader *Loader
	spec   string
	logger *slog.Logger
}

// NewWatcher creates a watcher around the loader. spec is a standard
// 5-field cron expression; "@every 30s" style specs also work.
func NewWatcher(loader *Loader, spec string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	return &Watcher{cron: c, loader: loader, spec: spec, logger: logger}
}

// Start begins the reload schedule.
func (w *Watcher) Start() error {
	_, err := w.cron.AddFunc(w.spec, w.reload)
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("catalog watcher started", slog.String("schedule", w.spec))
	return nil
}

// Stop stops the schedule and returns a context that is done once any
// running reload finishes.
func (w *Watcher) Stop() context.Context {
	w.logger.Info("catalog watcher stopping")
	return w.cron.Stop()
}

func (w *Watcher) reload() {
	changed, err := w.loader.Reload()
	if err != nil {
		w.logger.Error("catalog reload failed, keeping last good snapshot", slog.Any("error", err))
		return
	}
	if changed {
		w.logger.Info("catalog reloaded",
			slog.Int("fields", len(w.loader.Snapshot().Fields())),
		)
	}
}
