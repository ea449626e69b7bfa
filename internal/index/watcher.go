package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions selects which files in the data folder trigger a re-run.
type WatchOptions struct {
	Folder      string
	Suffix      string
	AspectsFile string
	Debounce    time.Duration
}

// RerunCallback is called once a burst of relevant changes has settled.
// changed lists the base names of the files touched during the burst.
type RerunCallback func(ctx context.Context, changed []string)

// relevant reports whether a change to name should trigger a re-run.
func (o WatchOptions) relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".wormbox-tmp-") {
		return false
	}
	return strings.HasSuffix(base, o.Suffix) || (o.AspectsFile != "" && base == filepath.Base(o.AspectsFile))
}

// Watch starts an fsnotify watcher on the data folder and calls cb after
// coordinate files or the aspects file change, until ctx is cancelled.
//
// Events are debounced: editors and digitizers often write a file in
// several steps, and the run should only see the final content.
func Watch(ctx context.Context, opts WatchOptions, logger *slog.Logger, cb RerunCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(opts.Folder); err != nil {
		return err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	logger.Info("watcher: started",
		slog.String("folder", opts.Folder),
		slog.String("suffix", opts.Suffix),
		slog.String("aspects_file", opts.AspectsFile))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			sort.Strings(changed)
			logger.Debug("watcher: inputs changed", slog.Any("files", changed))
			cb(ctx, changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !opts.relevant(ev.Name) {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

