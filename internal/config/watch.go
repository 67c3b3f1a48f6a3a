package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pricewatch/pkg/logx"
)

// Watch reloads the config file on change and calls onChange with each
// successfully parsed new version. Editors tend to emit bursts of
// write/rename events, so events are debounced and content is hashed to
// drop no-op rewrites. Invalid edits are logged and skipped; the previous
// config stays in effect.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: many editors replace the file on
	// save, which drops a file-level watch.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}

	last := hashFile(path)

	go func() {
		defer w.Close()

		var debounce *time.Timer
		var debounceC <-chan time.Time

		reload := func() {
			h := hashFile(path)
			if h == 0 || h == last {
				return
			}
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed, keeping previous", logx.Err(err))
				return
			}
			last = h
			log.Info("config reloaded", logx.String("path", path))
			onChange(cfg)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(200 * time.Millisecond)
					debounceC = debounce.C
				} else {
					debounce.Reset(200 * time.Millisecond)
				}
			case <-debounceC:
				debounce = nil
				debounceC = nil
				reload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", logx.Err(err))
			}
		}
	}()
	return nil
}

func hashFile(path string) uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
