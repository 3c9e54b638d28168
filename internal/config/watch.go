package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
)

// Watch monitors the config file and invokes onChange with the freshly loaded
// configuration after every successful reload. Invalid intermediate states
// (editor temp files, half-written yaml) are logged and skipped. Blocks until
// ctx is cancelled.
func Watch(ctx context.Context, path string, log logger.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the watch on the old inode would go stale.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("add watch path: %w", err)
	}

	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Small delay so the writer finishes before we read
			time.Sleep(200 * time.Millisecond)

			cfg, err := Load(path)
			if err != nil {
				log.Warn(ctx, "Config reload skipped: %v", err)
				continue
			}

			log.Info(ctx, "Config reloaded: page budget %d, ttl %dh", cfg.PageBudget(), cfg.Delivery.TTLHours)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Error(ctx, "Config watcher error: %v", err)
		}
	}
}
