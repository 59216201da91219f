package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	// database/sql drivers for the sqlite dialects.
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const watchDebounce = 200 * time.Millisecond

// sqlitePath returns the file behind a sqlite dsn, or "" for in-memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	if path == "" || path == ":memory:" {
		return ""
	}

	return path
}

// watchFile reloads observers when another process writes to the sqlite file. The directory
// is watched rather than the file so the -journal and -wal companions are seen too.
func (d *Database) watchFile(ctx context.Context) error {
	path := sqlitePath(d.dsn)
	if path == "" {
		log.Debug().Str("dsn", d.dsn).Msg("in-memory database; not watching")

		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()

		return fmt.Errorf("error watching %s: %w", dir, err)
	}

	base := filepath.Base(path)

	d.watchers.Add(1)

	go func() {
		defer d.watchers.Done()
		defer watcher.Close()

		var debounce *time.Timer

		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		fire := make(chan struct{}, 1)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !strings.HasPrefix(filepath.Base(event.Name), base) {
					continue
				}

				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				if debounce != nil {
					debounce.Stop()
				}

				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})

			case <-fire:
				log.Debug().Str("file", path).Msg("database file changed")
				d.reload(ctx)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Warn().Err(err).Str("dir", dir).Msg("file watcher error")
			}
		}
	}()

	return nil
}
