package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	notifyChannel        = "note_changed"
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPing         = 90 * time.Second
)

// listen reloads observers whenever the note_changed trigger fires on the Postgres server.
func (d *Database) listen(ctx context.Context) error {
	listener := pq.NewListener(d.dsn, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Warn().Err(err).Int("event", int(ev)).Msg("postgres listener problem")
			}
		})

	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()

		return fmt.Errorf("error listening on %s: %w", notifyChannel, err)
	}

	d.watchers.Add(1)

	go func() {
		defer d.watchers.Done()
		defer listener.Close()

		ticker := time.NewTicker(listenerPing)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case n, ok := <-listener.Notify:
				if !ok {
					return
				}

				// n is nil after a reconnect; changes may have been missed, so reload anyway
				if n != nil {
					log.Debug().Str("op", n.Extra).Msg("note change notification")
				}

				d.reload(ctx)

			case <-ticker.C:
				if err := listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("postgres listener ping failed")
				}
			}
		}
	}()

	return nil
}
