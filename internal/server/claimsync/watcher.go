package claimsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	jsoniter "github.com/json-iterator/go"

	"recordkeeper/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// channel is the notification channel the role-document trigger publishes to.
const channel = "role_claims"

// Watcher subscribes to role-document write notifications on a dedicated
// connection and feeds them to the Synchronizer. The database trigger fires on
// every write to the userRoles collection and publishes the document ID with
// its before/after images.
type Watcher struct {
	dsn    string
	sync   *Synchronizer
	logger logging.Logger
}

func NewWatcher(dsn string, sync *Synchronizer, logger logging.Logger) *Watcher {
	return &Watcher{dsn: dsn, sync: sync, logger: logger.With("component", "claimsync-watcher")}
}

// Run listens until ctx is canceled. Malformed payloads are logged and
// skipped; the synchronizer itself never returns an error.
func (w *Watcher) Run(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, w.dsn)
	if err != nil {
		return fmt.Errorf("watcher connect error: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("listen error: %w", err)
	}

	w.logger.Info(ctx, "watching role documents", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification error: %w", err)
		}

		var event Event
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			w.logger.Error(ctx, "malformed notification payload", "error", err)
			continue
		}

		_ = w.sync.HandleRoleWrite(ctx, event)
	}
}
