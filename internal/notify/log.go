package notify

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/identity/internal/logging"
)

// LogNotifier records notifications in the log instead of delivering them.
// Bodies are omitted because they carry codes and reset links.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, msg Message) error {
	l := n.Logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	l.InfoContext(ctx, "notification_sent",
		"kind", string(msg.Kind),
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
