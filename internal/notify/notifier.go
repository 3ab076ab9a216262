package notify

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

// Sender is one delivery channel for operator notifications.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans a message out to every configured sender. Delivery is
// best-effort: failures are logged and never bubble up to the caller, so
// a broken channel can't fail a settlement that already committed.
type Notifier struct {
	senders []Sender
	logger  *logging.Logger
}

func NewNotifier(senders []Sender, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		senders: senders,
		logger:  logger.With("component", "notifier"),
	}
}

// Announce delivers the message to all senders concurrently and returns
// once every channel has been attempted.
func (n *Notifier) Announce(ctx context.Context, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	title = strings.TrimSpace(title)

	var wg conc.WaitGroup
	for _, s := range n.senders {
		wg.Go(func() {
			if err := s.Send(ctx, title, message); err != nil {
				n.logger.ErrorContext(ctx, "notification delivery failed",
					"sender", s.Name(),
					"title", title,
					"error", err,
				)
				return
			}
			n.logger.InfoContext(ctx, "notification sent", "sender", s.Name(), "title", title)
		})
	}
	wg.Wait()
}
