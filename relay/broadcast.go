package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrGone is returned by a Sender when the connection no longer exists.
var ErrGone = errors.New("connection gone")

// Sender delivers a payload to one connection.
type Sender interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
}

// Broadcaster fans a payload out to every registered connection.
type Broadcaster struct {
	registry Registry
	sender   Sender
	logger   Logger
}

// NewBroadcaster returns a Broadcaster. logger may be nil.
func NewBroadcaster(registry Registry, sender Sender, logger Logger) (*Broadcaster, error) {
	if registry == nil || sender == nil {
		return nil, errors.New("registry and sender are required")
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Broadcaster{registry: registry, sender: sender, logger: logger}, nil
}

// Broadcast delivers payload to every connection registered at the time
// of the call. A gone connection is skipped. Any other delivery failure is
// collected and returned once every connection has been tried.
func (b *Broadcaster) Broadcast(ctx context.Context, payload []byte) error {
	conns, err := b.registry.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	var errs error
	for _, conn := range conns {
		err := b.sender.Send(ctx, conn.ID, payload)
		switch {
		case err == nil:
		case errors.Is(err, ErrGone):
			b.logger.Debug("skipping gone connection", "connection", conn.ID)
		default:
			b.logger.Warn("delivery failed", "connection", conn.ID, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("connection %s: %w", conn.ID, err))
		}
	}
	return errs
}

// Run broadcasts each message received on messages until the channel is
// closed or ctx is done.
func (b *Broadcaster) Run(ctx context.Context, messages <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				b.logger.Error("failed to encode message", "error", err, "messageID", msg.ID)
				continue
			}
			if err := b.Broadcast(ctx, payload); err != nil {
				b.logger.Error("broadcast incomplete",
					"messageID", msg.ID,
					"failures", len(multierr.Errors(err)))
			}
		}
	}
}
