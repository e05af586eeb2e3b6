package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// AnonymousAuthor is used for connections registered without a principal.
const AnonymousAuthor = "anonymous"

// ErrMessageRequired is returned when a body carries no message.
var ErrMessageRequired = errors.New("message is required")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Ingestor accepts messages from registered connections.
type Ingestor struct {
	registry  Registry
	store     MessageStore
	publisher Publisher
	now       func() time.Time
	logger    Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor) error

// WithClock replaces time.Now, which message ids are derived from.
func WithClock(now func() time.Time) IngestorOption {
	return func(i *Ingestor) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		i.now = now
		return nil
	}
}

// WithIngestorLogger sets an optional logger.
func WithIngestorLogger(logger Logger) IngestorOption {
	return func(i *Ingestor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// NewIngestor returns an Ingestor. All three collaborators are required.
func NewIngestor(registry Registry, store MessageStore, publisher Publisher, opts ...IngestorOption) (*Ingestor, error) {
	if registry == nil || store == nil || publisher == nil {
		return nil, errors.New("registry, store and publisher are required")
	}

	i := &Ingestor{
		registry:  registry,
		store:     store,
		publisher: publisher,
		now:       time.Now,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return i, nil
}

type inboundBody struct {
	Message *string `json:"message"`
}

// Ingest stores the message in body, a JSON object with a message field,
// and publishes it. The connection must be registered; its principal
// becomes the author. The id is the current Unix time in seconds with
// microsecond precision.
func (i *Ingestor) Ingest(ctx context.Context, connectionID string, body []byte) (Message, error) {
	conn, err := i.registry.Get(ctx, connectionID)
	if err != nil {
		return Message{}, err
	}

	var in inboundBody
	if err := json.Unmarshal(body, &in); err != nil {
		return Message{}, fmt.Errorf("invalid message body: %w", err)
	}
	if in.Message == nil {
		return Message{}, ErrMessageRequired
	}

	author := conn.Principal
	if author == "" {
		author = AnonymousAuthor
	}

	msg := Message{
		ID:     messageID(i.now()),
		Body:   *in.Message,
		Author: author,
	}

	if err := i.store.Save(ctx, msg); err != nil {
		i.logger.Error("failed to save message", "error", err, "connection", connectionID)
		return Message{}, fmt.Errorf("message not saved: %w", err)
	}
	if err := i.publisher.Publish(ctx, msg); err != nil {
		i.logger.Error("failed to publish message", "error", err, "messageID", msg.ID)
		return Message{}, fmt.Errorf("message not published: %w", err)
	}

	i.logger.Debug("message ingested", "messageID", msg.ID, "connection", connectionID)
	return msg, nil
}

func messageID(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
