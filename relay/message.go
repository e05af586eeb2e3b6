package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Message is a stored chat message. The JSON form is what gets published
// and delivered to clients.
type Message struct {
	ID     string `json:"messageID"`
	Body   string `json:"message"`
	Author string `json:"author"`
}

// MessageStore persists messages.
type MessageStore interface {
	Save(ctx context.Context, msg Message) error
}

// Publisher hands a stored message on for delivery.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// MemoryMessageStore keeps messages in process memory.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (s *MemoryMessageStore) Save(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns the saved messages in save order.
func (s *MemoryMessageStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// DefaultMessageKeyPrefix prefixes the Redis hash of each message.
const DefaultMessageKeyPrefix = "relay:message"

// RedisMessageStore saves each message as a Redis hash keyed by its id.
type RedisMessageStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisMessageStore returns a RedisMessageStore using client.
func NewRedisMessageStore(client redis.Cmdable) *RedisMessageStore {
	return &RedisMessageStore{client: client, keyPrefix: DefaultMessageKeyPrefix}
}

func (s *RedisMessageStore) key(id string) string {
	return s.keyPrefix + ":" + id
}

func (s *RedisMessageStore) Save(ctx context.Context, msg Message) error {
	return s.client.HSet(ctx, s.key(msg.ID),
		"messageID", msg.ID,
		"message", msg.Body,
		"author", msg.Author,
	).Err()
}

// ChannelPublisher publishes onto a Go channel, for a single process
// deployment where the Broadcaster reads the same channel.
type ChannelPublisher struct {
	ch chan Message
}

// NewChannelPublisher returns a ChannelPublisher with the given buffer size.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan Message, buffer)}
}

// Publish blocks until the message is queued or ctx is done.
func (p *ChannelPublisher) Publish(ctx context.Context, msg Message) error {
	select {
	case p.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages is the channel a Broadcaster consumes.
func (p *ChannelPublisher) Messages() <-chan Message {
	return p.ch
}

// DefaultChannel is the Redis pub/sub channel messages are published on.
const DefaultChannel = "relay:messages"

// RedisPublisher publishes the JSON form of a message on a Redis channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher returns a RedisPublisher using client.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client, channel: DefaultChannel}
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Subscribe relays messages published on the channel to out until ctx is
// done. Payloads that do not decode are dropped.
func (p *RedisPublisher) Subscribe(ctx context.Context, out chan<- Message) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", p.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
