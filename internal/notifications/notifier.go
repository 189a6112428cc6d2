// Package notifications delivers realtime change notifications to feed subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"

	"sudonet/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// ChannelPrefix namespaces realtime channels in Redis.
	ChannelPrefix = "realtime:"

	// PostsChannel carries every change to the posts table.
	PostsChannel = "posts_changes"
)

// Event types published on PostsChannel.
const (
	EventPostsChanged        = "posts_changed"
	EventPostReactionUpdated = "post_reaction_updated"
)

// Event is the JSON envelope sent to subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Notifier publishes change events into Redis channels. Without Redis it
// fans events out to in-process subscribers instead.
type Notifier struct {
	rdb *redis.Client

	mu     sync.RWMutex
	nextID int
	locals map[int]func(channel, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{
		rdb:    rdb,
		locals: make(map[int]func(channel, payload string)),
	}
}

// RealtimeChannel derives the Redis channel name for a logical channel.
func RealtimeChannel(name string) string {
	return ChannelPrefix + name
}

// ChannelName strips the Redis prefix from a realtime channel.
func ChannelName(redisChannel string) (string, bool) {
	if !strings.HasPrefix(redisChannel, ChannelPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(redisChannel, ChannelPrefix)
	return name, name != ""
}

// Publish sends event on channel. Delivery is fire-and-forget.
func (n *Notifier) Publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	observability.RealtimeEvents.WithLabelValues(channel, event.Type).Inc()

	redisChannel := RealtimeChannel(channel)
	if n.rdb != nil {
		return n.rdb.Publish(ctx, redisChannel, string(data)).Err()
	}

	n.mu.RLock()
	listeners := make([]func(string, string), 0, len(n.locals))
	for _, fn := range n.locals {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		deliver(fn, redisChannel, string(data))
	}
	return nil
}

// Subscribe calls onMessage for every event on any realtime channel until ctx is done.
// It returns once the subscription is confirmed.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		n.mu.Lock()
		id := n.nextID
		n.nextID++
		n.locals[id] = onMessage
		n.mu.Unlock()

		go func() {
			<-ctx.Done()
			n.mu.Lock()
			delete(n.locals, id)
			n.mu.Unlock()
		}()
		return nil
	}

	sub := n.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe realtime: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(onMessage, msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}

func deliver(fn func(channel, payload string), channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in realtime subscriber: %v\n%s", r, debug.Stack())
		}
	}()
	fn(channel, payload)
}
