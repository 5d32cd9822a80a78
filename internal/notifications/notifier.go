// Package notifications delivers follow, like and comment events to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"picfeed/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Event is the JSON envelope written to websocket clients.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notifier publishes events into per-user Redis channels. Without Redis it
// hands events straight to the local hub, which is enough for a single instance.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// Notify publishes eventType with payload to recipientID.
func (n *Notifier) Notify(ctx context.Context, recipientID uint, eventType string, payload interface{}) error {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.PublishUser(ctx, recipientID, string(data))
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		if n.local != nil {
			n.local.Broadcast(userID, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to notifications:user:* and calls onMessage
// for each message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	// Wait for the subscription so nothing published right after returning is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to notifications: %w", err)
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a channel produced by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
