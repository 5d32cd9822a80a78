package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const WSTicketKeyPrefix = "ws_ticket:%s"

// WSTicketTTL bounds how long a ticket may sit unused.
const WSTicketTTL = 30 * time.Second

// ErrTicketNotFound is returned for unknown, expired or already used tickets.
var ErrTicketNotFound = errors.New("websocket ticket not found")

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// WSTickets issues single-use tickets that let browsers open the websocket
// without putting a bearer token in the URL.
type WSTickets struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewWSTickets(rdb *redis.Client) *WSTickets {
	return &WSTickets{rdb: rdb, ttl: WSTicketTTL}
}

// Issue stores a new ticket for userID.
func (t *WSTickets) Issue(ctx context.Context, userID uint) (string, error) {
	if t.rdb == nil {
		return "", ErrNoStore
	}
	ticket := uuid.NewString()
	if err := t.rdb.Set(ctx, WSTicketKey(ticket), userID, t.ttl).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// Redeem consumes a ticket and returns the user it was issued to.
func (t *WSTickets) Redeem(ctx context.Context, ticket string) (uint, error) {
	if t.rdb == nil {
		return 0, ErrNoStore
	}
	raw, err := t.rdb.GetDel(ctx, WSTicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTicketNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ErrTicketNotFound
	}
	return uint(id), nil
}

func (t *WSTickets) TTL() time.Duration { return t.ttl }
