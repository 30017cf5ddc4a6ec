package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	KindRecommendation Kind = "recommendation"
	KindBehaviour      Kind = "behaviour"
)

// Caps bounds each analytics log; older entries are dropped first
var Caps = map[Kind]int{
	KindRecommendation: 100,
	KindBehaviour:      200,
}

var ErrUnknownKind = errors.New("unknown analytics kind")

// capFor returns the bound of a known kind
func capFor(kind Kind) (int, error) {
	n, ok := Caps[kind]
	if !ok {
		return 0, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return n, nil
}

type Event struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Log keeps the most recent events per kind
type Log interface {
	Append(ctx context.Context, kind Kind, payload any) error
	// Recent returns up to limit events, newest first; limit <= 0 means all
	Recent(ctx context.Context, kind Kind, limit int) ([]Event, error)
}

func newEvent(kind Kind, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	return Event{ID: uuid.NewString(), Kind: kind, Payload: data, CreatedAt: time.Now().UTC()}, nil
}

type MemoryLog struct {
	mu     sync.RWMutex
	events map[Kind][]Event
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{events: make(map[Kind][]Event)}
}

func (l *MemoryLog) Append(_ context.Context, kind Kind, payload any) error {
	limit, err := capFor(kind)
	if err != nil {
		return err
	}
	ev, err := newEvent(kind, payload)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.events[kind], ev)
	if over := len(list) - limit; over > 0 {
		list = append([]Event(nil), list[over:]...)
	}
	l.events[kind] = list
	return nil
}

func (l *MemoryLog) Recent(_ context.Context, kind Kind, limit int) ([]Event, error) {
	if _, err := capFor(kind); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.events[kind]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Event, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// RedisLog stores each kind as a list, newest at the head
type RedisLog struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisLog(rdb *redis.Client, logger *slog.Logger) *RedisLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLog{rdb: rdb, prefix: "analytics:", logger: logger}
}

func (l *RedisLog) key(kind Kind) string {
	return l.prefix + string(kind)
}

func (l *RedisLog) Append(ctx context.Context, kind Kind, payload any) error {
	limit, err := capFor(kind)
	if err != nil {
		return err
	}
	ev, err := newEvent(kind, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, l.key(kind), data)
	pipe.LTrim(ctx, l.key(kind), 0, int64(limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append %s event: %w", kind, err)
	}
	return nil
}

func (l *RedisLog) Recent(ctx context.Context, kind Kind, limit int) ([]Event, error) {
	if _, err := capFor(kind); err != nil {
		return nil, err
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	items, err := l.rdb.LRange(ctx, l.key(kind), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s events: %w", kind, err)
	}

	out := make([]Event, 0, len(items))
	for _, item := range items {
		var ev Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			l.logger.Warn("skipping undecodable analytics event", "key", l.key(kind), "error", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
