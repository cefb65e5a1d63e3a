package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const historyTTL = 24 * time.Hour

// HistoryStore keeps per-session history capped at a fixed message count.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryHistoryStore keeps histories in process memory.
type MemoryHistoryStore struct {
	mu       sync.Mutex
	capacity int
	sessions map[string]*History
}

func NewMemoryHistoryStore(capacity int) *MemoryHistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryMessages
	}
	return &MemoryHistoryStore{capacity: capacity, sessions: make(map[string]*History)}
}

func (s *MemoryHistoryStore) Load(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return h.Messages(), nil
}

func (s *MemoryHistoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		h = NewHistory(s.capacity)
		s.sessions[sessionID] = h
	}
	h.Append(msgs...)
	return nil
}

func (s *MemoryHistoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// RedisHistoryStore keeps each history in a Redis list trimmed on every append.
type RedisHistoryStore struct {
	redis    *redis.Client
	capacity int
	ttl      time.Duration
	tracer   trace.Tracer
}

func NewRedisHistoryStore(client *redis.Client, capacity int) *RedisHistoryStore {
	if client == nil {
		panic("llm: redis client cannot be nil")
	}
	if capacity <= 0 {
		capacity = DefaultHistoryMessages
	}
	return &RedisHistoryStore{
		redis:    client,
		capacity: capacity,
		ttl:      historyTTL,
		tracer:   otel.Tracer("medtriage.internal.llm.history"),
	}
}

func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	ctx, span := s.tracer.Start(ctx, "llm.load_history", trace.WithAttributes(attribute.String("medtriage.session_id", sessionID)))
	defer span.End()

	raw, err := s.redis.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm: failed to load history: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("llm: failed to decode history: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "llm.append_history")
	defer span.End()

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("llm: failed to marshal history: %w", err)
		}
		values = append(values, data)
	}
	key := historyKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.capacity), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("llm: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("llm: failed to clear history: %w", err)
	}
	return nil
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("triage:history:%s", sessionID)
}
