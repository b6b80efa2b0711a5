package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HandoffStore keeps handed-off snapshots in Redis so the results view can be served
// by any instance. Keys:
//
//	quiz:handoff:{sessionID}:snapshot  JSON snapshot, removed on read
//	quiz:handoff:{sessionID}:identity  email label
type HandoffStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHandoffStore(client *redis.Client, ttl time.Duration) *HandoffStore {
	return &HandoffStore{client: client, ttl: ttl}
}

func (h *HandoffStore) PutIdentity(ctx context.Context, sessionID, email string) error {
	if err := h.client.Set(ctx, h.identityKey(sessionID), email, h.ttl).Err(); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}

func (h *HandoffStore) Identity(ctx context.Context, sessionID string) (string, error) {
	email, err := h.client.Get(ctx, h.identityKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get identity: %w", err)
	}
	return email, nil
}

func (h *HandoffStore) PutSnapshot(ctx context.Context, sessionID string, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	pipe := h.client.TxPipeline()
	pipe.Set(ctx, h.snapshotKey(sessionID), data, h.ttl)
	// keep the identity around as long as the snapshot it labels
	if h.ttl > 0 {
		pipe.Expire(ctx, h.identityKey(sessionID), h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// TakeSnapshot atomically reads and deletes the snapshot. The identity slot is
// removed in the same transaction.
func (h *HandoffStore) TakeSnapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	pipe := h.client.TxPipeline()
	get := pipe.GetDel(ctx, h.snapshotKey(sessionID))
	pipe.Del(ctx, h.identityKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, fmt.Errorf("take snapshot: %w", err)
	}
	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, domain.ErrMissingSnapshot
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("take snapshot: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Answers == nil {
		snapshot.Answers = make(map[int]string)
	}
	return snapshot, nil
}

func (h *HandoffStore) snapshotKey(sessionID string) string {
	return "quiz:handoff:" + sessionID + ":snapshot"
}

func (h *HandoffStore) identityKey(sessionID string) string {
	return "quiz:handoff:" + sessionID + ":identity"
}
