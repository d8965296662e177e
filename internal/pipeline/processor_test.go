package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"unity-within-go/internal/model"
	"unity-within-go/pkg/tasks"
)

type fakeConversationRepo struct {
	counts map[uint]int64
	ttls   map[uint]time.Duration
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{counts: make(map[uint]int64), ttls: make(map[uint]time.Duration)}
}

func (r *fakeConversationRepo) GetHistory(ctx context.Context, userID uint) ([]model.BuddieMessage, error) {
	return nil, nil
}

func (r *fakeConversationRepo) UpdateHistory(ctx context.Context, userID uint, messages []model.BuddieMessage) error {
	return nil
}

func (r *fakeConversationRepo) IncrAbuseCount(ctx context.Context, userID uint, ttl time.Duration) (int64, error) {
	r.counts[userID]++
	r.ttls[userID] = ttl
	return r.counts[userID], nil
}

func (r *fakeConversationRepo) GetAbuseCount(ctx context.Context, userID uint) (int64, error) {
	return r.counts[userID], nil
}

func uintPtr(v uint) *uint { return &v }

// TestProcess_CountsAbusePerUser verifies each rejection event bumps the
// sender's abuse counter with the configured window.
func TestProcess_CountsAbusePerUser(t *testing.T) {
	repo := newFakeConversationRepo()
	processor := NewModerationEventProcessor(repo, "", false, 6*time.Hour)

	event := tasks.ModerationEvent{
		EventID:  "evt-1",
		UserID:   uintPtr(7),
		FlagType: model.FlagUnsafe,
	}
	require.NoError(t, processor.Process(context.Background(), event))
	require.NoError(t, processor.Process(context.Background(), event))

	assert.Equal(t, int64(2), repo.counts[7])
	assert.Equal(t, 6*time.Hour, repo.ttls[7])
}

// TestProcess_AnonymousEventSkipsCounter verifies events without a user id
// are processed without touching the counter.
func TestProcess_AnonymousEventSkipsCounter(t *testing.T) {
	repo := newFakeConversationRepo()
	processor := NewModerationEventProcessor(repo, "", false, time.Hour)

	event := tasks.ModerationEvent{EventID: "evt-2", FlagType: model.FlagCrisis}
	require.NoError(t, processor.Process(context.Background(), event))
	assert.Empty(t, repo.counts)
}

// TestNewProcessor_DefaultTTL verifies a non-positive window falls back to a
// sane default.
func TestNewProcessor_DefaultTTL(t *testing.T) {
	repo := newFakeConversationRepo()
	processor := NewModerationEventProcessor(repo, "", false, 0)

	event := tasks.ModerationEvent{EventID: "evt-3", UserID: uintPtr(1)}
	require.NoError(t, processor.Process(context.Background(), event))
	assert.Equal(t, 24*time.Hour, repo.ttls[1])
}
