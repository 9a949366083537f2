package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/engunity-ai/engunity/internal/config"
	"github.com/engunity-ai/engunity/internal/infra/docstore"
	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// setupChatTestDB connects to a local Mongo instance and runs the real index
// bootstrap, so these tests exercise the index definitions too.
func setupChatTestDB(t *testing.T) *mongo.Database {
	cfg := &config.Config{}
	cfg.Mongo.URI = "mongodb://localhost:27017/?serverSelectionTimeoutMS=2000"
	cfg.Mongo.Database = "engunity_test"

	db, err := docstore.New(cfg)
	if err != nil {
		t.Skip("Test mongo not available, skipping integration tests")
		return nil
	}
	return db
}

// cleanupChatTestData removes everything a test wrote for one document.
func cleanupChatTestData(t *testing.T, r ChatRepo, documentID string) {
	ctx := context.Background()
	_, _ = r.DeleteMessagesByDocument(ctx, documentID)
	_, _ = r.DeleteSessionsByDocument(ctx, documentID)
	_ = r.DeleteDocumentMap(ctx, documentID)
}

func TestChatRepo_AggregateSessionStats(t *testing.T) {
	db := setupChatTestDB(t)
	if db == nil {
		return // Test was skipped
	}

	r := NewChatRepo(db)
	ctx := context.Background()

	documentID := uuid.NewString()
	sessionID := fmt.Sprintf("session_%s_%d", documentID, time.Now().UnixMilli())
	defer cleanupChatTestData(t, r, documentID)

	conf1, conf2 := 0.8, 0.6
	pt1, pt2 := 100.0, 140.0
	base := time.Now().UTC().Truncate(time.Millisecond)

	// Two assistant turns carry confidence; the user turn never does and must
	// not drag the average down.
	msgs := []*model.ChatMessage{
		{
			SessionID:  sessionID,
			DocumentID: documentID,
			Role:       model.RoleUser,
			Content:    "what does section 2 say?",
			Timestamp:  base,
		},
		{
			SessionID:      sessionID,
			DocumentID:     documentID,
			Role:           model.RoleAssistant,
			Content:        "Section 2 covers the payment terms.",
			Confidence:     &conf1,
			ProcessingTime: &pt1,
			TokenUsage:     &model.TokenUsage{PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200},
			Timestamp:      base.Add(time.Second),
		},
		{
			SessionID:      sessionID,
			DocumentID:     documentID,
			Role:           model.RoleAssistant,
			Content:        "It also defines the late fee schedule.",
			Confidence:     &conf2,
			ProcessingTime: &pt2,
			TokenUsage:     &model.TokenUsage{PromptTokens: 60, CompletionTokens: 40, TotalTokens: 100},
			Timestamp:      base.Add(2 * time.Second),
		},
	}
	for _, m := range msgs {
		require.NoError(t, r.InsertMessage(ctx, m))
	}

	stats, err := r.AggregateSessionStats(ctx, sessionID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.MessageCount)
	assert.InDelta(t, 0.7, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 120.0, stats.AvgProcessingTime, 1e-9)
	assert.Equal(t, int64(300), stats.TotalTokens)

	t.Run("empty session yields zeroed stats", func(t *testing.T) {
		stats, err := r.AggregateSessionStats(ctx, "session_"+uuid.NewString()+"_0")
		require.NoError(t, err)
		assert.Zero(t, stats.MessageCount)
		assert.Zero(t, stats.AvgConfidence)
	})
}

func TestChatRepo_InsertSession_ActiveUnique(t *testing.T) {
	db := setupChatTestDB(t)
	if db == nil {
		return // Test was skipped
	}

	r := NewChatRepo(db)
	ctx := context.Background()

	documentID := uuid.NewString()
	defer cleanupChatTestData(t, r, documentID)

	now := time.Now().UTC()
	first := &model.ChatSession{
		SessionID:  fmt.Sprintf("session_%s_1", documentID),
		DocumentID: documentID,
		UserID:     "u1",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, r.InsertSession(ctx, first))
	assert.False(t, first.ID.IsZero(), "insert should capture the generated object id")

	// A second active session for the same (document, user) pair must lose to
	// the partial unique index.
	second := &model.ChatSession{
		SessionID:  fmt.Sprintf("session_%s_2", documentID),
		DocumentID: documentID,
		UserID:     "u1",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.InsertSession(ctx, second)
	require.Error(t, err)
	assert.True(t, IsDuplicateSession(err))

	// Inactive sessions sit outside the partial filter and insert freely.
	archived := &model.ChatSession{
		SessionID:  fmt.Sprintf("session_%s_3", documentID),
		DocumentID: documentID,
		UserID:     "u1",
		IsActive:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, r.InsertSession(ctx, archived))

	got, err := r.FindActiveSession(ctx, documentID, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, got.SessionID)
}
