package repo

import (
	"context"
	"errors"
	"time"

	"github.com/engunity-ai/engunity/internal/infra/docstore"
	"github.com/engunity-ai/engunity/internal/modules/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrNoSession is returned when no session matches a lookup.
var ErrNoSession = errors.New("session not found")

type ChatRepo interface {
	FindActiveSession(ctx context.Context, documentID, userID string) (*model.ChatSession, error)
	InsertSession(ctx context.Context, s *model.ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	UpdateSessionStats(ctx context.Context, sessionID string, stats *model.SessionStats) error
	ListSessionsByDocument(ctx context.Context, documentID, userID string) ([]model.ChatSession, error)

	InsertMessage(ctx context.Context, m *model.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error)
	AggregateSessionStats(ctx context.Context, sessionID string) (*model.SessionStats, error)

	UpsertDocumentMap(ctx context.Context, documentID, sessionID string, doc *model.DocumentChatMap) error
	TouchDocumentMap(ctx context.Context, documentID string, at time.Time) error

	DeleteMessagesByDocument(ctx context.Context, documentID string) (int64, error)
	DeleteSessionsByDocument(ctx context.Context, documentID string) (int64, error)
	DeleteDocumentMap(ctx context.Context, documentID string) error

	CountSessionsByDocument(ctx context.Context, documentID string) (int64, error)
	CountMessagesByDocument(ctx context.Context, documentID string) (int64, error)
	LastMessageTime(ctx context.Context, documentID string) (*time.Time, error)
	MostActiveSessionID(ctx context.Context, documentID string) (string, error)
}

type chatRepo struct {
	messages *mongo.Collection
	sessions *mongo.Collection
	docChats *mongo.Collection
}

func NewChatRepo(db *mongo.Database) ChatRepo {
	return &chatRepo{
		messages: db.Collection(docstore.CollMessages),
		sessions: db.Collection(docstore.CollSessions),
		docChats: db.Collection(docstore.CollDocumentChats),
	}
}

// IsDuplicateSession reports whether an insert lost the find-or-create race
// against the partial unique index on active sessions.
func IsDuplicateSession(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *chatRepo) FindActiveSession(ctx context.Context, documentID, userID string) (*model.ChatSession, error) {
	filter := bson.M{"document_id": documentID, "is_active": true}
	if userID != "" {
		filter["user_id"] = userID
	} else {
		filter["user_id"] = bson.M{"$exists": false}
	}

	var s model.ChatSession
	err := r.sessions.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *chatRepo) InsertSession(ctx context.Context, s *model.ChatSession) error {
	res, err := r.sessions.InsertOne(ctx, s)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		s.ID = oid
	}
	return nil
}

func (r *chatRepo) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var s model.ChatSession
	err := r.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *chatRepo) UpdateSessionStats(ctx context.Context, sessionID string, stats *model.SessionStats) error {
	_, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"message_count":       stats.MessageCount,
			"avg_confidence":      stats.AvgConfidence,
			"avg_processing_time": stats.AvgProcessingTime,
			"total_tokens":        stats.TotalTokens,
			"updated_at":          time.Now().UTC(),
		}},
	)
	return err
}

func (r *chatRepo) ListSessionsByDocument(ctx context.Context, documentID, userID string) ([]model.ChatSession, error) {
	filter := bson.M{"document_id": documentID}
	if userID != "" {
		filter["user_id"] = userID
	}

	cur, err := r.sessions.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []model.ChatSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatRepo) InsertMessage(ctx context.Context, m *model.ChatMessage) error {
	res, err := r.messages.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (r *chatRepo) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error) {
	cur, err := r.messages.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: 1}}).
			SetLimit(int64(limit)).
			SetSkip(int64(offset)),
	)
	if err != nil {
		return nil, err
	}
	var out []model.ChatMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AggregateSessionStats recomputes the denormalized counters from every
// message in the session. $avg skips documents where the field is absent, so
// messages without confidence never drag the average.
func (r *chatRepo) AggregateSessionStats(ctx context.Context, sessionID string) (*model.SessionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"session_id": sessionID}}},
		{{Key: "$group", Value: bson.M{
			"_id":                 nil,
			"message_count":       bson.M{"$sum": 1},
			"avg_confidence":      bson.M{"$avg": "$confidence"},
			"avg_processing_time": bson.M{"$avg": "$processing_time"},
			"total_tokens":        bson.M{"$sum": "$token_usage.total_tokens"},
		}}},
	}

	cur, err := r.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []model.SessionStats
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &model.SessionStats{}, nil
	}
	return &rows[0], nil
}

func (r *chatRepo) UpsertDocumentMap(ctx context.Context, documentID, sessionID string, doc *model.DocumentChatMap) error {
	set := bson.M{
		"last_session_id": sessionID,
		"last_activity":   time.Now().UTC(),
	}
	if doc != nil {
		if doc.DocumentName != "" {
			set["document_name"] = doc.DocumentName
		}
		if doc.DocumentType != "" {
			set["document_type"] = doc.DocumentType
		}
		if doc.DocumentStatus != "" {
			set["document_status"] = doc.DocumentStatus
		}
	}

	_, err := r.docChats.UpdateOne(ctx,
		bson.M{"document_id": documentID},
		bson.M{
			"$set":      set,
			"$addToSet": bson.M{"session_ids": sessionID},
			"$inc":      bson.M{"total_sessions": 1},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *chatRepo) TouchDocumentMap(ctx context.Context, documentID string, at time.Time) error {
	_, err := r.docChats.UpdateOne(ctx,
		bson.M{"document_id": documentID},
		bson.M{
			"$set": bson.M{"last_activity": at},
			"$inc": bson.M{"total_messages": 1},
		},
	)
	return err
}

func (r *chatRepo) DeleteMessagesByDocument(ctx context.Context, documentID string) (int64, error) {
	// Delete by document id, not session id, so orphaned messages go too.
	res, err := r.messages.DeleteMany(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *chatRepo) DeleteSessionsByDocument(ctx context.Context, documentID string) (int64, error) {
	res, err := r.sessions.DeleteMany(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *chatRepo) DeleteDocumentMap(ctx context.Context, documentID string) error {
	_, err := r.docChats.DeleteOne(ctx, bson.M{"document_id": documentID})
	return err
}

func (r *chatRepo) CountSessionsByDocument(ctx context.Context, documentID string) (int64, error) {
	return r.sessions.CountDocuments(ctx, bson.M{"document_id": documentID})
}

func (r *chatRepo) CountMessagesByDocument(ctx context.Context, documentID string) (int64, error) {
	return r.messages.CountDocuments(ctx, bson.M{"document_id": documentID})
}

func (r *chatRepo) LastMessageTime(ctx context.Context, documentID string) (*time.Time, error) {
	var m model.ChatMessage
	err := r.messages.FindOne(ctx,
		bson.M{"document_id": documentID},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := m.Timestamp
	return &t, nil
}

func (r *chatRepo) MostActiveSessionID(ctx context.Context, documentID string) (string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"document_id": documentID}}},
		{{Key: "$group", Value: bson.M{"_id": "$session_id", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: 1}},
	}

	cur, err := r.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return "", err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}
