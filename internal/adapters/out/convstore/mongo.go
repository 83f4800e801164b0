package convstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per user. Idle conversations are removed by
// a TTL index on updatedAt.
type MongoStore struct {
	collection *mongo.Collection
}

var _ ports.ConversationStore = (*MongoStore)(nil)

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// EnsureIndexes creates the TTL index that expires conversations idle for ttl.
func (s *MongoStore) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"updatedAt": 1},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())).SetName("ttl_updated_at"),
	})
	if err != nil {
		return fmt.Errorf("create conversation ttl index: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, userID string) (conversation.State, error) {
	var dto StateDTO
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&dto)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return conversation.NewState(userID), nil
	}
	if err != nil {
		return conversation.State{}, fmt.Errorf("find conversation: %w", err)
	}
	return ToDomain(dto)
}

func (s *MongoStore) Set(ctx context.Context, userID string, state conversation.State) error {
	dto := FromDomain(state)
	dto.UserID = userID

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": userID}, dto, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return int(n), nil
}
