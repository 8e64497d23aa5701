package memory

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

const conversationsCollection = "chat_conversations"

// MongoTier is the durable tier: an unbounded, append-only document
// collection queryable by recency.
type MongoTier struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoTier connects to MongoDB and verifies the connection.
func NewMongoTier(mongoURL, database string, timeout time.Duration) (*MongoTier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoTier{
		client:     client,
		collection: client.Database(database).Collection(conversationsCollection),
	}, nil
}

func (m *MongoTier) Name() string { return "mongodb" }

// AppendOrdered inserts the message as a new document. The durable
// history is unbounded, so trimTo and ttl are ignored.
func (m *MongoTier) AppendOrdered(ctx context.Context, key string, msg models.Message, trimTo int, ttl time.Duration) error {
	doc := bson.M{
		"key":        key,
		"message_id": msg.ID,
		"user_id":    msg.UserID,
		"message":    msg.Body,
		"role":       msg.Role,
		"timestamp":  msg.CreatedAt,
	}
	if len(msg.Metadata) > 0 {
		doc["metadata"] = msg.Metadata
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert conversation document: %w", err)
	}
	return nil
}

// ReadRange queries the newest limit documents for key and reverses
// them to chronological order.
func (m *MongoTier) ReadRange(ctx context.Context, key string, limit int) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"key": key}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation documents: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, fmt.Errorf("failed to decode conversation document: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation documents: %w", err)
	}

	// Reverse to chronological order before returning.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (m *MongoTier) DeleteKey(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{"key": key}); err != nil {
		return fmt.Errorf("failed to delete conversation documents: %w", err)
	}
	return nil
}

func (m *MongoTier) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoTier) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
