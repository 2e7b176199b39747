package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	cfg "github.com/coverbridge/salesagent/config"
	"github.com/coverbridge/salesagent/lead"
	"github.com/coverbridge/salesagent/session"
)

// Sink persists captured leads to MongoDB for the sales team.
type Sink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ lead.Sink = (*Sink)(nil)

// Config holds MongoDB connection configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns default MongoDB configuration.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "salesagent",
		Collection: "leads",
	}
}

// mongoLead is the internal representation for MongoDB.
type mongoLead struct {
	ID                   string    `bson:"_id"`
	SessionID            string    `bson:"session_id"`
	FullName             string    `bson:"full_name"`
	PhoneNumber          string    `bson:"phone_number"`
	NationalID           string    `bson:"national_id"`
	Address              string    `bson:"address"`
	PolicyOfInterest     string    `bson:"policy_of_interest"`
	Email                string    `bson:"email,omitempty"`
	PreferredContactTime string    `bson:"preferred_contact_time,omitempty"`
	Notes                string    `bson:"notes,omitempty"`
	Interest             string    `bson:"interest"`
	CapturedAt           time.Time `bson:"captured_at"`
}

// New creates a MongoDB-backed lead sink.
func New(config *Config) (*Sink, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := cfg.ValidateMongoDBConfig(config.URI, config.Database, config.Collection); err != nil {
		return nil, fmt.Errorf("invalid MongoDB configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	sink := &Sink{
		client:     client,
		collection: collection,
	}

	if err := sink.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return sink, nil
}

func (s *Sink) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "captured_at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Emit upserts a lead keyed on session ID, so a retried handoff does
// not create a duplicate lead.
func (s *Sink) Emit(ctx context.Context, candidate lead.Candidate) error {
	doc := mongoLead{
		ID:                   "lead:" + candidate.SessionID,
		SessionID:            candidate.SessionID,
		FullName:             candidate.FullName,
		PhoneNumber:          candidate.PhoneNumber,
		NationalID:           candidate.NationalID,
		Address:              candidate.Address,
		PolicyOfInterest:     candidate.PolicyOfInterest,
		Email:                candidate.Email,
		PreferredContactTime: candidate.PreferredContactTime,
		Notes:                candidate.Notes,
		Interest:             string(candidate.Interest),
		CapturedAt:           candidate.CapturedAt,
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	if _, err := s.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to write lead to MongoDB: %w", err)
	}
	return nil
}

// ListRecent returns up to limit leads ordered by capture time.
func (s *Sink) ListRecent(ctx context.Context, limit int) ([]lead.Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.M{"captured_at": -1}).SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoLead
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode leads: %w", err)
	}

	candidates := make([]lead.Candidate, len(docs))
	for i, d := range docs {
		candidates[i] = lead.Candidate{
			SessionID:            d.SessionID,
			FullName:             d.FullName,
			PhoneNumber:          d.PhoneNumber,
			NationalID:           d.NationalID,
			Address:              d.Address,
			PolicyOfInterest:     d.PolicyOfInterest,
			Email:                d.Email,
			PreferredContactTime: d.PreferredContactTime,
			Notes:                d.Notes,
			Interest:             session.InterestLevel(d.Interest),
			CapturedAt:           d.CapturedAt,
		}
	}
	return candidates, nil
}

// Close closes the MongoDB connection.
func (s *Sink) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}
