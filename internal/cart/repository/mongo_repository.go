package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// cartDocument wraps the serialized snapshot. Storing the payload opaque
// keeps the wire representation identical across backends and sidesteps
// decimal encoding in BSON.
type cartDocument struct {
	Scope     string    `bson:"scope"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("carts")}
}

func (m *MongoRepository) GetCart(ctx context.Context, scope domain.Scope) (*domain.Cart, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"scope": string(scope)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return decodeCart(doc.Payload)
}

func (m *MongoRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	payload, err := encodeCart(cart)
	if err != nil {
		return err
	}

	doc := cartDocument{
		Scope:     string(cart.Scope),
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"scope": string(cart.Scope)}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, scope domain.Scope) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"scope": string(scope)}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
