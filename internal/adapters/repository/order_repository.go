package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshroots/harvest-backend/internal/feed"
	"github.com/freshroots/harvest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderFilter struct {
	UserID string
	Limit  int64
}

type OrderRepository interface {
	Create(ctx context.Context, order models.Order) (models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	Cancel(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID, by string, at time.Time) error
	SetPayment(ctx context.Context, id primitive.ObjectID, paymentID, paymentStatus string) error
}

type MongoOrderRepository struct {
	DB     *mongo.Database
	Events feed.Publisher
}

func NewOrderRepository(db *mongo.Database, events feed.Publisher) OrderRepository {
	return &MongoOrderRepository{DB: db, Events: events}
}

func (r *MongoOrderRepository) coll() *mongo.Collection {
	return r.DB.Collection("orders")
}

// Statuses are free text in older documents, so the terminal guard matches
// case-insensitively.
var notTerminal = bson.M{"$not": primitive.Regex{Pattern: `^\s*(delivered|cancell?ed)\s*$`, Options: "i"}}

func (r *MongoOrderRepository) notify(kind string, id primitive.ObjectID) {
	if r.Events != nil {
		r.Events.Publish(feed.Event{Kind: kind, OrderID: id.Hex(), At: time.Now()})
	}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.UpdatedAt = time.Now()
	if _, err := r.coll().InsertOne(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}
	r.notify("insert", order.ID)
	return order, nil
}

func (r *MongoOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["userId"] = filter.UserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := r.coll().Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	return order, err
}

// updateOpen applies set to the order only while it is not terminal.
func (r *MongoOrderRepository) updateOpen(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id, "status": notTerminal},
		bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update order %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll().CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("count order %s: %w", id.Hex(), err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrTerminalOrder
	}
	r.notify("update", id)
	return nil
}

func (r *MongoOrderRepository) Cancel(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return r.updateOpen(ctx, id, bson.M{
		"status":             models.StatusCancelled,
		"cancellationReason": reason,
		"cancellationTime":   at,
	})
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	return r.updateOpen(ctx, id, bson.M{"status": status})
}

func (r *MongoOrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, by string, at time.Time) error {
	return r.updateOpen(ctx, id, bson.M{
		"status":      models.StatusDelivered,
		"deliveredAt": at,
		"deliveredBy": by,
	})
}

func (r *MongoOrderRepository) SetPayment(ctx context.Context, id primitive.ObjectID, paymentID, paymentStatus string) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"paymentId":     paymentID,
			"paymentStatus": paymentStatus,
			"updatedAt":     time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("update payment %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	r.notify("update", id)
	return nil
}
