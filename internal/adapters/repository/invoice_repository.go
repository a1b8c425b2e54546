package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateInvoiceNumber = errors.New("invoice number already in use")

type InvoiceRepository interface {
	Create(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Invoice, error)
	List(ctx context.Context, limit, skip int64) ([]models.Invoice, int64, error)
	Update(ctx context.Context, inv models.Invoice) error
	ForEach(ctx context.Context, fn func(models.Invoice) error) error
}

type MongoInvoiceRepository struct {
	DB *mongo.Database
}

func NewInvoiceRepository(db *mongo.Database) InvoiceRepository {
	return &MongoInvoiceRepository{DB: db}
}

func (r *MongoInvoiceRepository) coll() *mongo.Collection {
	return r.DB.Collection("invoices")
}

// Create inserts inv. A clash on the unique invoiceNumber index is reported
// as ErrDuplicateInvoiceNumber so the caller can draw a new number.
func (r *MongoInvoiceRepository) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if _, err := r.coll().InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Invoice{}, ErrDuplicateInvoiceNumber
		}
		return models.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (r *MongoInvoiceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Invoice, error) {
	var inv models.Invoice
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invoice{}, ErrNotFound
	}
	return inv, err
}

func (r *MongoInvoiceRepository) List(ctx context.Context, limit, skip int64) ([]models.Invoice, int64, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find invoices: %w", err)
	}
	defer cursor.Close(ctx)

	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, 0, fmt.Errorf("decode invoices: %w", err)
	}
	total, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

func (r *MongoInvoiceRepository) Update(ctx context.Context, inv models.Invoice) error {
	inv.UpdatedAt = time.Now()
	res, err := r.coll().ReplaceOne(ctx, bson.M{"_id": inv.ID}, inv)
	if err != nil {
		return fmt.Errorf("replace invoice %s: %w", inv.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoInvoiceRepository) ForEach(ctx context.Context, fn func(models.Invoice) error) error {
	cursor, err := r.coll().Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("find invoices: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var inv models.Invoice
		if err := cursor.Decode(&inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		if err := fn(inv); err != nil {
			return err
		}
	}
	return cursor.Err()
}
