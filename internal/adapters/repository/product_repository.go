package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductQuery struct {
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int64
	Skip       int64
}

type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Create(ctx context.Context, product models.Product) (models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.UpdateProductInput) error
}

type MongoProductRepository struct {
	DB *mongo.Database
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &MongoProductRepository{DB: db}
}

func (r *MongoProductRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	collection := r.DB.Collection("products")
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}
	if q.ActiveOnly {
		filter["status"] = models.ProductStatusActive
	}
	opts := options.Find().
		SetSkip(q.Skip).
		SetLimit(q.Limit).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := r.DB.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	return product, err
}

func (r *MongoProductRepository) Create(ctx context.Context, product models.Product) (models.Product, error) {
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	if _, err := r.DB.Collection("products").InsertOne(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, update models.UpdateProductInput) error {
	update.UpdatedAt = time.Now()
	res, err := r.DB.Collection("products").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("update product %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
