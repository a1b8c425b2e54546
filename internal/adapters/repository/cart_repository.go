package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type CartRepository interface {
	AddToCart(ctx context.Context, userID string, item models.CartItem) error
	RemoveFromCart(ctx context.Context, userID, productID string) error
	GetCart(ctx context.Context, userID string) (models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity float64) error
	ClearCart(ctx context.Context, userID string) error
}

type MongoCartRepository struct {
	DB *mongo.Database
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &MongoCartRepository{DB: db}
}

// AddToCart merges item into the user's cart by product id, creating the
// cart on first use. A re-added product takes the latest title and price.
func (r *MongoCartRepository) AddToCart(ctx context.Context, userID string, item models.CartItem) error {
	collection := r.DB.Collection("carts")
	filter := bson.M{"userId": userID}

	var cart models.Cart
	err := collection.FindOne(ctx, filter).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		now := time.Now()
		cart = models.Cart{
			UserID:    userID,
			Items:     []models.CartItem{item},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := collection.InsertOne(ctx, cart); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	cart.Items = mergeItem(cart.Items, item)
	cart.UpdatedAt = time.Now()
	if _, err := collection.ReplaceOne(ctx, filter, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func mergeItem(items []models.CartItem, item models.CartItem) []models.CartItem {
	for i, existing := range items {
		if existing.ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			items[i].Title = item.Title
			items[i].Price = item.Price
			items[i].ImageURL = item.ImageURL
			return items
		}
	}
	return append(items, item)
}

func (r *MongoCartRepository) RemoveFromCart(ctx context.Context, userID, productID string) error {
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"productId": productID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	_, err := r.DB.Collection("carts").UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}

func (r *MongoCartRepository) GetCart(ctx context.Context, userID string) (models.Cart, error) {
	var cart models.Cart
	err := r.DB.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (r *MongoCartRepository) UpdateQuantity(ctx context.Context, userID, productID string, quantity float64) error {
	filter := bson.M{"userId": userID, "items.productId": productID}
	update := bson.M{
		"$set": bson.M{
			"items.$.quantity": quantity,
			"updatedAt":        time.Now(),
		},
	}
	res, err := r.DB.Collection("carts").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCartRepository) ClearCart(ctx context.Context, userID string) error {
	update := bson.M{
		"$set": bson.M{
			"items":     []models.CartItem{},
			"updatedAt": time.Now(),
		},
	}
	_, err := r.DB.Collection("carts").UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}
