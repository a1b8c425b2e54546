package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `json:"title" bson:"title" validate:"required"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category" validate:"required"` // e.g. "vegetables", "dairy"
	Farm        string             `json:"farm" bson:"farm"`

	ImageURL string `json:"imageUrl" bson:"imageUrl"`

	// Pricing per Unit ("kg", "bunch", "dozen"). ActualPrice is the MRP shown
	// struck through.
	Price       float64 `json:"price" bson:"price" validate:"required,gt=0"`
	ActualPrice float64 `json:"actualPrice" bson:"actualPrice" validate:"gte=0"`
	Unit        string  `json:"unit" bson:"unit"`

	Stock  float64       `json:"stock" bson:"stock" validate:"gte=0"`
	Status ProductStatus `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type UpdateProductInput struct {
	Title       *string        `json:"title,omitempty" bson:"title,omitempty"`
	Description *string        `json:"description,omitempty" bson:"description,omitempty"`
	Category    *string        `json:"category,omitempty" bson:"category,omitempty"`
	Farm        *string        `json:"farm,omitempty" bson:"farm,omitempty"`
	ImageURL    *string        `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Price       *float64       `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,gt=0"`
	ActualPrice *float64       `json:"actualPrice,omitempty" bson:"actualPrice,omitempty" validate:"omitempty,gte=0"`
	Unit        *string        `json:"unit,omitempty" bson:"unit,omitempty"`
	Stock       *float64       `json:"stock,omitempty" bson:"stock,omitempty" validate:"omitempty,gte=0"`
	Status      *ProductStatus `json:"status,omitempty" bson:"status,omitempty"`
	UpdatedAt   time.Time      `json:"-" bson:"updatedAt"`
}
