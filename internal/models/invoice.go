package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceItem struct {
	Category  string  `json:"category" bson:"category"`
	Name      string  `json:"name" bson:"name" validate:"required"`
	ProductID string  `json:"productId" bson:"productId"`
	Quantity  float64 `json:"quantity" bson:"quantity" validate:"gte=0"`
	Price     float64 `json:"price" bson:"price" validate:"gte=0"`
	Total     float64 `json:"total" bson:"total"`
}

type Invoice struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	InvoiceNumber string              `json:"invoiceNumber" bson:"invoiceNumber"`
	OrderRef      *primitive.ObjectID `json:"orderRef,omitempty" bson:"orderRef,omitempty"`
	CustomerName  string              `json:"customerName" bson:"customerName"`
	CustomerPhone string              `json:"customerPhone" bson:"customerPhone"`
	Items         []InvoiceItem       `json:"items" bson:"items"`

	// Summary inputs
	TaxPercent     float64 `json:"taxPercent" bson:"taxPercent"`
	Discount       float64 `json:"discount" bson:"discount"`
	DeliveryCharge float64 `json:"deliveryCharge" bson:"deliveryCharge"`

	// Derived
	Subtotal             float64 `json:"subtotal" bson:"subtotal"`
	TaxAmount            float64 `json:"taxAmount" bson:"taxAmount"`
	DiscountAmount       float64 `json:"discountAmount" bson:"discountAmount"`
	DeliveryChargeAmount float64 `json:"deliveryChargeAmount" bson:"deliveryChargeAmount"`
	Total                float64 `json:"total" bson:"total"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type InvoiceInput struct {
	CustomerName   string        `json:"customerName"`
	CustomerPhone  string        `json:"customerPhone"`
	Items          []InvoiceItem `json:"items" validate:"required,min=1,dive"`
	TaxPercent     float64       `json:"taxPercent" validate:"gte=0,lte=100"`
	Discount       float64       `json:"discount" validate:"gte=0"`
	DeliveryCharge float64       `json:"deliveryCharge" validate:"gte=0"`
}
