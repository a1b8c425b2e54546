package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusHarvested      OrderStatus = "harvested"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// DateLayout is the format checkout writes into Order.Date.
const DateLayout = "Jan 02, 2006"

// NormalizeStatus maps the free-text status stored on an order onto one of
// the known values. Anything unrecognised is treated as placed.
func NormalizeStatus(s string) OrderStatus {
	st, _ := ParseStatus(s)
	return st
}

// ParseStatus is NormalizeStatus that also reports whether s was recognised.
func ParseStatus(s string) (OrderStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch OrderStatus(s) {
	case StatusPlaced, StatusHarvested, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return OrderStatus(s), true
	case "canceled":
		return StatusCancelled, true
	}
	return StatusPlaced, false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

var statusRank = map[OrderStatus]int{
	StatusPlaced:         0,
	StatusHarvested:      1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
}

// CanTransition reports whether an order may move from one status to
// another. The happy path only moves forward; cancelled is reachable from
// any non-terminal status.
func CanTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr > fr
}

type CartItem struct {
	Title       string   `json:"title" bson:"title"`
	Price       float64  `json:"price" bson:"price"`
	Quantity    float64  `json:"quantity" bson:"quantity"`
	Category    string   `json:"category" bson:"category"`
	ImageURL    string   `json:"imageUrl" bson:"imageUrl"`
	ActualPrice *float64 `json:"actualPrice,omitempty" bson:"actualPrice,omitempty"`
	ProductID   string   `json:"productId,omitempty" bson:"productId,omitempty"`
}

type AddressInfo struct {
	Name           string `json:"name" bson:"name" validate:"required"`
	PhoneNumber    string `json:"phoneNumber" bson:"phoneNumber" validate:"required"`
	AlternatePhone string `json:"alternatePhone,omitempty" bson:"alternatePhone,omitempty"`
	HouseNo        string `json:"houseNo" bson:"houseNo"`
	BlockNo        string `json:"blockNo" bson:"blockNo"`
	Landmark       string `json:"landmark" bson:"landmark"`
	Address        string `json:"address" bson:"address" validate:"required"`
	Pincode        string `json:"pincode" bson:"pincode"`
	City           string `json:"city,omitempty" bson:"city,omitempty"`
	State          string `json:"state,omitempty" bson:"state,omitempty"`
}

type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   string             `json:"orderId,omitempty" bson:"orderId,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Timestamp Timestamp          `json:"timestamp" bson:"timestamp"`
	Date      string             `json:"date" bson:"date"`
	Status    string             `json:"status" bson:"status"`

	CartItems   []CartItem  `json:"cartItems" bson:"cartItems"`
	AddressInfo AddressInfo `json:"addressInfo" bson:"addressInfo"`

	// Pricing
	DiscountAmount float64 `json:"discountAmount,omitempty" bson:"discountAmount,omitempty"`
	AppliedCoupon  string  `json:"appliedCoupon,omitempty" bson:"appliedCoupon,omitempty"`
	DeliveryFee    float64 `json:"deliveryFee,omitempty" bson:"deliveryFee,omitempty"`
	GrandTotal     float64 `json:"grandTotal" bson:"grandTotal"`

	PaymentStatus string `json:"paymentStatus,omitempty" bson:"paymentStatus,omitempty"`
	PaymentID     string `json:"paymentId,omitempty" bson:"paymentId,omitempty"`

	CancellationReason string     `json:"cancellationReason,omitempty" bson:"cancellationReason,omitempty"`
	CancellationTime   *time.Time `json:"cancellationTime,omitempty" bson:"cancellationTime,omitempty"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	DeliveredBy        string     `json:"deliveredBy,omitempty" bson:"deliveredBy,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func (o Order) NormalizedStatus() OrderStatus {
	return NormalizeStatus(o.Status)
}

// DisplayID is the order number shown to customers.
func (o Order) DisplayID() string {
	if o.OrderID != "" {
		return o.OrderID
	}
	if o.ID.IsZero() {
		return ""
	}
	hex := o.ID.Hex()
	return strings.ToUpper(hex[len(hex)-8:])
}

// PlacedAt returns the normalised placement instant. Orders written before
// the timestamp field existed carry a full ISO instant in Date instead.
func (o Order) PlacedAt() (time.Time, bool) {
	ts, ok := o.placedTimestamp()
	return ts.Time(), ok
}

// PlacedAtIn is PlacedAt with zone-less values read as wall clock in loc.
func (o Order) PlacedAtIn(loc *time.Location) (time.Time, bool) {
	ts, ok := o.placedTimestamp()
	return ts.In(loc).Time(), ok
}

func (o Order) placedTimestamp() (Timestamp, bool) {
	if o.Timestamp.Valid() {
		return o.Timestamp, true
	}
	if ts, ok := ParseTimestamp(o.Date); ok {
		return ts, true
	}
	return Timestamp{}, false
}

// FinishedAt is the instant an order reached a terminal status, if recorded.
func (o Order) FinishedAt() (time.Time, bool) {
	switch o.NormalizedStatus() {
	case StatusDelivered:
		if o.DeliveredAt != nil {
			return *o.DeliveredAt, true
		}
	case StatusCancelled:
		if o.CancellationTime != nil {
			return *o.CancellationTime, true
		}
	}
	return time.Time{}, false
}

var dateKeyLayouts = []string{
	DateLayout,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
	"1/2/2006",
}

// ParseDateKey parses the calendar date stored in Order.Date.
func ParseDateKey(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateKeyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, ok := ParseTimestamp(s); ok {
		t := ts.Time()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

type CancelOrderInput struct {
	Reason string `json:"reason" binding:"required" validate:"required,max=500"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// CheckoutInput carries no discount amount; the discount is derived from
// AppliedCoupon on the server.
type CheckoutInput struct {
	AddressInfo   AddressInfo `json:"addressInfo" binding:"required"`
	AppliedCoupon string      `json:"appliedCoupon" validate:"max=32"`
}
