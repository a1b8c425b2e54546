package models

import (
	"strings"
	"time"
)

// Settings are the operator-editable values read from the settings store.
// FinishedOrderVisibility is how many hours delivered and cancelled orders
// stay on the dashboards.
type Settings struct {
	CutoffTime              string    `json:"cutoffTime" bson:"cutoffTime" yaml:"cutoffTime" validate:"required"`
	FinishedOrderVisibility float64   `json:"finishedOrderVisibility" bson:"finishedOrderVisibility" yaml:"finishedOrderVisibility" validate:"gte=0"`
	DeliveryFee             float64   `json:"deliveryFee" bson:"deliveryFee" yaml:"deliveryFee" validate:"gte=0"`
	FreeDeliveryAbove       float64   `json:"freeDeliveryAbove" bson:"freeDeliveryAbove" yaml:"freeDeliveryAbove" validate:"gte=0"`
	Coupons                 []Coupon  `json:"coupons,omitempty" bson:"coupons,omitempty" yaml:"coupons" validate:"dive"`
	UpdatedAt               time.Time `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

func (s Settings) Visibility() time.Duration {
	return time.Duration(s.FinishedOrderVisibility * float64(time.Hour))
}

// Coupon is a discount code customers may apply at checkout. Percent and
// Flat add up; the result never exceeds the subtotal.
type Coupon struct {
	Code        string  `json:"code" bson:"code" yaml:"code" validate:"required,max=32"`
	Percent     float64 `json:"percent" bson:"percent" yaml:"percent" validate:"gte=0,lte=100"`
	Flat        float64 `json:"flat" bson:"flat" yaml:"flat" validate:"gte=0"`
	MinSubtotal float64 `json:"minSubtotal" bson:"minSubtotal" yaml:"minSubtotal" validate:"gte=0"`
	Disabled    bool    `json:"disabled,omitempty" bson:"disabled,omitempty" yaml:"disabled"`
}

// Coupon looks up an enabled coupon by code, ignoring case.
func (s Settings) Coupon(code string) (Coupon, bool) {
	code = strings.TrimSpace(code)
	for _, c := range s.Coupons {
		if !c.Disabled && strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Coupon{}, false
}
