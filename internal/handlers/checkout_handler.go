package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	Orders   repository.OrderRepository
	Carts    repository.CartRepository
	Settings *StoreSettings
	Now      func() time.Time
}

func NewCheckoutHandler(orders repository.OrderRepository, carts repository.CartRepository, settings *StoreSettings) *CheckoutHandler {
	return &CheckoutHandler{Orders: orders, Carts: carts, Settings: settings, Now: time.Now}
}

// Checkout turns the caller's cart into a placed order.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	uid, _ := middleware.Caller(c)

	var input models.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}
	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := h.Carts.GetCart(ctx, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch cart"))
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Your cart is empty"))
		return
	}

	settings := h.Settings.Current(ctx)
	lines := make([]models.InvoiceItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, models.InvoiceItem{Total: invoicing.LineTotal(it.Quantity, it.Price)})
	}
	subtotal := invoicing.Recompute(lines, 0, 0, 0).Subtotal

	fee := settings.DeliveryFee
	if settings.FreeDeliveryAbove > 0 && subtotal >= settings.FreeDeliveryAbove {
		fee = 0
	}
	var discount float64
	coupon := strings.TrimSpace(input.AppliedCoupon)
	if coupon != "" {
		cp, ok := settings.Coupon(coupon)
		if !ok {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid coupon code"))
			return
		}
		if subtotal < cp.MinSubtotal {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse(fmt.Sprintf("Coupon %s needs a subtotal of at least %.2f", cp.Code, cp.MinSubtotal)))
			return
		}
		coupon = cp.Code
		discount = invoicing.CouponDiscount(cp, subtotal)
	}
	totals := invoicing.Recompute(lines, 0, discount, fee)

	now := h.now()
	order := models.Order{
		UserID:         uid,
		Timestamp:      models.NewTimestamp(now),
		Date:           now.In(h.Settings.location()).Format(models.DateLayout),
		Status:         string(models.StatusPlaced),
		CartItems:      cart.Items,
		AddressInfo:    input.AddressInfo,
		DiscountAmount: totals.DiscountAmount,
		AppliedCoupon:  coupon,
		DeliveryFee:    totals.DeliveryChargeAmount,
		GrandTotal:     totals.Total,
		PaymentStatus:  "pending",
	}
	created, err := h.Orders.Create(ctx, order)
	if err != nil {
		logrus.WithError(err).WithField("user", uid).Error("Place order")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to place order"))
		return
	}
	if err := h.Carts.ClearCart(ctx, uid); err != nil {
		logrus.WithError(err).WithField("user", uid).Warn("Order placed but cart not cleared")
	}

	view := newOrderView(created, h.Settings.policyFor(settings), now)
	c.JSON(http.StatusCreated, utils.SuccessResponse("Order placed successfully", gin.H{"order": view}))
}

func (h *CheckoutHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
