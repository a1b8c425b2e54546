package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxWebhookBody = int64(65536)

type PaymentHandler struct {
	Orders        repository.OrderRepository
	WebhookSecret string
	Currency      stripe.Currency
	// NewIntent creates the Stripe payment intent.
	NewIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewPaymentHandler(orders repository.OrderRepository, secretKey, webhookSecret string) *PaymentHandler {
	stripe.Key = secretKey
	return &PaymentHandler{
		Orders:        orders,
		WebhookSecret: webhookSecret,
		Currency:      stripe.CurrencyINR,
		NewIntent:     paymentintent.New,
	}
}

// amountMinor converts a rupee amount to paise.
func amountMinor(total float64) int64 {
	return int64(math.Round(total * 100))
}

func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request"))
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid order ID"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		repoError(c, err, "Order")
		return
	}
	uid, _ := middleware.Caller(c)
	if order.UserID != uid {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("You can only pay for your own orders"))
		return
	}
	if order.NormalizedStatus() == models.StatusCancelled {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Order has been cancelled"))
		return
	}
	if order.PaymentStatus == "paid" {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Order is already paid"))
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor(order.GrandTotal)),
		Currency: stripe.String(string(h.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"orderId": req.OrderID,
		},
	}
	pi, err := h.NewIntent(params)
	if err != nil {
		logrus.WithError(err).WithField("order", order.DisplayID()).Error("Stripe payment intent")
		c.JSON(http.StatusBadGateway, utils.ErrorResponse(fmt.Sprintf("Stripe error: %v", err)))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment intent created", gin.H{
		"clientSecret": pi.ClientSecret,
	}))
}

// HandleWebhook processes asynchronous events from Stripe. Events that
// cannot be matched to an order are acknowledged so Stripe stops retrying.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Error reading request body"))
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid signature"))
		return
	}

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Error parsing webhook JSON"))
		return
	}
	orderID, err := primitive.ObjectIDFromHex(pi.Metadata["orderId"])
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	err = h.Orders.SetPayment(c.Request.Context(), orderID, pi.ID, "paid")
	switch {
	case errors.Is(err, repository.ErrNotFound):
		logrus.WithField("order", orderID.Hex()).Warn("Payment for unknown order")
	case err != nil:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update order in DB"))
		return
	default:
		logrus.WithFields(logrus.Fields{"order": orderID.Hex(), "payment": pi.ID}).Info("Order paid")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
