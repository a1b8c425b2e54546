package handlers

import (
	"net/http"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/access"
	"github.com/freshroots/harvest-backend/internal/core/eligibility"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	Repo     repository.OrderRepository
	Settings *StoreSettings
	Now      func() time.Time
	// Tick is the countdown stream interval.
	Tick time.Duration
}

func NewOrderHandler(repo repository.OrderRepository, settings *StoreSettings) *OrderHandler {
	return &OrderHandler{Repo: repo, Settings: settings, Now: time.Now, Tick: time.Second}
}

func (h *OrderHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// orderView is an order as the storefront renders it, with its cancellation
// window evaluated at response time.
type orderView struct {
	models.Order
	DisplayID              string `json:"displayId"`
	CanCancel              bool   `json:"canCancel"`
	CancelRemainingSeconds *int64 `json:"cancelRemainingSeconds"`
}

func newOrderView(o models.Order, policy eligibility.Policy, now time.Time) orderView {
	v := orderView{Order: o, DisplayID: o.DisplayID()}
	if w := policy.Window(o, now); w.CanCancel {
		secs := w.RemainingSeconds
		v.CanCancel = true
		v.CancelRemainingSeconds = &secs
	}
	return v
}

// GetOrders lists the caller's own orders, or every order for staff.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	uid, role := middleware.Caller(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := repository.OrderFilter{UserID: uid}
	if access.Staff(role) {
		filter.UserID = ""
	}
	orders, err := h.Repo.List(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("List orders")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch orders"))
		return
	}

	policy := h.Settings.Policy(ctx)
	now := h.now()
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o, policy, now))
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Orders fetched successfully", gin.H{"orders": views}))
}

// loadVisible fetches the :id order and checks the caller may see it. It
// writes the error response itself and reports false on failure.
func (h *OrderHandler) loadVisible(c *gin.Context) (models.Order, bool) {
	orderID, ok := objectIDParam(c, "order")
	if !ok {
		return models.Order{}, false
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Repo.GetByID(ctx, orderID)
	if err != nil {
		repoError(c, err, "Order")
		return models.Order{}, false
	}
	uid, role := middleware.Caller(c)
	if !access.Staff(role) && order.UserID != uid {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("You do not have permission to view this order"))
		return models.Order{}, false
	}
	return order, true
}

func (h *OrderHandler) GetOrderById(c *gin.Context) {
	order, ok := h.loadVisible(c)
	if !ok {
		return
	}
	view := newOrderView(order, h.Settings.Policy(c.Request.Context()), h.now())
	c.JSON(http.StatusOK, utils.SuccessResponse("Order fetched successfully", gin.H{"order": view}))
}

// CancelOrder lets the owner cancel while the cancellation window is open.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := objectIDParam(c, "order")
	if !ok {
		return
	}
	var input models.CancelOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("A cancellation reason is required"))
		return
	}
	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Repo.GetByID(ctx, orderID)
	if err != nil {
		repoError(c, err, "Order")
		return
	}
	uid, _ := middleware.Caller(c)
	if order.UserID != uid {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("You can only cancel your own orders"))
		return
	}

	now := h.now()
	if !h.Settings.Policy(ctx).CanCancel(order, now) {
		c.JSON(http.StatusConflict, utils.ErrorResponse("This order can no longer be cancelled"))
		return
	}
	if err := h.Repo.Cancel(ctx, orderID, input.Reason, now); err != nil {
		repoError(c, err, "Order")
		return
	}

	logrus.WithFields(logrus.Fields{"order": order.DisplayID(), "user": uid}).Info("Order cancelled by customer")
	c.JSON(http.StatusOK, utils.SuccessResponse("Order cancelled", gin.H{
		"status":           models.StatusCancelled,
		"cancellationTime": now,
	}))
}

func (h *OrderHandler) GetCancelWindow(c *gin.Context) {
	order, ok := h.loadVisible(c)
	if !ok {
		return
	}
	w := h.Settings.Policy(c.Request.Context()).Window(order, h.now())
	c.JSON(http.StatusOK, utils.SuccessResponse("Cancellation window", w))
}

// StreamCancelWindow sends a server-sent countdown until the window closes.
// Every tick re-evaluates the window against the clock.
func (h *OrderHandler) StreamCancelWindow(c *gin.Context) {
	order, ok := h.loadVisible(c)
	if !ok {
		return
	}
	policy := h.Settings.Policy(c.Request.Context())
	tick := h.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		remaining, ok := policy.TimeRemaining(order, h.now())
		if !ok || remaining <= 0 {
			c.SSEvent("expired", gin.H{"canCancel": false, "remainingSeconds": 0})
			c.Writer.Flush()
			return
		}
		c.SSEvent("tick", gin.H{"canCancel": true, "remainingSeconds": int64(remaining / time.Second)})
		c.Writer.Flush()

		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := objectIDParam(c, "order")
	if !ok {
		return
	}
	var input models.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid status provided"))
		return
	}
	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	to, known := models.ParseStatus(input.Status)
	if !known {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown status "+input.Status))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Repo.GetByID(ctx, orderID)
	if err != nil {
		repoError(c, err, "Order")
		return
	}
	from := order.NormalizedStatus()
	if !models.CanTransition(from, to) {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Cannot move order from "+string(from)+" to "+string(to)))
		return
	}

	uid, _ := middleware.Caller(c)
	now := h.now()
	switch to {
	case models.StatusCancelled:
		reason := input.Reason
		if reason == "" {
			reason = "Cancelled by store"
		}
		err = h.Repo.Cancel(ctx, orderID, reason, now)
	case models.StatusDelivered:
		err = h.Repo.MarkDelivered(ctx, orderID, uid, now)
	default:
		err = h.Repo.UpdateStatus(ctx, orderID, to)
	}
	if err != nil {
		repoError(c, err, "Order")
		return
	}

	logrus.WithFields(logrus.Fields{"order": order.DisplayID(), "from": from, "to": to, "by": uid}).Info("Order status updated")
	c.JSON(http.StatusOK, utils.SuccessResponse("Order status updated", gin.H{"status": to}))
}
