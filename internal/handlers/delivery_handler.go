package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/aggregation"
	"github.com/freshroots/harvest-backend/internal/feed"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DeliveryHandler struct {
	Repo     repository.OrderRepository
	Settings *StoreSettings
	Feed     feed.Subscriber
	Now      func() time.Time
}

func NewDeliveryHandler(repo repository.OrderRepository, settings *StoreSettings, sub feed.Subscriber) *DeliveryHandler {
	return &DeliveryHandler{Repo: repo, Settings: settings, Feed: sub, Now: time.Now}
}

func (h *DeliveryHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

type group struct {
	Key    string         `json:"key"`
	Orders []models.Order `json:"orders"`
}

func ordered(keys []string, groups map[string][]models.Order) []group {
	out := make([]group, 0, len(keys))
	for _, k := range keys {
		out = append(out, group{Key: k, Orders: groups[k]})
	}
	return out
}

func groupOrders(view string, orders []models.Order) (any, error) {
	switch view {
	case "", "date":
		g := aggregation.GroupByDate(orders)
		return ordered(g.Keys, g.Groups), nil
	case "area":
		g := aggregation.GroupByArea(orders)
		return ordered(g.Keys, g.Groups), nil
	case "customer":
		return aggregation.GroupByCustomer(orders), nil
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

func (h *DeliveryHandler) visibleOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := h.Repo.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, err
	}
	return aggregation.FilterVisible(orders, h.now(), h.Settings.Current(ctx).Visibility()), nil
}

func (h *DeliveryHandler) snapshot(ctx context.Context, view string) (gin.H, error) {
	orders, err := h.visibleOrders(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := groupOrders(view, orders)
	if err != nil {
		return nil, err
	}
	if view == "" {
		view = "date"
	}
	return gin.H{"view": view, "groups": groups, "count": len(orders)}, nil
}

func (h *DeliveryHandler) GetOrders(c *gin.Context) {
	view := c.Query("view")
	if _, err := groupOrders(view, nil); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("view must be date, area or customer"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	data, err := h.snapshot(ctx, view)
	if err != nil {
		logrus.WithError(err).Error("Load delivery orders")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch orders"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Orders fetched successfully", data))
}

// StreamOrders pushes a fresh grouping every time the order feed reports a
// change. Bursts of events collapse into a single regroup.
func (h *DeliveryHandler) StreamOrders(c *gin.Context) {
	view := c.Query("view")
	if _, err := groupOrders(view, nil); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("view must be date, area or customer"))
		return
	}
	if h.Feed == nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Live updates are not available"))
		return
	}

	changed := make(chan struct{}, 1)
	unsubscribe := h.Feed.Subscribe(func(feed.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for {
		data, err := h.snapshot(ctx, view)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("Delivery stream refresh failed")
			c.SSEvent("error", gin.H{"message": "refresh failed"})
		} else {
			c.SSEvent("orders", data)
		}
		c.Writer.Flush()

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

func (h *DeliveryHandler) MarkDelivered(c *gin.Context) {
	orderID, ok := objectIDParam(c, "order")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	uid, _ := middleware.Caller(c)
	now := h.now()
	if err := h.Repo.MarkDelivered(ctx, orderID, uid, now); err != nil {
		repoError(c, err, "Order")
		return
	}
	logrus.WithFields(logrus.Fields{"order": orderID.Hex(), "by": uid}).Info("Order delivered")
	c.JSON(http.StatusOK, utils.SuccessResponse("Order marked as delivered", gin.H{
		"status":      models.StatusDelivered,
		"deliveredAt": now,
		"deliveredBy": uid,
	}))
}

func (h *DeliveryHandler) GetSummary(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := h.visibleOrders(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch summary"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Summary fetched successfully", gin.H{
		"summary": aggregation.Summarize(orders),
	}))
}
