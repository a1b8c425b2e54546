package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hh, mm int) time.Time {
	return time.Date(2026, time.October, 14, hh, mm, 0, 0, ist)
}

func TestCancelOrder(t *testing.T) {
	morning := placedOrder("cust-1", at(9, 0))
	lateNight := placedOrder("cust-1", at(23, 10).AddDate(0, 0, -1))
	delivered := placedOrder("cust-1", at(8, 0))
	delivered.Status = "Delivered"
	someoneElse := placedOrder("cust-2", at(9, 0))

	tests := []struct {
		name   string
		order  models.Order
		now    time.Time
		user   string
		status int
	}{
		{"before cutoff", morning, at(10, 0), "cust-1", http.StatusOK},
		{"at cutoff", morning, at(22, 30), "cust-1", http.StatusOK},
		{"window closed", morning, at(22, 31), "cust-1", http.StatusConflict},
		{"placed after cutoff yesterday", lateNight, at(21, 0), "cust-1", http.StatusOK},
		{"terminal", delivered, at(10, 0), "cust-1", http.StatusConflict},
		{"not owner", someoneElse, at(10, 0), "cust-1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.now, tt.order)
			w := ts.do(t, http.MethodPost, "/api/v1/orders/"+tt.order.ID.Hex()+"/cancel",
				bearer(t, tt.user, "customer"), map[string]string{"reason": "changed my mind"})
			require.Equal(t, tt.status, w.Code, w.Body.String())

			stored := ts.orders.get(tt.order.ID)
			if tt.status == http.StatusOK {
				assert.Equal(t, string(models.StatusCancelled), stored.Status)
				assert.Equal(t, "changed my mind", stored.CancellationReason)
				require.NotNil(t, stored.CancellationTime)
				assert.True(t, stored.CancellationTime.Equal(tt.now))
			} else {
				assert.Equal(t, tt.order.Status, stored.Status)
			}
		})
	}
}

func TestCancelOrderRequiresReason(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)
	w := ts.do(t, http.MethodPost, "/api/v1/orders/"+o.ID.Hex()+"/cancel", bearer(t, "cust-1", "customer"), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrderStaffForbidden(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)
	w := ts.do(t, http.MethodPost, "/api/v1/orders/"+o.ID.Hex()+"/cancel",
		bearer(t, "rider-1", "delivery"), map[string]string{"reason": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrdersScopesByRole(t *testing.T) {
	mine := placedOrder("cust-1", at(9, 0))
	theirs := placedOrder("cust-2", at(9, 5))
	ts := newTestServer(t, at(10, 0), mine, theirs)

	var data struct {
		Orders []struct {
			ID                     string `json:"id"`
			UserID                 string `json:"userId"`
			CanCancel              bool   `json:"canCancel"`
			CancelRemainingSeconds *int64 `json:"cancelRemainingSeconds"`
		} `json:"orders"`
	}
	w := ts.do(t, http.MethodGet, "/api/v1/orders", bearer(t, "cust-1", "customer"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	require.Len(t, data.Orders, 1)
	assert.Equal(t, "cust-1", data.Orders[0].UserID)
	assert.True(t, data.Orders[0].CanCancel)
	require.NotNil(t, data.Orders[0].CancelRemainingSeconds)
	assert.EqualValues(t, 12*3600+30*60, *data.Orders[0].CancelRemainingSeconds)

	w = ts.do(t, http.MethodGet, "/api/v1/orders", bearer(t, "admin-1", "sub_admin"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	assert.Len(t, data.Orders, 2)
}

func TestGetOrderByIdHidesOtherCustomers(t *testing.T) {
	o := placedOrder("cust-2", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)

	w := ts.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.Hex(), bearer(t, "cust-1", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/orders/not-an-id", bearer(t, "cust-1", "customer"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelWindow(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(22, 0), o)

	var w struct {
		CanCancel        bool       `json:"canCancel"`
		RemainingSeconds int64      `json:"remainingSeconds"`
		Deadline         *time.Time `json:"deadline"`
	}
	resp := ts.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.Hex()+"/cancel-window", bearer(t, "cust-1", "customer"), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &w)
	assert.True(t, w.CanCancel)
	assert.EqualValues(t, 1800, w.RemainingSeconds)
	require.NotNil(t, w.Deadline)
	assert.True(t, w.Deadline.Equal(at(22, 30)))
}

func TestStreamCancelWindowCountsDown(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)

	now := at(22, 30).Add(-3 * time.Second)
	ts.clock = func() time.Time {
		cur := now
		now = now.Add(time.Second)
		return cur
	}

	w := ts.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.Hex()+"/cancel-window/stream", bearer(t, "cust-1", "customer"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event:tick"), body)
	assert.Contains(t, body, `"remainingSeconds":3`)
	assert.Contains(t, body, `"remainingSeconds":1`)
	assert.Contains(t, body, "event:expired")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
}

func TestUpdateStatus(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)
	admin := bearer(t, "admin-1", "master_admin")
	path := "/api/v1/orders/" + o.ID.Hex() + "/status"

	w := ts.do(t, http.MethodPut, path, bearer(t, "cust-1", "customer"), map[string]string{"status": "harvested"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "cancelled", "reason": strings.Repeat("x", 501)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.StatusPlaced, ts.orders.get(o.ID).NormalizedStatus())

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "Harvested"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "harvested", ts.orders.get(o.ID).Status)

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "placed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	stored := ts.orders.get(o.ID)
	assert.Equal(t, "admin-1", stored.DeliveredBy)
	require.NotNil(t, stored.DeliveredAt)

	w = ts.do(t, http.MethodPut, path, admin, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
