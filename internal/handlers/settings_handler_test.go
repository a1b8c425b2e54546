package handlers

import (
	"net/http"
	"testing"

	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	ts := newTestServer(t, at(10, 0), o)
	admin := bearer(t, "admin-1", "master_admin")
	cust := bearer(t, "cust-1", "customer")

	var data struct {
		Settings models.Settings `json:"settings"`
	}
	w := ts.do(t, http.MethodGet, "/api/v1/settings", cust, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	assert.Equal(t, "22:30", data.Settings.CutoffTime)

	body := map[string]any{"cutoffTime": "9:30", "finishedOrderVisibility": 12, "deliveryFee": 25, "freeDeliveryAbove": 399}
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, "/api/v1/settings", bearer(t, "sub", "sub_admin"), body).Code)

	w = ts.do(t, http.MethodPut, "/api/v1/settings", admin, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, ts.settings.saved)
	assert.Equal(t, "09:30", ts.settings.saved.CutoffTime)

	// The 09:00 order's window now closes at 09:30.
	var win struct {
		CanCancel bool `json:"canCancel"`
	}
	w = ts.do(t, http.MethodGet, "/api/v1/orders/"+o.ID.Hex()+"/cancel-window", cust, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &win)
	assert.False(t, win.CanCancel)
}

func TestSettingsRejectsBadCutoff(t *testing.T) {
	ts := newTestServer(t, at(10, 0))
	admin := bearer(t, "admin-1", "master_admin")

	for _, cutoff := range []string{"25:00", "noon", ""} {
		w := ts.do(t, http.MethodPut, "/api/v1/settings", admin, map[string]any{"cutoffTime": cutoff})
		assert.Equal(t, http.StatusBadRequest, w.Code, cutoff)
	}
	assert.Nil(t, ts.settings.saved)
}

func TestStoredInvalidCutoffFallsBack(t *testing.T) {
	s := &StoreSettings{Repo: &fakeSettings{saved: &models.Settings{CutoffTime: "late"}}, Defaults: models.Settings{CutoffTime: "22:30"}}
	assert.Equal(t, "22:30", s.Current(t.Context()).CutoffTime)
	assert.Equal(t, 22, s.Policy(t.Context()).Cutoff.Hour)
}
