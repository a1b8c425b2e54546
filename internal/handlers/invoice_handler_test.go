package handlers

import (
	"net/http"
	"testing"

	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceBody() map[string]any {
	return map[string]any{
		"customerName":   "Asha",
		"customerPhone":  "9000000001",
		"taxPercent":     5,
		"discount":       1,
		"deliveryCharge": 20,
		"items": []map[string]any{
			{"name": "Tomato", "category": "vegetables", "quantity": 2, "price": 10.005},
		},
	}
}

func TestCreateInvoiceRecomputesTotals(t *testing.T) {
	ts := newTestServer(t, at(10, 0))
	admin := bearer(t, "admin-1", "sub_admin")

	var data struct {
		Invoice models.Invoice `json:"invoice"`
	}
	w := ts.do(t, http.MethodPost, "/api/v1/invoices", admin, invoiceBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &data)

	inv := data.Invoice
	assert.Regexp(t, `^INV-\d{8}-\d{4}$`, inv.InvoiceNumber)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 20.01, inv.Items[0].Total)
	assert.Equal(t, 20.01, inv.Subtotal)
	assert.Equal(t, 1.0, inv.TaxAmount)
	assert.Equal(t, 40.01, inv.Total)
	assert.Len(t, ts.invoices.invoices, 1)
}

func TestPreviewInvoiceDoesNotPersist(t *testing.T) {
	ts := newTestServer(t, at(10, 0))

	var data struct {
		Invoice models.Invoice `json:"invoice"`
	}
	w := ts.do(t, http.MethodPost, "/api/v1/invoices/preview", bearer(t, "admin-1", "master_admin"), invoiceBody())
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	assert.Equal(t, 40.01, data.Invoice.Total)
	assert.Empty(t, data.Invoice.InvoiceNumber)
	assert.Empty(t, ts.invoices.invoices)
}

func TestCreateInvoiceValidation(t *testing.T) {
	ts := newTestServer(t, at(10, 0))
	admin := bearer(t, "admin-1", "master_admin")

	noItems := invoiceBody()
	noItems["items"] = []map[string]any{}
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/v1/invoices", admin, noItems).Code)

	badTax := invoiceBody()
	badTax["taxPercent"] = 150
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/v1/invoices", admin, badTax).Code)

	assert.Equal(t, http.StatusForbidden,
		ts.do(t, http.MethodPost, "/api/v1/invoices", bearer(t, "rider-1", "delivery"), invoiceBody()).Code)
}

func TestCreateInvoiceRetriesOnNumberCollision(t *testing.T) {
	ts := newTestServer(t, at(10, 0))
	shadow := invoicing.NewGenerator(ist, 7)
	first := shadow.Next()
	ts.invoices.taken[first] = true

	var data struct {
		Invoice models.Invoice `json:"invoice"`
	}
	w := ts.do(t, http.MethodPost, "/api/v1/invoices", bearer(t, "admin-1", "master_admin"), invoiceBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &data)
	assert.NotEqual(t, first, data.Invoice.InvoiceNumber)
	assert.Equal(t, shadow.Next(), data.Invoice.InvoiceNumber)
}

func TestCreateInvoiceFromOrder(t *testing.T) {
	o := placedOrder("cust-1", at(9, 0))
	o.DeliveryFee = 30
	o.DiscountAmount = 10
	cancelled := placedOrder("cust-2", at(9, 0))
	cancelled.Status = "canceled"
	ts := newTestServer(t, at(10, 0), o, cancelled)
	admin := bearer(t, "admin-1", "master_admin")

	var data struct {
		Invoice models.Invoice `json:"invoice"`
	}
	w := ts.do(t, http.MethodPost, "/api/v1/invoices/from-order/"+o.ID.Hex(), admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &data)
	require.NotNil(t, data.Invoice.OrderRef)
	assert.Equal(t, o.ID, *data.Invoice.OrderRef)
	assert.Equal(t, "Asha", data.Invoice.CustomerName)
	assert.Equal(t, 120.0, data.Invoice.Subtotal)
	assert.Equal(t, 140.0, data.Invoice.Total)

	w = ts.do(t, http.MethodPost, "/api/v1/invoices/from-order/"+cancelled.ID.Hex(), admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateInvoiceRecomputes(t *testing.T) {
	ts := newTestServer(t, at(10, 0))
	admin := bearer(t, "admin-1", "master_admin")

	var created struct {
		Invoice models.Invoice `json:"invoice"`
	}
	w := ts.do(t, http.MethodPost, "/api/v1/invoices", admin, invoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &created)

	body := invoiceBody()
	body["discount"] = 0
	body["deliveryCharge"] = 0
	w = ts.do(t, http.MethodPut, "/api/v1/invoices/"+created.Invoice.ID.Hex(), admin, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := ts.invoices.invoices[created.Invoice.ID]
	assert.Equal(t, 21.01, stored.Total)
	assert.Equal(t, created.Invoice.InvoiceNumber, stored.InvoiceNumber)

	w = ts.do(t, http.MethodGet, "/api/v1/invoices/"+created.Invoice.ID.Hex(), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
