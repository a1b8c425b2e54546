package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/feed"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeOrders struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]models.Order
	events feed.Publisher
}

func newFakeOrders(events feed.Publisher, orders ...models.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[primitive.ObjectID]models.Order), events: events}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) notify(id primitive.ObjectID) {
	if f.events != nil {
		f.events.Publish(feed.Event{Kind: "update", OrderID: id.Hex()})
	}
}

func (f *fakeOrders) Create(_ context.Context, o models.Order) (models.Order, error) {
	f.mu.Lock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	f.orders[o.ID] = o
	f.mu.Unlock()
	f.notify(o.ID)
	return o, nil
}

func (f *fakeOrders) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if filter.UserID == "" || o.UserID == filter.UserID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) update(id primitive.ObjectID, fn func(*models.Order)) error {
	f.mu.Lock()
	o, ok := f.orders[id]
	if !ok {
		f.mu.Unlock()
		return repository.ErrNotFound
	}
	if o.NormalizedStatus().Terminal() {
		f.mu.Unlock()
		return repository.ErrTerminalOrder
	}
	fn(&o)
	f.orders[id] = o
	f.mu.Unlock()
	f.notify(id)
	return nil
}

func (f *fakeOrders) Cancel(_ context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return f.update(id, func(o *models.Order) {
		o.Status = string(models.StatusCancelled)
		o.CancellationReason = reason
		o.CancellationTime = &at
	})
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	return f.update(id, func(o *models.Order) { o.Status = string(status) })
}

func (f *fakeOrders) MarkDelivered(_ context.Context, id primitive.ObjectID, by string, at time.Time) error {
	return f.update(id, func(o *models.Order) {
		o.Status = string(models.StatusDelivered)
		o.DeliveredAt = &at
		o.DeliveredBy = by
	})
}

func (f *fakeOrders) SetPayment(_ context.Context, id primitive.ObjectID, paymentID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentID = paymentID
	o.PaymentStatus = status
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) get(id primitive.ObjectID) models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeInvoices struct {
	mu       sync.Mutex
	invoices map[primitive.ObjectID]models.Invoice
	taken    map[string]bool
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{invoices: map[primitive.ObjectID]models.Invoice{}, taken: map[string]bool{}}
}

func (f *fakeInvoices) Create(_ context.Context, inv models.Invoice) (models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken[inv.InvoiceNumber] {
		return models.Invoice{}, repository.ErrDuplicateInvoiceNumber
	}
	inv.ID = primitive.NewObjectID()
	f.taken[inv.InvoiceNumber] = true
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvoices) GetByID(_ context.Context, id primitive.ObjectID) (models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return models.Invoice{}, repository.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoices) List(_ context.Context, limit, skip int64) ([]models.Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Invoice{}
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvoices) Update(_ context.Context, inv models.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[inv.ID]; !ok {
		return repository.ErrNotFound
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeInvoices) ForEach(_ context.Context, fn func(models.Invoice) error) error {
	for _, inv := range f.invoices {
		if err := fn(inv); err != nil {
			return err
		}
	}
	return nil
}

type fakeSettings struct {
	mu    sync.Mutex
	saved *models.Settings
}

func (f *fakeSettings) Get(context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		return models.Settings{}, repository.ErrNotFound
	}
	return *f.saved, nil
}

func (f *fakeSettings) Save(_ context.Context, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = &s
	return nil
}

type fakeProducts struct {
	products map[primitive.ObjectID]models.Product
}

func (f *fakeProducts) List(_ context.Context, q repository.ProductQuery) ([]models.Product, int64, error) {
	out := []models.Product{}
	for _, p := range f.products {
		if q.ActiveOnly && p.Status != models.ProductStatusActive {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProducts) GetByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) Create(_ context.Context, p models.Product) (models.Product, error) {
	p.ID = primitive.NewObjectID()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, id primitive.ObjectID, in models.UpdateProductInput) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	f.products[id] = p
	return nil
}

type fakeCarts struct {
	carts map[string]models.Cart
}

func (f *fakeCarts) AddToCart(_ context.Context, uid string, item models.CartItem) error {
	cart := f.carts[uid]
	cart.UserID = uid
	cart.Items = append(cart.Items, item)
	f.carts[uid] = cart
	return nil
}

func (f *fakeCarts) RemoveFromCart(_ context.Context, uid, productID string) error { return nil }

func (f *fakeCarts) GetCart(_ context.Context, uid string) (models.Cart, error) {
	return f.carts[uid], nil
}

func (f *fakeCarts) UpdateQuantity(_ context.Context, uid, productID string, q float64) error {
	return nil
}

func (f *fakeCarts) ClearCart(_ context.Context, uid string) error {
	delete(f.carts, uid)
	return nil
}

type fakeStorage struct {
	names []string
}

func (f *fakeStorage) Upload(_ context.Context, r io.Reader, name string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.names = append(f.names, name)
	return "https://cdn.example/" + name, nil
}

var testSecret = []byte("handlers-test")

var ist = time.FixedZone("IST", 5*3600+1800)

type testServer struct {
	router   *gin.Engine
	orders   *fakeOrders
	invoices *fakeInvoices
	settings *fakeSettings
	products *fakeProducts
	carts    *fakeCarts
	storage  *fakeStorage
	hub      *feed.Hub
	// clock is read on the request goroutine; tests swap it between requests.
	clock func() time.Time
}

func newTestServer(t *testing.T, now time.Time, orders ...models.Order) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		hub:      feed.NewHub(),
		invoices: newFakeInvoices(),
		settings: &fakeSettings{},
		products: &fakeProducts{products: map[primitive.ObjectID]models.Product{}},
		carts:    &fakeCarts{carts: map[string]models.Cart{}},
		storage:  &fakeStorage{},
		clock:    func() time.Time { return now },
	}
	t.Cleanup(ts.hub.Close)
	ts.orders = newFakeOrders(ts.hub, orders...)

	deps := &Deps{
		Orders:   ts.orders,
		Invoices: ts.invoices,
		Products: ts.products,
		Carts:    ts.carts,
		Settings: &StoreSettings{
			Repo: ts.settings,
			Defaults: models.Settings{
				CutoffTime:              "22:30",
				FinishedOrderVisibility: 24,
				DeliveryFee:             30,
				FreeDeliveryAbove:       499,
			},
			Location: ist,
		},
		Feed:                ts.hub,
		Verifier:            utils.TokenVerifier{Secret: testSecret},
		Numbers:             invoicing.NewGenerator(ist, 7),
		Storage:             ts.storage,
		StripeWebhookSecret: "whsec_test",
		Now:                 func() time.Time { return ts.clock() },
		CountdownTick:       time.Millisecond,
	}
	ts.router = gin.New()
	SetupRoutes(ts.router, deps)
	return ts
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (ts *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func placedOrder(user string, at time.Time) models.Order {
	return models.Order{
		ID:         primitive.NewObjectID(),
		UserID:     user,
		Timestamp:  models.NewTimestamp(at),
		Date:       at.In(ist).Format(models.DateLayout),
		Status:     "Placed",
		GrandTotal: 120,
		CartItems:  []models.CartItem{{Title: "Spinach", Price: 40, Quantity: 3}},
		AddressInfo: models.AddressInfo{
			Name: "Asha", PhoneNumber: "9000000001", Address: "12 Lake Rd", Pincode: "560001",
		},
	}
}
