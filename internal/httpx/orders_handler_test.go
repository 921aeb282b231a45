package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/warung-market.git/internal/market"
)

// fakeOrders enforces the same gates as the SQL store: closed status set
// first, then existence, then warung ownership.
type fakeOrders struct {
	orders map[string]*market.Order // order id -> order
	owners map[string]string        // warung id -> owner id
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, orderID, callerID string, status market.Status) error {
	if !market.ValidStatus(status) {
		return market.ErrInvalidStatus
	}
	o, ok := f.orders[orderID]
	if !ok {
		return market.ErrOrderNotFound
	}
	if f.owners[o.WarungID] != callerID {
		return market.ErrUnauthorized
	}
	o.Status = status
	return nil
}

func (f *fakeOrders) BuyerHistory(ctx context.Context, userID string) ([]market.OrderHistory, error) {
	return nil, nil
}

func (f *fakeOrders) WarungOrders(ctx context.Context, warungID string) ([]market.OrderHistory, error) {
	return nil, nil
}

func (f *fakeOrders) DashboardByOwner(ctx context.Context, ownerID string) ([]market.WarungDashboard, error) {
	return nil, nil
}

func (f *fakeOrders) WalletSummary(ctx context.Context, ownerID string) (int, int64, error) {
	return 0, 0, nil
}

func (f *fakeOrders) GetWarung(ctx context.Context, id string) (market.Warung, error) {
	owner, ok := f.owners[id]
	if !ok {
		return market.Warung{}, market.ErrWarungNotFound
	}
	return market.Warung{ID: id, PemilikID: owner}, nil
}

func newOrdersServer(t *testing.T, orders *fakeOrders) http.Handler {
	t.Helper()
	h := &OrdersHandler{Orders: orders, Catalog: orders}
	v := fakeVerifier{users: map[string]market.User{
		"tok-pemilik": {ID: "owner-1", Username: "sri"},
		"tok-lain":    {ID: "user-2", Username: "joko"},
	}}
	r := NewRouter()
	h.Register(r, Authenticate(v))
	return r
}

func putStatus(t *testing.T, h http.Handler, token, orderID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/pesanan/"+orderID+"/status", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[string]*market.Order{
			"o-1": {ID: "o-1", WarungID: "w-a", Status: market.StatusMenungguPembayaran},
		},
		owners: map[string]string{"w-a": "owner-1"},
	}
}

func TestUpdateStatusByOwner(t *testing.T) {
	orders := sampleOrders()
	h := newOrdersServer(t, orders)

	rec := putStatus(t, h, "tok-pemilik", "o-1", `{"status": "Diproses"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Status pesanan berhasil diupdate")
	assert.Contains(t, rec.Body.String(), "Diproses")
	assert.Equal(t, market.StatusDiproses, orders.orders["o-1"].Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	orders := sampleOrders()
	h := newOrdersServer(t, orders)

	rec := putStatus(t, h, "tok-pemilik", "o-1", `{"status": "Terkirim Entah"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// Order keeps its old status.
	assert.Equal(t, market.StatusMenungguPembayaran, orders.orders["o-1"].Status)
}

func TestUpdateStatusOnlyWarungOwner(t *testing.T) {
	orders := sampleOrders()
	h := newOrdersServer(t, orders)

	rec := putStatus(t, h, "tok-lain", "o-1", `{"status": "Diproses"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, market.StatusMenungguPembayaran, orders.orders["o-1"].Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	orders := sampleOrders()
	h := newOrdersServer(t, orders)

	rec := putStatus(t, h, "tok-pemilik", "o-hilang", `{"status": "Diproses"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWarungOrdersHidesForeignWarung(t *testing.T) {
	orders := sampleOrders()
	h := newOrdersServer(t, orders)

	req := httptest.NewRequest(http.MethodGet, "/api/warung/w-a/pesanan", nil)
	req.Header.Set("Authorization", "Bearer tok-lain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Warung not found or unauthorized")
}
