package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/warung-market.git/internal/market"
)

// memStore serializes transactions with a mutex, the same guarantee row
// locks give the real store for a single contended product set.
type memStore struct {
	mu       sync.Mutex
	products map[string]*market.Product
	warungs  map[string]market.Warung
	carts    map[string][]market.CartLine
	orders   []market.Order
	items    []market.OrderItem
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*market.Product{},
		warungs:  map[string]market.Warung{},
		carts:    map[string][]market.CartLine{},
	}
}

func (s *memStore) addWarung(id, nama string) {
	s.warungs[id] = market.Warung{ID: id, Nama: nama, PemilikID: "owner-" + id}
}

func (s *memStore) addProduct(id, warungID string, hargaCents int64, stok int) {
	s.products[id] = &market.Product{ID: id, WarungID: warungID, Nama: "produk " + id, HargaCents: hargaCents, Stok: stok}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, undo: s.snapshot()}, nil
}

type snapshot struct {
	products map[string]market.Product
	carts    map[string][]market.CartLine
	nOrders  int
	nItems   int
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		products: map[string]market.Product{},
		carts:    map[string][]market.CartLine{},
		nOrders:  len(s.orders),
		nItems:   len(s.items),
	}
	for id, p := range s.products {
		snap.products[id] = *p
	}
	for uid, lines := range s.carts {
		snap.carts[uid] = append([]market.CartLine(nil), lines...)
	}
	return snap
}

type memTx struct {
	store *memStore
	undo  snapshot
	done  bool
}

func (t *memTx) CartLines(ctx context.Context, userID string) ([]market.CartLine, error) {
	return append([]market.CartLine(nil), t.store.carts[userID]...), nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, produkID string) (market.Product, error) {
	p, ok := t.store.products[produkID]
	if !ok {
		return market.Product{}, fmt.Errorf("produk %s: %w", produkID, market.ErrProductNotFound)
	}
	return *p, nil
}

func (t *memTx) Warung(ctx context.Context, warungID string) (market.Warung, error) {
	w, ok := t.store.warungs[warungID]
	if !ok {
		return market.Warung{}, market.ErrWarungNotFound
	}
	return w, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o market.Order) error {
	t.store.orders = append(t.store.orders, o)
	return nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, it market.OrderItem) error {
	t.store.items = append(t.store.items, it)
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, produkID string, jumlah int) error {
	p, ok := t.store.products[produkID]
	if !ok || p.Stok < jumlah {
		return market.ErrInsufficientStock
	}
	p.Stok -= jumlah
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string) error {
	delete(t.store.carts, userID)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	s := t.store
	s.products = map[string]*market.Product{}
	for id, p := range t.undo.products {
		cp := p
		s.products[id] = &cp
	}
	s.carts = t.undo.carts
	s.orders = s.orders[:t.undo.nOrders]
	s.items = s.items[:t.undo.nItems]
	s.mu.Unlock()
	return nil
}

// fakePub captures published messages.
type fakePub struct {
	mu   sync.Mutex
	msgs []market.Envelope
}

func (p *fakePub) Publish(topic string, key, value []byte) {
	var env market.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		panic(err)
	}
	p.mu.Lock()
	p.msgs = append(p.msgs, env)
	p.mu.Unlock()
}

func (p *fakePub) alerts(t *testing.T) []market.NewOrderAlert {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]market.NewOrderAlert, 0, len(p.msgs))
	for _, env := range p.msgs {
		var a market.NewOrderAlert
		require.NoError(t, json.Unmarshal(env.Payload, &a))
		out = append(out, a)
	}
	return out
}

var buyer = market.User{ID: "user-1", Username: "budi"}

func TestPlaceCartOrderSplitsPerWarung(t *testing.T) {
	store := newMemStore()
	store.addWarung("w-a", "Warung Bu Sri")
	store.addWarung("w-b", "Warung Pak Joko")
	store.addProduct("p-1", "w-a", 150000, 10) // Rp 1500
	store.addProduct("p-2", "w-a", 250000, 5)
	store.addProduct("p-3", "w-b", 100000, 3)
	store.carts[buyer.ID] = []market.CartLine{
		{UserID: buyer.ID, ProdukID: "p-3", Jumlah: 2},
		{UserID: buyer.ID, ProdukID: "p-1", Jumlah: 3},
		{UserID: buyer.ID, ProdukID: "p-2", Jumlah: 1},
	}

	pub := &fakePub{}
	eng := &Engine{Store: store, Pub: pub, Service: "warung-api"}

	summaries, err := eng.PlaceCartOrder(context.Background(), buyer, "Jl. Merdeka 1", "")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Orders come out in warung id order.
	assert.Equal(t, "w-a", summaries[0].WarungID)
	assert.Equal(t, int64(3*150000+1*250000), summaries[0].TotalCents)
	assert.Equal(t, "w-b", summaries[1].WarungID)
	assert.Equal(t, int64(2*100000), summaries[1].TotalCents)

	require.Len(t, store.orders, 2)
	for _, o := range store.orders {
		assert.Equal(t, market.StatusMenungguPembayaran, o.Status)
		assert.Equal(t, "Jl. Merdeka 1", o.AlamatPengiriman)
	}

	// Order totals always equal the sum of their frozen lines.
	byOrder := map[string]int64{}
	for _, it := range store.items {
		byOrder[it.OrderID] += it.HargaSatuanCents * int64(it.Jumlah)
	}
	for _, o := range store.orders {
		assert.Equal(t, o.TotalCents, byOrder[o.ID])
	}

	assert.Equal(t, 7, store.products["p-1"].Stok)
	assert.Equal(t, 4, store.products["p-2"].Stok)
	assert.Equal(t, 1, store.products["p-3"].Stok)
	assert.Empty(t, store.carts[buyer.ID])

	alerts := pub.alerts(t)
	require.Len(t, alerts, 2)
	assert.Equal(t, "budi", alerts[0].Pemesan)
	assert.Equal(t, "Warung Bu Sri", alerts[0].WarungNama)
	assert.InDelta(t, 7000.0, alerts[0].TotalHarga, 0.001)
	assert.Equal(t, "w-b", alerts[1].WarungID)
	for _, env := range pub.msgs {
		assert.Equal(t, market.EventOrderCreated, env.EventType)
		assert.Equal(t, "warung-api", env.Producer)
	}
}

func TestPlaceCartOrderValidation(t *testing.T) {
	store := newMemStore()
	eng := &Engine{Store: store}

	_, err := eng.PlaceCartOrder(context.Background(), buyer, "", "")
	assert.ErrorIs(t, err, market.ErrMissingAddress)

	_, err = eng.PlaceCartOrder(context.Background(), buyer, "Jl. Merdeka 1", "Terkirim Entah")
	assert.ErrorIs(t, err, market.ErrInvalidStatus)

	_, err = eng.PlaceCartOrder(context.Background(), buyer, "Jl. Merdeka 1", "")
	assert.ErrorIs(t, err, market.ErrEmptyCart)
}

func TestPlaceCartOrderInsufficientStockRollsBack(t *testing.T) {
	store := newMemStore()
	store.addWarung("w-a", "Warung Bu Sri")
	store.addProduct("p-1", "w-a", 150000, 10)
	store.addProduct("p-2", "w-a", 250000, 1)
	store.carts[buyer.ID] = []market.CartLine{
		{UserID: buyer.ID, ProdukID: "p-1", Jumlah: 2},
		{UserID: buyer.ID, ProdukID: "p-2", Jumlah: 5},
	}

	pub := &fakePub{}
	eng := &Engine{Store: store, Pub: pub}

	_, err := eng.PlaceCartOrder(context.Background(), buyer, "Jl. Merdeka 1", "")
	assert.ErrorIs(t, err, market.ErrInsufficientStock)

	assert.Equal(t, 10, store.products["p-1"].Stok)
	assert.Equal(t, 1, store.products["p-2"].Stok)
	assert.Empty(t, store.orders)
	assert.Len(t, store.carts[buyer.ID], 2)
	assert.Empty(t, pub.msgs)
}

func TestPlaceLocalOrder(t *testing.T) {
	store := newMemStore()
	store.addWarung("w-a", "Warung Bu Sri")
	store.addProduct("p-1", "w-a", 150000, 10)
	store.addProduct("p-2", "w-a", 80000, 4)

	pub := &fakePub{}
	eng := &Engine{Store: store, Pub: pub, Service: "warung-api"}

	items := []LocalItem{
		{ProdukID: "p-1", Jumlah: 2, HargaSatuanCents: 150000},
		{ProdukID: "p-2", Jumlah: 1, HargaSatuanCents: 80000},
	}
	sum, err := eng.PlaceLocalOrder(context.Background(), buyer, "w-a", items, "Jl. Merdeka 1", 380000)
	require.NoError(t, err)

	assert.Equal(t, int64(380000), sum.TotalCents)
	assert.Equal(t, "Warung Bu Sri", sum.WarungNama)
	require.Len(t, store.orders, 1)
	assert.Equal(t, market.StatusMenungguPembayaran, store.orders[0].Status)
	require.Len(t, store.items, 2)
	assert.Equal(t, int64(150000), store.items[0].HargaSatuanCents)
	assert.Equal(t, 8, store.products["p-1"].Stok)
	assert.Equal(t, 3, store.products["p-2"].Stok)
	require.Len(t, pub.msgs, 1)
}

func TestPlaceLocalOrderTolerances(t *testing.T) {
	store := newMemStore()
	store.addWarung("w-a", "Warung Bu Sri")
	store.addProduct("p-1", "w-a", 150000, 10)

	eng := &Engine{Store: store}

	// One cent off on the unit price and one rupiah off on the total both
	// pass; they are rounding noise from decimal JSON.
	items := []LocalItem{{ProdukID: "p-1", Jumlah: 2, HargaSatuanCents: 149999}}
	_, err := eng.PlaceLocalOrder(context.Background(), buyer, "w-a", items, "Jl. Merdeka 1", 300000-100)
	require.NoError(t, err)
}

func TestPlaceLocalOrderMismatchesLeaveStoreUntouched(t *testing.T) {
	cases := []struct {
		name     string
		items    []LocalItem
		asserted int64
		wantErr  error
	}{
		{
			name:     "price drift beyond tolerance",
			items:    []LocalItem{{ProdukID: "p-1", Jumlah: 1, HargaSatuanCents: 150002}},
			asserted: 150002,
			wantErr:  market.ErrPriceMismatch,
		},
		{
			name:     "total drift beyond tolerance",
			items:    []LocalItem{{ProdukID: "p-1", Jumlah: 2, HargaSatuanCents: 150000}},
			asserted: 300000 - 101,
			wantErr:  market.ErrTotalMismatch,
		},
		{
			name:     "product from another warung",
			items:    []LocalItem{{ProdukID: "p-9", Jumlah: 1, HargaSatuanCents: 50000}},
			asserted: 50000,
			wantErr:  market.ErrProductMismatch,
		},
		{
			name:     "zero quantity",
			items:    []LocalItem{{ProdukID: "p-1", Jumlah: 0, HargaSatuanCents: 150000}},
			asserted: 0,
			wantErr:  market.ErrInvalidQty,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			store.addWarung("w-a", "Warung Bu Sri")
			store.addWarung("w-b", "Warung Pak Joko")
			store.addProduct("p-1", "w-a", 150000, 10)
			store.addProduct("p-9", "w-b", 50000, 10)

			pub := &fakePub{}
			eng := &Engine{Store: store, Pub: pub}

			_, err := eng.PlaceLocalOrder(context.Background(), buyer, "w-a", tc.items, "Jl. Merdeka 1", tc.asserted)
			assert.ErrorIs(t, err, tc.wantErr)

			assert.Equal(t, 10, store.products["p-1"].Stok)
			assert.Empty(t, store.orders)
			assert.Empty(t, store.items)
			assert.Empty(t, pub.msgs)
		})
	}
}

func TestPlaceLocalOrderUnknownWarung(t *testing.T) {
	store := newMemStore()
	eng := &Engine{Store: store}

	items := []LocalItem{{ProdukID: "p-1", Jumlah: 1, HargaSatuanCents: 100}}
	_, err := eng.PlaceLocalOrder(context.Background(), buyer, "w-hilang", items, "Jl. Merdeka 1", 100)
	assert.ErrorIs(t, err, market.ErrWarungNotFound)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	store := newMemStore()
	store.addWarung("w-a", "Warung Bu Sri")
	store.addProduct("p-1", "w-a", 150000, 5)

	pub := &fakePub{}
	eng := &Engine{Store: store, Pub: pub}

	const attempts = 20
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u := market.User{ID: fmt.Sprintf("user-%d", n), Username: fmt.Sprintf("u%d", n)}
			items := []LocalItem{{ProdukID: "p-1", Jumlah: 1, HargaSatuanCents: 150000}}
			_, err := eng.PlaceLocalOrder(context.Background(), u, "w-a", items, "Jl. Merdeka 1", 150000)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, soldOut int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, market.ErrInsufficientStock)
			soldOut++
		}
	}

	assert.Equal(t, 5, ok)
	assert.Equal(t, attempts-5, soldOut)
	assert.Equal(t, 0, store.products["p-1"].Stok)
	assert.Len(t, store.orders, 5)
	assert.Len(t, pub.msgs, 5)
}
