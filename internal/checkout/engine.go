package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/google/uuid"
)

// Engine converts a cart into one immutable order per warung: it re-prices
// every line from the catalog, checks stock under row locks, writes orders,
// order lines and stock decrements in one transaction, and publishes one
// OrderCreated event per order after commit.
type Engine struct {
	Store   Store
	Pub     Publisher
	Service string
}

// LocalItem is one client-asserted cart line. Both the unit price and the
// grand total asserted by the client are cross-checked against the catalog.
type LocalItem struct {
	ProdukID         string
	Jumlah           int
	HargaSatuanCents int64
}

type OrderSummary struct {
	OrderID    string
	WarungID   string
	WarungNama string
	TotalCents int64
	Pemesan    string
}

// line is a validated cart line with its locked catalog row.
type line struct {
	produk market.Product
	jumlah int
}

// PlaceCartOrder checks out the buyer's server-side cart. Items are grouped
// per warung, so a mixed cart yields multiple orders in one call. On success
// the cart is cleared.
func (e *Engine) PlaceCartOrder(ctx context.Context, buyer market.User, alamat string, initial market.Status) ([]OrderSummary, error) {
	if alamat == "" {
		return nil, market.ErrMissingAddress
	}
	if initial == "" {
		initial = market.StatusMenungguPembayaran
	}
	if !market.ValidStatus(initial) {
		return nil, market.ErrInvalidStatus
	}

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cart, err := tx.CartLines(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, market.ErrEmptyCart
	}

	// Lock rows in sorted product order so concurrent checkouts over the
	// same products cannot deadlock.
	sort.Slice(cart, func(i, j int) bool { return cart[i].ProdukID < cart[j].ProdukID })

	byWarung := map[string][]line{}
	for _, c := range cart {
		if c.Jumlah < 1 {
			return nil, fmt.Errorf("produk %s: %w", c.ProdukID, market.ErrInvalidQty)
		}
		p, err := tx.ProductForUpdate(ctx, c.ProdukID)
		if err != nil {
			return nil, err
		}
		if p.Stok < c.Jumlah {
			return nil, fmt.Errorf("stok produk %s tinggal %d: %w", p.Nama, p.Stok, market.ErrInsufficientStock)
		}
		byWarung[p.WarungID] = append(byWarung[p.WarungID], line{produk: p, jumlah: c.Jumlah})
	}

	warungIDs := make([]string, 0, len(byWarung))
	for id := range byWarung {
		warungIDs = append(warungIDs, id)
	}
	sort.Strings(warungIDs)

	summaries := make([]OrderSummary, 0, len(warungIDs))
	for _, wid := range warungIDs {
		sum, err := e.createOrder(ctx, tx, buyer, wid, byWarung[wid], alamat, initial)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}

	if err := tx.ClearCart(ctx, buyer.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e.publishAlerts(summaries)
	return summaries, nil
}

// PlaceLocalOrder checks out a client-supplied cart against a single warung.
// Every asserted unit price and the asserted grand total must match the
// catalog within tolerance.
func (e *Engine) PlaceLocalOrder(ctx context.Context, buyer market.User, warungID string, items []LocalItem, alamat string, assertedTotalCents int64) (OrderSummary, error) {
	if len(items) == 0 {
		return OrderSummary{}, market.ErrEmptyCart
	}
	if alamat == "" {
		return OrderSummary{}, market.ErrMissingAddress
	}
	if warungID == "" {
		return OrderSummary{}, market.ErrWarungNotFound
	}
	for _, it := range items {
		if it.Jumlah < 1 {
			return OrderSummary{}, fmt.Errorf("produk %s: %w", it.ProdukID, market.ErrInvalidQty)
		}
	}

	tx, err := e.Store.Begin(ctx)
	if err != nil {
		return OrderSummary{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Warung(ctx, warungID); err != nil {
		return OrderSummary{}, err
	}

	sorted := make([]LocalItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProdukID < sorted[j].ProdukID })

	lines := make([]line, 0, len(sorted))
	var totalCents int64
	for _, it := range sorted {
		p, err := tx.ProductForUpdate(ctx, it.ProdukID)
		if err != nil {
			return OrderSummary{}, err
		}
		if p.WarungID != warungID {
			return OrderSummary{}, fmt.Errorf("produk %s: %w", p.Nama, market.ErrProductMismatch)
		}
		if !market.WithinTolerance(p.HargaCents, it.HargaSatuanCents, market.PriceToleranceCents) {
			return OrderSummary{}, fmt.Errorf("produk %s: %w", p.Nama, market.ErrPriceMismatch)
		}
		if p.Stok < it.Jumlah {
			return OrderSummary{}, fmt.Errorf("stok produk %s tinggal %d: %w", p.Nama, p.Stok, market.ErrInsufficientStock)
		}
		lines = append(lines, line{produk: p, jumlah: it.Jumlah})
		totalCents += p.HargaCents * int64(it.Jumlah)
	}

	if !market.WithinTolerance(totalCents, assertedTotalCents, market.TotalToleranceCents) {
		return OrderSummary{}, fmt.Errorf("server %d, client %d: %w", totalCents, assertedTotalCents, market.ErrTotalMismatch)
	}

	sum, err := e.createOrder(ctx, tx, buyer, warungID, lines, alamat, market.StatusMenungguPembayaran)
	if err != nil {
		return OrderSummary{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return OrderSummary{}, err
	}

	e.publishAlerts([]OrderSummary{sum})
	return sum, nil
}

// createOrder writes one order with its lines and stock decrements. The
// total is recomputed here from the locked catalog rows; asserted values
// never reach storage.
func (e *Engine) createOrder(ctx context.Context, tx Tx, buyer market.User, warungID string, lines []line, alamat string, status market.Status) (OrderSummary, error) {
	w, err := tx.Warung(ctx, warungID)
	if err != nil {
		return OrderSummary{}, err
	}

	var totalCents int64
	for _, l := range lines {
		totalCents += l.produk.HargaCents * int64(l.jumlah)
	}

	o := market.Order{
		ID:               uuid.NewString(),
		UserID:           buyer.ID,
		WarungID:         warungID,
		Tanggal:          time.Now().UTC(),
		Status:           status,
		AlamatPengiriman: alamat,
		TotalCents:       totalCents,
	}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return OrderSummary{}, err
	}

	for _, l := range lines {
		it := market.OrderItem{
			OrderID:          o.ID,
			ProdukID:         l.produk.ID,
			Jumlah:           l.jumlah,
			HargaSatuanCents: l.produk.HargaCents,
		}
		if err := tx.InsertOrderItem(ctx, it); err != nil {
			return OrderSummary{}, err
		}
		if err := tx.DecrementStock(ctx, l.produk.ID, l.jumlah); err != nil {
			return OrderSummary{}, err
		}
	}

	return OrderSummary{
		OrderID:    o.ID,
		WarungID:   w.ID,
		WarungNama: w.Nama,
		TotalCents: totalCents,
		Pemesan:    buyer.Username,
	}, nil
}

// publishAlerts emits one OrderCreated envelope per order. It runs after
// commit; failures are logged and never surfaced to the buyer.
func (e *Engine) publishAlerts(summaries []OrderSummary) {
	if e.Pub == nil {
		return
	}
	for _, s := range summaries {
		alert := market.NewOrderAlert{
			PesananID:  s.OrderID,
			Pemesan:    s.Pemesan,
			TotalHarga: market.RupiahFromCents(s.TotalCents),
			WarungID:   s.WarungID,
			WarungNama: s.WarungNama,
		}
		payload, err := json.Marshal(alert)
		if err != nil {
			log.Printf("checkout: marshal alert: %v", err)
			continue
		}
		env := market.Envelope{
			EventID:       uuid.NewString(),
			EventType:     market.EventOrderCreated,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      e.Service,
			CorrelationID: s.OrderID,
			Payload:       payload,
		}
		value, err := json.Marshal(env)
		if err != nil {
			log.Printf("checkout: marshal envelope: %v", err)
			continue
		}
		e.Pub.Publish(market.TopicOrderCreated, market.PartitionKey(s.OrderID), value)
	}
}
