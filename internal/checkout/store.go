package checkout

import (
	"context"

	"github.com/ariefcatur/warung-market.git/internal/market"
)

// Store opens one unit of work per checkout call.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the checkout unit of work. Everything read or written through it
// happens inside one transaction; Commit or Rollback is called exactly once.
type Tx interface {
	// CartLines returns the buyer's persisted cart lines.
	CartLines(ctx context.Context, userID string) ([]market.CartLine, error)

	// ProductForUpdate reads a product with its row locked, so the stock
	// value seen here stays valid through DecrementStock.
	ProductForUpdate(ctx context.Context, produkID string) (market.Product, error)

	Warung(ctx context.Context, warungID string) (market.Warung, error)

	InsertOrder(ctx context.Context, o market.Order) error
	InsertOrderItem(ctx context.Context, it market.OrderItem) error
	DecrementStock(ctx context.Context, produkID string, jumlah int) error
	ClearCart(ctx context.Context, userID string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Publisher is the generic publish capability the engine fans events out
// through. Delivery is best-effort; implementations must not block the
// checkout response.
type Publisher interface {
	Publish(topic string, key, value []byte)
}
