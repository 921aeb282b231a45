package market

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepo is the cart store. Checkout consumes and clears it inside its own
// transaction; this repo only handles the browsing-side mutations.
type CartRepo struct{ DB *pgxpool.Pool }

// Add upserts one cart line. The ON CONFLICT arm makes concurrent adds of
// the same (user, product) pair increment instead of losing updates.
func (r *CartRepo) Add(ctx context.Context, userID, produkID string, jumlah int) error {
	if jumlah < 1 {
		return ErrInvalidQty
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(id, user_id, produk_id, jumlah)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, produk_id)
		DO UPDATE SET jumlah = cart_items.jumlah + EXCLUDED.jumlah`,
		uuid.NewString(), userID, produkID, jumlah)
	return err
}

// CartView is one line of the cart as shown to the buyer, priced from the
// current catalog.
type CartView struct {
	ProdukID         string
	NamaProduk       string
	HargaSatuanCents int64
	Jumlah           int
	SubtotalCents    int64
}

func (r *CartRepo) View(ctx context.Context, userID string) ([]CartView, int64, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.nama, p.harga_cents, c.jumlah
		FROM cart_items c JOIN products p ON p.id = c.produk_id
		WHERE c.user_id=$1 ORDER BY p.nama`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []CartView
	var totalCents int64
	for rows.Next() {
		var v CartView
		if err := rows.Scan(&v.ProdukID, &v.NamaProduk, &v.HargaSatuanCents, &v.Jumlah); err != nil {
			return nil, 0, err
		}
		v.SubtotalCents = v.HargaSatuanCents * int64(v.Jumlah)
		totalCents += v.SubtotalCents
		out = append(out, v)
	}
	return out, totalCents, rows.Err()
}
