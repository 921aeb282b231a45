package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store over a pgx pool.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) CartLines(ctx context.Context, userID string) ([]market.CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, user_id, produk_id, jumlah, created_at
		FROM cart_items WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.CartLine
	for rows.Next() {
		var c market.CartLine
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProdukID, &c.Jumlah, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *pgTx) ProductForUpdate(ctx context.Context, produkID string) (market.Product, error) {
	var p market.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, warung_id, nama, COALESCE(deskripsi,''), harga_cents, stok, COALESCE(gambar_url,''), created_at, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, produkID).
		Scan(&p.ID, &p.WarungID, &p.Nama, &p.Deskripsi, &p.HargaCents, &p.Stok, &p.GambarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Product{}, fmt.Errorf("%s: %w", produkID, market.ErrProductNotFound)
	}
	return p, err
}

func (t *pgTx) Warung(ctx context.Context, warungID string) (market.Warung, error) {
	var w market.Warung
	err := t.tx.QueryRow(ctx, `
		SELECT id, nama, COALESCE(deskripsi,''), pemilik_id, created_at
		FROM warungs WHERE id=$1`, warungID).
		Scan(&w.ID, &w.Nama, &w.Deskripsi, &w.PemilikID, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.Warung{}, market.ErrWarungNotFound
	}
	return w, err
}

func (t *pgTx) InsertOrder(ctx context.Context, o market.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, warung_id, tanggal, status, alamat_pengiriman, total_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.UserID, o.WarungID, o.Tanggal, o.Status, o.AlamatPengiriman, o.TotalCents)
	return err
}

func (t *pgTx) InsertOrderItem(ctx context.Context, it market.OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(order_id, produk_id, jumlah, harga_satuan_cents)
		VALUES ($1,$2,$3,$4)`,
		it.OrderID, it.ProdukID, it.Jumlah, it.HargaSatuanCents)
	return err
}

func (t *pgTx) DecrementStock(ctx context.Context, produkID string, jumlah int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stok = stok - $2, updated_at = now()
		WHERE id=$1 AND stok >= $2`, produkID, jumlah)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%s: %w", produkID, market.ErrInsufficientStock)
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
