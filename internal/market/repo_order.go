package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepo reads orders and drives the status machine. Order creation lives
// in the checkout engine, never here.
type OrderRepo struct{ DB *pgxpool.Pool }

// UpdateStatus sets an order's status if the value is in the closed status
// set and the caller owns the warung the order belongs to. It is the only
// mutation an order admits after creation.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID, callerID string, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}

	var pemilikID string
	err := r.DB.QueryRow(ctx, `
		SELECT w.pemilik_id
		FROM orders o JOIN warungs w ON w.id = o.warung_id
		WHERE o.id=$1`, orderID).Scan(&pemilikID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if pemilikID != callerID {
		return ErrUnauthorized
	}

	_, err = r.DB.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, status)
	return err
}

type OrderDetail struct {
	ProdukNama       string
	Jumlah           int
	HargaSatuanCents int64
}

type OrderHistory struct {
	Order
	Pemesan string
	Details []OrderDetail
}

// BuyerHistory lists the buyer's orders, newest first, with their lines.
func (r *OrderRepo) BuyerHistory(ctx context.Context, userID string) ([]OrderHistory, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, o.warung_id, o.tanggal, o.status, COALESCE(o.alamat_pengiriman,''), o.total_cents, u.username
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.user_id=$1 ORDER BY o.tanggal DESC`, userID)
	if err != nil {
		return nil, err
	}
	out, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachDetails(ctx, out)
}

// WarungOrders lists every order received by one warung, newest first.
// Ownership of the warung is checked by the caller.
func (r *OrderRepo) WarungOrders(ctx context.Context, warungID string) ([]OrderHistory, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, o.warung_id, o.tanggal, o.status, COALESCE(o.alamat_pengiriman,''), o.total_cents, u.username
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.warung_id=$1 ORDER BY o.tanggal DESC`, warungID)
	if err != nil {
		return nil, err
	}
	out, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachDetails(ctx, out)
}

func scanOrders(rows pgx.Rows) ([]OrderHistory, error) {
	defer rows.Close()
	var out []OrderHistory
	for rows.Next() {
		var h OrderHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.WarungID, &h.Tanggal, &h.Status, &h.AlamatPengiriman, &h.TotalCents, &h.Pemesan); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *OrderRepo) attachDetails(ctx context.Context, orders []OrderHistory) ([]OrderHistory, error) {
	for i := range orders {
		rows, err := r.DB.Query(ctx, `
			SELECT COALESCE(p.nama,'Produk tidak ditemukan'), oi.jumlah, oi.harga_satuan_cents
			FROM order_items oi LEFT JOIN products p ON p.id = oi.produk_id
			WHERE oi.order_id=$1 ORDER BY oi.id`, orders[i].ID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var d OrderDetail
			if err := rows.Scan(&d.ProdukNama, &d.Jumlah, &d.HargaSatuanCents); err != nil {
				rows.Close()
				return nil, err
			}
			orders[i].Details = append(orders[i].Details, d)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type ProductSales struct {
	ProdukNama           string
	TotalJumlah          int
	TotalPendapatanCents int64
}

type WarungDashboard struct {
	WarungID             string
	WarungNama           string
	TotalPesanan         int
	TotalPendapatanCents int64
	PenjualanPerProduk   []ProductSales
}

// DashboardByOwner aggregates sales for every warung the owner has.
func (r *OrderRepo) DashboardByOwner(ctx context.Context, ownerID string) ([]WarungDashboard, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT w.id, w.nama,
		       COUNT(o.id),
		       COALESCE(SUM(o.total_cents), 0)
		FROM warungs w
		LEFT JOIN orders o ON o.warung_id = w.id
		WHERE w.pemilik_id=$1
		GROUP BY w.id, w.nama
		ORDER BY w.nama`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WarungDashboard
	for rows.Next() {
		var d WarungDashboard
		if err := rows.Scan(&d.WarungID, &d.WarungNama, &d.TotalPesanan, &d.TotalPendapatanCents); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		sales, err := r.productSales(ctx, out[i].WarungID)
		if err != nil {
			return nil, err
		}
		out[i].PenjualanPerProduk = sales
	}
	return out, nil
}

func (r *OrderRepo) productSales(ctx context.Context, warungID string) ([]ProductSales, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT COALESCE(p.nama,'Produk tidak ditemukan'),
		       SUM(oi.jumlah),
		       SUM(oi.jumlah * oi.harga_satuan_cents)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		LEFT JOIN products p ON p.id = oi.produk_id
		WHERE o.warung_id=$1
		GROUP BY p.nama
		ORDER BY p.nama`, warungID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.ProdukNama, &s.TotalJumlah, &s.TotalPendapatanCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// WalletSummary counts completed orders and their revenue across all of the
// owner's warungs.
func (r *OrderRepo) WalletSummary(ctx context.Context, ownerID string) (int, int64, error) {
	var n int
	var revenueCents int64
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(o.id), COALESCE(SUM(o.total_cents), 0)
		FROM orders o JOIN warungs w ON w.id = o.warung_id
		WHERE w.pemilik_id=$1 AND o.status=$2`, ownerID, StatusSelesai).
		Scan(&n, &revenueCents)
	return n, revenueCents, err
}
