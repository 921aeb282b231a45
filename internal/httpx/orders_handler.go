package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// OrderStore drives order reads and the status machine.
type OrderStore interface {
	UpdateStatus(ctx context.Context, orderID, callerID string, status market.Status) error
	BuyerHistory(ctx context.Context, userID string) ([]market.OrderHistory, error)
	WarungOrders(ctx context.Context, warungID string) ([]market.OrderHistory, error)
	DashboardByOwner(ctx context.Context, ownerID string) ([]market.WarungDashboard, error)
	WalletSummary(ctx context.Context, ownerID string) (int, int64, error)
}

// WarungGetter reads one warung row.
type WarungGetter interface {
	GetWarung(ctx context.Context, id string) (market.Warung, error)
}

type OrdersHandler struct {
	Orders  OrderStore
	Catalog WarungGetter
	Redis   *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux, authed func(http.Handler) http.Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(authed)
		pr.Get("/api/transaksi", h.buyerHistory)
		pr.Get("/api/warung/{id}/pesanan", h.warungOrders)
		pr.Put("/api/pesanan/{id}/status", h.updateStatus)
		pr.Get("/api/dashboard/warungs", h.dashboard)
		pr.Get("/api/wallet/summary", h.walletSummary)
	})
}

func historyView(o market.OrderHistory, withPemesan bool) map[string]any {
	details := make([]map[string]any, 0, len(o.Details))
	for _, d := range o.Details {
		details = append(details, map[string]any{
			"produk_nama":  d.ProdukNama,
			"jumlah":       d.Jumlah,
			"harga_satuan": market.RupiahFromCents(d.HargaSatuanCents),
		})
	}
	out := map[string]any{
		"pesanan_id":        o.ID,
		"tanggal":           o.Tanggal.Format(time.RFC3339),
		"status":            o.Status,
		"total_harga":       market.RupiahFromCents(o.TotalCents),
		"alamat_pengiriman": o.AlamatPengiriman,
		"detail_pesanan":    details,
	}
	if withPemesan {
		out["pemesan"] = o.Pemesan
	}
	return out
}

func (h *OrdersHandler) buyerHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	orders, err := h.Orders.BuyerHistory(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, historyView(o, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaksi_history": out})
}

// warungOrders returns one warung's incoming orders grouped by status.
func (h *OrdersHandler) warungOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	warung, err := h.Catalog.GetWarung(ctx, chi.URLParam(r, "id"))
	if err != nil || warung.PemilikID != user.ID {
		// Both cases hide whether the warung exists.
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Warung not found or unauthorized"})
		return
	}

	orders, err := h.Orders.WarungOrders(ctx, warung.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	byStatus := map[string][]map[string]any{}
	for _, o := range orders {
		s := string(o.Status)
		byStatus[s] = append(byStatus[s], historyView(o, true))
	}
	writeJSON(w, http.StatusOK, byStatus)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	status := market.Status(req.Status)
	if err := h.Orders.UpdateStatus(ctx, orderID, user.ID, status); err != nil {
		writeError(w, err)
		return
	}

	// Refresh the read cache; the row is already committed.
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		body, _ := json.Marshal(map[string]string{"status": string(status)})
		_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Status pesanan berhasil diupdate",
		"new_status": status,
	})
}

func (h *OrdersHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	boards, err := h.Orders.DashboardByOwner(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]any{}
	for _, b := range boards {
		sales := map[string]any{}
		for _, s := range b.PenjualanPerProduk {
			sales[s.ProdukNama] = map[string]any{
				"total_jumlah":     s.TotalJumlah,
				"total_pendapatan": market.RupiahFromCents(s.TotalPendapatanCents),
			}
		}
		out[b.WarungNama] = map[string]any{
			"warung_id":            b.WarungID,
			"total_pesanan":        b.TotalPesanan,
			"total_pendapatan":     market.RupiahFromCents(b.TotalPendapatanCents),
			"penjualan_per_produk": sales,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) walletSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	n, revenueCents, err := h.Orders.WalletSummary(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_transaksi":  n,
		"total_pendapatan": market.RupiahFromCents(revenueCents),
	})
}
