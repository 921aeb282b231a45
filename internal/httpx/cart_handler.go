package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

// CartStore is the cart surface the handler needs. Add must increment the
// line when the (user, product) pair already exists.
type CartStore interface {
	Add(ctx context.Context, userID, produkID string, jumlah int) error
	View(ctx context.Context, userID string) ([]market.CartView, int64, error)
}

// ProductGetter reads one catalog row.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (market.Product, error)
}

type CartHandler struct {
	Cart    CartStore
	Catalog ProductGetter
}

func (h *CartHandler) Register(r *chi.Mux, authed func(http.Handler) http.Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(authed)
		pr.Post("/api/keranjang/add", h.add)
		pr.Get("/api/keranjang", h.view)
	})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		ProdukID string `json:"produk_id"`
		Jumlah   int    `json:"jumlah"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProdukID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	if req.Jumlah == 0 {
		req.Jumlah = 1
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, req.ProdukID)
	if err != nil {
		writeError(w, err)
		return
	}
	// Advisory check only; the authoritative one runs at checkout under a
	// row lock.
	if p.Stok < req.Jumlah {
		writeError(w, market.ErrInsufficientStock)
		return
	}

	if err := h.Cart.Add(ctx, user.ID, p.ID, req.Jumlah); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product added to cart successfully!"})
}

func (h *CartHandler) view(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	lines, totalCents, err := h.Cart.View(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{
			"produk_id":    l.ProdukID,
			"nama_produk":  l.NamaProduk,
			"harga_satuan": market.RupiahFromCents(l.HargaSatuanCents),
			"jumlah":       l.Jumlah,
			"subtotal":     market.RupiahFromCents(l.SubtotalCents),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keranjang":   out,
		"total_harga": market.RupiahFromCents(totalCents),
	})
}
