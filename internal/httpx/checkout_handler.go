package httpx

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/checkout"
	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	Engine *checkout.Engine
}

func (h *CheckoutHandler) Register(r *chi.Mux, authed func(http.Handler) http.Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(authed)
		pr.Post("/api/keranjang/checkout", h.checkoutCart)
		pr.Post("/api/checkout/local", h.checkoutLocal)
	})
}

// checkoutCart converts the buyer's server-side cart, split per warung.
func (h *CheckoutHandler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		ShippingAddress string `json:"shipping_address"`
		Status          string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	summaries, err := h.Engine.PlaceCartOrder(ctx, user, req.ShippingAddress, market.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	pesanan := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		pesanan = append(pesanan, map[string]any{
			"pesanan_id":  s.OrderID,
			"warung_id":   s.WarungID,
			"total_harga": market.RupiahFromCents(s.TotalCents),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%d pesanan berhasil dibuat.", len(summaries)),
		"pesanan": pesanan,
	})
}

type localItemReq struct {
	ProdukID    string   `json:"produk_id"`
	Jumlah      *int     `json:"jumlah"`
	HargaSatuan *float64 `json:"harga_satuan"`
}

// checkoutLocal converts a client-supplied cart for one warung. Every
// asserted price is re-validated before anything is written.
func (h *CheckoutHandler) checkoutLocal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		Items            []localItemReq `json:"items"`
		AlamatPengiriman string         `json:"alamat_pengiriman"`
		WarungID         string         `json:"warung_id"`
		TotalHarga       float64        `json:"total_harga"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLocalError(w, http.StatusBadRequest, "Data tidak valid")
		return
	}

	items := make([]checkout.LocalItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProdukID == "" || it.Jumlah == nil || it.HargaSatuan == nil {
			writeLocalError(w, http.StatusBadRequest, "Data item tidak lengkap")
			return
		}
		items = append(items, checkout.LocalItem{
			ProdukID:         it.ProdukID,
			Jumlah:           *it.Jumlah,
			HargaSatuanCents: market.CentsFromRupiah(*it.HargaSatuan),
		})
	}

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	sum, err := h.Engine.PlaceLocalOrder(ctx, user, req.WarungID, items, req.AlamatPengiriman,
		market.CentsFromRupiah(req.TotalHarga))
	if err != nil {
		code := statusFor(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			log.Printf("checkout local: %v", err)
			msg = "Terjadi kesalahan saat memproses pesanan"
		}
		writeLocalError(w, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Pesanan berhasil dibuat",
		"pesanan_id":  sum.OrderID,
		"total_harga": market.RupiahFromCents(sum.TotalCents),
	})
}

func writeLocalError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "message": msg})
}
