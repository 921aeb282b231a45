package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	Repo *market.Repo
}

func (h *CatalogHandler) Register(r *chi.Mux, authed func(http.Handler) http.Handler) {
	r.Get("/api/warung", h.listWarung)
	r.Get("/api/warung/{id}", h.getWarung)
	r.Get("/api/warung/{id}/produk", h.listProduk)
	r.Group(func(pr chi.Router) {
		pr.Use(authed)
		pr.Post("/api/warung", h.createWarung)
		pr.Put("/api/warung/{id}", h.updateWarung)
		pr.Delete("/api/warung/{id}", h.deleteWarung)
		pr.Get("/api/mywarung", h.myWarung)
		pr.Post("/api/produk", h.createProduk)
		pr.Put("/api/produk/{id}", h.updateProduk)
		pr.Delete("/api/produk/{id}", h.deleteProduk)
	})
}

type warungView struct {
	ID        string `json:"id"`
	Nama      string `json:"nama"`
	Deskripsi string `json:"deskripsi"`
	PemilikID string `json:"pemilik_id"`
}

type produkView struct {
	ID        string  `json:"id"`
	Nama      string  `json:"nama"`
	Deskripsi string  `json:"deskripsi"`
	Harga     float64 `json:"harga"`
	Stok      int     `json:"stok"`
	GambarURL string  `json:"gambar_url"`
	WarungID  string  `json:"warung_id,omitempty"`
}

func toProdukView(p market.Product) produkView {
	return produkView{
		ID:        p.ID,
		Nama:      p.Nama,
		Deskripsi: p.Deskripsi,
		Harga:     market.RupiahFromCents(p.HargaCents),
		Stok:      p.Stok,
		GambarURL: p.GambarURL,
		WarungID:  p.WarungID,
	}
}

func (h *CatalogHandler) createWarung(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		Nama      string `json:"nama"`
		Deskripsi string `json:"deskripsi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nama == "" || req.Deskripsi == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields: nama and deskripsi"})
		return
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	warung := market.Warung{Nama: req.Nama, Deskripsi: req.Deskripsi, PemilikID: user.ID}
	if err := h.Repo.CreateWarung(ctx, &warung); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Warung created successfully",
		"id":         warung.ID,
		"nama":       warung.Nama,
		"deskripsi":  warung.Deskripsi,
		"pemilik_id": warung.PemilikID,
	})
}

func (h *CatalogHandler) getWarung(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	warung, err := h.Repo.GetWarung(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	owner, err := h.Repo.GetUser(ctx, warung.PemilikID)
	if err != nil {
		writeError(w, err)
		return
	}
	products, err := h.Repo.ListProductsByWarung(ctx, warung.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]produkView, 0, len(products))
	for _, p := range products {
		v := toProdukView(p)
		v.WarungID = "" // implied by the parent object
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"warung": map[string]any{
			"id":        warung.ID,
			"nama":      warung.Nama,
			"deskripsi": warung.Deskripsi,
			"pemilik":   owner.Username,
			"produk":    views,
		},
	})
}

func (h *CatalogHandler) listWarung(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	listings, err := h.Repo.ListWarung(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		out = append(out, map[string]any{
			"id":        l.ID,
			"nama":      l.Nama,
			"deskripsi": l.Deskripsi,
			"pemilik":   l.PemilikUsername,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"warung": out})
}

func (h *CatalogHandler) myWarung(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	warungs, err := h.Repo.ListWarungByOwner(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]warungView, 0, len(warungs))
	for _, wr := range warungs {
		out = append(out, warungView{ID: wr.ID, Nama: wr.Nama, Deskripsi: wr.Deskripsi, PemilikID: wr.PemilikID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) updateWarung(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	warung, err := h.Repo.GetWarung(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if warung.PemilikID != user.ID {
		writeError(w, market.ErrUnauthorized)
		return
	}

	var req struct {
		Nama      *string `json:"nama"`
		Deskripsi *string `json:"deskripsi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	if req.Nama != nil {
		warung.Nama = *req.Nama
	}
	if req.Deskripsi != nil {
		warung.Deskripsi = *req.Deskripsi
	}
	if err := h.Repo.UpdateWarung(ctx, warung); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Warung updated successfully",
		"warung":  warungView{ID: warung.ID, Nama: warung.Nama, Deskripsi: warung.Deskripsi, PemilikID: warung.PemilikID},
	})
}

func (h *CatalogHandler) deleteWarung(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 5*time.Second)
	defer cancel()

	warung, err := h.Repo.GetWarung(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if warung.PemilikID != user.ID {
		writeError(w, market.ErrUnauthorized)
		return
	}
	if err := h.Repo.DeleteWarung(ctx, warung.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Warung and all its products deleted successfully"})
}

func (h *CatalogHandler) listProduk(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	products, err := h.Repo.ListProductsByWarung(ctx, chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, market.ErrWarungNotFound) {
		writeError(w, err)
		return
	}
	out := make([]produkView, 0, len(products))
	for _, p := range products {
		v := toProdukView(p)
		v.WarungID = ""
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) createProduk(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		WarungID  string   `json:"warung_id"`
		Nama      string   `json:"nama"`
		Deskripsi string   `json:"deskripsi"`
		Harga     *float64 `json:"harga"`
		Stok      *int     `json:"stok"`
		GambarURL string   `json:"gambar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.WarungID == "" || req.Nama == "" || req.Harga == nil || req.Stok == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
		return
	}
	if *req.Harga < 0 || *req.Stok < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "harga dan stok tidak boleh negatif"})
		return
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	warung, err := h.Repo.GetWarung(ctx, req.WarungID)
	if err != nil {
		writeError(w, err)
		return
	}
	if warung.PemilikID != user.ID {
		writeError(w, market.ErrUnauthorized)
		return
	}

	p := market.Product{
		WarungID:   warung.ID,
		Nama:       req.Nama,
		Deskripsi:  req.Deskripsi,
		HargaCents: market.CentsFromRupiah(*req.Harga),
		Stok:       *req.Stok,
		GambarURL:  req.GambarURL,
	}
	if err := h.Repo.CreateProduct(ctx, &p); err != nil {
		writeError(w, err)
		return
	}

	view := toProdukView(p)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Produk created successfully",
		"id":        view.ID,
		"nama":      view.Nama,
		"deskripsi": view.Deskripsi,
		"harga":     view.Harga,
		"stok":      view.Stok,
		"warung_id": view.WarungID,
	})
}

func (h *CatalogHandler) updateProduk(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		Nama      *string  `json:"nama"`
		Deskripsi *string  `json:"deskripsi"`
		Harga     *float64 `json:"harga"`
		Stok      *int     `json:"stok"`
		GambarURL *string  `json:"gambar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ownsProduct(r, p, user.ID); err != nil {
		writeError(w, err)
		return
	}

	if req.Nama != nil {
		p.Nama = *req.Nama
	}
	if req.Deskripsi != nil {
		p.Deskripsi = *req.Deskripsi
	}
	if req.Harga != nil {
		if *req.Harga < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "harga tidak boleh negatif"})
			return
		}
		p.HargaCents = market.CentsFromRupiah(*req.Harga)
	}
	if req.Stok != nil {
		if *req.Stok < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "stok tidak boleh negatif"})
			return
		}
		p.Stok = *req.Stok
	}
	if req.GambarURL != nil {
		p.GambarURL = *req.GambarURL
	}

	if err := h.Repo.UpdateProduct(ctx, p); err != nil {
		writeError(w, err)
		return
	}

	view := toProdukView(p)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Produk updated successfully",
		"id":        view.ID,
		"nama":      view.Nama,
		"deskripsi": view.Deskripsi,
		"harga":     view.Harga,
		"stok":      view.Stok,
		"warung_id": view.WarungID,
	})
}

func (h *CatalogHandler) deleteProduk(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.ownsProduct(r, p, user.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.DeleteProduct(ctx, p.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Produk deleted successfully"})
}

func (h *CatalogHandler) ownsProduct(r *http.Request, p market.Product, userID string) error {
	warung, err := h.Repo.GetWarung(r.Context(), p.WarungID)
	if err != nil {
		return err
	}
	if warung.PemilikID != userID {
		return market.ErrUnauthorized
	}
	return nil
}
