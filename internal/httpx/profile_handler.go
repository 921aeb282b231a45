package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

// ProfileStore is the slice of the user store the profile endpoints need.
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (market.User, error)
	UpdateUser(ctx context.Context, u market.User) error
}

type ProfileHandler struct {
	Users ProfileStore
}

func (h *ProfileHandler) Register(r *chi.Mux, authed func(http.Handler) http.Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(authed)
		pr.Get("/api/profile", h.view)
		pr.Put("/api/profile", h.update)
		pr.Patch("/api/profile", h.update)
	})
}

func userData(u market.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"nama_lengkap": u.NamaLengkap,
		"bio":          u.Bio,
		"avatar_url":   u.AvatarURL,
	}
}

func (h *ProfileHandler) view(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_data": userData(u)})
}

// update applies the fields present in the body and leaves the rest alone.
// Email is tied to the external credential service and never changes here.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req struct {
		Username    *string `json:"username"`
		NamaLengkap *string `json:"nama_lengkap"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	ctx, cancel := timeoutCtx(r, 3*time.Second)
	defer cancel()

	u, err := h.Users.GetUser(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Username != nil {
		if *req.Username == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "username tidak boleh kosong"})
			return
		}
		u.Username = *req.Username
	}
	if req.NamaLengkap != nil {
		u.NamaLengkap = *req.NamaLengkap
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}

	if err := h.Users.UpdateUser(ctx, u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "User profile updated successfully!",
		"user_data": userData(u),
	})
}
