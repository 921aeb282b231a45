package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ariefcatur/warung-market.git/internal/market"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP codes. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrProductNotFound),
		errors.Is(err, market.ErrWarungNotFound),
		errors.Is(err, market.ErrOrderNotFound),
		errors.Is(err, market.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrEmptyCart),
		errors.Is(err, market.ErrMissingAddress),
		errors.Is(err, market.ErrInvalidQty),
		errors.Is(err, market.ErrInsufficientStock),
		errors.Is(err, market.ErrProductMismatch),
		errors.Is(err, market.ErrPriceMismatch),
		errors.Is(err, market.ErrTotalMismatch),
		errors.Is(err, market.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error. Internal detail never leaves the
// process; 5xx responses get a generic message.
func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		msg = "terjadi kesalahan pada server"
	}
	writeJSON(w, code, map[string]string{"message": msg})
}
