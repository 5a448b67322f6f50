package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"OTPKeeper/internal/middleware"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/otp"
	"OTPKeeper/internal/service"
	"OTPKeeper/internal/vault"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor сопоставляет ошибку ядра HTTP-статусу.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, otp.ErrInvalidURI),
		errors.Is(err, model.ErrInvalidSecret),
		errors.Is(err, model.ErrEmptyField),
		errors.Is(err, vault.ErrInvalidIssuer),
		errors.Is(err, service.ErrUnknownSort):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// tokenID — jti токена запроса, для журналирования изменяющих операций.
func tokenID(r *http.Request) string {
	id, _ := middleware.TokenIDFromContext(r.Context())
	return id
}

func indexParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

// accountDTO — аккаунт без секрета.
type accountDTO struct {
	Index         int     `json:"index"`
	Issuer        string  `json:"issuer"`
	Label         string  `json:"label"`
	LastUsed      string  `json:"last_used"`
	UsedFrequency int     `json:"used_frequency"`
	Favorite      bool    `json:"favorite"`
	Icon          *string `json:"icon"`
}

func toDTO(i int, a model.Account) accountDTO {
	return accountDTO{
		Index:         i,
		Issuer:        a.Issuer,
		Label:         a.Label,
		LastUsed:      a.LastUsed.String(),
		UsedFrequency: a.UsedFrequency,
		Favorite:      a.Favorite,
		Icon:          a.Icon,
	}
}
