package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	"github.com/angelmondragon/printshop-backend/internal/auth"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type phoneInput struct {
	Phone string `json:"phone" validate:"max=64"`
}

type phoneMask struct {
	Formatted string `json:"formatted"`
	Digits    string `json:"digits"`
}

// FormatPhone masks the phone field as it is typed.
func FormatPhone(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body phoneInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phoneMask{
			Formatted: auth.FormatPhone(body.Phone),
			Digits:    auth.PhoneDigits(body.Phone),
		})
	}
}
