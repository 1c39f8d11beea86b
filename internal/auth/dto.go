package auth

import "github.com/angelmondragon/printshop-backend/pkg/db/models"

type SignUpRequest struct {
	FullName        string `json:"full_name" validate:"required,max=200"`
	Phone           string `json:"phone" validate:"max=32"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmation struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type SignUpResponse struct {
	Profile *models.CustomerProfile `json:"profile"`
	Message string                  `json:"message"`
}
