package auth

// LoginInput represents the request body for user authentication.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetRequestInput asks for a password reset link.
type ResetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirmInput sets a new password with a reset token.
type ResetConfirmInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}
