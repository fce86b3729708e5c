// file: model/request.go

package model

// SignInRequest defines the payload for authenticating a principal.
// It includes validation tags to ensure data integrity at the entry point.
type SignInRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	AccountType AccountType `json:"account_type" validate:"required,oneof=staff patient"`
	RememberMe  bool        `json:"remember_me"`
}

// RecoverPasswordRequest defines the payload for starting password recovery.
type RecoverPasswordRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	AccountType AccountType `json:"account_type" validate:"required,oneof=staff patient"`
}

// ResetPasswordRequest defines the payload for redeeming a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePasswordRequest defines the payload for an authenticated password
// change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// CreateInviteRequest defines the payload for inviting a new staff member.
type CreateInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role" validate:"required,oneof=admin manager nurse specialist"`
}

// RegisterRequest defines the payload for redeeming an invite token.
type RegisterRequest struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}
