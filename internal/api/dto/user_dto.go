package dto

import "time"

// RegisterDTO 注册
type RegisterDTO struct {
	Username *string `json:"username" binding:"required" validate:"required,min=6,max=20"`
	Password *string `json:"password" binding:"required" validate:"required,min=6,max=20"`
}

// CredentialDTO 登录凭证
type CredentialDTO struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

// UpdatePasswordDTO 修改密码
type UpdatePasswordDTO struct {
	OldPassword *string `json:"old_password" binding:"required" validate:"required,min=6,max=20"`
	NewPassword *string `json:"new_password" binding:"required" validate:"required,min=6,max=20"`
}

// UserDTO 用户
type UserDTO struct {
	UserID        *uint64    `json:"user_id,omitempty"`
	Username      *string    `json:"username,omitempty"`
	CreditBalance *int64     `json:"credit_balance,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}
