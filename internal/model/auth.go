package model

import "github.com/google/uuid"

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ResetPassword struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=40,bcryptlen"`
}

type PasswordResetRequest struct {
	Email string `form:"email" binding:"required,email"`
}

// Identity - 외부 IdP 가 확인한 사용자 정보
type Identity struct {
	Email   string
	Subject string
	Name    string
}

// AuthUser is the verified bearer of an access token.
type AuthUser struct {
	ID uuid.UUID
}
