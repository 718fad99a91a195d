package model

import (
	"time"

	"github.com/google/uuid"
)

// Account 는 users 테이블 한 행 (비밀번호/리셋 토큰은 해시만 보관)
type Account struct {
	ID                  uuid.UUID
	Email               string
	FullName            *string
	PasswordHash        *string
	IsActive            bool
	IsSuperuser         bool
	ExternalID          *string
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FederatedOnly reports whether the account has no usable local password.
func (a *Account) FederatedOnly() bool {
	return a.PasswordHash == nil
}

type NewAccount struct {
	Email        string
	FullName     *string
	PasswordHash *string
	IsActive     bool
	IsSuperuser  bool
	ExternalID   *string
}

type UserPublic struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Account) Public() UserPublic {
	return UserPublic{
		ID:          a.ID,
		Email:       a.Email,
		FullName:    a.FullName,
		IsActive:    a.IsActive,
		IsSuperuser: a.IsSuperuser,
		CreatedAt:   a.CreatedAt,
	}
}

type UsersPublic struct {
	Data  []UserPublic `json:"data"`
	Count int          `json:"count"`
}

// UserCreate - 관리자 사용자 생성 요청
type UserCreate struct {
	Email       string  `json:"email" binding:"required,email,max=255"`
	Password    string  `json:"password" binding:"required,min=8,max=40,bcryptlen"`
	FullName    *string `json:"full_name" binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
}

// UserRegister - 공개 회원가입 요청
type UserRegister struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=40,bcryptlen"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
}

// UserUpdate - 관리자 사용자 수정 요청 (모든 필드 선택)
type UserUpdate struct {
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=40,bcryptlen"`
	FullName    *string `json:"full_name" binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

type UserUpdateMe struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
}

type UpdatePassword struct {
	CurrentPassword string `json:"current_password" binding:"required,min=8,max=40,bcryptlen"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=40,bcryptlen"`
}
