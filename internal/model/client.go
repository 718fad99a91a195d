package model

import (
	"time"

	"github.com/google/uuid"
)

// ClientApplication - 등록된 OAuth 클라이언트 (secret 은 bcrypt 해시만 저장)
type ClientApplication struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	Name         string
	SecretHash   string
	OwnerID      uuid.UUID
	RedirectURIs []string
	Scopes       []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ClientCreate struct {
	Name         string   `json:"name" binding:"required,max=255"`
	RedirectURIs []string `json:"redirect_uris" binding:"omitempty,dive,url"`
	Scopes       []string `json:"scopes"`
	IsActive     *bool    `json:"is_active"`
}

type ClientUpdate struct {
	Name         *string  `json:"name" binding:"omitempty,max=255"`
	RedirectURIs []string `json:"redirect_uris" binding:"omitempty,dive,url"`
	Scopes       []string `json:"scopes"`
	IsActive     *bool    `json:"is_active"`
}

type ClientPublic struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	Name         string    `json:"name"`
	OwnerID      uuid.UUID `json:"owner_id"`
	RedirectURIs []string  `json:"redirect_uris"`
	Scopes       []string  `json:"scopes"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c *ClientApplication) Public() ClientPublic {
	redirects := c.RedirectURIs
	if redirects == nil {
		redirects = []string{}
	}
	scopes := c.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return ClientPublic{
		ID:           c.ID,
		ClientID:     c.ClientID,
		Name:         c.Name,
		OwnerID:      c.OwnerID,
		RedirectURIs: redirects,
		Scopes:       scopes,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
	}
}

// ClientCreateResponse 는 생성 직후 한 번만 평문 secret 을 포함합니다.
type ClientCreateResponse struct {
	ClientPublic
	ClientSecret string `json:"client_secret"`
}

type ClientsPublic struct {
	Data  []ClientPublic `json:"data"`
	Count int            `json:"count"`
}
