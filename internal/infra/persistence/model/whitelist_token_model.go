package model

import (
	"time"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
)

// WhitelistTokenModel mirrors the 'user_whitelist_tokens' table. Each row is
// one live session: a pair of SHA-256 token fingerprints, each unique on its
// own so the database is the final arbiter against duplicate sessions.
type WhitelistTokenModel struct {
	ID                      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID                  uuid.UUID `gorm:"type:uuid;not null;index"`
	AccessTokenFingerprint  string    `gorm:"type:varchar(64);unique;not null"`
	RefreshTokenFingerprint string    `gorm:"type:varchar(64);unique;not null"`
	UserAgent               string    `gorm:"type:text"`
	ExpiresAt               time.Time `gorm:"not null;index"`
	CreatedAt               time.Time
}

// TableName explicitly sets the table name for GORM.
func (WhitelistTokenModel) TableName() string {
	return "user_whitelist_tokens"
}

// ToEntity converts the persistence model to the domain entity.
func (m *WhitelistTokenModel) ToEntity() *entity.WhitelistToken {
	return &entity.WhitelistToken{
		ID:                      m.ID,
		UserID:                  m.UserID,
		AccessTokenFingerprint:  m.AccessTokenFingerprint,
		RefreshTokenFingerprint: m.RefreshTokenFingerprint,
		UserAgent:               m.UserAgent,
		ExpiresAt:               m.ExpiresAt,
		CreatedAt:               m.CreatedAt,
	}
}

// WhitelistTokenModelFromEntity converts the domain entity to the persistence model.
func WhitelistTokenModelFromEntity(token *entity.WhitelistToken) *WhitelistTokenModel {
	return &WhitelistTokenModel{
		ID:                      token.ID,
		UserID:                  token.UserID,
		AccessTokenFingerprint:  token.AccessTokenFingerprint,
		RefreshTokenFingerprint: token.RefreshTokenFingerprint,
		UserAgent:               token.UserAgent,
		ExpiresAt:               token.ExpiresAt,
		CreatedAt:               token.CreatedAt,
	}
}
