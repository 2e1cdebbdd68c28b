package model

import (
	"time"

	"clio/internal/domain/entity"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	FirstName       string    `gorm:"type:varchar(100);not null"`
	MiddleName      string    `gorm:"type:varchar(100)"`
	LastName        string    `gorm:"type:varchar(100);not null"`
	Email           string    `gorm:"type:varchar(255);unique;not null"`
	MobileNumber    string    `gorm:"type:varchar(32)"`
	Role            string    `gorm:"type:varchar(20);not null;default:'client';index"`
	AccountStatus   string    `gorm:"type:varchar(20);not null;default:'pending'"`
	IsActive        bool      `gorm:"not null;default:true"`
	IsStaff         bool      `gorm:"not null;default:false"`
	IsEmailVerified bool      `gorm:"not null;default:false"`
	PasswordHash    string    `gorm:"type:varchar(255);not null"`
	ProfileImage    string    `gorm:"type:varchar(512)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	WhitelistTokens []WhitelistTokenModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the persistence model to the domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:              m.ID,
		FirstName:       m.FirstName,
		MiddleName:      m.MiddleName,
		LastName:        m.LastName,
		Email:           m.Email,
		MobileNumber:    m.MobileNumber,
		Role:            entity.Role(m.Role),
		AccountStatus:   entity.AccountStatus(m.AccountStatus),
		IsActive:        m.IsActive,
		IsStaff:         m.IsStaff,
		IsEmailVerified: m.IsEmailVerified,
		PasswordHash:    m.PasswordHash,
		ProfileImage:    m.ProfileImage,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// UserModelFromEntity converts the domain entity to the persistence model.
func UserModelFromEntity(user *entity.User) *UserModel {
	return &UserModel{
		ID:              user.ID,
		FirstName:       user.FirstName,
		MiddleName:      user.MiddleName,
		LastName:        user.LastName,
		Email:           user.Email,
		MobileNumber:    user.MobileNumber,
		Role:            user.Role.String(),
		AccountStatus:   user.AccountStatus.String(),
		IsActive:        user.IsActive,
		IsStaff:         user.IsStaff,
		IsEmailVerified: user.IsEmailVerified,
		PasswordHash:    user.PasswordHash,
		ProfileImage:    user.ProfileImage,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}
