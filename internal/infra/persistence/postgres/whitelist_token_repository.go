// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"clio/internal/domain/entity"
	"clio/internal/domain/repository"
	"clio/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// whitelistTokenRepository implements the domain's WhitelistTokenRepository
// interface. It is the revocation ledger: a session exists exactly as long as
// its row does, so every read goes to the database and nothing is cached.
type whitelistTokenRepository struct {
	db *gorm.DB
}

// NewWhitelistTokenRepository is the constructor for whitelistTokenRepository.
func NewWhitelistTokenRepository(db *gorm.DB) repository.WhitelistTokenRepository {
	return &whitelistTokenRepository{db: db}
}

// CreateWhitelistToken persists a new session record.
func (repo *whitelistTokenRepository) CreateWhitelistToken(ctx context.Context, token *entity.WhitelistToken) error {
	tokenM := model.WhitelistTokenModelFromEntity(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		// The unique indexes on both fingerprint columns are the final arbiter
		// against duplicate sessions; the caller reacts by re-minting tokens.
		if isUniqueConstraintViolation(err) {
			return errors.WithStack(repository.ErrFingerprintConflict)
		}

		return wrapLedgerError(err, "failed to create whitelist token")
	}

	// Update the entity with generated values
	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByAccessFingerprint retrieves the session record owning the given access fingerprint.
func (repo *whitelistTokenRepository) FindByAccessFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error) {
	return repo.findOne(ctx, "access_token_fingerprint = ?", fingerprint)
}

// FindByRefreshFingerprint retrieves the session record owning the given refresh fingerprint.
func (repo *whitelistTokenRepository) FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error) {
	return repo.findOne(ctx, "refresh_token_fingerprint = ?", fingerprint)
}

// FindByID retrieves a session record by its unique ID.
func (repo *whitelistTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WhitelistToken, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByUserID retrieves all session records for a user, newest first.
func (repo *whitelistTokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.WhitelistToken, error) {
	var tokenModels []*model.WhitelistTokenModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokenModels).Error
	if err != nil {
		return nil, wrapLedgerError(err, "failed to list whitelist tokens")
	}

	tokens := make([]*entity.WhitelistToken, 0, len(tokenModels))
	for _, tokenM := range tokenModels {
		tokens = append(tokens, tokenM.ToEntity())
	}

	return tokens, nil
}

// DeleteByID removes one session record, revoking that session.
func (repo *whitelistTokenRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.WhitelistTokenModel{})
	if result.Error != nil {
		return wrapLedgerError(result.Error, "failed to delete whitelist token")
	}

	// If no rows were affected, it means the session was not found.
	if result.RowsAffected == 0 {
		return errors.WithStack(repository.ErrWhitelistTokenNotFound)
	}

	return nil
}

// DeleteByAccessFingerprint removes the session record owning the given access fingerprint.
func (repo *whitelistTokenRepository) DeleteByAccessFingerprint(ctx context.Context, fingerprint string) error {
	result := repo.db.WithContext(ctx).
		Where("access_token_fingerprint = ?", fingerprint).
		Delete(&model.WhitelistTokenModel{})
	if result.Error != nil {
		return wrapLedgerError(result.Error, "failed to delete whitelist token")
	}

	if result.RowsAffected == 0 {
		return errors.WithStack(repository.ErrWhitelistTokenNotFound)
	}

	return nil
}

// DeleteByUserID removes all session records for a user. Deleting zero rows is
// not an error: "logout everywhere" is idempotent.
func (repo *whitelistTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.WhitelistTokenModel{}).Error
	if err != nil {
		return wrapLedgerError(err, "failed to delete whitelist tokens")
	}

	return nil
}

// DeleteExpired removes records whose refresh lifetime has passed.
func (repo *whitelistTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.WhitelistTokenModel{})
	if result.Error != nil {
		return 0, wrapLedgerError(result.Error, "failed to delete expired whitelist tokens")
	}

	return result.RowsAffected, nil
}

func (repo *whitelistTokenRepository) findOne(ctx context.Context, query string, arg any) (*entity.WhitelistToken, error) {
	var tokenM model.WhitelistTokenModel

	err := repo.db.WithContext(ctx).Where(query, arg).First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(repository.ErrWhitelistTokenNotFound)
		}

		return nil, wrapLedgerError(err, "failed to find whitelist token")
	}

	return tokenM.ToEntity(), nil
}

// wrapLedgerError marks a database failure as a ledger availability problem.
// The distinction matters upstream: a missing record means "not authenticated",
// an unreachable ledger must never be reported that way.
func wrapLedgerError(err error, msg string) error {
	return errors.Wrap(errors.WithMessage(repository.ErrLedgerUnavailable, err.Error()), msg)
}
