package impl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"clio/config"
	"clio/internal/domain/entity"
	"clio/internal/domain/repository"
	"clio/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		PasswordStrength: &config.PasswordStrengthConfig{
			MinLength:      8,
			RequireNumbers: true,
		},
	}
	cfg.SecretKey.User = "test_user_secret_key_very_long_for_testing"
	cfg.SecretKey.Admin = "test_admin_secret_key_very_long_for_testing"

	return cfg
}

// --- In-memory repositories ---

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cloned := *user

	return &cloned, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			cloned := *user

			return &cloned, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrEmailAlreadyExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cloned := *user
	r.users[user.ID] = &cloned

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cloned := *user
	r.users[user.ID] = &cloned

	return nil
}

// memWhitelistRepo is an in-memory WhitelistTokenRepository with failure
// injection for outage and collision scenarios.
type memWhitelistRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.WhitelistToken

	// failAll, when set, makes every operation fail with a ledger error.
	failAll bool
	// conflictNext makes the next N creates report a fingerprint conflict.
	conflictNext int
}

func newMemWhitelistRepo() *memWhitelistRepo {
	return &memWhitelistRepo{records: make(map[uuid.UUID]*entity.WhitelistToken)}
}

func (r *memWhitelistRepo) ledgerDown() error {
	return errors.Wrap(repository.ErrLedgerUnavailable, "connection refused")
}

// ledgerCtxErr mirrors a real driver refusing work on a dead context.
func ledgerCtxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(repository.ErrLedgerUnavailable, err.Error())
	}

	return nil
}

func (r *memWhitelistRepo) CreateWhitelistToken(ctx context.Context, token *entity.WhitelistToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return err
	}

	if r.failAll {
		return r.ledgerDown()
	}
	if r.conflictNext > 0 {
		r.conflictNext--

		return repository.ErrFingerprintConflict
	}

	for _, existing := range r.records {
		if existing.AccessTokenFingerprint == token.AccessTokenFingerprint ||
			existing.RefreshTokenFingerprint == token.RefreshTokenFingerprint {
			return repository.ErrFingerprintConflict
		}
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	cloned := *token
	r.records[token.ID] = &cloned

	return nil
}

func (r *memWhitelistRepo) FindByAccessFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return nil, err
	}

	if r.failAll {
		return nil, r.ledgerDown()
	}

	for _, record := range r.records {
		if record.AccessTokenFingerprint == fingerprint {
			cloned := *record

			return &cloned, nil
		}
	}

	return nil, repository.ErrWhitelistTokenNotFound
}

func (r *memWhitelistRepo) FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*entity.WhitelistToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return nil, err
	}

	if r.failAll {
		return nil, r.ledgerDown()
	}

	for _, record := range r.records {
		if record.RefreshTokenFingerprint == fingerprint {
			cloned := *record

			return &cloned, nil
		}
	}

	return nil, repository.ErrWhitelistTokenNotFound
}

func (r *memWhitelistRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.WhitelistToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return nil, err
	}

	if r.failAll {
		return nil, r.ledgerDown()
	}

	record, ok := r.records[id]
	if !ok {
		return nil, repository.ErrWhitelistTokenNotFound
	}
	cloned := *record

	return &cloned, nil
}

func (r *memWhitelistRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.WhitelistToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return nil, err
	}

	if r.failAll {
		return nil, r.ledgerDown()
	}

	var result []*entity.WhitelistToken
	for _, record := range r.records {
		if record.UserID == userID {
			cloned := *record
			result = append(result, &cloned)
		}
	}

	return result, nil
}

func (r *memWhitelistRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return err
	}

	if r.failAll {
		return r.ledgerDown()
	}

	if _, ok := r.records[id]; !ok {
		return repository.ErrWhitelistTokenNotFound
	}
	delete(r.records, id)

	return nil
}

func (r *memWhitelistRepo) DeleteByAccessFingerprint(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return err
	}

	if r.failAll {
		return r.ledgerDown()
	}

	for id, record := range r.records {
		if record.AccessTokenFingerprint == fingerprint {
			delete(r.records, id)

			return nil
		}
	}

	return repository.ErrWhitelistTokenNotFound
}

func (r *memWhitelistRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return err
	}

	if r.failAll {
		return r.ledgerDown()
	}

	for id, record := range r.records {
		if record.UserID == userID {
			delete(r.records, id)
		}
	}

	return nil
}

func (r *memWhitelistRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ledgerCtxErr(ctx); err != nil {
		return 0, err
	}

	if r.failAll {
		return 0, r.ledgerDown()
	}

	var count int64
	now := time.Now()
	for id, record := range r.records {
		if record.IsExpired(now) {
			delete(r.records, id)
			count++
		}
	}

	return count, nil
}

func (r *memWhitelistRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// --- Transaction plumbing ---

// fakeFactory hands out the shared in-memory repositories.
type fakeFactory struct {
	userRepo      repository.UserRepository
	whitelistRepo repository.WhitelistTokenRepository
}

func (f *fakeFactory) UserRepo() repository.UserRepository { return f.userRepo }

func (f *fakeFactory) WhitelistRepo() repository.WhitelistTokenRepository { return f.whitelistRepo }

// fakeTxManager runs the unit of work directly against the shared repositories.
type fakeTxManager struct {
	factory *fakeFactory
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tm.factory)
}

// --- File storage ---

// memFileStorage is an in-memory FileStorage.
type memFileStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failSave bool
}

func newMemFileStorage() *memFileStorage {
	return &memFileStorage{blobs: make(map[string][]byte)}
}

func (s *memFileStorage) Save(_ context.Context, key string, content io.Reader, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave {
		return errors.New("bucket unavailable")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return err
	}
	s.blobs[key] = buf.Bytes()

	return nil
}

func (s *memFileStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)

	return nil
}

func (s *memFileStorage) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

// assert interface compliance at compile time
var (
	_ repository.UserRepository           = (*memUserRepo)(nil)
	_ repository.WhitelistTokenRepository = (*memWhitelistRepo)(nil)
	_ repository.TransactionManager       = (*fakeTxManager)(nil)
	_ repository.RepositoryFactory        = (*fakeFactory)(nil)
	_ service.FileStorage                 = (*memFileStorage)(nil)
)
