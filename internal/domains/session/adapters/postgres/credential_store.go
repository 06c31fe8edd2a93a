package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sessionports "github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// DefaultTokenTTL applies when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// CredentialStore persists the bearer token in PostgreSQL under a fixed key.
// Several terminals sharing one key share one login.
type CredentialStore struct {
	db  *gorm.DB
	key string
	ttl time.Duration
}

// NewCredentialStore wires a PostgreSQL-backed credential store. Caller owns DB lifecycle.
func NewCredentialStore(db *gorm.DB, key string, ttl time.Duration) *CredentialStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = sessionports.CredentialKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &CredentialStore{db: db, key: key, ttl: ttl}
}

type credentialRecord struct {
	Key       string     `gorm:"primaryKey;column:key;size:128"`
	Token     string     `gorm:"column:token;size:4096"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (credentialRecord) TableName() string { return "client_credentials" }

func (s *CredentialStore) Get(ctx context.Context) (string, bool, error) {
	if err := s.ensureDB(); err != nil {
		return "", false, err
	}
	var rec credentialRecord
	err := s.db.WithContext(ctx).
		Where("key = ? AND (expires_at IS NULL OR expires_at > ?)", s.key, time.Now()).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Token, true, nil
}

// Set upserts the token and pushes its expiry forward.
func (s *CredentialStore) Set(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	expiry := time.Now().Add(s.ttl)
	rec := credentialRecord{Key: s.key, Token: token, ExpiresAt: &expiry}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&credentialRecord{}, "key = ?", s.key).Error
}

// PurgeExpired removes all expired credentials.
func (s *CredentialStore) PurgeExpired(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&credentialRecord{}).Error
}

func (s *CredentialStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres credential store not configured")
	}
	return nil
}

var _ sessionports.CredentialStore = (*CredentialStore)(nil)
