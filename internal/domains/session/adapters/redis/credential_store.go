package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	sessionports "github.com/Apurer/storefront-client/internal/domains/session/ports"
	"github.com/Apurer/storefront-client/internal/platform/redisx"
)

// CredentialStore keeps the token in Redis; a zero TTL keeps it until logout.
type CredentialStore struct {
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
}

func NewCredentialStore(rdb goredis.UniversalClient, name string, ttl time.Duration) *CredentialStore {
	name = strings.TrimSpace(name)
	if name == "" {
		name = sessionports.CredentialKey
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CredentialStore{rdb: rdb, key: fmt.Sprintf(redisx.KeyCredential, name), ttl: ttl}
}

// Key returns the Redis key the token is stored under.
func (s *CredentialStore) Key() string {
	return s.key
}

func (s *CredentialStore) Get(ctx context.Context) (string, bool, error) {
	if s.rdb == nil {
		return "", false, errors.New("redis credential store not configured")
	}
	token, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *CredentialStore) Set(ctx context.Context, token string) error {
	if s.rdb == nil {
		return errors.New("redis credential store not configured")
	}
	return s.rdb.Set(ctx, s.key, token, s.ttl).Err()
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s.rdb == nil {
		return errors.New("redis credential store not configured")
	}
	return s.rdb.Del(ctx, s.key).Err()
}

var _ sessionports.CredentialStore = (*CredentialStore)(nil)
