package redisx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyCredential namespaces credential entries: storefront:credential:{name}.
const KeyCredential = "storefront:credential:%s"

// New builds a client with short dial/read timeouts suited to interactive use.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         strings.TrimSpace(addr),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Connect builds a client and verifies it answers PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := New(addr)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
