package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/card-authorization-gateway/internal/domain/merchant"
)

const credentialKeyPrefix = "merchant:credential:"

// cachedCredential carries the token hash, which merchant.Credential hides from JSON.
type cachedCredential struct {
	MerchantName string    `json:"merchant_name"`
	TokenHash    string    `json:"token_hash"`
	BankName     string    `json:"bank_name"`
	AccountNum   int64     `json:"account_num"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CredentialCache is a read-through cache in front of a merchant.Repository.
// Cache failures are logged and never fail the lookup.
type CredentialCache struct {
	next   merchant.Repository
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCredentialCache wraps next. Callers without Redis should use next directly.
func NewCredentialCache(logger *slog.Logger, next merchant.Repository, client RedisClient, ttl time.Duration) *CredentialCache {
	return &CredentialCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func credentialKey(merchantName string) string {
	return credentialKeyPrefix + merchantName
}

// GetByName returns the cached credential or loads it from the wrapped
// repository and caches it. Unknown merchants are not cached.
func (c *CredentialCache) GetByName(ctx context.Context, merchantName string) (*merchant.Credential, error) {
	key := credentialKey(merchantName)

	raw, err := c.client.Get(ctx, key)
	switch {
	case err == nil:
		var cached cachedCredential
		jsonErr := json.Unmarshal([]byte(raw), &cached)
		if jsonErr == nil {
			return &merchant.Credential{
				MerchantName: cached.MerchantName,
				TokenHash:    cached.TokenHash,
				BankName:     cached.BankName,
				AccountNum:   cached.AccountNum,
				CreatedAt:    cached.CreatedAt,
				UpdatedAt:    cached.UpdatedAt,
			}, nil
		}
		c.logger.Warn("Discarding unreadable cached credential", "merchant_name", merchantName, "error", jsonErr)
	case !errors.Is(err, ErrKeyNotFound):
		c.logger.Warn("Credential cache read failed", "merchant_name", merchantName, "error", err)
	}

	credential, err := c.next.GetByName(ctx, merchantName)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedCredential{
		MerchantName: credential.MerchantName,
		TokenHash:    credential.TokenHash,
		BankName:     credential.BankName,
		AccountNum:   credential.AccountNum,
		CreatedAt:    credential.CreatedAt,
		UpdatedAt:    credential.UpdatedAt,
	})
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl)
	}
	if err != nil {
		c.logger.Warn("Credential cache write failed", "merchant_name", merchantName, "error", err)
	}

	return credential, nil
}

// Upsert writes through to the wrapped repository and evicts the cached entry.
func (c *CredentialCache) Upsert(ctx context.Context, credential *merchant.Credential) error {
	if err := c.next.Upsert(ctx, credential); err != nil {
		return err
	}
	c.Invalidate(ctx, credential.MerchantName)
	return nil
}

// Invalidate drops the cached entry for merchantName.
func (c *CredentialCache) Invalidate(ctx context.Context, merchantName string) {
	if err := c.client.Del(ctx, credentialKey(merchantName)); err != nil {
		c.logger.Warn("Credential cache eviction failed", "merchant_name", merchantName, "error", err)
	}
}

// WithCredentialCache puts a CredentialCache in front of next when a Redis
// client is available and returns next unchanged otherwise.
func WithCredentialCache(logger *slog.Logger, next merchant.Repository, client *goredis.Client, ttl time.Duration) merchant.Repository {
	if client == nil {
		return next
	}
	return NewCredentialCache(logger, next, NewClient(client), ttl)
}
