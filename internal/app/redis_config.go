package app

import (
	"errors"
	"strings"

	"github.com/charlesng35/resumex/internal/cache"
)

// StoreConfig returns the connection settings for cache.NewRedisStore. An
// enabled section without an address is a configuration error.
func (r RedisCacheConfig) StoreConfig() (cache.RedisConfig, error) {
	addr := strings.TrimSpace(r.Address)
	if r.Enabled && addr == "" {
		return cache.RedisConfig{}, errors.New("cache.redis.address is required when redis is enabled")
	}
	return cache.RedisConfig{
		Address:  addr,
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}, nil
}
