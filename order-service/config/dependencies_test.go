package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftcart/order-system/shared/cache"
)

func TestNewProductCache(t *testing.T) {
	t.Run("uses redis when an address is configured", func(t *testing.T) {
		productCache, client := newProductCache(&Config{
			ServiceName: "order-service",
			Redis:       Redis{Addr: "localhost:6379"},
		})

		require.NotNil(t, client)
		defer client.Close()
		assert.IsType(t, &cache.RedisCache{}, productCache)
	})

	t.Run("falls back to the in-process cache without redis", func(t *testing.T) {
		productCache, client := newProductCache(&Config{ServiceName: "order-service"})

		assert.Nil(t, client)
		assert.IsType(t, &cache.MemoryCache{}, productCache)
	})
}
