package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
	assert.Equal(t, "[::1]:6379", Config{Host: "::1", Port: "6379"}.Addr())
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Host: "redis"}.Enabled())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	// 閉じているポートへの接続はPINGで失敗する
	_, err := NewRedisClient(context.Background(), Config{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
