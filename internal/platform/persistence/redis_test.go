package persistence

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/card-authorization-gateway/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisClient_DisabledWithoutAddr(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	client, err := NewRedisClient(context.Background(), logger, &config.RedisConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
