// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sprintoredis "github.com/taibuivan/sprinto/internal/platform/redis"
)

/*
TestNewClient verifies connection, option tuning and URL validation.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := sprintoredis.NewClient(context.Background(), "redis://"+server.Addr()+"/2", logger)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 2, client.Options().DB)
	assert.Equal(t, 1, client.Options().MaxRetries)
	require.NoError(t, sprintoredis.Ping(context.Background(), client))

	_, err = sprintoredis.Options("http://not-redis")
	assert.Error(t, err)
}
