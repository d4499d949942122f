package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oipulse/internal/errors"
)

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService("1.0.0", newMemStore("csv"), nil)

	status := hs.HealthCheck(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestReadinessCheck(t *testing.T) {
	t.Run("ready when store loads", func(t *testing.T) {
		hs := NewHealthService("1.0.0", newMemStore("csv"), nil)

		status := hs.ReadinessCheck(context.Background())

		assert.Equal(t, "ready", status.Status)
		storage, ok := status.Services["storage"].(ServiceHealth)
		require.True(t, ok)
		assert.Equal(t, "ready", storage.Status)
		assert.Contains(t, storage.Message, "csv")
	})

	t.Run("not ready when store fails", func(t *testing.T) {
		store := newMemStore("sheets")
		store.loadErr = errors.NewStorageError("credentials rejected", nil)
		hs := NewHealthService("1.0.0", store, nil)

		status := hs.ReadinessCheck(context.Background())

		assert.Equal(t, "not_ready", status.Status)
	})

	t.Run("not ready without a store", func(t *testing.T) {
		hs := NewHealthService("1.0.0", nil, nil)

		status := hs.ReadinessCheck(context.Background())

		assert.Equal(t, "not_ready", status.Status)
	})
}

func TestLivenessCheck(t *testing.T) {
	hs := NewHealthService("1.0.0", newMemStore("csv"), nil)

	status := hs.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
}

func TestVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", newMemStore("csv"), nil)

	info := hs.Version()

	assert.Equal(t, "1.0.0", info["version"])
	assert.Contains(t, info, "go_version")
}
