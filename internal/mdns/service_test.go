package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "_watchlist._tcp", ServiceType)
	assert.Equal(t, "v1", APIVersion)
	assert.NotEmpty(t, ServerVersion)
}

func TestTXTRecords(t *testing.T) {
	records := TXTRecords("Living Room")

	var got []string
	for _, r := range records {
		got = append(got, string(r))
	}
	assert.Equal(t, []string{"name=Living Room", "version=" + ServerVersion, "api=v1"}, got)
}

func TestNewService(t *testing.T) {
	service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	require.NotNil(t, service)
	assert.False(t, service.Running())
}

func TestServiceStop(t *testing.T) {
	t.Run("stop when not started is safe", func(t *testing.T) {
		service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		service.Stop()
		assert.False(t, service.Running())
	})

	t.Run("stop can be called multiple times", func(t *testing.T) {
		service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		service.Stop()
		service.Stop()
		service.Stop()
		assert.False(t, service.Running())
	})
}

func TestServiceStart_InvalidPort(t *testing.T) {
	service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Error(t, service.Start("watchlist", 0))
	assert.Error(t, service.Start("watchlist", 70000))
	assert.False(t, service.Running())
}
