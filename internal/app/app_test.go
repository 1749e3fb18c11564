package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"domainlens/internal/config"
	"domainlens/internal/repository/memory"
	"domainlens/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenStore_Memory(t *testing.T) {
	store, closeStore, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, true, discard)

	require.NoError(t, err)
	require.NotNil(t, closeStore)
	defer closeStore()
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, false, discard)

	assert.ErrorContains(t, err, "sqlite")
}

func TestNewServices_WhoisDisabled(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		Whois: config.WhoisConfig{Enabled: false},
		App:   config.AppConfig{MaxIngestBatch: 2},
	}
	services := NewServices(cfg, memory.NewStore(), discard)
	ctx := context.Background()

	// Act
	_, enrichErr := services.Ingest.Enrich(ctx, "example.com")
	_, batchErr := services.Ingest.IngestDomains(ctx, []string{"a.com", "b.com", "c.com"})
	domains, err := services.Ingest.IngestDomains(ctx, []string{"cloudhosting.net"})

	// Assert
	assert.ErrorIs(t, enrichErr, service.ErrEnrichmentDisabled)
	assert.Error(t, batchErr)
	require.NoError(t, err)
	require.Len(t, domains, 1)

	m, err := services.Monitors.Create(ctx, service.CreateMonitorInput{DomainName: "cloudhosting.net"})
	require.NoError(t, err)
	assert.Equal(t, domains[0].ID, m.DomainID)
}
