package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"wa-dashboard-go/internal/webhook"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorRepository returns a repository on isolated paths of the
// Firestore emulator. Tests skip when no emulator is configured.
func newEmulatorRepository(t *testing.T) *WebhookRepository {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := NewClient(context.Background(), "", "demo-wa-dashboard")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	suffix := uuid.NewString()
	repo := NewWebhookRepository(client)
	repo.collection = "ecommerce_webhooks_" + suffix
	repo.settingsDoc = "settings_" + suffix + "/webhook"
	return repo
}

func TestWebhookSettingsRoundTrip(t *testing.T) {
	repo := newEmulatorRepository(t)
	ctx := context.Background()

	empty, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, empty.Enabled())
	assert.Nil(t, empty.LastTestedAt)

	tested := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSettings(ctx, &webhook.Settings{
		URL:          "https://n8n.example.com/webhook/1",
		Active:       true,
		LastTest:     webhook.TestSuccess,
		LastTestedAt: &tested,
	}))

	got, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://n8n.example.com/webhook/1", got.URL)
	assert.True(t, got.Active)
	assert.Equal(t, webhook.TestSuccess, got.LastTest)
	require.NotNil(t, got.LastTestedAt)
	assert.True(t, tested.Equal(*got.LastTestedAt))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestWebhookEndpointLifecycle(t *testing.T) {
	repo := newEmulatorRepository(t)
	ctx := context.Background()

	first := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, repo.CreateEndpoint(ctx, &webhook.Endpoint{
		ID: "b", Name: "Orders", Event: webhook.EventOrderConfirmed, Platform: webhook.PlatformWooCommerce,
		URL: "https://crm.example.com/api/webhook/b", Active: true, CreatedAt: first, UpdatedAt: first,
	}))
	require.NoError(t, repo.CreateEndpoint(ctx, &webhook.Endpoint{
		ID: "a", Name: "Cart", Event: webhook.EventAbandonedCart, Platform: webhook.PlatformShopify,
		URL: "https://crm.example.com/api/webhook/a", Active: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))

	list, err := repo.ListEndpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, webhook.PlatformWooCommerce, list[0].Platform)

	e, err := repo.GetEndpoint(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", e.ID)
	e.Active = false
	e.UpdatedAt = time.Now()
	require.NoError(t, repo.UpdateEndpoint(ctx, e))

	e, err = repo.GetEndpoint(ctx, "a")
	require.NoError(t, err)
	assert.False(t, e.Active)

	require.NoError(t, repo.DeleteEndpoint(ctx, "a"))
	_, err = repo.GetEndpoint(ctx, "a")
	assert.ErrorIs(t, err, webhook.ErrEndpointNotFound)
	assert.ErrorIs(t, repo.DeleteEndpoint(ctx, "a"), webhook.ErrEndpointNotFound)
	assert.ErrorIs(t, repo.UpdateEndpoint(ctx, &webhook.Endpoint{ID: "a"}), webhook.ErrEndpointNotFound)

	require.NoError(t, repo.DeleteEndpoint(ctx, "b"))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
