package firestore

import (
	"context"
	"time"

	"wa-dashboard-go/internal/webhook"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WebhookRepository stores webhook settings and e-commerce endpoints
type WebhookRepository struct {
	client      *Client
	collection  string
	settingsDoc string
}

var _ webhook.Store = (*WebhookRepository)(nil)

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(client *Client) *WebhookRepository {
	return &WebhookRepository{
		client:      client,
		collection:  "ecommerce_webhooks",
		settingsDoc: "settings/webhook",
	}
}

// GetSettings returns the outbound webhook settings (zero value if unset)
func (r *WebhookRepository) GetSettings(ctx context.Context) (*webhook.Settings, error) {
	doc, err := r.client.Doc(r.settingsDoc).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &webhook.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	var settings webhook.Settings
	if err := doc.DataTo(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings overwrites the outbound webhook settings
func (r *WebhookRepository) SaveSettings(ctx context.Context, s *webhook.Settings) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	_, err := r.client.Doc(r.settingsDoc).Set(ctx, s)
	return err
}

// ListEndpoints retrieves all endpoints, oldest first
func (r *WebhookRepository) ListEndpoints(ctx context.Context) ([]webhook.Endpoint, error) {
	iter := r.client.Collection(r.collection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	endpoints := []webhook.Endpoint{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var endpoint webhook.Endpoint
		if err := doc.DataTo(&endpoint); err != nil {
			continue
		}
		endpoint.ID = doc.Ref.ID
		endpoints = append(endpoints, endpoint)
	}

	return endpoints, nil
}

// GetEndpoint retrieves an endpoint by ID
func (r *WebhookRepository) GetEndpoint(ctx context.Context, id string) (*webhook.Endpoint, error) {
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, webhook.ErrEndpointNotFound
	}
	if err != nil {
		return nil, err
	}

	var endpoint webhook.Endpoint
	if err := doc.DataTo(&endpoint); err != nil {
		return nil, err
	}
	endpoint.ID = doc.Ref.ID
	return &endpoint, nil
}

// CreateEndpoint stores a new endpoint under its own ID
func (r *WebhookRepository) CreateEndpoint(ctx context.Context, e *webhook.Endpoint) error {
	_, err := r.client.Collection(r.collection).Doc(e.ID).Create(ctx, e)
	return err
}

// UpdateEndpoint updates the mutable fields of an endpoint
func (r *WebhookRepository) UpdateEndpoint(ctx context.Context, e *webhook.Endpoint) error {
	_, err := r.client.Collection(r.collection).Doc(e.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: e.Name},
		{Path: "isActive", Value: e.Active},
		{Path: "updatedAt", Value: e.UpdatedAt},
	})
	if status.Code(err) == codes.NotFound {
		return webhook.ErrEndpointNotFound
	}
	return err
}

// DeleteEndpoint removes an endpoint
func (r *WebhookRepository) DeleteEndpoint(ctx context.Context, id string) error {
	ref := r.client.Collection(r.collection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return webhook.ErrEndpointNotFound
		}
		return err
	}
	return nil
}
