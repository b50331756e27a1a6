package webhook

import (
	"context"
	"errors"
	"time"
)

// Event is the e-commerce trigger an endpoint listens for
type Event string

const (
	EventAbandonedCart  Event = "abandoned_cart"
	EventPaymentPending Event = "payment_pending"
	EventOrderConfirmed Event = "order_confirmed"
)

// Valid reports whether e is a known event
func (e Event) Valid() bool {
	switch e {
	case EventAbandonedCart, EventPaymentPending, EventOrderConfirmed:
		return true
	}
	return false
}

// Platform is the store software posting to an endpoint
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformOther       Platform = "other"
)

// Valid reports whether p is a known platform
func (p Platform) Valid() bool {
	switch p {
	case PlatformShopify, PlatformWooCommerce, PlatformOther:
		return true
	}
	return false
}

// TestResult is the outcome of the last webhook test delivery
type TestResult string

const (
	TestSuccess TestResult = "success"
	TestError   TestResult = "error"
)

// Settings is the outbound (n8n) webhook configuration
type Settings struct {
	URL          string     `json:"url" firestore:"url"`
	Active       bool       `json:"active" firestore:"active"`
	LastTest     TestResult `json:"lastTest,omitempty" firestore:"lastTest,omitempty"`
	LastTestedAt *time.Time `json:"lastTestedAt,omitempty" firestore:"lastTestedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// Enabled reports whether events should be relayed
func (s Settings) Enabled() bool {
	return s.Active && s.URL != ""
}

// Endpoint is an inbound e-commerce webhook registration
type Endpoint struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Event     Event     `json:"event" firestore:"event"`
	Platform  Platform  `json:"platform" firestore:"platform"`
	URL       string    `json:"url" firestore:"url"`
	Active    bool      `json:"isActive" firestore:"isActive"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

var (
	ErrEndpointNotFound = errors.New("webhook endpoint not found")
	ErrEndpointInactive = errors.New("webhook endpoint is inactive")
	ErrNoWebhookURL     = errors.New("webhook url is not configured")
	ErrInvalidInput     = errors.New("invalid webhook input")
	ErrRelayFailed      = errors.New("webhook relay failed")
)

// Store persists webhook settings and endpoints
type Store interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) error
	ListEndpoints(ctx context.Context) ([]Endpoint, error)
	GetEndpoint(ctx context.Context, id string) (*Endpoint, error)
	CreateEndpoint(ctx context.Context, e *Endpoint) error
	UpdateEndpoint(ctx context.Context, e *Endpoint) error
	DeleteEndpoint(ctx context.Context, id string) error
}
