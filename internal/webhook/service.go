package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wa-dashboard-go/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source identifies this service in outbound payloads
const Source = "wa-dashboard"

// Service implements the webhook integration on top of a Store
type Service struct {
	store      Store
	client     *http.Client
	publicURL  string
	RelayRetry utils.RetryConfig
}

// NewService creates a webhook service. publicURL is the externally
// reachable base used to build inbound endpoint URLs.
func NewService(store Store, publicURL string, timeout time.Duration) *Service {
	return &Service{
		store:     store,
		client:    &http.Client{Timeout: timeout},
		publicURL: strings.TrimRight(publicURL, "/"),
		RelayRetry: utils.DefaultRetryConfig(),
	}
}

// TestOutcome describes one test delivery
type TestOutcome struct {
	Result     TestResult `json:"result"`
	StatusCode int        `json:"statusCode,omitempty"`
	Error      string     `json:"error,omitempty"`
	TestedAt   time.Time  `json:"testedAt"`
}

// Settings returns the current outbound webhook configuration
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	return s.store.GetSettings(ctx)
}

// UpdateSettings validates and stores the outbound webhook configuration.
// Changing the URL clears the previous test result.
func (s *Service) UpdateSettings(ctx context.Context, rawURL string, active bool) (*Settings, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" {
		if err := validateURL(rawURL); err != nil {
			return nil, err
		}
	}

	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if current.URL != rawURL {
		current.LastTest = ""
		current.LastTestedAt = nil
	}
	current.URL = rawURL
	current.Active = active
	current.UpdatedAt = time.Now()

	if err := s.store.SaveSettings(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Test posts a ping to the configured URL and records the outcome.
func (s *Service) Test(ctx context.Context) (*TestOutcome, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.URL == "" {
		return nil, ErrNoWebhookURL
	}

	now := time.Now()
	outcome := &TestOutcome{Result: TestSuccess, TestedAt: now}

	status, err := s.post(ctx, settings.URL, map[string]any{
		"event":     "test",
		"source":    Source,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
	outcome.StatusCode = status
	if err != nil {
		outcome.Result = TestError
		outcome.Error = err.Error()
		zap.S().Warnf("❌ [WEBHOOK] Test delivery to %s failed: %v", settings.URL, err)
	} else {
		zap.S().Infof("✅ [WEBHOOK] Test delivery to %s succeeded (%d)", settings.URL, status)
	}

	settings.LastTest = outcome.Result
	settings.LastTestedAt = &now
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return outcome, nil
}

// ListEndpoints returns all e-commerce endpoints
func (s *Service) ListEndpoints(ctx context.Context) ([]Endpoint, error) {
	return s.store.ListEndpoints(ctx)
}

// CreateEndpoint registers a new active endpoint with a generated URL.
// Empty event/platform default to abandoned_cart/shopify.
func (s *Service) CreateEndpoint(ctx context.Context, name string, event Event, platform Platform) (*Endpoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if event == "" {
		event = EventAbandonedCart
	}
	if platform == "" {
		platform = PlatformShopify
	}
	if !event.Valid() {
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidInput, event)
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, platform)
	}

	id := uuid.NewString()
	now := time.Now()
	endpoint := &Endpoint{
		ID:        id,
		Name:      name,
		Event:     event,
		Platform:  platform,
		URL:       s.endpointURL(id),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateEndpoint(ctx, endpoint); err != nil {
		return nil, err
	}
	zap.S().Infof("🛒 [WEBHOOK] Endpoint created: %s (%s/%s)", endpoint.Name, endpoint.Platform, endpoint.Event)
	return endpoint, nil
}

// SetEndpointActive toggles an endpoint
func (s *Service) SetEndpointActive(ctx context.Context, id string, active bool) (*Endpoint, error) {
	endpoint, err := s.store.GetEndpoint(ctx, id)
	if err != nil {
		return nil, err
	}
	endpoint.Active = active
	endpoint.UpdatedAt = time.Now()
	if err := s.store.UpdateEndpoint(ctx, endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}

// DeleteEndpoint removes an endpoint
func (s *Service) DeleteEndpoint(ctx context.Context, id string) error {
	return s.store.DeleteEndpoint(ctx, id)
}

// Receive accepts an inbound event for endpoint id and relays it to the
// outbound webhook when one is active. It reports whether a relay happened.
func (s *Service) Receive(ctx context.Context, id string, payload []byte) (bool, error) {
	endpoint, err := s.store.GetEndpoint(ctx, id)
	if err != nil {
		return false, err
	}
	if !endpoint.Active {
		return false, ErrEndpointInactive
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	if !json.Valid(payload) {
		return false, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidInput)
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.Enabled() {
		zap.S().Infof("📥 [WEBHOOK] %s event on %s accepted, no active relay", endpoint.Event, endpoint.Name)
		return false, nil
	}

	envelope := map[string]any{
		"endpointId": endpoint.ID,
		"name":       endpoint.Name,
		"event":      endpoint.Event,
		"platform":   endpoint.Platform,
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
		"payload":    json.RawMessage(payload),
	}

	_, err = utils.WithRetry(ctx, func(ctx context.Context) (int, error) {
		return s.post(ctx, settings.URL, envelope)
	}, s.RelayRetry)
	if err != nil {
		return false, fmt.Errorf("%w: %s event: %w", ErrRelayFailed, endpoint.Event, err)
	}

	zap.S().Infof("📤 [WEBHOOK] Relayed %s event from %s", endpoint.Event, endpoint.Name)
	return true, nil
}

func (s *Service) endpointURL(id string) string {
	return s.publicURL + "/api/webhook/" + id
}

func (s *Service) post(ctx context.Context, target string, body any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", Source)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url must be an absolute http(s) address", ErrInvalidInput)
	}
	return nil
}
