package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wa-dashboard-go/internal/utils"

	"go.uber.org/zap"
)

const (
	// DefaultQRDelay is how long the instance service needs after init
	// before the QR page is ready.
	DefaultQRDelay = 2 * time.Second

	maxBodySize = 2 << 20
)

// Bootstrapper runs the init-then-scrape sequence against a WhatsApp
// instance service. It holds no per-call state, so one value can serve
// concurrent callers.
type Bootstrapper struct {
	BaseURL  string
	Delay    time.Duration
	Attempts int
	HTTP     *http.Client
}

// NewBootstrapper creates a bootstrap client for the instance service at baseURL
func NewBootstrapper(baseURL string, delay, timeout time.Duration, attempts int) *Bootstrapper {
	if attempts < 1 {
		attempts = 1
	}
	return &Bootstrapper{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Delay:    delay,
		Attempts: attempts,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Bootstrap initialises the session for key and returns its QR payload.
// Every returned error wraps ErrQRUnavailable.
func (b *Bootstrapper) Bootstrap(ctx context.Context, key string) (*Session, error) {
	if b.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(b.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotConfigured, b.BaseURL)
	}

	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}

	initResp, err := b.requestInit(ctx, base, key)
	if err != nil {
		zap.S().Warnf("❌ [BOOTSTRAP] [%s] init failed: %v", key, err)
		return nil, err
	}

	qrURL, err := resolveQRURL(base, initResp.QRCode.URL)
	if err != nil {
		zap.S().Warnf("❌ [BOOTSTRAP] [%s] %v", key, err)
		return nil, err
	}

	zap.S().Infof("⏳ [BOOTSTRAP] [%s] init ok, waiting %v for QR page", key, b.Delay)
	if err := utils.Sleep(ctx, b.Delay); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQRUnavailable, err)
	}

	src, err := utils.WithRetry(ctx, func(ctx context.Context) (string, error) {
		return b.fetchQR(ctx, qrURL)
	}, utils.RetryConfig{
		MaxRetries: b.Attempts,
		Delay:      b.Delay,
		Retryable: func(err error) bool {
			return errors.Is(err, ErrQRNotFound)
		},
	})
	if err != nil {
		zap.S().Warnf("❌ [BOOTSTRAP] [%s] QR fetch failed: %v", key, err)
		if !errors.Is(err, ErrQRUnavailable) {
			err = fmt.Errorf("%w: %w", ErrQRUnavailable, err)
		}
		return nil, err
	}

	payload, err := NormalizePayload(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	zap.S().Infof("📸 [BOOTSTRAP] [%s] QR code received (%d bytes)", key, len(payload))

	return &Session{
		Key:       key,
		QRCode:    payload,
		Webhook:   initResp.Webhook,
		Browser:   initResp.Browser,
		FetchedAt: time.Now(),
	}, nil
}

// requestInit performs GET {base}/init?key=...
func (b *Bootstrapper) requestInit(ctx context.Context, base *url.URL, key string) (*InitResponse, error) {
	initURL := base.JoinPath("init")
	initURL.RawQuery = url.Values{"key": {key}}.Encode()

	body, err := b.get(ctx, initURL.String())
	if err != nil {
		return nil, err
	}

	var resp InitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode init response: %w", ErrInvalidResponse, err)
	}
	if resp.Error {
		return nil, fmt.Errorf("%w: %s", ErrInitRejected, resp.Message)
	}
	return &resp, nil
}

// fetchQR downloads the QR page and extracts the image source
func (b *Bootstrapper) fetchQR(ctx context.Context, qrURL string) (string, error) {
	body, err := b.get(ctx, qrURL)
	if err != nil {
		return "", err
	}
	return ExtractQR(bytes.NewReader(body))
}

func (b *Bootstrapper) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrRequestFailed, err)
	}

	client := b.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrRequestFailed, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// resolveQRURL validates qrcode.url and resolves it against the base address
// when the instance service hands back a relative path.
func resolveQRURL(base *url.URL, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingQRURL
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMissingQRURL, raw)
	}
	return base.ResolveReference(ref).String(), nil
}
