package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = "data:image/png;base64,AAA"

// fakeInstance mimics the remote instance service: /init answers with JSON,
// /qr serves the page carrying the QR element.
type fakeInstance struct {
	*httptest.Server

	initCalls atomic.Int32
	qrCalls   atomic.Int32

	mu       sync.Mutex
	initAt   time.Time
	qrAt     time.Time
	lastKey  string
	initBody func(key string) any
	qrPage   func(key string, call int32) string
	status   int
}

func newFakeInstance(t *testing.T) *fakeInstance {
	t.Helper()
	f := &fakeInstance{status: http.StatusOK}
	f.initBody = func(key string) any {
		return initPayload(key, "/qr?key="+key)
	}
	f.qrPage = func(key string, _ int32) string {
		return qrHTML(testPayload)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/init", func(w http.ResponseWriter, r *http.Request) {
		f.initCalls.Add(1)
		key := r.URL.Query().Get("key")
		f.mu.Lock()
		f.initAt = time.Now()
		f.lastKey = key
		status := f.status
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(f.initBody(key))
	})
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		call := f.qrCalls.Add(1)
		f.mu.Lock()
		f.qrAt = time.Now()
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, f.qrPage(r.URL.Query().Get("key"), call))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func initPayload(key, qrURL string) map[string]any {
	return map[string]any{
		"error":   false,
		"message": "Initializing successfully",
		"key":     key,
		"webhook": map[string]any{"enabled": true, "webhookUrl": "https://hooks.example.com/wa"},
		"qrcode":  map[string]any{"url": qrURL},
		"browser": map[string]any{"platform": "Ubuntu", "browser": "Chrome", "version": "22.04.4"},
	}
}

func qrHTML(src string) string {
	return `<html><head><title>QR</title></head><body>
<div class="container"><img id="qrcode_box" src="` + src + `" alt="qr"/></div>
</body></html>`
}

func newTestBootstrapper(baseURL string, delay time.Duration) *Bootstrapper {
	return NewBootstrapper(baseURL, delay, 5*time.Second, 1)
}

func TestBootstrapNotConfiguredMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	b := newTestBootstrapper("", time.Millisecond)
	b.HTTP = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, fmt.Errorf("unexpected request to %s", r.URL)
	})}

	session, err := b.Bootstrap(context.Background(), "5511999990000")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, ErrQRUnavailable)
	assert.Zero(t, calls.Load())
}

func TestBootstrapRejectsEmptyKey(t *testing.T) {
	f := newFakeInstance(t)
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.Zero(t, f.initCalls.Load())
}

func TestBootstrapHappyPath(t *testing.T) {
	f := newFakeInstance(t)
	b := newTestBootstrapper(f.URL, 50*time.Millisecond)

	session, err := b.Bootstrap(context.Background(), "5511999990000")
	require.NoError(t, err)

	assert.Equal(t, testPayload, session.QRCode)
	assert.Equal(t, "5511999990000", session.Key)
	assert.True(t, session.Webhook.Enabled)
	require.NotNil(t, session.Webhook.WebhookURL)
	assert.Equal(t, "https://hooks.example.com/wa", *session.Webhook.WebhookURL)
	assert.Equal(t, "Chrome", session.Browser.Browser)
	assert.EqualValues(t, 1, f.initCalls.Load())
	assert.EqualValues(t, 1, f.qrCalls.Load())
	assert.Equal(t, "5511999990000", f.lastKey)
}

func TestBootstrapWaitsDefaultDelayBetweenRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the full QR delay")
	}
	f := newFakeInstance(t)
	b := newTestBootstrapper(f.URL, DefaultQRDelay)

	_, err := b.Bootstrap(context.Background(), "delay-check")
	require.NoError(t, err)

	f.mu.Lock()
	gap := f.qrAt.Sub(f.initAt)
	f.mu.Unlock()
	assert.GreaterOrEqual(t, gap, 2000*time.Millisecond)
}

func TestBootstrapMissingQRURLSkipsSecondRequest(t *testing.T) {
	f := newFakeInstance(t)
	f.initBody = func(key string) any { return initPayload(key, "") }
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")

	assert.ErrorIs(t, err, ErrMissingQRURL)
	assert.ErrorIs(t, err, ErrQRUnavailable)
	assert.EqualValues(t, 1, f.initCalls.Load())
	assert.Zero(t, f.qrCalls.Load())
}

func TestBootstrapMissingElement(t *testing.T) {
	f := newFakeInstance(t)
	f.qrPage = func(string, int32) string {
		return `<html><body><p>Session already connected</p></body></html>`
	}
	b := newTestBootstrapper(f.URL, time.Millisecond)

	var (
		session *Session
		err     error
	)
	assert.NotPanics(t, func() {
		session, err = b.Bootstrap(context.Background(), "k1")
	})
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrQRNotFound)
	assert.ErrorIs(t, err, ErrQRUnavailable)
	assert.Equal(t, "qr_not_found", ErrorCode(err))
}

func TestBootstrapElementWithoutSrc(t *testing.T) {
	f := newFakeInstance(t)
	f.qrPage = func(string, int32) string {
		return `<html><body><img id="qrcode_box"/></body></html>`
	}
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrQRNotFound)
}

func TestBootstrapInitRejected(t *testing.T) {
	f := newFakeInstance(t)
	f.initBody = func(key string) any {
		body := initPayload(key, "/qr")
		body["error"] = true
		body["message"] = "instance limit reached"
		return body
	}
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")

	assert.ErrorIs(t, err, ErrInitRejected)
	assert.Contains(t, err.Error(), "instance limit reached")
	assert.Zero(t, f.qrCalls.Load())
}

func TestBootstrapInitHTTPError(t *testing.T) {
	f := newFakeInstance(t)
	f.status = http.StatusInternalServerError
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")

	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, "request_failed", ErrorCode(err))
}

func TestBootstrapInvalidJSON(t *testing.T) {
	f := newFakeInstance(t)
	f.initBody = func(string) any { return "not an object" }
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBootstrapNetworkFailure(t *testing.T) {
	f := newFakeInstance(t)
	base := f.URL
	f.Close()
	b := newTestBootstrapper(base, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, ErrQRUnavailable)
}

func TestBootstrapAbsoluteQRURL(t *testing.T) {
	f := newFakeInstance(t)
	f.initBody = func(key string) any { return initPayload(key, f.URL+"/qr?key="+key) }
	b := newTestBootstrapper(f.URL, time.Millisecond)

	session, err := b.Bootstrap(context.Background(), "abs")
	require.NoError(t, err)
	assert.Equal(t, testPayload, session.QRCode)
}

func TestBootstrapPollsUntilElementAppears(t *testing.T) {
	f := newFakeInstance(t)
	f.qrPage = func(_ string, call int32) string {
		if call < 3 {
			return `<html><body>loading...</body></html>`
		}
		return qrHTML(testPayload)
	}
	b := NewBootstrapper(f.URL, 5*time.Millisecond, 5*time.Second, 3)

	session, err := b.Bootstrap(context.Background(), "poll")
	require.NoError(t, err)
	assert.Equal(t, testPayload, session.QRCode)
	assert.EqualValues(t, 3, f.qrCalls.Load())
}

func TestBootstrapCancelDuringDelay(t *testing.T) {
	f := newFakeInstance(t)
	b := newTestBootstrapper(f.URL, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := b.Bootstrap(ctx, "cancel")

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrQRUnavailable)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Zero(t, f.qrCalls.Load())
}

func TestBootstrapSequentialKeysAreIndependent(t *testing.T) {
	f := newFakeInstance(t)
	f.qrPage = func(key string, _ int32) string {
		return qrHTML("data:image/png;base64," + key)
	}
	b := newTestBootstrapper(f.URL, time.Millisecond)

	first, err := b.Bootstrap(context.Background(), "AAAA")
	require.NoError(t, err)
	second, err := b.Bootstrap(context.Background(), "BBBB")
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,AAAA", first.QRCode)
	assert.Equal(t, "data:image/png;base64,BBBB", second.QRCode)
	assert.Equal(t, "AAAA", first.Key)
	assert.Equal(t, "BBBB", second.Key)
}

func TestBootstrapEscapesKey(t *testing.T) {
	f := newFakeInstance(t)
	f.initBody = func(key string) any { return initPayload(key, "/qr") }
	b := newTestBootstrapper(f.URL, time.Millisecond)

	_, err := b.Bootstrap(context.Background(), "55 11&x=1")
	require.NoError(t, err)
	assert.Equal(t, "55 11&x=1", f.lastKey)
}

func TestBootstrapSendsKeyUnchanged(t *testing.T) {
	f := newFakeInstance(t)
	b := newTestBootstrapper(f.URL, time.Millisecond)

	session, err := b.Bootstrap(context.Background(), " acme ")
	require.NoError(t, err)
	assert.Equal(t, " acme ", f.lastKey)
	assert.Equal(t, " acme ", session.Key)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
