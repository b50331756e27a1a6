package whatsapp

import "time"

// InitResponse is the body returned by GET {base}/init?key=...
type InitResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Key     string      `json:"key"`
	Webhook WebhookInfo `json:"webhook"`
	QRCode  QRCodeInfo  `json:"qrcode"`
	Browser BrowserInfo `json:"browser"`
}

// WebhookInfo echoes the instance webhook configuration
type WebhookInfo struct {
	Enabled    bool    `json:"enabled"`
	WebhookURL *string `json:"webhookUrl"`
}

// QRCodeInfo points at the page that renders the pairing QR
type QRCodeInfo struct {
	URL string `json:"url"`
}

// BrowserInfo describes the emulated WhatsApp Web client
type BrowserInfo struct {
	Platform string `json:"platform"`
	Browser  string `json:"browser"`
	Version  string `json:"version"`
}

// Session is a successful bootstrap: the QR payload plus what the instance
// service echoed back on init.
type Session struct {
	Key       string      `json:"key"`
	QRCode    string      `json:"qr"`
	Webhook   WebhookInfo `json:"webhook"`
	Browser   BrowserInfo `json:"browser"`
	FetchedAt time.Time   `json:"fetchedAt"`
}

// SessionStatus is the lifecycle of a key as seen by the Manager
type SessionStatus string

const (
	StatusPending SessionStatus = "pending"
	StatusReady   SessionStatus = "ready"
	StatusFailed  SessionStatus = "failed"
)

// SessionState is the last known outcome for a session key
type SessionState struct {
	Key       string        `json:"key"`
	Status    SessionStatus `json:"status"`
	QRCode    string        `json:"qr,omitempty"`
	ErrorCode string        `json:"errorCode,omitempty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// StatusUpdate represents a session status change event
type StatusUpdate struct {
	Key    string        `json:"key"`
	Status SessionStatus `json:"status"`
	Ready  bool          `json:"ready"`
	Error  string        `json:"error,omitempty"`
}

// QRImageEvent represents a QR code image event
type QRImageEvent struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
