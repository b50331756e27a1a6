package whatsapp

import "errors"

// ErrQRUnavailable is wrapped by every bootstrap failure.
var ErrQRUnavailable = errors.New("qr code unavailable")

var (
	ErrNotConfigured   = wrapUnavailable("instance service URL is not configured")
	ErrEmptyKey        = wrapUnavailable("session key is empty")
	ErrRequestFailed   = wrapUnavailable("request to instance service failed")
	ErrInvalidResponse = wrapUnavailable("invalid response from instance service")
	ErrInitRejected    = wrapUnavailable("instance service rejected init")
	ErrMissingQRURL    = wrapUnavailable("init response has no qrcode url")
	ErrQRNotFound      = wrapUnavailable("qr code element not found")
)

type unavailableError struct {
	msg string
}

func (e *unavailableError) Error() string { return e.msg }

func (e *unavailableError) Unwrap() error { return ErrQRUnavailable }

func wrapUnavailable(msg string) error {
	return &unavailableError{msg: msg}
}

// ErrorCode returns a stable snake_case name for a bootstrap error, used in
// API responses and session state.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrEmptyKey):
		return "empty_key"
	case errors.Is(err, ErrInitRejected):
		return "init_rejected"
	case errors.Is(err, ErrMissingQRURL):
		return "missing_qr_url"
	case errors.Is(err, ErrQRNotFound):
		return "qr_not_found"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrRequestFailed):
		return "request_failed"
	case errors.Is(err, ErrQRUnavailable):
		return "qr_unavailable"
	default:
		return "internal_error"
	}
}
