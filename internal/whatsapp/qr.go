package whatsapp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/skip2/go-qrcode"
)

// QRElementSelector is the node the instance service renders the QR into.
const QRElementSelector = "#qrcode_box"

// qrImageSize is the edge length in pixels of locally rendered codes.
const qrImageSize = 256

// ExtractQR reads the src attribute of the QR element from an HTML page.
func ExtractQR(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: parse qr page: %w", ErrInvalidResponse, err)
	}

	sel := doc.Find(QRElementSelector).First()
	if sel.Length() == 0 {
		return "", ErrQRNotFound
	}

	src, ok := sel.Attr("src")
	src = strings.TrimSpace(src)
	if !ok || src == "" {
		return "", fmt.Errorf("%w: %s has no src", ErrQRNotFound, QRElementSelector)
	}
	return src, nil
}

// NormalizePayload turns whatever the QR element carried into something an
// <img> tag can show. Data URIs and image links pass through untouched; a raw
// pairing code (e.g. "2@...") is rendered into a PNG data URI.
func NormalizePayload(src string) (string, error) {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return src, nil
	}

	png, err := qrcode.Encode(src, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURI splits a base64 data URI into its mime type and bytes.
func DecodeDataURI(payload string) (string, []byte, error) {
	if !strings.HasPrefix(strings.ToLower(payload), "data:") {
		return "", nil, errors.New("payload is not a data URI")
	}

	meta, data, found := strings.Cut(payload[len("data:"):], ",")
	if !found {
		return "", nil, errors.New("malformed data URI")
	}

	mimeType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			mimeType = part
		case strings.EqualFold(part, "base64"):
			isBase64 = true
		}
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(data)
		if err != nil {
			return "", nil, fmt.Errorf("decode data URI: %w", err)
		}
		return mimeType, []byte(decoded), nil
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mimeType, raw, nil
}
