package client

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/GriffinCanCode/BabyBrowser/internal/web/address"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Document is the result of one fetch: the final address after redirects,
// the negotiated content type and charset, the raw body bytes and their
// text decoding. Immutable after construction; owned by the caller.
type Document struct {
	URL         address.Address
	Status      int
	ContentType string
	Charset     string
	Raw         []byte
	Text        string

	// ViewSource marks the document for literal-source display instead
	// of markup decoding and layout.
	ViewSource bool
}

// IsHTML reports whether the document should be decoded as HTML markup.
func (d *Document) IsHTML() bool {
	if d.ViewSource {
		return false
	}
	return strings.Contains(d.ContentType, "text/html")
}

// splitContentType separates the media type from its charset parameter.
func splitContentType(header string) (mediaType, label string) {
	if header == "" {
		return "", ""
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.TrimSpace(strings.ToLower(header)), ""
	}
	return mediaType, params["charset"]
}

// decodeText converts raw body bytes to UTF-8 text using the declared
// charset label, detecting the charset from the bytes when no label is
// given. Decoding is best-effort: an unknown or unsupported charset falls
// back to interpreting the bytes as UTF-8.
func decodeText(raw []byte, label string) (text, used string) {
	if label == "" {
		label = detectCharset(raw)
	}
	label = strings.ToLower(strings.TrimSpace(label))

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(raw))
	if err != nil {
		return string(raw), "utf-8"
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(raw), "utf-8"
	}
	return string(decoded), label
}

// detectCharset guesses the charset from body bytes.
func detectCharset(raw []byte) string {
	if len(raw) == 0 {
		return "utf-8"
	}
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(raw)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
