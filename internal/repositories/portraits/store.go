package portraits

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	dnderr "github.com/KirkDiggler/charsheet/internal/errors"
)

// DefaultMaxBytes is the largest portrait accepted when no limit is configured
const DefaultMaxBytes = 16 << 20

const fieldPortrait = "portrait"

// AllowedContentTypes lists the image formats a portrait may use
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Portrait is a stored image
type Portrait struct {
	Ref         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Store is the Image Store. Put returns an opaque ref that characters keep.
type Store interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
	Get(ctx context.Context, ref string) (*Portrait, error)
	Delete(ctx context.Context, ref string) error
}

// Policy decides which uploads are accepted
type Policy struct {
	MaxBytes int
}

// Check validates data against the size limit and the allowed formats and
// returns the content type to store. The declared type may be empty; when
// present it must agree with what the bytes actually are.
func (p Policy) Check(declared string, data []byte) (string, error) {
	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if len(data) == 0 {
		return "", dnderr.Validation(fieldPortrait, dnderr.ReasonRequired, "portrait image is empty")
	}
	if len(data) > maxBytes {
		return "", dnderr.Validation(fieldPortrait, dnderr.ReasonSize, "portrait image is too large").
			WithMeta("max_bytes", maxBytes).
			WithMeta("size", len(data))
	}

	sniffed := baseType(http.DetectContentType(data))
	if !AllowedContentTypes[sniffed] {
		return "", dnderr.Validation(fieldPortrait, dnderr.ReasonFormat, "portrait must be a jpeg, png, gif or webp image").
			WithMeta("content_type", sniffed)
	}

	if declared != "" && baseType(declared) != sniffed {
		return "", dnderr.Validation(fieldPortrait, dnderr.ReasonFormat, "portrait content does not match its declared type").
			WithMeta("declared", declared).
			WithMeta("content_type", sniffed)
	}

	return sniffed, nil
}

func baseType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func notFound(ref string) error {
	return dnderr.NotFoundf("portrait '%s' not found", ref).WithMeta("portrait_ref", ref)
}
