// Package assist generates line item copy and product images for the catalog
// and document editors. Results are suggestions only; callers fall back to
// manual entry when generation fails.
package assist

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// Image is a generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// Describer writes a line item description from keywords.
type Describer interface {
	Describe(ctx context.Context, keywords string) (string, error)
}

// Imager renders a product image for an item name.
type Imager interface {
	Generate(ctx context.Context, name string) (Image, error)
}

// ImageStore persists an image and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, img Image) (string, error)
}

// Service validates requests and maps generator failures to ErrAssistUnavailable.
type Service struct {
	describer Describer
	imager    Imager
	store     ImageStore
	logger    *slog.Logger
}

// NewService constructs the assist service. A nil store makes images come
// back as data URIs.
func NewService(describer Describer, imager Imager, store ImageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{describer: describer, imager: imager, store: store, logger: logger}
}

// Describe returns a generated description for keywords.
func (s *Service) Describe(ctx context.Context, keywords string) (string, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return "", shared.NewValidationError("keywords", "Keywords are required.")
	}
	if s.describer == nil {
		return "", fmt.Errorf("%w: description generator not configured", shared.ErrAssistUnavailable)
	}
	text, err := s.describer.Describe(ctx, keywords)
	if err != nil {
		s.logger.Warn("generate description", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", shared.ErrAssistUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty description", shared.ErrAssistUnavailable)
	}
	return text, nil
}

// Image returns a URL for a generated image of the named item.
func (s *Service) Image(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("name", "Item name is required to generate an image.")
	}
	if s.imager == nil {
		return "", fmt.Errorf("%w: image generator not configured", shared.ErrAssistUnavailable)
	}
	img, err := s.imager.Generate(ctx, name)
	if err != nil {
		s.logger.Warn("generate image", slog.String("name", name), slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", shared.ErrAssistUnavailable, err)
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: image generation failed", shared.ErrAssistUnavailable)
	}
	if img.MIMEType == "" {
		img.MIMEType = "image/png"
	}
	if s.store == nil {
		return DataURI(img), nil
	}
	url, err := s.store.Put(ctx, img)
	if err != nil {
		s.logger.Warn("store generated image", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", shared.ErrAssistUnavailable, err)
	}
	return url, nil
}

// DataURI inlines img as a base64 data URI.
func DataURI(img Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
