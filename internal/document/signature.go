package document

import (
	"BiomassLedger/internal/model"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

var (
	ErrSignatureMissing  = errors.New("signature is missing")
	ErrSignatureTooLarge = errors.New("signature image is too large")
	ErrSignatureFormat   = errors.New("signature must be a PNG or JPEG image")
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// Signature проверенное изображение подписи.
type Signature struct {
	Content     []byte
	ContentType string
	// ImageType тип для fpdf: "PNG" или "JPG".
	ImageType string
	Width     int
	Height    int
	// Ref sha256 от содержимого, он же ключ в хранилище артефактов.
	Ref string
}

// ParseSignature проверяет размер, сигнатуру формата и читаемость заголовка изображения.
func ParseSignature(data []byte, maxBytes int) (*Signature, error) {
	if len(data) == 0 {
		return nil, ErrSignatureMissing
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, fmt.Errorf("%d bytes, limit %d: %w", len(data), maxBytes, ErrSignatureTooLarge)
	}

	var contentType, imageType string
	switch {
	case bytes.HasPrefix(data, pngMagic):
		contentType, imageType = "image/png", "PNG"
	case bytes.HasPrefix(data, jpegMagic):
		contentType, imageType = "image/jpeg", "JPG"
	default:
		return nil, ErrSignatureFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode header: %v: %w", err, ErrSignatureFormat)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image: %w", ErrSignatureFormat)
	}

	return &Signature{
		Content:     data,
		ContentType: contentType,
		ImageType:   imageType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Ref:         model.ContentRef(data),
	}, nil
}

// Artifact представление подписи для хранилища.
func (s *Signature) Artifact() *model.Artifact {
	return &model.Artifact{
		ID:          s.Ref,
		ContentType: s.ContentType,
		Size:        int64(len(s.Content)),
		Content:     s.Content,
	}
}
