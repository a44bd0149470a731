package einvoice

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultImageSize = 256
	MinImageSize     = 64
	MaxImageSize     = 1024
)

// RenderPNG encodes the payload and renders it as a PNG QR code of size×size
// pixels. Sizes outside [MinImageSize, MaxImageSize] are clamped.
func RenderPNG(p Payload, size int) ([]byte, error) {
	content, err := Encode(p)
	if err != nil {
		return nil, err
	}
	return RenderString(content, size)
}

// RenderString renders an already encoded payload.
func RenderString(content string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultImageSize
	case size < MinImageSize:
		size = MinImageSize
	case size > MaxImageSize:
		size = MaxImageSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}
