// Package qrcode renders verification URLs as PNG QR codes.
package qrcode

import (
	"errors"
	"fmt"
	"image/color"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the pixel width of a rendered code.
const DefaultSize = 256

var ErrEmptyPayload = errors.New("qr payload is empty")

var (
	ink   = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	paper = color.White
)

// PNG encodes payload at error-correction level H as a size×size PNG.
func PNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if size <= 0 {
		size = DefaultSize
	}

	code, err := goqrcode.New(payload, goqrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}
	code.ForegroundColor = ink
	code.BackgroundColor = paper

	png, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
