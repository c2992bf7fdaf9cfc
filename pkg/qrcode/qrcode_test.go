package qrcode

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

const verifyURL = "https://suratku.id/verify/L1?hash=f9e4bf876d261ae6605fa0d753b1185fbad65ae7c6edea4f1e05cc3a8e81cbcb"

func TestPNG(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantSize int
	}{
		{"default size", 0, DefaultSize},
		{"explicit size", 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := PNG(verifyURL, tt.size)
			if err != nil {
				t.Fatalf("PNG() error = %v", err)
			}

			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("png.Decode() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantSize || b.Dy() != tt.wantSize {
				t.Errorf("PNG() bounds = %v, want %dx%d", b, tt.wantSize, tt.wantSize)
			}
		})
	}
}

func TestPNGDeterministic(t *testing.T) {
	a, err := PNG(verifyURL, DefaultSize)
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	b, _ := PNG(verifyURL, DefaultSize)

	if !bytes.Equal(a, b) {
		t.Error("PNG() should render identical bytes for the same payload")
	}
}

func TestPNGEmptyPayload(t *testing.T) {
	if _, err := PNG("", DefaultSize); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("PNG() error = %v, want ErrEmptyPayload", err)
	}
}
