package qrcode

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GeneratePNG encodes payload into a QR code PNG of the given pixel size.
// Medium error correction (15% recovery) is enough for gate scanners.
func GeneratePNG(payload string, size int) ([]byte, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pngBytes, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR to PNG: %w", err)
	}

	return pngBytes, nil
}
