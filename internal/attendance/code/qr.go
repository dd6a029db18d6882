package code

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// ErrInvalidQRSize is returned for a QR edge length outside 64..1024 pixels.
var ErrInvalidQRSize = errors.New("qr: size must be between 64 and 1024")

// QRSize resolves a requested edge length: zero means DefaultQRSize.
func QRSize(size int) (int, error) {
	if size == 0 {
		return DefaultQRSize, nil
	}
	if size < minQRSize || size > maxQRSize {
		return 0, ErrInvalidQRSize
	}
	return size, nil
}

// QRPNG renders url as a PNG QR image size pixels wide at the highest recovery level.
// A size of zero uses DefaultQRSize.
func QRPNG(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, errors.New("qr: empty content")
	}
	size, err := QRSize(size)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(url, qrcode.Highest, size)
}
