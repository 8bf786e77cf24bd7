package ui

import (
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// WriteQR prints text as a QR code made of terminal block characters, so
// another player can open the same screen from a phone.
func WriteQR(w io.Writer, text string, inverse bool) error {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	_, err = io.WriteString(w, q.ToSmallString(inverse))
	return err
}

// QRPNG encodes text as a PNG QR code of the given size in pixels
func QRPNG(text string, size int) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
