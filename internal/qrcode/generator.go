package qrcode

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	qr "github.com/skip2/go-qrcode"
)

// MarkURL builds the client-side marking link encoded into the QR image.
func MarkURL(clientURL string, courseID uuid.UUID, date string) string {
	return fmt.Sprintf("%s/markattendance?id=%s&date=%s",
		clientURL, courseID.String(), url.QueryEscape(date))
}

// Generate renders the marking link as a PNG QR image and returns it as a
// base64 data URL, ready to embed in an <img> tag.
func Generate(clientURL string, courseID uuid.UUID, date string) (string, error) {
	png, err := qr.Encode(MarkURL(clientURL, courseID, date), qr.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
