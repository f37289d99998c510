package booking

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

// QRCodePayload is what gate scanners read.
func QRCodePayload(b Booking) string {
	return fmt.Sprintf("TAZKARTI|%s|%s", b.Code, b.ID)
}

// QRCodeDataURI renders the booking's QR code as a PNG data URI. Only confirmed bookings get one.
func QRCodeDataURI(b Booking) (string, bool, error) {
	if b.Status != StatusConfirmed {
		return "", false, nil
	}

	png, err := qrcode.Encode(QRCodePayload(b), qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", false, err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), true, nil
}
