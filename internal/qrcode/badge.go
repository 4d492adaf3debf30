package qrcode

import (
	qr "github.com/skip2/go-qrcode"

	"attendance-console/internal/scan"
)

// DefaultSize is the badge edge length in pixels.
const DefaultSize = 256

// Badge renders the scan payload of a participant as a PNG.
func Badge(subjectID, scheduleID string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qr.Encode(scan.Encode(subjectID, scheduleID), qr.Medium, size)
}
