// Package location formats device coordinates and area codes for alert
// messages and anonymized records. Acquiring a fix and reverse geocoding
// belong to the device layer; the core only renders what it is handed.
package location

import (
	"fmt"
	"strings"
)

const maxAreaCodeLen = 20

// Coordinates is a device fix. Accuracy is metres when known.
type Coordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// FormatCoords renders "lat, lon" to four decimal places, or "Unknown"
// when no fix is available.
func FormatCoords(c *Coordinates) string {
	if c == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

// NormalizeAreaCode uppercases and trims an area or village code to the
// short display form shared with the aggregation wire contract.
func NormalizeAreaCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if r := []rune(code); len(r) > maxAreaCodeLen {
		return string(r[:maxAreaCodeLen])
	}
	return code
}
