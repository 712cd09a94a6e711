// Package ticket encodes and decodes the payload embedded in a booking's
// QR code.  The wire format is compact JSON so payloads stay small enough
// for a low-version QR symbol and remain human-diffable in tests.
package ticket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Version is the current payload schema version.  Version 1 carries
// exactly the fields of Payload and no others.
const Version = 1

// qrSize is the rendered symbol edge in pixels.  300px scans reliably
// from both phone screens and prints.
const qrSize = 300

// Payload is the decoded ticket record.  It is a projection of a
// booking's identity fields plus a schema version and issuance time; it
// is never stored as its own entity.
type Payload struct {
	Version      int       `json:"version"`
	BookingID    uint64    `json:"booking_id"`
	IdentityID   uint64    `json:"identity_id"`
	ExhibitionID uint64    `json:"exhibition_id"`
	SeatCount    uint32    `json:"seat_count"`
	IssuedAt     time.Time `json:"issued_at"`
}

// FormatError describes a payload that could not be decoded.  The message
// names the missing or malformed part so door staff can tell a damaged
// ticket from a forged one.
type FormatError struct{ Reason string }

func (e *FormatError) Error() string { return "malformed ticket payload: " + e.Reason }

// UnsupportedVersionError is returned for a payload from a future schema
// that this version cannot safely interpret.
type UnsupportedVersionError struct{ Version int }

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported ticket payload version %d", e.Version)
}

// Encode serializes a payload for booking fields at the current version.
// IssuedAt is truncated to whole seconds in UTC so the round-trip through
// JSON is exact.
func Encode(bookingID, identityID, exhibitionID uint64, seatCount uint32, issuedAt time.Time) (string, error) {
	p := Payload{
		Version:      Version,
		BookingID:    bookingID,
		IdentityID:   identityID,
		ExhibitionID: exhibitionID,
		SeatCount:    seatCount,
		IssuedAt:     issuedAt.UTC().Truncate(time.Second),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses scanned text back into a Payload.  It fails with a
// FormatError when the text is not well-formed JSON or a required field
// is absent or zero.  A payload with a version greater than the current
// one still decodes when every field this version understands is present;
// otherwise it is rejected with UnsupportedVersionError rather than
// silently misread.
func Decode(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &FormatError{Reason: "not valid JSON"}
	}
	if p.Version <= 0 {
		return nil, &FormatError{Reason: "missing version"}
	}
	missing := firstMissingField(&p)
	if p.Version > Version {
		if missing != "" {
			return nil, &UnsupportedVersionError{Version: p.Version}
		}
		// Future version but all v1 fields intact: forward-compatible.
		return &p, nil
	}
	if missing != "" {
		return nil, &FormatError{Reason: "missing " + missing}
	}
	return &p, nil
}

func firstMissingField(p *Payload) string {
	switch {
	case p.BookingID == 0:
		return "booking_id"
	case p.IdentityID == 0:
		return "identity_id"
	case p.ExhibitionID == 0:
		return "exhibition_id"
	case p.SeatCount == 0:
		return "seat_count"
	case p.IssuedAt.IsZero():
		return "issued_at"
	}
	return ""
}

// RenderPNG draws the payload into a QR symbol and returns the PNG bytes.
// Medium error correction (15% recovery) tolerates partial occlusion and
// print wear while keeping the symbol small for this short payload.
func RenderPNG(payload string) ([]byte, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("build qr symbol: %w", err)
	}
	png, err := qr.PNG(qrSize)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}

// RenderDataURI renders the payload as a PNG data URI that can be dropped
// straight into an email or an <img> tag.
func RenderDataURI(payload string) (string, error) {
	png, err := RenderPNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
