package ticket

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	issued := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	raw, err := Encode(42, 7, 3, 2, issued)
	require.NoError(t, err)

	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)
	assert.Equal(t, uint64(42), p.BookingID)
	assert.Equal(t, uint64(7), p.IdentityID)
	assert.Equal(t, uint64(3), p.ExhibitionID)
	assert.Equal(t, uint32(2), p.SeatCount)
	assert.True(t, p.IssuedAt.Equal(issued))
}

func TestEncodeNormalizesIssuedAt(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	issued := time.Date(2026, 3, 14, 11, 30, 0, 987654321, loc)
	raw, err := Encode(1, 1, 1, 1, issued)
	require.NoError(t, err)

	p, err := Decode(raw)
	require.NoError(t, err)
	// sub-second precision is dropped and the zone is UTC
	assert.Equal(t, time.UTC, p.IssuedAt.Location())
	assert.True(t, p.IssuedAt.Equal(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", "{", "12345", `"just a string"`} {
		_, err := Decode(raw)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe, "input %q", raw)
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		`{"booking_id":1,"identity_id":2,"exhibition_id":3,"seat_count":1,"issued_at":"2026-03-14T10:00:00Z"}`: "version",
		`{"version":1,"identity_id":2,"exhibition_id":3,"seat_count":1,"issued_at":"2026-03-14T10:00:00Z"}`:    "booking_id",
		`{"version":1,"booking_id":1,"exhibition_id":3,"seat_count":1,"issued_at":"2026-03-14T10:00:00Z"}`:     "identity_id",
		`{"version":1,"booking_id":1,"identity_id":2,"seat_count":1,"issued_at":"2026-03-14T10:00:00Z"}`:       "exhibition_id",
		`{"version":1,"booking_id":1,"identity_id":2,"exhibition_id":3,"issued_at":"2026-03-14T10:00:00Z"}`:    "seat_count",
		`{"version":1,"booking_id":1,"identity_id":2,"exhibition_id":3,"seat_count":1}`:                        "issued_at",
	}
	for raw, field := range cases {
		_, err := Decode(raw)
		var fe *FormatError
		require.ErrorAs(t, err, &fe, "input %s", raw)
		assert.Contains(t, fe.Error(), field)
	}
}

func TestDecodeFutureVersion(t *testing.T) {
	// Future version with all known fields present decodes.
	raw := `{"version":2,"booking_id":1,"identity_id":2,"exhibition_id":3,"seat_count":1,"issued_at":"2026-03-14T10:00:00Z","hologram":"x"}`
	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, uint64(1), p.BookingID)

	// Future version missing a known field is rejected as unsupported,
	// never guessed at.
	raw = `{"version":2,"booking_ref":"abc"}`
	_, err = Decode(raw)
	var uv *UnsupportedVersionError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, 2, uv.Version)
}

func TestPayloadIsHumanDiffableJSON(t *testing.T) {
	raw, err := Encode(9, 8, 7, 6, time.Now())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	for _, k := range []string{"version", "booking_id", "identity_id", "exhibition_id", "seat_count", "issued_at"} {
		assert.Contains(t, m, k)
	}
	assert.Len(t, m, 6)
}

func TestRenderPNG(t *testing.T) {
	raw, err := Encode(42, 7, 3, 2, time.Now())
	require.NoError(t, err)

	png, err := RenderPNG(raw)
	require.NoError(t, err)
	assert.True(t, len(png) > 0)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	uri, err := RenderDataURI(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
