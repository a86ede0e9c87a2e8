package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateISO(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want string
	}{
		{"iso", "2023-06-15", "2023-06-15"},
		{"us slash", "06/15/2023", "2023-06-15"},
		{"us slash short", "6/5/2023", "2023-06-05"},
		{"iso slash", "2023/06/15", "2023-06-15"},
		{"day first dash", "15-06-2023", "2023-06-15"},
		{"padded", "  2023-06-15  ", "2023-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDateISO(tt.s)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDateISOUnparsable(t *testing.T) {
	for _, s := range []string{"", "  ", "yesterday", "2023-13-45"} {
		assert.Nil(t, parseDateISO(s), "input %q", s)
	}
}

func TestParseFloatPtr(t *testing.T) {
	got := parseFloatPtr("42.5")
	require.NotNil(t, got)
	assert.Equal(t, 42.5, *got)

	// Literal zero is a value, not a missing field.
	got = parseFloatPtr("0")
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)

	assert.Nil(t, parseFloatPtr(""))
	assert.Nil(t, parseFloatPtr("fast"))
}

func TestParseCoordinate(t *testing.T) {
	lon, lat := parseCoordinate(`"35.5, 33.9"`)
	require.NotNil(t, lon)
	require.NotNil(t, lat)
	assert.Equal(t, 35.5, *lon)
	assert.Equal(t, 33.9, *lat)
}

func TestParseCoordinateMalformed(t *testing.T) {
	// No separator: neither component is usable.
	lon, lat := parseCoordinate("35.5")
	assert.Nil(t, lon)
	assert.Nil(t, lat)

	// One bad component degrades that component only.
	lon, lat = parseCoordinate("garbage, 33.9")
	assert.Nil(t, lon)
	require.NotNil(t, lat)
	assert.Equal(t, 33.9, *lat)
}

func TestStrPtr(t *testing.T) {
	got := strPtr(" 08:15:00 ")
	require.NotNil(t, got)
	assert.Equal(t, "08:15:00", *got)

	assert.Nil(t, strPtr(""))
	assert.Nil(t, strPtr("   "))
}
