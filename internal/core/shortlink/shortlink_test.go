package shortlink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, id := range []int64{1, 61, 62, 12345, 1<<40 + 7, math.MaxInt64} {
		code := Encode(id)
		require.NotEmpty(t, code)

		got, err := Decode(code)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestEncode_KnownValues(t *testing.T) {
	assert.Equal(t, "1", Encode(1))
	assert.Equal(t, "Z", Encode(61))
	assert.Equal(t, "10", Encode(62))
	assert.Equal(t, "", Encode(0))
	assert.Equal(t, "", Encode(-5))
}

func TestDecode_Invalid(t *testing.T) {
	for _, code := range []string{"", "with space", "нет", "0", "aaaaaaaaaaaa"} {
		_, err := Decode(code)
		assert.ErrorIs(t, err, ErrInvalidCode, "code %q", code)
	}
}

func TestDecode_Overflow(t *testing.T) {
	// 11-character codes past Encode(math.MaxInt64) would wrap int64
	// and resolve to an unrelated positive ID.
	for _, code := range []string{"ZZZZZZZZZZZ", "aZl8N0y58M8", "b0000000000"} {
		_, err := Decode(code)
		assert.ErrorIs(t, err, ErrInvalidCode, "code %q", code)
	}
}
