// Package shortlink encodes recipe IDs as short base62 codes.
// Pure functions only, no I/O.
package shortlink

import (
	"errors"
	"math"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	// ErrInvalidCode is returned when a code contains characters outside
	// the alphabet or is empty.
	ErrInvalidCode = errors.New("invalid short link code")
)

// Encode converts a positive recipe ID to its base62 code.
func Encode(id int64) string {
	if id <= 0 {
		return ""
	}
	var buf [11]byte // enough for int64 in base62
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = alphabet[id%62]
		id /= 62
	}
	return string(buf[i:])
}

// Decode converts a base62 code back to the recipe ID.
func Decode(code string) (int64, error) {
	if code == "" || len(code) > 11 {
		return 0, ErrInvalidCode
	}
	var id int64
	for _, r := range code {
		var v int64
		switch {
		case r >= '0' && r <= '9':
			v = int64(r - '0')
		case r >= 'a' && r <= 'z':
			v = int64(r-'a') + 10
		case r >= 'A' && r <= 'Z':
			v = int64(r-'A') + 36
		default:
			return 0, ErrInvalidCode
		}
		if id > (math.MaxInt64-v)/62 {
			return 0, ErrInvalidCode
		}
		id = id*62 + v
	}
	if id <= 0 {
		return 0, ErrInvalidCode
	}
	return id, nil
}
