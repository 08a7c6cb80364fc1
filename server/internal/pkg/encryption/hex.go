package encryption

import (
	"encoding/hex"
	"fmt"
)

// EncodeHex renders b as lowercase hex, two digits per byte, no separators.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex parses hex produced by EncodeHex. Upper-case digits are accepted.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHexFormat, err)
	}
	return b, nil
}
