package encryption

import (
	"errors"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption/padding"
)

var (
	ErrKeyLength        = errors.New("key must be 16 bytes")
	ErrIVLength         = errors.New("iv must be 16 bytes")
	ErrBlockLength      = errors.New("block must be 16 bytes")
	ErrHexFormat        = errors.New("invalid hex ciphertext")
	ErrCiphertextLength = errors.New("ciphertext length must be a positive multiple of 16")
	ErrSize             = errors.New("decrypted payload too small for requested type")

	// ErrPadding is returned when the trailer of a decrypted buffer is not valid padding.
	ErrPadding = padding.ErrPadding
)
