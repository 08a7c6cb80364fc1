package cipher

import (
	"errors"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/sealed"
	"github.com/wat40/C-Encryption-System/server/internal/services/keyring"
)

var codes = []struct {
	err  error
	code string
}{
	{encryption.ErrKeyLength, "key_length"},
	{encryption.ErrIVLength, "iv_length"},
	{encryption.ErrBlockLength, "block_length"},
	{encryption.ErrHexFormat, "hex_format"},
	{encryption.ErrCiphertextLength, "ciphertext_length"},
	{encryption.ErrPadding, "padding"},
	{encryption.ErrSize, "size"},
	{sealed.ErrNotSealed, "not_sealed"},
	{sealed.ErrCorrupt, "corrupt"},
	{sealed.ErrTooLarge, "too_large"},
	{keyring.ErrMissingMaterial, "missing_material"},
	{keyring.ErrUnknownPadding, "unknown_padding"},
	{keyring.ErrProfileNotFound, "profile_not_found"},
	{ErrUnknownType, "unknown_type"},
	{ErrValueFormat, "value_format"},
}

// ErrorCode returns a stable code for client-caused failures, or "" when
// err is not one of them.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}
