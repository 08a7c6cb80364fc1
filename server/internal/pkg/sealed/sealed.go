// Package sealed wraps engine ciphertext in a small envelope whose payload is
// lz4-compressed when that makes it smaller.
package sealed

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
)

// Magic prefixes every sealed envelope
var Magic = []byte("SPN1")

const (
	flagStored byte = 0
	flagLZ4    byte = 1

	// MaxPayload bounds the decompressed size accepted by Open
	MaxPayload = 64 << 20
)

var (
	ErrNotSealed = errors.New("sealed: missing envelope header")
	ErrCorrupt   = errors.New("sealed: corrupt payload")
	ErrTooLarge  = errors.New("sealed: payload too large")
)

// Seal compresses data when worthwhile and encrypts it on e.
//
// Layout: Magic || E(flag || uvarint(len(data)) || body)
func Seal(e *encryption.Engine, data []byte) ([]byte, error) {
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	body, flag := compress(data)
	plain := make([]byte, 0, 1+binary.MaxVarintLen64+len(body))
	plain = append(plain, flag)
	plain = binary.AppendUvarint(plain, uint64(len(data)))
	plain = append(plain, body...)

	ct, err := e.EncryptBytes(plain)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(Magic)+len(ct))
	out = append(out, Magic...)
	return append(out, ct...), nil
}

// Open reverses Seal. The engine must be in the same chain state Seal's was.
func Open(e *encryption.Engine, envelope []byte) ([]byte, error) {
	if !bytes.HasPrefix(envelope, Magic) {
		return nil, ErrNotSealed
	}

	plain, err := e.DecryptBytes(envelope[len(Magic):])
	if err != nil {
		return nil, err
	}
	if len(plain) < 2 {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}

	flag := plain[0]
	size, n := binary.Uvarint(plain[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length prefix", ErrCorrupt)
	}
	if size > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	body := plain[1+n:]

	switch flag {
	case flagStored:
		if uint64(len(body)) != size {
			return nil, fmt.Errorf("%w: stored length %d, header says %d", ErrCorrupt, len(body), size)
		}
		return body, nil
	case flagLZ4:
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if uint64(m) != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, header says %d", ErrCorrupt, m, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown flag %d", ErrCorrupt, flag)
	}
}

func compress(data []byte) ([]byte, byte) {
	if len(data) == 0 {
		return nil, flagStored
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil || n == 0 || n >= len(data) {
		return data, flagStored
	}
	return dst[:n], flagLZ4
}
