package encryption

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Numeric lists the fixed-width values the typed facade can encrypt.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ValueOrder is the byte order used to serialize typed values.
var ValueOrder binary.ByteOrder = binary.LittleEndian

// EncryptValue serializes v in ValueOrder and encrypts it on e
func EncryptValue[T Numeric](e *Engine, v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, ValueOrder, v); err != nil {
		return nil, fmt.Errorf("serialize %T: %w", v, err)
	}
	return e.EncryptBytes(buf.Bytes())
}

// DecryptValue decrypts data on e and reads a T from the leading bytes
func DecryptValue[T Numeric](e *Engine, data []byte) (T, error) {
	var v T
	pt, err := e.DecryptBytes(data)
	if err != nil {
		return v, err
	}

	size := binary.Size(v)
	if len(pt) < size {
		return v, fmt.Errorf("%w: need %d bytes, got %d", ErrSize, size, len(pt))
	}
	if err := binary.Read(bytes.NewReader(pt[:size]), ValueOrder, &v); err != nil {
		return v, fmt.Errorf("deserialize %T: %w", v, err)
	}
	return v, nil
}

// EncryptValueHex is EncryptValue with hex output
func EncryptValueHex[T Numeric](e *Engine, v T) (string, error) {
	ct, err := EncryptValue(e, v)
	if err != nil {
		return "", err
	}
	return EncodeHex(ct), nil
}

// DecryptValueHex is DecryptValue with hex input
func DecryptValueHex[T Numeric](e *Engine, ciphertext string) (T, error) {
	ct, err := DecodeHex(ciphertext)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecryptValue[T](e, ct)
}
