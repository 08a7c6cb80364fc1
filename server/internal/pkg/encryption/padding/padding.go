package padding

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/zenazn/pkcs7pad"
)

// ErrPadding is returned when a padded buffer has an invalid trailer
var ErrPadding = errors.New("invalid padding")

// Padder interface defines the padding contract
type Padder interface {
	// Pad appends 1..blockSize bytes so the result is a positive multiple of blockSize.
	// The input slice is never modified.
	Pad(data []byte, blockSize int) []byte
	Unpad(data []byte, blockSize int) ([]byte, error)
	Name() string
}

// trailer reads the pad length from the last byte and checks it fits the
// buffer and the block size.
func trailer(data []byte, blockSize int) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty buffer", ErrPadding)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return 0, fmt.Errorf("%w: length byte %d", ErrPadding, n)
	}
	return n, nil
}

func grow(data []byte, blockSize int) []byte {
	buf := make([]byte, len(data), len(data)+blockSize)
	copy(buf, data)
	return buf
}

// PKCS7Padding - PKCS#7 padding scheme, N bytes of value N
type PKCS7Padding struct{}

func (p *PKCS7Padding) Name() string {
	return "PKCS7"
}

func (p *PKCS7Padding) Pad(data []byte, blockSize int) []byte {
	return pkcs7pad.Pad(grow(data, blockSize), blockSize)
}

func (p *PKCS7Padding) Unpad(data []byte, blockSize int) ([]byte, error) {
	n, err := trailer(data, blockSize)
	if err != nil {
		return nil, err
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent trailer", ErrPadding)
		}
	}
	return data[:len(data)-n], nil
}

// ANSIX923Padding - zeros followed by the pad length
type ANSIX923Padding struct{}

func (a *ANSIX923Padding) Name() string {
	return "ANSI_X923"
}

func (a *ANSIX923Padding) Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	buf := grow(data, blockSize)
	buf = append(buf, make([]byte, n-1)...)
	return append(buf, byte(n))
}

func (a *ANSIX923Padding) Unpad(data []byte, blockSize int) ([]byte, error) {
	n, err := trailer(data, blockSize)
	if err != nil {
		return nil, err
	}
	for _, b := range data[len(data)-n : len(data)-1] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero filler", ErrPadding)
		}
	}
	return data[:len(data)-n], nil
}

// ISO10126Padding - random filler followed by the pad length
type ISO10126Padding struct{}

func (i *ISO10126Padding) Name() string {
	return "ISO_10126"
}

func (i *ISO10126Padding) Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	filler := make([]byte, n)
	rand.Read(filler[:n-1])
	filler[n-1] = byte(n)
	return append(grow(data, blockSize), filler...)
}

func (i *ISO10126Padding) Unpad(data []byte, blockSize int) ([]byte, error) {
	n, err := trailer(data, blockSize)
	if err != nil {
		return nil, err
	}
	return data[:len(data)-n], nil
}

// GetPadder returns a Padder implementation for the given padding name
func GetPadder(paddingName string) Padder {
	switch paddingName {
	case "", "PKCS7":
		return &PKCS7Padding{}
	case "ANSI_X923":
		return &ANSIX923Padding{}
	case "ISO_10126":
		return &ISO10126Padding{}
	default:
		return nil
	}
}
