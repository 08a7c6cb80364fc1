package encryption

import (
	"fmt"

	"github.com/templexxx/xor"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption/padding"
)

// EncryptBlock encrypts one 16-byte block under key, chained on chain.
// It returns the ciphertext block and the next chain value, which is the
// ciphertext block itself.
func EncryptBlock(block, key, chain []byte) (out []byte, next []byte, err error) {
	if err := checkBlockArgs(block, key, chain); err != nil {
		return nil, nil, err
	}

	var s State
	xor.Bytes(s[:], block, chain)
	encryptState(&s, expandKey(key))

	out = make([]byte, BlockSize)
	copy(out, s[:])
	next = make([]byte, BlockSize)
	copy(next, s[:])
	return out, next, nil
}

// DecryptBlock decrypts one 16-byte block under key, chained on chain.
// The next chain value is the raw ciphertext block, captured before the
// block is transformed.
func DecryptBlock(block, key, chain []byte) (out []byte, next []byte, err error) {
	if err := checkBlockArgs(block, key, chain); err != nil {
		return nil, nil, err
	}

	next = make([]byte, BlockSize)
	copy(next, block)

	var s State
	copy(s[:], block)
	decryptState(&s, expandKey(key))

	out = make([]byte, BlockSize)
	xor.Bytes(out, s[:], chain)
	return out, next, nil
}

func checkBlockArgs(block, key, chain []byte) error {
	if len(block) != BlockSize {
		return fmt.Errorf("%w: got %d", ErrBlockLength, len(block))
	}
	if len(key) != KeySize {
		return fmt.Errorf("%w: got %d", ErrKeyLength, len(key))
	}
	if len(chain) != IVSize {
		return fmt.Errorf("%w: got %d", ErrIVLength, len(chain))
	}
	return nil
}

// Engine holds a key and a mutable chain register seeded from an IV.
// Every block processed advances the chain, so consecutive calls on one
// Engine continue a single chained stream. An Engine is not safe for
// concurrent use; give each logical stream its own Engine or guard it.
type Engine struct {
	key    [KeySize]byte
	iv     [IVSize]byte
	chain  [IVSize]byte
	padder padding.Padder
}

// Option configures an Engine
type Option func(*Engine)

// WithPadding replaces the default PKCS#7 padder
func WithPadding(p padding.Padder) Option {
	return func(e *Engine) {
		if p != nil {
			e.padder = p
		}
	}
}

// NewEngine creates an engine from raw key and IV bytes, both exactly 16 bytes.
func NewEngine(key, iv []byte, opts ...Option) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: got %d", ErrIVLength, len(iv))
	}

	e := &Engine{padder: &padding.PKCS7Padding{}}
	copy(e.key[:], key)
	copy(e.iv[:], iv)
	e.chain = e.iv
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewEngineFromText creates an engine from text key and IV. Each is
// zero-padded or truncated to 16 bytes, so construction never fails.
func NewEngineFromText(key, iv string, opts ...Option) *Engine {
	e, _ := NewEngine(NormalizeText(key), NormalizeText(iv), opts...)
	return e
}

// NormalizeText converts s to exactly 16 bytes, zero-padding or truncating.
func NormalizeText(s string) []byte {
	b := make([]byte, KeySize)
	copy(b, s)
	return b
}

// Chain returns a copy of the current chain register
func (e *Engine) Chain() []byte {
	c := make([]byte, IVSize)
	copy(c, e.chain[:])
	return c
}

// Reset rewinds the chain register to the IV the engine was created with.
func (e *Engine) Reset() {
	e.chain = e.iv
}

// EncryptBlock encrypts one block and advances the chain
func (e *Engine) EncryptBlock(block []byte) ([]byte, error) {
	out, next, err := EncryptBlock(block, e.key[:], e.chain[:])
	if err != nil {
		return nil, err
	}
	copy(e.chain[:], next)
	return out, nil
}

// DecryptBlock decrypts one block and advances the chain. The chain is
// replaced only after the block has been unchained with the previous value.
func (e *Engine) DecryptBlock(block []byte) ([]byte, error) {
	out, next, err := DecryptBlock(block, e.key[:], e.chain[:])
	if err != nil {
		return nil, err
	}
	copy(e.chain[:], next)
	return out, nil
}

// EncryptBytes pads data and encrypts it block by block
func (e *Engine) EncryptBytes(data []byte) ([]byte, error) {
	padded := e.padder.Pad(data, BlockSize)

	out := make([]byte, 0, len(padded))
	for i := 0; i < len(padded); i += BlockSize {
		block, err := e.EncryptBlock(padded[i : i+BlockSize])
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// DecryptBytes decrypts whole blocks and strips the padding
func (e *Engine) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrCiphertextLength, len(data))
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i += BlockSize {
		block, err := e.DecryptBlock(data[i : i+BlockSize])
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return e.padder.Unpad(out, BlockSize)
}

// EncryptMessage encrypts text and returns lowercase hex
func (e *Engine) EncryptMessage(plaintext string) (string, error) {
	ct, err := e.EncryptBytes([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return EncodeHex(ct), nil
}

// DecryptMessage decodes hex ciphertext and decrypts it to text
func (e *Engine) DecryptMessage(ciphertext string) (string, error) {
	ct, err := DecodeHex(ciphertext)
	if err != nil {
		return "", err
	}
	pt, err := e.DecryptBytes(ct)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// EncryptMessage encrypts plaintext with a fresh engine built from text key and IV
func EncryptMessage(plaintext, key, iv string) (string, error) {
	return NewEngineFromText(key, iv).EncryptMessage(plaintext)
}

// DecryptMessage decrypts hex ciphertext with a fresh engine built from text key and IV
func DecryptMessage(ciphertext, key, iv string) (string, error) {
	return NewEngineFromText(key, iv).DecryptMessage(ciphertext)
}
