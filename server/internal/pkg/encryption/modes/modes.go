package modes

import (
	"errors"
	"fmt"

	"github.com/templexxx/xor"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
)

var (
	ErrIVLength    = errors.New("iv length must equal the block size")
	ErrInputLength = errors.New("input length must be a multiple of the block size")
)

// Mode interface defines the encryption mode contract
type Mode interface {
	Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error)
	Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error)
	RequiresIV() bool
	Name() string
}

func checkIV(cipher encryption.SymmetricCipher, iv []byte) error {
	if len(iv) != cipher.BlockSize() {
		return fmt.Errorf("%w (%d), got %d", ErrIVLength, cipher.BlockSize(), len(iv))
	}
	return nil
}

func checkAligned(cipher encryption.SymmetricCipher, data []byte) error {
	if len(data)%cipher.BlockSize() != 0 {
		return fmt.Errorf("%w (%d), got %d", ErrInputLength, cipher.BlockSize(), len(data))
	}
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

// ECBMode - Electronic Codebook Mode (no IV required)
type ECBMode struct{}

func (e *ECBMode) Name() string     { return "ECB" }
func (e *ECBMode) RequiresIV() bool { return false }

func (e *ECBMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	return ecb(cipher.Encrypt, cipher, key, plaintext)
}

func (e *ECBMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	return ecb(cipher.Decrypt, cipher, key, ciphertext)
}

func ecb(fn func(key, block []byte) ([]byte, error), cipher encryption.SymmetricCipher, key, in []byte) ([]byte, error) {
	if err := checkAligned(cipher, in); err != nil {
		return nil, err
	}
	bs := cipher.BlockSize()
	out := make([]byte, len(in))
	for i := 0; i < len(in); i += bs {
		block, err := fn(key, in[i:i+bs])
		if err != nil {
			return nil, err
		}
		copy(out[i:], block)
	}
	return out, nil
}

// CBCMode - Cipher Block Chaining Mode
type CBCMode struct{}

func (c *CBCMode) Name() string     { return "CBC" }
func (c *CBCMode) RequiresIV() bool { return true }

func (c *CBCMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}
	if err := checkAligned(cipher, plaintext); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(plaintext))
	prev := clone(iv)
	block := make([]byte, bs)
	for i := 0; i < len(plaintext); i += bs {
		xor.Bytes(block, plaintext[i:i+bs], prev)
		enc, err := cipher.Encrypt(key, block)
		if err != nil {
			return nil, err
		}
		copy(out[i:], enc)
		copy(prev, enc)
	}
	return out, nil
}

func (c *CBCMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}
	if err := checkAligned(cipher, ciphertext); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(ciphertext))
	prev := clone(iv)
	for i := 0; i < len(ciphertext); i += bs {
		dec, err := cipher.Decrypt(key, ciphertext[i:i+bs])
		if err != nil {
			return nil, err
		}
		xor.Bytes(out[i:i+bs], dec, prev)
		copy(prev, ciphertext[i:i+bs])
	}
	return out, nil
}

// PCBCMode - Propagating Cipher Block Chaining Mode
type PCBCMode struct{}

func (p *PCBCMode) Name() string     { return "PCBC" }
func (p *PCBCMode) RequiresIV() bool { return true }

func (p *PCBCMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}
	if err := checkAligned(cipher, plaintext); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(plaintext))
	prev := clone(iv)
	block := make([]byte, bs)
	for i := 0; i < len(plaintext); i += bs {
		xor.Bytes(block, plaintext[i:i+bs], prev)
		enc, err := cipher.Encrypt(key, block)
		if err != nil {
			return nil, err
		}
		copy(out[i:], enc)
		// next register: plaintext XOR ciphertext
		xor.Bytes(prev, plaintext[i:i+bs], enc)
	}
	return out, nil
}

func (p *PCBCMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}
	if err := checkAligned(cipher, ciphertext); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(ciphertext))
	prev := clone(iv)
	for i := 0; i < len(ciphertext); i += bs {
		dec, err := cipher.Decrypt(key, ciphertext[i:i+bs])
		if err != nil {
			return nil, err
		}
		xor.Bytes(out[i:i+bs], dec, prev)
		xor.Bytes(prev, out[i:i+bs], ciphertext[i:i+bs])
	}
	return out, nil
}

// CFBMode - Cipher Feedback Mode, full-block feedback
type CFBMode struct{}

func (c *CFBMode) Name() string     { return "CFB" }
func (c *CFBMode) RequiresIV() bool { return true }

func (c *CFBMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	return cfb(cipher, key, plaintext, iv, false)
}

func (c *CFBMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	return cfb(cipher, key, ciphertext, iv, true)
}

func cfb(cipher encryption.SymmetricCipher, key, in, iv []byte, decrypt bool) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(in))
	register := clone(iv)
	for i := 0; i < len(in); i += bs {
		end := min(i+bs, len(in))
		ks, err := cipher.Encrypt(key, register)
		if err != nil {
			return nil, err
		}
		xor.Bytes(out[i:end], in[i:end], ks)

		fed := out[i:end]
		if decrypt {
			fed = in[i:end]
		}
		// shift the register left and append the ciphertext segment
		copy(register, register[len(fed):])
		copy(register[bs-len(fed):], fed)
	}
	return out, nil
}

// OFBMode - Output Feedback Mode
type OFBMode struct{}

func (o *OFBMode) Name() string     { return "OFB" }
func (o *OFBMode) RequiresIV() bool { return true }

func (o *OFBMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(plaintext))
	ks := clone(iv)
	for i := 0; i < len(plaintext); i += bs {
		end := min(i+bs, len(plaintext))
		next, err := cipher.Encrypt(key, ks)
		if err != nil {
			return nil, err
		}
		xor.Bytes(out[i:end], plaintext[i:end], next)
		ks = next
	}
	return out, nil
}

func (o *OFBMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	return o.Encrypt(cipher, key, ciphertext, iv)
}

// CTRMode - Counter Mode, big-endian increment of the whole IV
type CTRMode struct{}

func (c *CTRMode) Name() string     { return "CTR" }
func (c *CTRMode) RequiresIV() bool { return true }

func (c *CTRMode) Encrypt(cipher encryption.SymmetricCipher, key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	if err := checkIV(cipher, iv); err != nil {
		return nil, err
	}

	bs := cipher.BlockSize()
	out := make([]byte, len(plaintext))
	counter := clone(iv)
	for i := 0; i < len(plaintext); i += bs {
		end := min(i+bs, len(plaintext))
		ks, err := cipher.Encrypt(key, counter)
		if err != nil {
			return nil, err
		}
		xor.Bytes(out[i:end], plaintext[i:end], ks)
		incrementCounter(counter)
	}
	return out, nil
}

func (c *CTRMode) Decrypt(cipher encryption.SymmetricCipher, key []byte, ciphertext []byte, iv []byte) ([]byte, error) {
	return c.Encrypt(cipher, key, ciphertext, iv)
}

func incrementCounter(counter []byte) {
	for i := len(counter) - 1; i >= 0; i-- {
		counter[i]++
		if counter[i] != 0 {
			break
		}
	}
}

// GetMode returns a Mode implementation for the given mode name
func GetMode(modeName string) Mode {
	switch modeName {
	case "ECB":
		return &ECBMode{}
	case "CBC":
		return &CBCMode{}
	case "PCBC":
		return &PCBCMode{}
	case "CFB":
		return &CFBMode{}
	case "OFB":
		return &OFBMode{}
	case "CTR":
		return &CTRMode{}
	default:
		return nil
	}
}
