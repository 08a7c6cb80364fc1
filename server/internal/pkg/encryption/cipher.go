package encryption

// SymmetricCipher is the interface that block transforms driven by the modes package implement
type SymmetricCipher interface {
	// Encrypt encrypts one block with the given key
	Encrypt(key []byte, plaintext []byte) ([]byte, error)

	// Decrypt decrypts one block with the given key
	Decrypt(key []byte, ciphertext []byte) ([]byte, error)

	// BlockSize returns the block size in bytes
	BlockSize() int

	// KeySize returns the required key size in bytes
	KeySize() int

	// Name returns the algorithm name
	Name() string
}

const (
	BlockSize = 16 // 128-bit blocks
	KeySize   = 16 // 128-bit key, used unexpanded by the single round
	IVSize    = BlockSize
)

// State is the 4x4 byte matrix a round operates on, stored column-major:
// byte index = column*4 + row.
type State [BlockSize]byte
