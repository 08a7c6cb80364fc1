package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
)

const (
	PrivateKeySize = curve25519.ScalarSize
	PublicKeySize  = curve25519.PointSize
)

// KeyPair is an ephemeral X25519 key pair used to agree on session material
type KeyPair struct {
	publicKey  []byte
	privateKey []byte
}

// GenerateKeyPair creates a random, clamped X25519 key pair
func GenerateKeyPair() (*KeyPair, error) {
	priv := make([]byte, PrivateKeySize)
	if _, err := rand.Read(priv); err != nil {
		return nil, fmt.Errorf("generate X25519 private key: %w", err)
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive X25519 public key: %w", err)
	}
	return &KeyPair{publicKey: pub, privateKey: priv}, nil
}

// PublicKey returns the public half to send to the peer
func (kp *KeyPair) PublicKey() []byte {
	return append([]byte(nil), kp.publicKey...)
}

// ComputeSharedSecret derives the 32-byte X25519 secret with the peer's public key
func (kp *KeyPair) ComputeSharedSecret(peerPublicKey []byte) ([]byte, error) {
	if len(peerPublicKey) != PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: expected %d, got %d", PublicKeySize, len(peerPublicKey))
	}
	secret, err := curve25519.X25519(kp.privateKey, peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("X25519 exchange failed: %w", err)
	}
	return secret, nil
}

// SessionMaterial splits the shared secret into an engine key and IV
func (kp *KeyPair) SessionMaterial(peerPublicKey []byte) (key, iv []byte, err error) {
	secret, err := kp.ComputeSharedSecret(peerPublicKey)
	if err != nil {
		return nil, nil, err
	}
	return secret[:encryption.KeySize], secret[encryption.KeySize : encryption.KeySize+encryption.IVSize], nil
}
