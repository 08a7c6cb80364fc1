package encryption

import (
	"fmt"

	"github.com/templexxx/xor"
)

// Substitute maps one byte through the forward substitution table.
func Substitute(b byte) byte { return sbox[b] }

// InvSubstitute maps one byte through the inverse substitution table.
func InvSubstitute(b byte) byte { return invSbox[b] }

// SubBytes substitutes every byte of the state
func SubBytes(s *State) {
	for i := range s {
		s[i] = sbox[s[i]]
	}
}

// InvSubBytes reverses SubBytes
func InvSubBytes(s *State) {
	for i := range s {
		s[i] = invSbox[s[i]]
	}
}

// ShiftRows rotates row r of the state left by r positions.
func ShiftRows(s *State) {
	s[1], s[5], s[9], s[13] = s[5], s[9], s[13], s[1]
	s[2], s[6], s[10], s[14] = s[10], s[14], s[2], s[6]
	s[3], s[7], s[11], s[15] = s[15], s[3], s[7], s[11]
}

// InvShiftRows rotates row r of the state right by r positions.
func InvShiftRows(s *State) {
	s[1], s[5], s[9], s[13] = s[13], s[1], s[5], s[9]
	s[2], s[6], s[10], s[14] = s[10], s[14], s[2], s[6]
	s[3], s[7], s[11], s[15] = s[7], s[11], s[15], s[3]
}

// MixColumns diffuses each column with the {2,3,1,1} circulant matrix
func MixColumns(s *State) {
	for c := 0; c < 4; c++ {
		s0, s1, s2, s3 := s[c*4], s[c*4+1], s[c*4+2], s[c*4+3]
		s[c*4] = Multiply(0x02, s0) ^ Multiply(0x03, s1) ^ s2 ^ s3
		s[c*4+1] = s0 ^ Multiply(0x02, s1) ^ Multiply(0x03, s2) ^ s3
		s[c*4+2] = s0 ^ s1 ^ Multiply(0x02, s2) ^ Multiply(0x03, s3)
		s[c*4+3] = Multiply(0x03, s0) ^ s1 ^ s2 ^ Multiply(0x02, s3)
	}
}

// InvMixColumns undoes MixColumns with the {14,11,13,9} matrix
func InvMixColumns(s *State) {
	for c := 0; c < 4; c++ {
		s0, s1, s2, s3 := s[c*4], s[c*4+1], s[c*4+2], s[c*4+3]
		s[c*4] = Multiply(0x0e, s0) ^ Multiply(0x0b, s1) ^ Multiply(0x0d, s2) ^ Multiply(0x09, s3)
		s[c*4+1] = Multiply(0x09, s0) ^ Multiply(0x0e, s1) ^ Multiply(0x0b, s2) ^ Multiply(0x0d, s3)
		s[c*4+2] = Multiply(0x0d, s0) ^ Multiply(0x09, s1) ^ Multiply(0x0e, s2) ^ Multiply(0x0b, s3)
		s[c*4+3] = Multiply(0x0b, s0) ^ Multiply(0x0d, s1) ^ Multiply(0x09, s2) ^ Multiply(0x0e, s3)
	}
}

// AddRoundKey XORs the state with a 16-byte round key
func AddRoundKey(s *State, roundKey []byte) {
	xor.Bytes(s[:], s[:], roundKey[:BlockSize])
}

// expandKey returns the round key used by the single round. The schedule is
// intentionally not expanded: every round key is the raw key.
func expandKey(key []byte) []byte {
	return key
}

// Round is the stateless single-round transform (substitute, shift, mix,
// add key) without chaining. CBC over Round equals Engine output.
type Round struct{}

// NewRound creates the stateless round cipher
func NewRound() *Round {
	return &Round{}
}

// BlockSize returns the block size of the round
func (r *Round) BlockSize() int {
	return BlockSize
}

// KeySize returns the key size of the round
func (r *Round) KeySize() int {
	return KeySize
}

// Name returns the cipher name
func (r *Round) Name() string {
	return "SPN128"
}

// Encrypt applies one forward round to a 16-byte block
func (r *Round) Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(key))
	}
	if len(plaintext) != BlockSize {
		return nil, fmt.Errorf("%w: got %d", ErrBlockLength, len(plaintext))
	}

	var s State
	copy(s[:], plaintext)
	encryptState(&s, expandKey(key))
	return s[:], nil
}

// Decrypt applies one inverse round to a 16-byte block
func (r *Round) Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(key))
	}
	if len(ciphertext) != BlockSize {
		return nil, fmt.Errorf("%w: got %d", ErrBlockLength, len(ciphertext))
	}

	var s State
	copy(s[:], ciphertext)
	decryptState(&s, expandKey(key))
	return s[:], nil
}

func encryptState(s *State, roundKey []byte) {
	SubBytes(s)
	ShiftRows(s)
	MixColumns(s)
	AddRoundKey(s, roundKey)
}

func decryptState(s *State, roundKey []byte) {
	AddRoundKey(s, roundKey)
	InvMixColumns(s)
	InvShiftRows(s)
	InvSubBytes(s)
}
