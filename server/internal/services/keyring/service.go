package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption/padding"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/storage"
)

var (
	ErrProfileNotFound = errors.New("key profile not found")
	ErrMissingMaterial = errors.New("key material required: profile_id, key/iv or key_hex/iv_hex")
	ErrUnknownPadding  = errors.New("unknown padding scheme")
)

// Store defines the persistence interface
type Store interface {
	CreateKeyProfile(p *storage.KeyProfile) (int64, error)
	GetKeyProfile(ownerID, profileID int64) (*storage.KeyProfile, error)
	ListKeyProfiles(ownerID int64) ([]*storage.KeyProfile, error)
	DeleteKeyProfile(ownerID, profileID int64) (bool, error)
}

// Service manages named key profiles and resolves request key material
type Service struct {
	store Store
	log   *helpers.Logger
}

// NewService creates a keyring service
func NewService(store Store) *Service {
	return &Service{
		store: store,
		log:   helpers.NewLogger("Keyring"),
	}
}

// Create validates and stores a new profile for ownerID
func (s *Service) Create(ownerID int64, req protocol.KeyProfileRequest) (*storage.KeyProfile, error) {
	if err := helpers.ValidateProfileName(req.Name); err != nil {
		return nil, err
	}
	key, iv, err := rawMaterial(req.Key, req.IV, req.KeyHex, req.IVHex)
	if err != nil {
		return nil, err
	}
	pad, err := paddingName(req.Padding)
	if err != nil {
		return nil, err
	}

	p := &storage.KeyProfile{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(req.Name),
		Key:     key,
		IV:      iv,
		Padding: pad,
	}
	if _, err := s.store.CreateKeyProfile(p); err != nil {
		return nil, fmt.Errorf("store key profile: %w", err)
	}
	s.log.Info("key profile created", "owner", ownerID, "profile", p.ID)
	return p, nil
}

// Get returns one profile owned by ownerID
func (s *Service) Get(ownerID, profileID int64) (*storage.KeyProfile, error) {
	p, err := s.store.GetKeyProfile(ownerID, profileID)
	if err != nil {
		return nil, fmt.Errorf("load key profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// List returns every profile owned by ownerID
func (s *Service) List(ownerID int64) ([]*storage.KeyProfile, error) {
	return s.store.ListKeyProfiles(ownerID)
}

// Delete removes a profile owned by ownerID
func (s *Service) Delete(ownerID, profileID int64) error {
	ok, err := s.store.DeleteKeyProfile(ownerID, profileID)
	if err != nil {
		return fmt.Errorf("delete key profile: %w", err)
	}
	if !ok {
		return ErrProfileNotFound
	}
	s.log.Info("key profile deleted", "owner", ownerID, "profile", profileID)
	return nil
}

// NewEngine builds a fresh engine from request key material. Each call
// returns an independent engine seeded at the IV.
func (s *Service) NewEngine(ownerID int64, m protocol.KeyMaterial) (*encryption.Engine, error) {
	var (
		key, iv []byte
		pad     = string(m.Padding)
		err     error
	)

	if m.ProfileID != 0 {
		p, err := s.Get(ownerID, m.ProfileID)
		if err != nil {
			return nil, err
		}
		key, iv = p.Key, p.IV
		if pad == "" {
			pad = p.Padding
		}
	} else {
		key, iv, err = rawMaterial(m.Key, m.IV, m.KeyHex, m.IVHex)
		if err != nil {
			return nil, err
		}
	}

	padder := padding.GetPadder(pad)
	if padder == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPadding, pad)
	}
	return encryption.NewEngine(key, iv, encryption.WithPadding(padder))
}

// ToPublic converts a stored profile to its API view
func ToPublic(p *storage.KeyProfile) protocol.KeyProfile {
	return protocol.KeyProfile{
		ID:          p.ID,
		Name:        p.Name,
		Padding:     protocol.PaddingMode(p.Padding),
		Fingerprint: Fingerprint(p.Key),
		CreatedAt:   p.CreatedAt,
	}
}

// Fingerprint is a key check value: the first 4 bytes of the zero block
// encrypted under key with a zero chain.
func Fingerprint(key []byte) string {
	zero := make([]byte, encryption.BlockSize)
	out, _, err := encryption.EncryptBlock(zero, key, zero)
	if err != nil {
		return ""
	}
	return encryption.EncodeHex(out[:4])
}

// rawMaterial returns 16-byte key and IV. Text input is zero-padded or
// truncated and wins over hex; hex input must decode to exactly 16 bytes.
func rawMaterial(keyText, ivText, keyHex, ivHex string) ([]byte, []byte, error) {
	if keyText != "" {
		return encryption.NormalizeText(keyText), encryption.NormalizeText(ivText), nil
	}
	if keyHex == "" && ivHex == "" {
		return nil, nil, ErrMissingMaterial
	}

	key, err := encryption.DecodeHex(keyHex)
	if err != nil {
		return nil, nil, err
	}
	iv, err := encryption.DecodeHex(ivHex)
	if err != nil {
		return nil, nil, err
	}
	if len(key) != encryption.KeySize {
		return nil, nil, fmt.Errorf("%w: got %d", encryption.ErrKeyLength, len(key))
	}
	if len(iv) != encryption.IVSize {
		return nil, nil, fmt.Errorf("%w: got %d", encryption.ErrIVLength, len(iv))
	}
	return key, iv, nil
}

func paddingName(p protocol.PaddingMode) (string, error) {
	padder := padding.GetPadder(string(p))
	if padder == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownPadding, p)
	}
	return padder.Name(), nil
}
