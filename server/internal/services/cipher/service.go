package cipher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/sealed"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
)

var (
	ErrUnknownType = errors.New("unknown value type")
	ErrValueFormat = errors.New("value does not fit the requested type")
)

// EngineSource builds a fresh engine for a caller's key material
type EngineSource interface {
	NewEngine(ownerID int64, m protocol.KeyMaterial) (*encryption.Engine, error)
}

// Service runs one-shot cipher operations. Every call gets its own engine,
// so independent requests never share chain state.
type Service struct {
	engines EngineSource
	log     *helpers.Logger
}

func NewService(engines EngineSource) *Service {
	return &Service{
		engines: engines,
		log:     helpers.NewLogger("Cipher"),
	}
}

// EncryptText encrypts req.Plaintext to lowercase hex
func (s *Service) EncryptText(ownerID int64, req protocol.TextRequest) (*protocol.TextResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}
	ct, err := e.EncryptMessage(req.Plaintext)
	if err != nil {
		return nil, err
	}
	return &protocol.TextResponse{Ciphertext: ct}, nil
}

// DecryptText decrypts hex req.Ciphertext
func (s *Service) DecryptText(ownerID int64, req protocol.TextRequest) (*protocol.TextResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}
	pt, err := e.DecryptMessage(req.Ciphertext)
	if err != nil {
		s.log.Debug("decrypt rejected", "owner", ownerID, "error", err)
		return nil, err
	}
	return &protocol.TextResponse{Plaintext: pt}, nil
}

// EncryptValue parses req.Value as req.Type and encrypts its fixed-width
// little-endian bytes.
func (s *Service) EncryptValue(ownerID int64, req protocol.ValueRequest) (*protocol.ValueResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}

	v := req.Value.String()
	var ct string
	switch req.Type {
	case protocol.Int8:
		ct, err = encryptInt[int8](e, v, 8)
	case protocol.Int16:
		ct, err = encryptInt[int16](e, v, 16)
	case protocol.Int32:
		ct, err = encryptInt[int32](e, v, 32)
	case protocol.Int64:
		ct, err = encryptInt[int64](e, v, 64)
	case protocol.Uint8:
		ct, err = encryptUint[uint8](e, v, 8)
	case protocol.Uint16:
		ct, err = encryptUint[uint16](e, v, 16)
	case protocol.Uint32:
		ct, err = encryptUint[uint32](e, v, 32)
	case protocol.Uint64:
		ct, err = encryptUint[uint64](e, v, 64)
	case protocol.Float32:
		ct, err = encryptFloat[float32](e, v, 32)
	case protocol.Float64:
		ct, err = encryptFloat[float64](e, v, 64)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if err != nil {
		return nil, err
	}
	return &protocol.ValueResponse{Type: req.Type, Ciphertext: ct}, nil
}

// DecryptValue decrypts req.Ciphertext back into a value of req.Type
func (s *Service) DecryptValue(ownerID int64, req protocol.ValueRequest) (*protocol.ValueResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}

	ct := req.Ciphertext
	var out string
	switch req.Type {
	case protocol.Int8:
		out, err = decryptInt[int8](e, ct)
	case protocol.Int16:
		out, err = decryptInt[int16](e, ct)
	case protocol.Int32:
		out, err = decryptInt[int32](e, ct)
	case protocol.Int64:
		out, err = decryptInt[int64](e, ct)
	case protocol.Uint8:
		out, err = decryptUint[uint8](e, ct)
	case protocol.Uint16:
		out, err = decryptUint[uint16](e, ct)
	case protocol.Uint32:
		out, err = decryptUint[uint32](e, ct)
	case protocol.Uint64:
		out, err = decryptUint[uint64](e, ct)
	case protocol.Float32:
		out, err = decryptFloat[float32](e, ct, 32)
	case protocol.Float64:
		out, err = decryptFloat[float64](e, ct, 64)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if err != nil {
		return nil, err
	}
	return &protocol.ValueResponse{Type: req.Type, Value: json.Number(out)}, nil
}

// Seal wraps data in a sealed envelope
func (s *Service) Seal(ownerID int64, req protocol.SealRequest) (*protocol.EnvelopeResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}
	env, err := sealed.Seal(e, req.Data)
	if err != nil {
		return nil, err
	}
	s.log.Debug("sealed", "owner", ownerID, "in", len(req.Data), "out", len(env))
	return &protocol.EnvelopeResponse{Envelope: env}, nil
}

// Open recovers the data inside a sealed envelope
func (s *Service) Open(ownerID int64, req protocol.OpenRequest) (*protocol.EnvelopeResponse, error) {
	e, err := s.engines.NewEngine(ownerID, req.KeyMaterial)
	if err != nil {
		return nil, err
	}
	data, err := sealed.Open(e, req.Envelope)
	if err != nil {
		return nil, err
	}
	return &protocol.EnvelopeResponse{Data: data}, nil
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type float interface {
	~float32 | ~float64
}

func encryptInt[T signed](e *encryption.Engine, v string, bits int) (string, error) {
	n, err := strconv.ParseInt(v, 10, bits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValueFormat, err)
	}
	return encryption.EncryptValueHex(e, T(n))
}

func encryptUint[T unsigned](e *encryption.Engine, v string, bits int) (string, error) {
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValueFormat, err)
	}
	return encryption.EncryptValueHex(e, T(n))
}

func encryptFloat[T float](e *encryption.Engine, v string, bits int) (string, error) {
	f, err := strconv.ParseFloat(v, bits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValueFormat, err)
	}
	return encryption.EncryptValueHex(e, T(f))
}

func decryptInt[T signed](e *encryption.Engine, ct string) (string, error) {
	v, err := encryption.DecryptValueHex[T](e, ct)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(int64(v), 10), nil
}

func decryptUint[T unsigned](e *encryption.Engine, ct string) (string, error) {
	v, err := encryption.DecryptValueHex[T](e, ct)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(v), 10), nil
}

func decryptFloat[T float](e *encryption.Engine, ct string, bits int) (string, error) {
	v, err := encryption.DecryptValueHex[T](e, ct)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(float64(v), 'g', -1, bits), nil
}
