package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/crypto"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/cipher"
)

var (
	ErrExpectedHello  = errors.New("first frame must be hello")
	ErrNoHandshakeKey = errors.New("hello needs public_key or profile_id")
	ErrFrameType      = errors.New("unsupported frame type")
)

// Service opens chained cipher sessions for stream connections
type Service struct {
	engines cipher.EngineSource
	log     *helpers.Logger
}

func NewService(engines cipher.EngineSource) *Service {
	return &Service{
		engines: engines,
		log:     helpers.NewLogger("Stream"),
	}
}

// Handshake consumes the client's hello frame and returns the session plus
// the ready frame to send back. A public_key hello runs an X25519 exchange;
// a profile_id hello uses the owner's stored profile.
func (s *Service) Handshake(ownerID int64, hello protocol.StreamFrame) (*Session, *protocol.StreamFrame, error) {
	if hello.Type != protocol.FrameHello {
		return nil, nil, ErrExpectedHello
	}

	ready := &protocol.StreamFrame{Type: protocol.FrameReady, Seq: hello.Seq}

	switch {
	case hello.PublicKey != "":
		peer, err := encryption.DecodeHex(hello.PublicKey)
		if err != nil {
			return nil, nil, err
		}
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, nil, err
		}
		key, iv, err := kp.SessionMaterial(peer)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrNoHandshakeKey, err)
		}
		sess, err := newSession(func() (*encryption.Engine, error) {
			return encryption.NewEngine(key, iv)
		})
		if err != nil {
			return nil, nil, err
		}
		ready.PublicKey = encryption.EncodeHex(kp.PublicKey())
		s.log.Info("session opened", "owner", ownerID, "mode", "x25519")
		return sess, ready, nil

	case hello.ProfileID != 0:
		m := protocol.KeyMaterial{ProfileID: hello.ProfileID}
		sess, err := newSession(func() (*encryption.Engine, error) {
			return s.engines.NewEngine(ownerID, m)
		})
		if err != nil {
			return nil, nil, err
		}
		ready.ProfileID = hello.ProfileID
		s.log.Info("session opened", "owner", ownerID, "mode", "profile", "profile", hello.ProfileID)
		return sess, ready, nil

	default:
		return nil, nil, ErrNoHandshakeKey
	}
}

// Session holds one connection's outbound and inbound engines. Both start at
// the same key and IV; each chains independently across frames, so frame N's
// ciphertext depends on every earlier frame in the same direction.
type Session struct {
	mu  sync.Mutex
	out *encryption.Engine
	in  *encryption.Engine
}

func newSession(build func() (*encryption.Engine, error)) (*Session, error) {
	out, err := build()
	if err != nil {
		return nil, err
	}
	in, err := build()
	if err != nil {
		return nil, err
	}
	return &Session{out: out, in: in}, nil
}

// Handle processes one encrypt or decrypt frame and returns the reply.
// A rejected decrypt still advances the inbound chain over the blocks it
// consumed, which keeps it aligned with the sender's chain.
func (s *Session) Handle(f protocol.StreamFrame) protocol.StreamFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		data string
		err  error
	)
	switch f.Type {
	case protocol.FrameEncrypt:
		data, err = s.out.EncryptMessage(f.Data)
	case protocol.FrameDecrypt:
		data, err = s.in.DecryptMessage(f.Data)
	default:
		err = fmt.Errorf("%w: %q", ErrFrameType, f.Type)
	}
	if err != nil {
		return ErrorFrame(f.Seq, err)
	}
	return protocol.StreamFrame{Type: protocol.FrameResult, Seq: f.Seq, Data: data}
}

// ErrorFrame builds the error reply for err
func ErrorFrame(seq uint64, err error) protocol.StreamFrame {
	code := cipher.ErrorCode(err)
	switch {
	case code != "":
	case errors.Is(err, ErrExpectedHello):
		code = "expected_hello"
	case errors.Is(err, ErrNoHandshakeKey):
		code = "handshake"
	case errors.Is(err, ErrFrameType):
		code = "frame_type"
	default:
		code = "internal"
	}
	return protocol.StreamFrame{Type: protocol.FrameError, Seq: seq, Error: err.Error(), Code: code}
}
