package protocol

import (
	"encoding/json"
)

// ValueType names a fixed-width numeric type accepted by the typed endpoints
type ValueType string

const (
	Int8    ValueType = "int8"
	Int16   ValueType = "int16"
	Int32   ValueType = "int32"
	Int64   ValueType = "int64"
	Uint8   ValueType = "uint8"
	Uint16  ValueType = "uint16"
	Uint32  ValueType = "uint32"
	Uint64  ValueType = "uint64"
	Float32 ValueType = "float32"
	Float64 ValueType = "float64"
)

// PaddingMode type for padding schemes
type PaddingMode string

const (
	PKCS7    PaddingMode = "PKCS7"
	ANSI     PaddingMode = "ANSI_X923"
	ISO10126 PaddingMode = "ISO_10126"
)

// KeyMaterial selects the key and IV for a request. Either ProfileID, the
// text pair (Key, IV) or the raw hex pair (KeyHex, IVHex) is used, in that
// order of precedence. Text values are zero-padded or truncated to 16 bytes;
// hex values must decode to exactly 16 bytes.
type KeyMaterial struct {
	ProfileID int64       `json:"profile_id,omitempty"`
	Key       string      `json:"key,omitempty"`
	IV        string      `json:"iv,omitempty"`
	KeyHex    string      `json:"key_hex,omitempty"`
	IVHex     string      `json:"iv_hex,omitempty"`
	Padding   PaddingMode `json:"padding,omitempty"`
}

// Credentials is the body of register and login requests
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// KeyProfileRequest creates a key profile. Exactly one of the text pair or
// the hex pair is used.
type KeyProfileRequest struct {
	Name    string      `json:"name"`
	Key     string      `json:"key,omitempty"`
	IV      string      `json:"iv,omitempty"`
	KeyHex  string      `json:"key_hex,omitempty"`
	IVHex   string      `json:"iv_hex,omitempty"`
	Padding PaddingMode `json:"padding,omitempty"`
}

// KeyProfile is the public view of a stored profile; key material is never echoed
type KeyProfile struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Padding     PaddingMode `json:"padding"`
	Fingerprint string      `json:"fingerprint"`
	CreatedAt   int64       `json:"created_at"`
}

// TextRequest is the body of /api/encrypt and /api/decrypt
type TextRequest struct {
	KeyMaterial
	Plaintext  string `json:"plaintext,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty"`
}

// TextResponse carries the result of a text operation
type TextResponse struct {
	Plaintext  string `json:"plaintext,omitempty"`
	Ciphertext string `json:"ciphertext,omitempty"`
}

// ValueRequest is the body of the typed value endpoints
type ValueRequest struct {
	KeyMaterial
	Type       ValueType   `json:"type"`
	Value      json.Number `json:"value,omitempty"`
	Ciphertext string      `json:"ciphertext,omitempty"`
}

// ValueResponse carries the result of a typed value operation
type ValueResponse struct {
	Type       ValueType   `json:"type"`
	Value      json.Number `json:"value,omitempty"`
	Ciphertext string      `json:"ciphertext,omitempty"`
}

// SealRequest is the body of /api/seal; Data is base64 in JSON
type SealRequest struct {
	KeyMaterial
	Data []byte `json:"data"`
}

// OpenRequest is the body of /api/open
type OpenRequest struct {
	KeyMaterial
	Envelope []byte `json:"envelope"`
}

// EnvelopeResponse carries a sealed envelope or the data opened from one
type EnvelopeResponse struct {
	Envelope []byte `json:"envelope,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// ErrorResponse is written for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Stream frame types
const (
	FrameHello   = "hello"
	FrameReady   = "ready"
	FrameEncrypt = "encrypt"
	FrameDecrypt = "decrypt"
	FrameResult  = "result"
	FrameError   = "error"
)

// StreamFrame is one WebSocket message on /ws/stream in either direction
type StreamFrame struct {
	Type      string `json:"type"`
	Seq       uint64 `json:"seq,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	ProfileID int64  `json:"profile_id,omitempty"`
	Data      string `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}
