package cipher

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/encryption"
	"github.com/wat40/C-Encryption-System/server/internal/pkg/sealed"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/keyring"
)

var demoKey = protocol.KeyMaterial{Key: "MySecretKey12345", IV: "InitVector123456"}

func newTestService() *Service {
	// inline key material never touches the store
	return NewService(keyring.NewService(nil))
}

func TestTextRoundTrip(t *testing.T) {
	svc := newTestService()

	enc, err := svc.EncryptText(1, protocol.TextRequest{KeyMaterial: demoKey, Plaintext: "Hello, this is a secret message!"})
	if err != nil {
		t.Fatalf("EncryptText failed: %v", err)
	}
	want := "8f5ca140596386f529256f68fb3cd5540ffcda3c408522de292b663f408e7a3f85b0f6068b8943838d760e75eb97d007"
	if enc.Ciphertext != want {
		t.Fatalf("ciphertext = %s, want %s", enc.Ciphertext, want)
	}

	// each request starts from the IV again
	again, _ := svc.EncryptText(1, protocol.TextRequest{KeyMaterial: demoKey, Plaintext: "Hello, this is a secret message!"})
	if again.Ciphertext != want {
		t.Fatalf("second request chained onto the first")
	}

	dec, err := svc.DecryptText(1, protocol.TextRequest{KeyMaterial: demoKey, Ciphertext: want})
	if err != nil {
		t.Fatalf("DecryptText failed: %v", err)
	}
	if dec.Plaintext != "Hello, this is a secret message!" {
		t.Fatalf("plaintext = %q", dec.Plaintext)
	}

	if _, err := svc.DecryptText(1, protocol.TextRequest{KeyMaterial: demoKey, Ciphertext: want[:30]}); !errors.Is(err, encryption.ErrCiphertextLength) {
		t.Fatalf("expected ErrCiphertextLength, got %v", err)
	}
}

func TestValueVectors(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		typ   protocol.ValueType
		value string
		want  string
	}{
		{protocol.Int32, "12345", "58282e538a95a173ea3cb3ba2aa79f25"},
		{protocol.Float32, "3.14159", "3d979189001f247ca4ee2ff4e8d22892"},
		{protocol.Int64, "1234567890", "1273e3796f22290ff885966766e7f0b8"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			enc, err := svc.EncryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: tt.typ, Value: json.Number(tt.value)})
			if err != nil {
				t.Fatalf("EncryptValue failed: %v", err)
			}
			if enc.Ciphertext != tt.want {
				t.Fatalf("ciphertext = %s, want %s", enc.Ciphertext, tt.want)
			}
			dec, err := svc.DecryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: tt.typ, Ciphertext: enc.Ciphertext})
			if err != nil {
				t.Fatalf("DecryptValue failed: %v", err)
			}
			if dec.Value.String() != tt.value {
				t.Fatalf("value = %s, want %s", dec.Value, tt.value)
			}
		})
	}
}

func TestValueAllTypesRoundTrip(t *testing.T) {
	svc := newTestService()

	values := map[protocol.ValueType]string{
		protocol.Int8:    "-128",
		protocol.Int16:   "-300",
		protocol.Uint8:   "255",
		protocol.Uint16:  "65535",
		protocol.Uint32:  "4294967295",
		protocol.Uint64:  "18446744073709551615",
		protocol.Float64: "-2.5e-10",
	}
	for typ, v := range values {
		enc, err := svc.EncryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: typ, Value: json.Number(v)})
		if err != nil {
			t.Fatalf("%s: EncryptValue failed: %v", typ, err)
		}
		dec, err := svc.DecryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: typ, Ciphertext: enc.Ciphertext})
		if err != nil {
			t.Fatalf("%s: DecryptValue failed: %v", typ, err)
		}
		if dec.Value.String() != v {
			t.Fatalf("%s: got %s, want %s", typ, dec.Value, v)
		}
	}
}

func TestValueErrors(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name string
		req  protocol.ValueRequest
		want error
	}{
		{"overflow", protocol.ValueRequest{KeyMaterial: demoKey, Type: protocol.Int8, Value: "300"}, ErrValueFormat},
		{"fraction for int", protocol.ValueRequest{KeyMaterial: demoKey, Type: protocol.Int32, Value: "1.5"}, ErrValueFormat},
		{"negative uint", protocol.ValueRequest{KeyMaterial: demoKey, Type: protocol.Uint16, Value: "-1"}, ErrValueFormat},
		{"unknown type", protocol.ValueRequest{KeyMaterial: demoKey, Type: "int128", Value: "1"}, ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.EncryptValue(1, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// an int8 payload is too short to read back as int64
	enc, _ := svc.EncryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: protocol.Int8, Value: "7"})
	_, err := svc.DecryptValue(1, protocol.ValueRequest{KeyMaterial: demoKey, Type: protocol.Int64, Ciphertext: enc.Ciphertext})
	if !errors.Is(err, encryption.ErrSize) {
		t.Fatalf("expected ErrSize, got %v", err)
	}
}

func TestSealOpen(t *testing.T) {
	svc := newTestService()
	data := bytes.Repeat([]byte("chained blocks "), 64)

	env, err := svc.Seal(1, protocol.SealRequest{KeyMaterial: demoKey, Data: data})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if !bytes.HasPrefix(env.Envelope, sealed.Magic) {
		t.Fatalf("envelope missing magic")
	}

	out, err := svc.Open(1, protocol.OpenRequest{KeyMaterial: demoKey, Envelope: env.Envelope})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(out.Data, data) {
		t.Fatalf("opened data differs")
	}

	other := protocol.KeyMaterial{Key: "another key", IV: demoKey.IV}
	if _, err := svc.Open(1, protocol.OpenRequest{KeyMaterial: other, Envelope: env.Envelope}); err == nil {
		t.Fatalf("opened with the wrong key")
	}
}

func TestErrorCode(t *testing.T) {
	svc := newTestService()

	_, err := svc.DecryptText(1, protocol.TextRequest{KeyMaterial: demoKey, Ciphertext: "abc"})
	if got := ErrorCode(err); got != "hex_format" {
		t.Fatalf("ErrorCode = %q, want hex_format", got)
	}
	_, err = svc.EncryptText(1, protocol.TextRequest{})
	if got := ErrorCode(err); got != "missing_material" {
		t.Fatalf("ErrorCode = %q, want missing_material", got)
	}
	if got := ErrorCode(errors.New("db down")); got != "" {
		t.Fatalf("unexpected code %q for internal error", got)
	}
}
