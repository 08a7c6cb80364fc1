package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/auth"
	"github.com/wat40/C-Encryption-System/server/internal/services/cipher"
	"github.com/wat40/C-Encryption-System/server/internal/services/keyring"
	"github.com/wat40/C-Encryption-System/server/internal/services/stream"
	"github.com/wat40/C-Encryption-System/server/internal/storage"
)

const demoCiphertext = "8f5ca140596386f529256f68fb3cd5540ffcda3c408522de292b663f408e7a3f85b0f6068b8943838d760e75eb97d007"

// memStore backs both users and key profiles in memory
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*storage.User
	profiles map[int64]*storage.KeyProfile
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*storage.User),
		profiles: make(map[int64]*storage.KeyProfile),
	}
}

func (m *memStore) CreateUser(username, hashedPassword string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.users[m.nextID] = &storage.User{ID: m.nextID, Username: username, HashedPassword: hashedPassword}
	return m.nextID, nil
}

func (m *memStore) GetUserByUsername(username string) (*storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUserByID(userID int64) (*storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

func (m *memStore) CreateKeyProfile(p *storage.KeyProfile) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().Unix()
	m.profiles[p.ID] = p
	return p.ID, nil
}

func (m *memStore) GetKeyProfile(ownerID, profileID int64) (*storage.KeyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	return p, nil
}

func (m *memStore) ListKeyProfiles(ownerID int64) ([]*storage.KeyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.KeyProfile
	for _, p := range m.profiles {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) DeleteKeyProfile(ownerID, profileID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok || p.OwnerID != ownerID {
		return false, nil
	}
	delete(m.profiles, profileID)
	return true, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newMemStore()
	authSvc := auth.New("test-secret", time.Hour, store)
	keySvc := keyring.NewService(store)
	srv := New(Options{
		HandshakeTimeout: 2 * time.Second,
		IdleTimeout:      5 * time.Second,
		MaxBodyBytes:     4096,
	}, authSvc, keySvc, cipher.NewService(keySvc), stream.NewService(keySvc))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	var resp protocol.AuthResponse
	status := doJSON(t, "POST", ts.URL+"/api/auth/register", "", protocol.Credentials{Username: username, Password: "hunter22"}, &resp)
	if status != http.StatusCreated || resp.Token == "" {
		t.Fatalf("register %s: status %d", username, status)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice")

	var errResp protocol.ErrorResponse
	if status := doJSON(t, "POST", ts.URL+"/api/auth/register", "", protocol.Credentials{Username: "alice", Password: "x"}, &errResp); status != http.StatusConflict {
		t.Fatalf("duplicate register status %d", status)
	}

	var login protocol.AuthResponse
	if status := doJSON(t, "POST", ts.URL+"/api/auth/login", "", protocol.Credentials{Username: "alice", Password: "hunter22"}, &login); status != http.StatusOK {
		t.Fatalf("login status %d", status)
	}
	if login.Token == "" || login.UserID == 0 {
		t.Fatalf("login response %+v", login)
	}

	if status := doJSON(t, "POST", ts.URL+"/api/auth/login", "", protocol.Credentials{Username: "alice", Password: "wrong"}, &errResp); status != http.StatusUnauthorized {
		t.Fatalf("bad login status %d", status)
	}

	if status := doJSON(t, "POST", ts.URL+"/api/encrypt", "", protocol.TextRequest{}, &errResp); status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated encrypt status %d", status)
	}
	if status := doJSON(t, "POST", ts.URL+"/api/encrypt", "not-a-token", protocol.TextRequest{}, &errResp); status != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", status)
	}
}

func TestEncryptDecryptEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "bob")
	km := protocol.KeyMaterial{Key: "MySecretKey12345", IV: "InitVector123456"}

	var enc protocol.TextResponse
	status := doJSON(t, "POST", ts.URL+"/api/encrypt", token, protocol.TextRequest{KeyMaterial: km, Plaintext: "Hello, this is a secret message!"}, &enc)
	if status != http.StatusOK || enc.Ciphertext != demoCiphertext {
		t.Fatalf("encrypt: status %d ciphertext %s", status, enc.Ciphertext)
	}

	var dec protocol.TextResponse
	status = doJSON(t, "POST", ts.URL+"/api/decrypt", token, protocol.TextRequest{KeyMaterial: km, Ciphertext: demoCiphertext}, &dec)
	if status != http.StatusOK || dec.Plaintext != "Hello, this is a secret message!" {
		t.Fatalf("decrypt: status %d plaintext %q", status, dec.Plaintext)
	}

	tests := []struct {
		ciphertext string
		code       string
	}{
		{"abc", "hex_format"},
		{"00", "ciphertext_length"},
		{demoCiphertext[:64] + "00000000000000000000000000000000", "padding"},
	}
	for _, tt := range tests {
		var errResp protocol.ErrorResponse
		status := doJSON(t, "POST", ts.URL+"/api/decrypt", token, protocol.TextRequest{KeyMaterial: km, Ciphertext: tt.ciphertext}, &errResp)
		if status != http.StatusBadRequest || errResp.Code != tt.code {
			t.Fatalf("decrypt %q: status %d code %q, want %s", tt.ciphertext, status, errResp.Code, tt.code)
		}
	}
}

func TestValueEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "carol")
	km := protocol.KeyMaterial{Key: "MySecretKey12345", IV: "InitVector123456"}

	var enc protocol.ValueResponse
	status := doJSON(t, "POST", ts.URL+"/api/values/encrypt", token, protocol.ValueRequest{KeyMaterial: km, Type: protocol.Int32, Value: "12345"}, &enc)
	if status != http.StatusOK || enc.Ciphertext != "58282e538a95a173ea3cb3ba2aa79f25" {
		t.Fatalf("value encrypt: status %d ciphertext %s", status, enc.Ciphertext)
	}

	var dec protocol.ValueResponse
	status = doJSON(t, "POST", ts.URL+"/api/values/decrypt", token, protocol.ValueRequest{KeyMaterial: km, Type: protocol.Int32, Ciphertext: enc.Ciphertext}, &dec)
	if status != http.StatusOK || dec.Value.String() != "12345" {
		t.Fatalf("value decrypt: status %d value %s", status, dec.Value)
	}
}

func TestKeyProfiles(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "dave")
	other := register(t, ts, "erin")

	var created protocol.KeyProfile
	status := doJSON(t, "POST", ts.URL+"/api/keys", token, protocol.KeyProfileRequest{
		Name: "demo",
		Key:  "MySecretKey12345",
		IV:   "InitVector123456",
	}, &created)
	if status != http.StatusCreated || created.ID == 0 || created.Padding != protocol.PKCS7 {
		t.Fatalf("create profile: status %d %+v", status, created)
	}

	var list []protocol.KeyProfile
	if status := doJSON(t, "GET", ts.URL+"/api/keys", token, nil, &list); status != http.StatusOK || len(list) != 1 {
		t.Fatalf("list profiles: status %d len %d", status, len(list))
	}

	var enc protocol.TextResponse
	status = doJSON(t, "POST", ts.URL+"/api/encrypt", token, protocol.TextRequest{
		KeyMaterial: protocol.KeyMaterial{ProfileID: created.ID},
		Plaintext:   "Hello, this is a secret message!",
	}, &enc)
	if status != http.StatusOK || enc.Ciphertext != demoCiphertext {
		t.Fatalf("encrypt with profile: status %d %s", status, enc.Ciphertext)
	}

	url := fmt.Sprintf("%s/api/keys/%d", ts.URL, created.ID)
	var errResp protocol.ErrorResponse
	if status := doJSON(t, "GET", url, other, nil, &errResp); status != http.StatusNotFound {
		t.Fatalf("foreign profile visible: status %d", status)
	}
	if status := doJSON(t, "GET", ts.URL+"/api/keys/abc", token, nil, &errResp); status != http.StatusBadRequest {
		t.Fatalf("bad id status %d", status)
	}
	if status := doJSON(t, "DELETE", url, token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}
	if status := doJSON(t, "GET", url, token, nil, &errResp); status != http.StatusNotFound {
		t.Fatalf("deleted profile status %d", status)
	}
}

func TestSealOpenEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "frank")
	km := protocol.KeyMaterial{Key: "MySecretKey12345", IV: "InitVector123456"}
	data := []byte(strings.Repeat("sealed payload ", 20))

	var sealedResp protocol.EnvelopeResponse
	if status := doJSON(t, "POST", ts.URL+"/api/seal", token, protocol.SealRequest{KeyMaterial: km, Data: data}, &sealedResp); status != http.StatusOK {
		t.Fatalf("seal status %d", status)
	}

	var opened protocol.EnvelopeResponse
	if status := doJSON(t, "POST", ts.URL+"/api/open", token, protocol.OpenRequest{KeyMaterial: km, Envelope: sealedResp.Envelope}, &opened); status != http.StatusOK {
		t.Fatalf("open status %d", status)
	}
	if !bytes.Equal(opened.Data, data) {
		t.Fatalf("opened data differs")
	}

	var errResp protocol.ErrorResponse
	status := doJSON(t, "POST", ts.URL+"/api/open", token, protocol.OpenRequest{KeyMaterial: km, Envelope: []byte("nope")}, &errResp)
	if status != http.StatusBadRequest || errResp.Code != "not_sealed" {
		t.Fatalf("open garbage: status %d code %q", status, errResp.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "grace")

	big := protocol.TextRequest{
		KeyMaterial: protocol.KeyMaterial{Key: "k"},
		Plaintext:   strings.Repeat("a", 8192),
	}
	var errResp protocol.ErrorResponse
	if status := doJSON(t, "POST", ts.URL+"/api/encrypt", token, big, &errResp); status != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body status %d", status)
	}
}

func dialStream(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStreamChainsFrames(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "heidi")

	var created protocol.KeyProfile
	doJSON(t, "POST", ts.URL+"/api/keys", token, protocol.KeyProfileRequest{
		Name: "stream",
		Key:  "MySecretKey12345",
		IV:   "InitVector123456",
	}, &created)

	conn := dialStream(t, ts, token)
	if err := conn.WriteJSON(protocol.StreamFrame{Type: protocol.FrameHello, ProfileID: created.ID}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var ready protocol.StreamFrame
	if err := conn.ReadJSON(&ready); err != nil || ready.Type != protocol.FrameReady {
		t.Fatalf("expected ready, got %+v %v", ready, err)
	}

	for i := 1; i <= 2; i++ {
		conn.WriteJSON(protocol.StreamFrame{Type: protocol.FrameEncrypt, Seq: uint64(i), Data: "ping"})
	}
	want := []string{"de6b6d96657a8bb6d678cb86968602b8", "9d3194ad2df3bb04e8b7a13ea922577a"}
	for i, w := range want {
		var r protocol.StreamFrame
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatalf("read result %d: %v", i, err)
		}
		if r.Type != protocol.FrameResult || r.Seq != uint64(i+1) || r.Data != w {
			t.Fatalf("result %d = %+v, want data %s", i, r, w)
		}
	}

	conn.WriteJSON(protocol.StreamFrame{Type: protocol.FrameDecrypt, Seq: 3, Data: "xyz"})
	var r protocol.StreamFrame
	if err := conn.ReadJSON(&r); err != nil || r.Type != protocol.FrameError || r.Code != "hex_format" {
		t.Fatalf("expected hex_format error frame, got %+v %v", r, err)
	}
}

func TestStreamRejectsBadHello(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "ivan")

	conn := dialStream(t, ts, token)
	conn.WriteJSON(protocol.StreamFrame{Type: protocol.FrameEncrypt, Data: "early"})

	var r protocol.StreamFrame
	if err := conn.ReadJSON(&r); err != nil || r.Type != protocol.FrameError || r.Code != "expected_hello" {
		t.Fatalf("expected expected_hello error, got %+v %v", r, err)
	}
	if err := conn.ReadJSON(&r); err == nil {
		t.Fatalf("connection stayed open after failed handshake")
	}
}

func TestStreamRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial without token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %v", resp)
	}
}
