// Gateway API implementation
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/auth"
	"github.com/wat40/C-Encryption-System/server/internal/services/cipher"
	"github.com/wat40/C-Encryption-System/server/internal/services/keyring"
	"github.com/wat40/C-Encryption-System/server/internal/services/stream"
	"github.com/wat40/C-Encryption-System/server/internal/storage"
)

// Options tunes limits and timeouts of the gateway
type Options struct {
	Addr             string
	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration
	MaxBodyBytes     int64
}

// Server represents the API gateway
type Server struct {
	opts      Options
	authSvc   *auth.Service
	keySvc    *keyring.Service
	cipherSvc *cipher.Service
	streamSvc *stream.Service
	log       *helpers.Logger
}

// New creates a new gateway server
func New(opts Options, authSvc *auth.Service, keySvc *keyring.Service, cipherSvc *cipher.Service, streamSvc *stream.Service) *Server {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{
		opts:      opts,
		authSvc:   authSvc,
		keySvc:    keySvc,
		cipherSvc: cipherSvc,
		streamSvc: streamSvc,
		log:       helpers.NewLogger("Gateway"),
	}
}

// Router builds the HTTP handler with every route registered
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	// Root endpoint - return OK for health checks
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("SPN128 cipher gateway"))
	}).Methods("GET", "OPTIONS")

	// Auth endpoints
	router.HandleFunc("/api/auth/register", s.handleRegister).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", s.handleLogin).Methods("POST", "OPTIONS")

	// Key profiles
	router.HandleFunc("/api/keys", s.requireAuth(s.handleListKeys)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/keys", s.requireAuth(s.handleCreateKey)).Methods("POST")
	router.HandleFunc("/api/keys/{id}", s.requireAuth(s.handleGetKey)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/keys/{id}", s.requireAuth(s.handleDeleteKey)).Methods("DELETE")

	// Cipher endpoints
	router.HandleFunc("/api/encrypt", s.requireAuth(s.handleEncrypt)).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/decrypt", s.requireAuth(s.handleDecrypt)).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/values/encrypt", s.requireAuth(s.handleEncryptValue)).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/values/decrypt", s.requireAuth(s.handleDecryptValue)).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/seal", s.requireAuth(s.handleSeal)).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/open", s.requireAuth(s.handleOpen)).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	router.HandleFunc("/ws/stream", s.handleStream)

	return corsMiddleware(router)
}

// Start starts the gateway server
func (s *Server) Start() error {
	s.log.Info("listening", "addr", s.opts.Addr)
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the token from "Bearer <token>" format
func extractToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

type authedHandler func(w http.ResponseWriter, r *http.Request, claims *auth.Claims)

// requireAuth validates the bearer token before calling next
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization token", "unauthorized")
			return
		}

		token := extractToken(authHeader)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format", "unauthorized")
			return
		}

		claims, err := s.authSvc.ValidateToken(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
			return
		}
		next(w, r, claims)
	}
}

// decodeJSON reads a size-limited JSON body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large", "too_large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, protocol.ErrorResponse{Error: msg, Code: code})
}

// writeError maps service errors to HTTP status codes. Anything not
// recognised as a client error is logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if code := cipher.ErrorCode(err); code != "" {
		status := http.StatusBadRequest
		if code == "profile_not_found" {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, err.Error(), code)
		return
	}

	switch {
	case errors.Is(err, auth.ErrEmptyCredentials),
		errors.Is(err, helpers.ErrInvalidUsername),
		errors.Is(err, helpers.ErrInvalidProfileName),
		errors.Is(err, helpers.ErrInvalidID):
		writeJSONError(w, http.StatusBadRequest, err.Error(), "bad_request")
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, storage.ErrDuplicate):
		writeJSONError(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeJSONError(w, http.StatusUnauthorized, err.Error(), "unauthorized")
	default:
		s.log.Error("request failed", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
