package gateway

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wat40/C-Encryption-System/server/internal/pkg/helpers"
	"github.com/wat40/C-Encryption-System/server/internal/protocol"
	"github.com/wat40/C-Encryption-System/server/internal/services/auth"
	"github.com/wat40/C-Encryption-System/server/internal/services/keyring"
)

// handleRegister handles user registration
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req protocol.Credentials
	if !s.decodeJSON(w, r, &req) {
		return
	}

	userID, err := s.authSvc.Register(req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.authSvc.CreateToken(userID, req.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, protocol.AuthResponse{UserID: userID, Username: req.Username, Token: token})
}

// handleLogin handles user login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req protocol.Credentials
	if !s.decodeJSON(w, r, &req) {
		return
	}

	token, userID, err := s.authSvc.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, protocol.AuthResponse{UserID: userID, Username: req.Username, Token: token})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	profiles, err := s.keySvc.List(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]protocol.KeyProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, keyring.ToPublic(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.KeyProfileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	p, err := s.keySvc.Create(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, keyring.ToPublic(p))
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	id, err := helpers.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.keySvc.Get(claims.UserID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keyring.ToPublic(p))
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	id, err := helpers.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.keySvc.Delete(claims.UserID, id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.TextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.EncryptText(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.TextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.DecryptText(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEncryptValue(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.ValueRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.EncryptValue(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecryptValue(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.ValueRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.DecryptValue(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeal(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.SealRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.Seal(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req protocol.OpenRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.cipherSvc.Open(claims.UserID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
