package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lixenwraith/pixelden/store"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authReply struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// handleRegister creates an account with the configured starter profile
// and returns a fresh bearer token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if len(creds.Username) < 3 || len(creds.Username) > 24 {
		http.Error(w, "username must be 3-24 characters", http.StatusBadRequest)
		return
	}
	if len(creds.Password) < 6 {
		http.Error(w, "password too short", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("bcrypt failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	inventory := make(map[string]int, len(s.cfg.NewUserInventory))
	for k, v := range s.cfg.NewUserInventory {
		inventory[k] = v
	}
	row := store.UserRow{
		UserID:       uuid.NewString(),
		Username:     creds.Username,
		PasswordHash: string(hash),
		Currency:     s.cfg.NewUserCurrency,
		Inventory:    inventory,
		BodyColor:    s.cfg.NewUserBodyColor,
	}
	if err := s.st.CreateUser(row); err != nil {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}

	s.issueToken(w, row.UserID, http.StatusCreated)
	s.log.Info("user registered", zap.String("user", row.UserID), zap.String("name", row.Username))
}

// handleLogin verifies credentials and returns a fresh bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	row, err := s.st.LoadUserByName(strings.TrimSpace(creds.Username))
	if err != nil {
		s.log.Error("login lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if row == nil || bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(creds.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s.issueToken(w, row.UserID, http.StatusOK)
}

func (s *Server) issueToken(w http.ResponseWriter, userID string, status int) {
	token := uuid.NewString()
	if err := s.st.InsertToken(token, userID); err != nil {
		s.log.Error("token insert failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(authReply{Token: token, UserID: userID})
}
