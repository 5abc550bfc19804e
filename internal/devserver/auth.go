package devserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"peacock/internal/logging"
	"peacock/internal/types"
)

type ctxKey struct{}

func accountEmail(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

// requireToken answers 401 without a bearer token and 403 for a token the
// server does not know.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || strings.TrimSpace(auth[len(prefix):]) == "" {
			writeError(w, http.StatusUnauthorized, "Access Denied")
			return
		}
		token := strings.TrimSpace(auth[len(prefix):])
		s.mu.Lock()
		email, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req types.Registration
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	profile, err := s.register(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    profile,
	})
}

func (s *Server) register(req types.Registration) (*types.Profile, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, invalidError("All fields are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return nil, invalidError("User already exists")
	}
	acct := &account{name: name, email: email, passwordHash: hash, createdAt: s.now().UTC()}
	s.accounts[email] = acct
	s.logger.Info("devserver_registered", logging.F("email", email))
	return acct.profile(), nil
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req types.Credentials
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	email := normalizeEmail(req.Email)

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		writeServiceError(w, &ServiceError{Kind: ServiceErrorUnauthorized, Message: "Invalid credentials"})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = email
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acct, ok := s.accounts[accountEmail(r.Context())]
	s.mu.Unlock()
	if !ok {
		writeServiceError(w, notFoundError("User not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acct.profile()})
}

func (a *account) profile() *types.Profile {
	return &types.Profile{Name: a.name, Email: a.email, CreatedAt: a.createdAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
