package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"journalledger/internal/models"
	"journalledger/internal/store/sqlstore"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type AuthHandler struct {
	users      UserStore
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

func NewAuthHandler(users UserStore, jwtSecret []byte, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtSecret:  jwtSecret,
		tokenTTL:   24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return c, false
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return c, false
	}
	return c, true
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), h.bcryptCost)
	if err != nil {
		http.Error(w, "could not hash password", http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), c.Email, string(hashed))
	if errors.Is(err, sqlstore.ErrEmailTaken) {
		http.Error(w, "could not create user", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.users.UserByEmail(r.Context(), c.Email)
	if errors.Is(err, sqlstore.ErrUserNotFound) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("load user failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, http.StatusOK, user.ID)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, userID int64) {
	token, err := IssueToken(h.jwtSecret, userID, h.tokenTTL)
	if err != nil {
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, map[string]any{"token": token})
}

// IssueToken signs an HS256 token whose subject is userID.
func IssueToken(secret []byte, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
