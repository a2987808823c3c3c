package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"spriteworld/internal/config"
)

const (
	tokenTTL         = 12 * time.Hour
	maxLoginAttempts = 5
	loginWindow      = 15 * time.Minute
	bcryptCost       = 12
)

var errTooManyAttempts = errors.New("too many login attempts")

// TokenAuth guards the mutating simulation endpoints. Credentials come
// from config; the admin password is bcrypt-hashed at startup so the
// plaintext never lives in memory past construction.
type TokenAuth struct {
	user      string
	passHash  []byte
	jwtSecret []byte
	mu        sync.Mutex
	attempts  map[string][]time.Time
}

// NewTokenAuth builds the auth layer from server config. A missing
// JWT secret gets a random one, which invalidates tokens on restart.
func NewTokenAuth(cfg config.ServerConfig) (*TokenAuth, error) {
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password not configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating jwt secret: %w", err)
		}
		log.Printf("⚠️ JWT_SECRET not set, using ephemeral secret %s...", hex.EncodeToString(secret[:4]))
	}

	return &TokenAuth{
		user:      cfg.AdminUser,
		passHash:  hash,
		jwtSecret: secret,
		attempts:  make(map[string][]time.Time),
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// HandleLogin issues a JWT for valid admin credentials.
func (a *TokenAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)
	if err := a.checkAttempts(ip); err != nil {
		writeError(w, "too many login attempts, try again later", http.StatusTooManyRequests)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != a.user ||
		bcrypt.CompareHashAndPassword(a.passHash, []byte(req.Password)) != nil {
		a.recordAttempt(ip)
		log.Printf("⚠️ Failed login for %q from %s", req.Username, ip)
		writeError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	a.clearAttempts(ip)

	expiresAt := time.Now().Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": a.user,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	})

	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		writeError(w, "failed to sign token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, loginResponse{
		Token:     signed,
		ExpiresAt: expiresAt.Unix(),
	})
}

// Middleware rejects requests without a valid Bearer token.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *TokenAuth) checkAttempts(ip string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-loginWindow)
	recent := a.attempts[ip][:0]
	for _, t := range a.attempts[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	a.attempts[ip] = recent

	if len(recent) >= maxLoginAttempts {
		return errTooManyAttempts
	}
	return nil
}

func (a *TokenAuth) recordAttempt(ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts[ip] = append(a.attempts[ip], time.Now())
}

func (a *TokenAuth) clearAttempts(ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.attempts, ip)
}
