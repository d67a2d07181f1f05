package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// Accounts is the part of the user directory the auth routes need.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (types.User, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) (types.LoginStamp, error)
}

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	accounts Accounts
	secret   []byte
	tokenTTL time.Duration
	logger   *logger.Logger
}

// NewAuthHandler constructs an AuthHandler. A non-positive ttl uses the 24h default.
func NewAuthHandler(accounts Accounts, jwtSecret string, ttl time.Duration, log *logger.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if log == nil {
		log = logger.Noop()
	}
	return &AuthHandler{
		accounts: accounts,
		secret:   []byte(jwtSecret),
		tokenTTL: ttl,
		logger:   log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// RequireAuth constructs auth middleware that puts the token subject in the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.CodeUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.CodeUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUsername(r.Context(), subject)))
		})
	}
}

// Register creates a new account, records the login and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	stamp, err := h.accounts.UpdateLoginTimestamp(r.Context(), user.Username)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	user.LastLoginAt = stamp.LastLoginAt

	token, err := issueToken(user.Username, h.secret, h.tokenTTL)
	if err != nil {
		writeAppError(w, r, h.logger, apperr.Wrap(apperr.CodeInternal, "failed to create token", err))
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{Token: token, User: user})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeAppError(w, r, h.logger, apperr.Validation("missing credentials"))
		return
	}

	ok, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if !ok {
		writeAppError(w, r, h.logger, apperr.Unauthorized("invalid credentials"))
		return
	}

	if _, err := h.accounts.UpdateLoginTimestamp(r.Context(), req.Username); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	token, err := issueToken(req.Username, h.secret, h.tokenTTL)
	if err != nil {
		writeAppError(w, r, h.logger, apperr.Wrap(apperr.CodeInternal, "failed to create token", err))
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func issueToken(username string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
