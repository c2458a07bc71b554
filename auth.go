package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash used when a login email isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based account enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

const minPasswordLength = 6

// issueToken signs an HS256 access token whose subject is the user id.
func (h *Handler) issueToken(userID int) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.JWTTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
}

// parseToken validates raw and returns the user id it was issued for.
func (h *Handler) parseToken(raw string) (int, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(h.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(h.now))
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return id, nil
}

// signup creates an account.
// POST /api/auth/signup (public). Body: { "username", "email", "password" }.
func (h *Handler) signup(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Username == "" || body.Email == "" || !strings.Contains(body.Email, "@") {
		apiError(c, http.StatusBadRequest, "username and a valid email are required")
		return
	}
	if len(body.Password) < minPasswordLength {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.writeError(c, err, "failed to create account")
		return
	}
	u, err := h.store.CreateUser(c, body.Username, body.Email, string(hash))
	if err != nil {
		h.writeError(c, err, "failed to create account")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// login verifies email/password and returns a signed access token.
// POST /api/auth/login (public, no auth required).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := h.store.UserByEmail(c, strings.ToLower(strings.TrimSpace(body.Email)))

	// Always run bcrypt so response time does not reveal whether the email exists.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil && errorKindOf(lookupErr) != kindNotFound {
		h.writeError(c, lookupErr, "login failed")
		return
	}
	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issueToken(u.ID)
	if err != nil {
		h.writeError(c, err, "login failed")
		return
	}

	_, profileErr := h.store.Profile(c, u.ID)
	if profileErr != nil && errorKindOf(profileErr) != kindNotFound {
		h.writeError(c, profileErr, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         u,
		"has_profile":  profileErr == nil,
	})
}

// me returns the authenticated user.
// GET /api/auth/me.
func (h *Handler) me(c *gin.Context) {
	u, err := h.store.UserByID(c, c.GetInt("user_id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, u)
}

// authMiddleware validates the Bearer token and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		userID, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			apiError(c, http.StatusUnauthorized, msg)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
