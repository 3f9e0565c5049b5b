package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/auth"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup, login and logout. Signup and login are the
// only public endpoints besides health.
type AuthHandler struct {
	creds     repository.CredentialRepository
	revoker   auth.Revoker
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(
	creds repository.CredentialRepository,
	revoker auth.Revoker,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		creds:     creds,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signup handles POST /v1/auth/signup
//
// The new principal gets a CLIENT_USER profile with no organization. An
// administrator assigns the organization afterwards; until then the session
// resolves but sees no tenant data.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	profile, err := h.creds.CreatePrincipal(c.Request.Context(), req.Email, string(hash), req.FullName)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("failed to create principal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	h.issue(c, http.StatusCreated, profile.ID, req.Email)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.creds.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to find credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// Same answer for unknown email and wrong password.
	if cred == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.issue(c, http.StatusOK, cred.PrincipalID, cred.Email)
}

// Logout handles POST /v1/auth/logout. The token stays revoked until it
// would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := middleware.GetTokenID(c)
	if err := h.revoker.Revoke(c.Request.Context(), jti, middleware.GetTokenExpiry(c)); err != nil {
		h.logger.Error("failed to revoke session", zap.String("token_id", jti), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "logout failed, please retry"})
		return
	}
	h.logger.Info("session ended", zap.String("principal_id", middleware.GetPrincipalID(c)))
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) issue(c *gin.Context, status int, principalID, email string) {
	token, claims, err := auth.GenerateToken(principalID, email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}
	c.JSON(status, authResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}
