package httpapi

import (
	"errors"
	"net/http"
	"time"

	"library-platform/internal/books"
	"library-platform/internal/token"
	"library-platform/internal/users"
	"library-platform/pkg/logger"
	"library-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Users  *users.Service
	Tokens *token.Service
	Books  *books.Service

	// Redis-backed login throttling; nil disables it (tests, local).
	Redis      *redis.Client
	RateLimit  int
	RateWindow time.Duration
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login validates primary credentials and issues a token pair.
// Unknown email and wrong password produce the same 401.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	log := logger.FromGin(c)

	if h.Redis != nil {
		ok, err := utils.AllowAttempt(c.Request.Context(), h.Redis, "login:"+req.Email, h.RateLimit, h.RateWindow)
		if err != nil {
			// Throttling is best-effort; never lock users out on redis trouble.
			log.Warn("login rate limit check failed", "err", err)
		} else if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
			return
		}
	}

	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			log.Info("login rejected", "email", req.Email)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		log.Error("login storage failure", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	pair, err := h.Tokens.Login(c.Request.Context(), u.Email, u.Authorities())
	if err != nil {
		log.Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	log.Info("user logged in", "email", u.Email)
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token. Every business failure collapses to one
// 401 so callers cannot probe which tokens exist; the kind is logged.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	pair, err := h.Tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if token.IsUnauthorized(err) {
			logger.FromGin(c).Info("refresh rejected", "reason", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		logger.FromGin(c).Error("refresh storage failure", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout revokes the presented refresh token. Unknown tokens succeed.
func (h Handlers) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	if err := h.Tokens.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		logger.FromGin(c).Error("logout storage failure", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	c.Status(http.StatusOK)
}

// --- Users ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid email, password or role"})
		case errors.Is(err, users.ErrEmailTaken):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			logger.FromGin(c).Error("register failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		}
		return
	}

	c.JSON(http.StatusCreated, u)
}
