package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"civicsync-workflow/models"
	"civicsync-workflow/services"
	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the auth_token cookie.
type CookieConfig struct {
	Name       string
	Domain     string
	Production bool
}

// AuthController handles account registration and sessions.
type AuthController struct {
	users   services.UserStore
	tokens  authUtils.TokenConfig
	cookie  CookieConfig
	timeout time.Duration
}

func NewAuthController(users services.UserStore, tokens authUtils.TokenConfig, cookie CookieConfig, timeout time.Duration) *AuthController {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cookie.Name == "" {
		cookie.Name = "auth_token"
	}
	return &AuthController{users: users, tokens: tokens, cookie: cookie, timeout: timeout}
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
}

// RegisterUser creates a citizen account. Staff accounts are provisioned
// by administrators.
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	now := time.Now().UTC()
	user := models.User{
		Name:      input.Name,
		Email:     strings.ToLower(input.Email),
		Password:  input.Password,
		Role:      models.RoleCitizen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		slog.Error("hash password failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if err := ac.users.Create(ctx, &user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(&user))
}

// LoginUser checks credentials, sets the auth cookie and returns the token
func (ac *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	user, err := ac.users.FindByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := ac.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		slog.Error("generate token failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	// Cross-origin cookies in production must not pin a domain.
	domain := ac.cookie.Domain
	if ac.cookie.Production {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     ac.cookie.Name,
		Value:    token,
		MaxAge:   int(ac.tokens.TTL.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   ac.cookie.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	resp := userResponse(user)
	resp["token"] = token
	c.JSON(http.StatusOK, resp)
}

// GetMe returns the authenticated user's account
func (ac *AuthController) GetMe(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	user, err := ac.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

// LogoutUser clears the auth cookie
func (ac *AuthController) LogoutUser(c *gin.Context) {
	c.SetCookie(ac.cookie.Name, "", -1, "/", ac.cookie.Domain, ac.cookie.Production, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
