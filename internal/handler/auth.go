package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasklist/backend/internal/model"
	"github.com/tasklist/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup godoc
// @Summary Sign up
// @Description Creates the user and its first session. Tokens are returned in headers.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Email and password"
// @Success 200 {object} model.UserResponse
// @Header 200 {string} x-access-token "Access token"
// @Header 200 {string} x-refresh-token "Refresh token"
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /users [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, tokens, err := h.svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	setTokenHeaders(c, tokens)
	c.JSON(http.StatusOK, model.NewUserResponse(user))
}

// Login godoc
// @Summary Login
// @Description Opens a new session. Sessions from earlier logins stay valid.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Email and password"
// @Success 200 {object} model.UserResponse
// @Header 200 {string} x-access-token "Access token"
// @Header 200 {string} x-refresh-token "Refresh token"
// @Failure 400 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	setTokenHeaders(c, tokens)
	c.JSON(http.StatusOK, model.NewUserResponse(user))
}

// AccessToken godoc
// @Summary Issue a new access token
// @Description Requires the x-refresh-token and _id headers of a live session.
// @Tags users
// @Produce json
// @Param x-refresh-token header string true "Refresh token"
// @Param _id header string true "User id"
// @Success 200 {object} model.AccessTokenResponse
// @Header 200 {string} x-access-token "Access token"
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /users/me/access-token [get]
func (h *AuthHandler) AccessToken(c *gin.Context) {
	user := GetSessionUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, err := h.svc.GenerateAccessAuthToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.Header(model.HeaderAccessToken, token)
	c.JSON(http.StatusOK, model.AccessTokenResponse{AccessToken: token})
}

// Me godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Param x-access-token header string true "Access token"
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	authUser := GetAuthUser(c)
	if authUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.svc.Me(c.Request.Context(), authUser.ID)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewUserResponse(user))
}

func setTokenHeaders(c *gin.Context, tokens model.TokenPair) {
	c.Header(model.HeaderAccessToken, tokens.AccessToken)
	c.Header(model.HeaderRefreshToken, tokens.RefreshToken)
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
