package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/session-api/internal/middleware"
	"github.com/noah-isme/session-api/internal/models"
	appErrors "github.com/noah-isme/session-api/pkg/errors"
	"github.com/noah-isme/session-api/pkg/response"
)

type sessionService interface {
	SignUp(ctx context.Context, req models.CredentialsRequest) error
	SignIn(ctx context.Context, req models.CredentialsRequest) (*models.SignInResult, error)
	Refresh(ctx context.Context, req models.TokenRequest) (*models.SignInResult, error)
	Verify(ctx context.Context, req models.TokenRequest) (*models.JWTClaims, error)
	SignOut(ctx context.Context, token string) error
}

// AuthHandler wires HTTP endpoints to the session service.
type AuthHandler struct {
	service sessionService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc sessionService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register mounts the session routes.
func (h *AuthHandler) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.POST("/signup", h.SignUp)
	r.POST("/signin", h.SignIn)
	r.POST("/refresh-token", h.RefreshToken)
	r.POST("/verify-token", h.VerifyToken)
	r.POST("/signout", h.SignOut)
}

// Root godoc
// @Summary Greeting
// @Produce plain
// @Success 200 {string} string "Hello World!"
// @Router / [get]
func (h *AuthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

// SignUp godoc
// @Summary Register user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.CredentialsRequest true "Credentials"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Message
// @Router /signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.CredentialsRequest
	if err := bindBody(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.SignUp(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Message{Message: "User created"})
}

// SignIn godoc
// @Summary Authenticate user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.CredentialsRequest true "Credentials"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Message
// @Router /signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.CredentialsRequest
	if err := bindBody(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Message{Message: "User logged in", Token: res.Token})
}

// RefreshToken godoc
// @Summary Refresh session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Token"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Message
// @Failure 401 {object} response.Message
// @Router /refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.TokenRequest
	if err := bindBody(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Message{Message: "Token refreshed successfully", Token: res.Token})
}

// VerifyToken godoc
// @Summary Verify session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Token"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Message
// @Failure 401 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /verify-token [post]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req models.TokenRequest
	if err := bindBody(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.service.Verify(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Message{Message: "Token is valid", Valid: response.Bool(true)})
}

// SignOut godoc
// @Summary Sign out
// @Description Revoke the bearer token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Message
// @Router /signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Message{Message: "User logged out"})
}

// bindBody decodes JSON or form bodies. A missing body binds as empty so the
// service reports which field is required.
func bindBody(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBind(dest); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body")
	}
	return nil
}
