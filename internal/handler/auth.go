package handler

import (
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/service"
	"github.com/iliyamo/events-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth      *service.AuthService
	JWTSecret string
}

func NewAuthHandler(auth *service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{Auth: auth, JWTSecret: jwtSecret}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type updateProfileReq struct {
	Name string `json:"name" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

func toAuthResp(t *service.Tokens) authResp {
	return authResp{
		User:    t.User,
		Access:  tokenPart{Token: t.Access.Token, Expires: t.Access.Exp},
		Refresh: tokenPart{Token: t.Refresh.Raw, Expires: t.Refresh.Exp}, // raw back to client
	}
}

// Register: create a user account (role user) and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tokens, err := h.Auth.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(tokens))
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tokens, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(tokens))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tokens, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(tokens))
}

// RefreshAccess: return a new access token WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	access, err := h.Auth.RefreshAccess(ctx, req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout supports two modes.  With a refresh_token in the body only that
// token is revoked.  With just a valid bearer access token every refresh
// token of the user is revoked, logging them out on all devices.  The
// route is not behind JWTAuth so an expired session can still log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	var (
		sess      model.Session
		hasBearer bool
	)
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if s, err := utils.ParseAccessToken(h.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			sess, hasBearer = s, true
		}
	}

	// Invalid JSON simply leaves the token empty; the bearer may suffice.
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		if err := h.Auth.Logout(ctx, refreshToken); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	case hasBearer:
		if err := h.Auth.LogoutAll(ctx, sess); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe changes the caller's display name.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var req updateProfileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateName(ctx, sess, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
