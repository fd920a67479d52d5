package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/service"
)

const refreshTokenCookieName = "refresh_token"

// AuthHandler serves register, login, refresh, logout and password changes.
type AuthHandler struct {
	users        UserService
	tokens       *auth.AuthService
	revoker      auth.RefreshRevoker
	limiter      auth.LoginLimiter
	cookieDomain string
}

func NewAuthHandler(users UserService, tokens *auth.AuthService, revoker auth.RefreshRevoker, limiter auth.LoginLimiter, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		revoker:      revoker,
		limiter:      limiter,
		cookieDomain: strings.TrimSpace(cookieDomain),
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates a USER account.
// @Summary Register a USER account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.registerRequest true "Request body"
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 409 {object} envelope.Body
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     database.RoleUser,
	})
	if err != nil {
		fail(c, err)
		return
	}

	middleware.LoggerFromContext(c).Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	envelope.Created(c, "User registered successfully", user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken        string         `json:"accessToken"`
	TokenType          string         `json:"tokenType"`
	ExpiresIn          int            `json:"expiresIn"`
	MustChangePassword bool           `json:"mustChangePassword"`
	User               *database.User `json:"user"`
}

// Login checks the password and issues a token pair; the refresh token goes into an HttpOnly cookie.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.loginRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 429 {object} envelope.Body
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	if err := h.limiter.Allow(ctx, c.ClientIP(), req.Email); err != nil {
		fail(c, err)
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errcode.Is(err, errcode.KindUnauthorized) {
			h.limiter.RecordFailure(ctx, req.Email)
		}
		fail(c, err)
		return
	}
	h.limiter.Reset(ctx, req.Email)

	if err := h.issueTokens(c, user); err != nil {
		logger.Error("issue tokens failed", slog.Any("error", err))
		fail(c, err)
		return
	}
	logger.Info("user logged in", slog.Uint64("user_id", uint64(user.ID)))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
// @Summary Rotate the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body api.refreshRequest false "Request body"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	claims, err := h.tokens.ValidateToken(h.extractRefreshToken(c), auth.TokenTypeRefresh)
	if err != nil {
		fail(c, err)
		return
	}

	revoked, err := h.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		fail(c, errcode.Wrap(errcode.KindUpstream, "token store unavailable", err))
		return
	}
	if revoked {
		fail(c, errcode.New(errcode.KindUnauthorized, "refresh token revoked"))
		return
	}

	user, err := h.users.Get(ctx, claims.UserID)
	if err != nil {
		if errcode.Is(err, errcode.KindNotFound) {
			err = errcode.Wrap(errcode.KindUnauthorized, "account no longer exists", err)
		}
		fail(c, err)
		return
	}

	if err := h.revoker.Revoke(ctx, claims.ID, expiry(claims)); err != nil {
		fail(c, errcode.Wrap(errcode.KindUpstream, "token store unavailable", err))
		return
	}
	if err := h.issueTokens(c, user); err != nil {
		fail(c, err)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// ChangePassword replaces the caller's password, clears the forced-change flag and rotates tokens.
// @Summary Change own password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body api.changePasswordRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	who, ok := middleware.IdentityFromContext(c)
	if !ok {
		fail(c, errcode.New(errcode.KindUnauthorized, "authentication required"))
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.ChangePassword(ctx, who.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}

	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		if claims, err := h.tokens.ValidateToken(token, auth.TokenTypeRefresh); err == nil {
			if err := h.revoker.Revoke(ctx, claims.ID, expiry(claims)); err != nil {
				fail(c, errcode.Wrap(errcode.KindUpstream, "token store unavailable", err))
				return
			}
		}
	}

	if err := h.issueTokens(c, user); err != nil {
		fail(c, err)
	}
}

// Logout revokes the refresh token and clears its cookie.
// @Summary Log out
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, err := h.tokens.ValidateToken(h.extractRefreshToken(c), auth.TokenTypeRefresh)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, expiry(claims)); err != nil {
		fail(c, errcode.Wrap(errcode.KindUpstream, "token store unavailable", err))
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.cookieDomain,
	})
	envelope.OK(c, "Logged out successfully", nil)
}

// Me returns the authenticated account.
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	who, ok := middleware.IdentityFromContext(c)
	if !ok {
		fail(c, errcode.New(errcode.KindUnauthorized, "authentication required"))
		return
	}
	user, err := h.users.Get(c.Request.Context(), who.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", user)
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *database.User) error {
	pair, err := h.tokens.GenerateTokenPair(auth.Identity{
		UserID:             user.ID,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	})
	if err != nil {
		return errcode.Wrap(errcode.KindInternal, "issue tokens", err)
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	envelope.OK(c, "Authenticated successfully", tokenResponse{
		AccessToken:        pair.AccessToken,
		TokenType:          "Bearer",
		ExpiresIn:          int(h.tokens.AccessTokenTTL().Seconds()),
		MustChangePassword: user.MustChangePassword,
		User:               user,
	})
	return nil
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	ttl := h.tokens.RefreshTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   int(ttl.Seconds()),
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.cookieDomain,
		Expires:  time.Now().Add(ttl),
	})
}

func expiry(claims *auth.TokenClaims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
