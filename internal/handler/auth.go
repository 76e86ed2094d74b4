package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/auth"
)

func (h *Handler) Login(c echo.Context) error {
	var req model.AuthRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Please provide all fields")
	}

	res, err := h.authSvc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}
		return h.serverError(c, "login", err)
	}

	h.setRefreshCookie(c, res.RefreshToken)
	return c.JSON(http.StatusOK, model.AuthResponse{
		Success:     true,
		AccessToken: res.AccessToken,
		Role:        res.Role,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(auth.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	res, err := h.authSvc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			return fail(c, http.StatusForbidden, "Forbidden")
		case errors.Is(err, errs.ErrUnauthorized):
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}
		return h.serverError(c, "refresh", err)
	}

	return c.JSON(http.StatusOK, model.AuthResponse{
		Success:     true,
		AccessToken: res.AccessToken,
		Role:        res.Role,
	})
}

// Logout only clears the cookie, there is no server-side revocation
// list, so it always reports success.
func (h *Handler) Logout(c echo.Context) error {
	h.clearRefreshCookie(c)
	return okMsg(c, http.StatusOK, "Cookie cleared")
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req model.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return fail(c, http.StatusBadRequest, "Please provide email")
	}

	err := h.authSvc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrEmailNotFound):
			return fail(c, http.StatusBadRequest, "Email not found")
		case errors.Is(err, errs.ErrMailSend):
			return fail(c, http.StatusInternalServerError, err.Error())
		}
		return h.serverError(c, "forgot password", err)
	}

	return okMsg(c, http.StatusOK, "Reset link sent to email successfully")
}

// ResetPassword is browser-facing, both outcomes redirect to the login
// page without revealing which check failed.
func (h *Handler) ResetPassword(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return fail(c, http.StatusBadRequest, "Token is required")
	}

	if err := h.authSvc.ResetPassword(c.Request().Context(), token); err != nil {
		if !errors.Is(err, errs.ErrInvalidToken) {
			h.log.Error("reset password", zap.Error(err))
		}
		return redirectLogin(c, "Token is invalid")
	}
	return redirectLogin(c, "Password reset successfully")
}

func redirectLogin(c echo.Context, message string) error {
	return c.Redirect(http.StatusFound, "/login?message="+url.QueryEscape(message))
}

func (h *Handler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     auth.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authSvc.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     auth.RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
