package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/handler"
	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/auth"
	"github.com/ryanadiyantara/librasys/pkg/validate"

	service_mocks "github.com/ryanadiyantara/librasys/internal/handler/mocks"
)

func newAuthEcho(t *testing.T) (*echo.Echo, *service_mocks.MockAuthService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockAuthService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, nil, nil, nil, nil, nil, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.POST("/api/auth", h.Login)
	e.GET("/api/auth/refresh", h.Refresh)
	e.POST("/api/auth/logout", h.Logout)
	e.POST("/api/auth/forgotpassword", h.ForgotPassword)
	e.GET("/api/auth/resetpassword", h.ResetPassword)
	return e, svc
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
		wantCookie   bool
	}{
		{
			name: "ok",
			body: `{"email":"admin@librasys.io","password":"secret"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(context.Background(), "admin@librasys.io", "secret").
					Return(model.LoginResult{
						AccessToken:  "access-token",
						RefreshToken: "refresh-token",
						Role:         model.RoleAdmin,
					}, nil)
				r.EXPECT().RefreshTTL().Return(time.Hour)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"accessToken":"access-token","role":"Admin"}`,
			},
			wantCookie: true,
		},
		{
			name:         "err. missing password",
			body:         `{"email":"admin@librasys.io"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"message":"Please provide all fields"}`,
			},
		},
		{
			name: "err. wrong credentials",
			body: `{"email":"admin@librasys.io","password":"nope"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(context.Background(), "admin@librasys.io", "nope").
					Return(model.LoginResult{}, errs.ErrUnauthorized)
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"success":false,"message":"Unauthorized"}`,
			},
		},
		{
			name: "err. internal",
			body: `{"email":"admin@librasys.io","password":"secret"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(context.Background(), "admin@librasys.io", "secret").
					Return(model.LoginResult{}, errors.New("db down"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"success":false,"message":"Server Error"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newAuthEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))

			if tt.wantCookie {
				cookies := w.Result().Cookies()
				require.Len(t, cookies, 1)
				require.Equal(t, auth.RefreshCookieName, cookies[0].Name)
				require.Equal(t, "refresh-token", cookies[0].Value)
				require.True(t, cookies[0].HttpOnly)
				require.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)
			}
		})
	}
}

func TestHandler_Refresh(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		cookie       string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			cookie: "refresh-token",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Refresh(context.Background(), "refresh-token").
					Return(model.LoginResult{AccessToken: "new-access", Role: model.RoleMember}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"accessToken":"new-access","role":"Member"}`,
			},
		},
		{
			name:         "err. no cookie",
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"success":false,"message":"Unauthorized"}`,
			},
		},
		{
			name:   "err. tampered token",
			cookie: "garbage",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Refresh(context.Background(), "garbage").
					Return(model.LoginResult{}, errs.ErrForbidden)
			},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"success":false,"message":"Forbidden"}`,
			},
		},
		{
			name:   "err. member deactivated",
			cookie: "refresh-token",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Refresh(context.Background(), "refresh-token").
					Return(model.LoginResult{}, errs.ErrUnauthorized)
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"success":false,"message":"Unauthorized"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newAuthEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/auth/refresh", http.NoBody)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Logout(t *testing.T) {
	t.Parallel()
	e, _ := newAuthEcho(t)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"success":true,"message":"Cookie cleared"}`, strings.Trim(w.Body.String(), "\n"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.RefreshCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestHandler_ForgotPassword(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"email":"jane@librasys.io"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ForgotPassword(context.Background(), "jane@librasys.io").
					Return(nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"message":"Reset link sent to email successfully"}`,
			},
		},
		{
			name:         "err. empty email",
			body:         `{}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"message":"Please provide email"}`,
			},
		},
		{
			name: "err. unknown email",
			body: `{"email":"ghost@librasys.io"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ForgotPassword(context.Background(), "ghost@librasys.io").
					Return(errs.ErrEmailNotFound)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"message":"Email not found"}`,
			},
		},
		{
			name: "err. mail dispatch failed",
			body: `{"email":"jane@librasys.io"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ForgotPassword(context.Background(), "jane@librasys.io").
					Return(errs.ErrMailSend)
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"success":false,"message":"There was an error sending the email. Try again later."}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newAuthEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/auth/forgotpassword", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ResetPassword(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		token        string
		mockBehavior mockBehavior
		expectedCode int
		location     string
	}{
		{
			name:  "ok redirects to login",
			token: "goodtoken",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ResetPassword(context.Background(), "goodtoken").
					Return(nil)
			},
			expectedCode: http.StatusFound,
			location:     "/login?message=Password+reset+successfully",
		},
		{
			name:  "invalid token redirects to login",
			token: "badtoken",
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ResetPassword(context.Background(), "badtoken").
					Return(errs.ErrInvalidToken)
			},
			expectedCode: http.StatusFound,
			location:     "/login?message=Token+is+invalid",
		},
		{
			name:         "missing token",
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newAuthEcho(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/auth/resetpassword?token="+tt.token, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.location != "" {
				require.Equal(t, tt.location, w.Header().Get(echo.HeaderLocation))
			}
		})
	}
}
