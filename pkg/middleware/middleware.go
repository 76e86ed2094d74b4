package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/ryanadiyantara/librasys/pkg/auth"
)

const bearer = "Bearer "

type errResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JwtAuthentication gates a route group behind a bearer access token.
// Missing or malformed header is 401, a token that fails verification
// (bad signature, expired) is 403.
func JwtAuthentication(tm *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authorization := c.Request().Header.Get(auth.AuthorizationHeader)
			if authorization == "" || !strings.HasPrefix(authorization, bearer) {
				return c.JSON(http.StatusUnauthorized, errResponse{Message: "Unauthorized"})
			}
			tokenStr := strings.TrimPrefix(authorization, bearer)

			claims, err := tm.ParseAccessToken(tokenStr)
			if err != nil {
				return c.JSON(http.StatusForbidden, errResponse{Message: "Forbidden"})
			}

			req := c.Request()
			ctx := auth.SetAuthContext(req.Context(), claims.MemberID, claims.Role)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// RequireRole allows the request through only when the authenticated
// member carries one of the given roles. It runs after
// JwtAuthentication, a request without auth context is 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := auth.RoleFromContext(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errResponse{Message: "Unauthorized"})
			}
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errResponse{Message: "Forbidden"})
		}
	}
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			fields := []zap.Field{
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			}
			if memberID, ok := auth.MemberFromContext(c.Request().Context()); ok {
				fields = append(fields, zap.Int("member_id", memberID))
			}
			log.Log(level, "request", fields...)
			return nil
		},
	}
}
