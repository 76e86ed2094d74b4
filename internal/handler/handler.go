package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	md "github.com/ryanadiyantara/librasys/pkg/middleware"

	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/auth"
	"github.com/ryanadiyantara/librasys/pkg/upload"
	"github.com/ryanadiyantara/librasys/pkg/validate"
)

type Handler struct {
	authSvc   AuthService
	bookSvc   BookService
	memberSvc MemberService
	loanSvc   LoanService
	tokens    *auth.TokenManager
	files     *upload.Store
	log       *zap.Logger
}

func New(authSvc AuthService, bookSvc BookService, memberSvc MemberService, loanSvc LoanService, tokens *auth.TokenManager, files *upload.Store, log *zap.Logger) *Handler {
	return &Handler{
		authSvc:   authSvc,
		bookSvc:   bookSvc,
		memberSvc: memberSvc,
		loanSvc:   loanSvc,
		tokens:    tokens,
		files:     files,
		log:       log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS  = 10
		apiRPS   = 100
		loginRPS = 5
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Static("/public", h.files.Root())

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	jwtAuth := md.JwtAuthentication(h.tokens)
	adminOnly := md.RequireRole(model.RoleAdmin)

	authAPI := api.Group("/auth")
	authAPI.POST("", h.Login, md.NewRateLimiter(loginRPS))
	authAPI.GET("/refresh", h.Refresh)
	authAPI.POST("/logout", h.Logout)
	authAPI.POST("/forgotpassword", h.ForgotPassword)
	authAPI.GET("/resetpassword", h.ResetPassword)

	// Catalog reads stay open, mutations need an Admin token.
	books := api.Group("/books")
	books.GET("", h.ListBooks)
	books.GET("/:id", h.GetBook)
	books.POST("", h.CreateBook, jwtAuth, adminOnly)
	books.PUT("/:id", h.UpdateBook, jwtAuth, adminOnly)
	books.DELETE("/:id", h.DeleteBook, jwtAuth, adminOnly)

	members := api.Group("/members")
	members.GET("/:id", h.GetMember)
	members.GET("", h.ListMembers, jwtAuth)
	members.POST("", h.CreateMember, jwtAuth, adminOnly)
	members.PUT("/:id", h.UpdateMember, jwtAuth, adminOnly)
	members.DELETE("/:id", h.DeleteMember, jwtAuth, adminOnly)

	loans := api.Group("/loans", jwtAuth)
	loans.GET("", h.ListLoans)
	loans.GET("/:id", h.GetLoan)
	loans.POST("", h.CreateLoan)
	loans.PUT("/:id", h.UpdateLoan)
	loans.POST("/:id/return", h.ReturnLoan)
	loans.DELETE("/:id", h.DeleteLoan)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func okMsg(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Success: true, Message: msg})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Success: false, Message: msg})
}

// serverError hides storage detail from the caller, the cause only
// goes to the log.
func (h *Handler) serverError(c echo.Context, op string, err error) error {
	h.log.Error(op, zap.Error(err))
	return fail(c, http.StatusInternalServerError, "Server Error")
}
