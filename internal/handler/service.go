package handler

import (
	"context"
	"time"

	"github.com/ryanadiyantara/librasys/internal/model"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go -package=mocks

type AuthService interface {
	Login(ctx context.Context, email, password string) (model.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (model.LoginResult, error)
	RefreshTTL() time.Duration
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken string) error
}

type BookService interface {
	Create(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Get(ctx context.Context, id int) (model.Book, error)
	Update(ctx context.Context, id int, req model.UpdateBookRequest) (model.Book, error)
	Delete(ctx context.Context, id int) error
}

type MemberService interface {
	Create(ctx context.Context, req model.CreateMemberRequest) (model.Member, error)
	List(ctx context.Context) ([]model.Member, error)
	Get(ctx context.Context, id int) (model.Member, error)
	Update(ctx context.Context, id int, req model.UpdateMemberRequest) (model.Member, error)
	Deactivate(ctx context.Context, id int) error
}

type LoanService interface {
	Create(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error)
	List(ctx context.Context) ([]model.LoanView, error)
	Get(ctx context.Context, id int) (model.LoanView, error)
	Update(ctx context.Context, id int, req model.UpdateLoanRequest) (model.Loan, error)
	Return(ctx context.Context, id int) (model.Loan, error)
	Delete(ctx context.Context, id int) error
}
