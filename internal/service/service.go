package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/repository"
	"github.com/ryanadiyantara/librasys/pkg/auth"
)

const (
	memberSeqName  = "memberId"
	memberIDPrefix = "LIB"
	memberIDWidth  = 4

	loanSeqName  = "loanId"
	loanIDPrefix = "LN"
	loanIDWidth  = 5
)

// formatSeq renders a counter value as a human-readable id, e.g.
// LIB0001 or LN00013.
func formatSeq(prefix string, seq int64, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}

// Mailer is the outbound email collaborator, satisfied by
// pkg/mailer.Mailer.
//
//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type Config struct {
	BaseURL         string
	DefaultPassword string
}

type Service struct {
	Auth    *AuthService
	Members *MemberService
	Books   *BookService
	Loans   *LoanService
}

func New(repo repository.Repository, tokens *auth.TokenManager, mailer Mailer, events Publisher, cfg Config, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, tokens, mailer, cfg, log),
		Members: NewMemberService(repo, cfg, log),
		Books:   NewBookService(repo, log),
		Loans:   NewLoanService(repo, events, log),
	}
}
