package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

// LoanStore is the slice of the repository the loan workflow needs.
// Availability bookkeeping is transactional inside the store, the
// service sequences ids and publishes events around it.
//
//go:generate mockgen -source=loan.go -destination=mocks/loan_mock.go -package=mocks
type LoanStore interface {
	NextSeq(ctx context.Context, name string) (int64, error)
	CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	ListLoans(ctx context.Context) ([]model.LoanView, error)
	GetLoan(ctx context.Context, id int) (model.LoanView, error)
	UpdateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	ReturnLoan(ctx context.Context, id int, returnedAt time.Time) (model.Loan, bool, error)
	DeleteLoan(ctx context.Context, id int) error
}

// Publisher emits loan lifecycle events, best effort.
type Publisher interface {
	Publish(ctx context.Context, evt model.LoanEvent) error
}

type LoanService struct {
	repo   LoanStore
	events Publisher
	log    *zap.Logger
}

func NewLoanService(repo LoanStore, events Publisher, log *zap.Logger) *LoanService {
	return &LoanService{
		repo:   repo,
		events: events,
		log:    log.Named("loans"),
	}
}

func (s *LoanService) Create(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error) {
	if req.DueDate.Before(req.BorrowDate.Time) {
		return model.Loan{}, errs.ErrDueBeforeBorrow
	}

	seq, err := s.repo.NextSeq(ctx, loanSeqName)
	if err != nil {
		return model.Loan{}, err
	}

	loan, err := s.repo.CreateLoan(ctx, model.Loan{
		LoanID:     formatSeq(loanIDPrefix, seq, loanIDWidth),
		MemberID:   req.MemberID,
		BorrowDate: req.BorrowDate.Time,
		DueDate:    req.DueDate.Time,
		BookIDs:    req.BookIDs,
	})
	if err != nil {
		return model.Loan{}, err
	}

	s.publish(ctx, model.LoanEventCreated, loan)
	return loan, nil
}

func (s *LoanService) List(ctx context.Context) ([]model.LoanView, error) {
	return s.repo.ListLoans(ctx)
}

func (s *LoanService) Get(ctx context.Context, id int) (model.LoanView, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *LoanService) Update(ctx context.Context, id int, req model.UpdateLoanRequest) (model.Loan, error) {
	if req.DueDate.Before(req.BorrowDate.Time) {
		return model.Loan{}, errs.ErrDueBeforeBorrow
	}

	return s.repo.UpdateLoan(ctx, model.Loan{
		ID:         id,
		MemberID:   req.MemberID,
		BorrowDate: req.BorrowDate.Time,
		DueDate:    req.DueDate.Time,
		BookIDs:    req.BookIDs,
	})
}

// Return closes the loan. Calling it again on a closed loan is a
// no-op, no availability is touched and no event goes out.
func (s *LoanService) Return(ctx context.Context, id int) (model.Loan, error) {
	loan, applied, err := s.repo.ReturnLoan(ctx, id, time.Now().UTC())
	if err != nil {
		return model.Loan{}, err
	}
	if applied {
		s.publish(ctx, model.LoanEventReturned, loan)
	}
	return loan, nil
}

func (s *LoanService) Delete(ctx context.Context, id int) error {
	return s.repo.DeleteLoan(ctx, id)
}

func (s *LoanService) publish(ctx context.Context, event string, loan model.Loan) {
	err := s.events.Publish(ctx, model.LoanEvent{
		Event:    event,
		LoanID:   loan.LoanID,
		MemberID: loan.MemberID,
		BookIDs:  loan.BookIDs,
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("publish loan event", zap.String("event", event), zap.Error(err))
	}
}
