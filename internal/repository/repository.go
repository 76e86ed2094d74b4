package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

type Repository interface {
	NextSeq(ctx context.Context, name string) (int64, error)

	CreateMember(ctx context.Context, m model.Member) (model.Member, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	GetMember(ctx context.Context, id int) (model.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (model.Member, error)
	UpdateMember(ctx context.Context, m model.Member) (model.Member, error)
	DeactivateMember(ctx context.Context, id int) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id int) error
	GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error)
	SetPassword(ctx context.Context, id int, passwordHash string) error

	CreateBook(ctx context.Context, b model.Book) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	UpdateBook(ctx context.Context, b model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error

	CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	ListLoans(ctx context.Context) ([]model.LoanView, error)
	GetLoan(ctx context.Context, id int) (model.LoanView, error)
	UpdateLoan(ctx context.Context, l model.Loan) (model.Loan, error)
	ReturnLoan(ctx context.Context, id int, returnedAt time.Time) (model.Loan, bool, error)
	DeleteLoan(ctx context.Context, id int) error
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	membersTableName   = `members`
	booksTableName     = `books`
	loansTableName     = `loans`
	loanBooksTableName = `loan_books`
	countersTableName  = `counters`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// mapConstraint turns unique-violation driver errors into domain errors.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "members_email_key":
			return errs.ErrEmailTaken
		case "members_identity_number_key":
			return errs.ErrIdentityTaken
		}
	}
	return err
}
