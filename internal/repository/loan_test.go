package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(sqlx.NewDb(db, "sqlmock"), zap.NewNop())
	require.NoError(t, err)
	return repo, mock
}

var loanColumns = []string{
	"id", "loan_id", "member_id", "borrow_date", "due_date",
	"return_date", "status", "created_at", "updated_at",
}

func TestRepository_CreateLoan_OutOfStock(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	borrow := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from members where id = \$1\)`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM books WHERE id IN \(\$1\)`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO loans \(loan_id,member_id,borrow_date,due_date\)`).
		WithArgs("LN00001", 2, borrow, due).
		WillReturnRows(sqlmock.NewRows(loanColumns).
			AddRow(1, "LN00001", 2, borrow, due, nil, false, now, now))
	mock.ExpectExec(`INSERT INTO loan_books \(loan_id,book_id\)`).
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the available > 0 guard filters out the exhausted book
	mock.ExpectExec(`UPDATE books SET available = available - 1`).
		WithArgs(3, 0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.CreateLoan(context.Background(), model.Loan{
		LoanID:     "LN00001",
		MemberID:   2,
		BorrowDate: borrow,
		DueDate:    due,
		BookIDs:    []int{3},
	})
	require.ErrorIs(t, err, errs.ErrOutOfStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateLoan_MemberMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select exists\(select 1 from members where id = \$1\)`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.CreateLoan(context.Background(), model.Loan{
		LoanID:     "LN00002",
		MemberID:   99,
		BorrowDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		BookIDs:    []int{3},
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReturnLoan(t *testing.T) {
	t.Parallel()

	borrow := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	returnedAt := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	t.Run("close open loan", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`select \* from loans where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(loanColumns).
				AddRow(1, "LN00001", 2, borrow, due, nil, false, now, now))
		mock.ExpectQuery(`select book_id from loan_books where loan_id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"book_id"}).AddRow(3))
		mock.ExpectQuery(`update loans\s+set return_date = \$2, status = true`).
			WithArgs(1, returnedAt).
			WillReturnRows(sqlmock.NewRows(loanColumns).
				AddRow(1, "LN00001", 2, borrow, due, returnedAt, true, now, now))
		mock.ExpectExec(`UPDATE books SET available = least\(available \+ 1, stock\)`).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`set on_loan = exists\(select 1 from loans`).
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		loan, applied, err := repo.ReturnLoan(context.Background(), 1, returnedAt)
		require.NoError(t, err)
		require.True(t, applied)
		require.True(t, loan.Status)
		require.NotNil(t, loan.ReturnDate)
		require.Equal(t, returnedAt, loan.ReturnDate.UTC())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second return is a no-op", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`select \* from loans where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(loanColumns).
				AddRow(1, "LN00001", 2, borrow, due, returnedAt, true, now, now))
		mock.ExpectQuery(`select book_id from loan_books where loan_id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"book_id"}).AddRow(3))
		// no availability writes, the loan comes back unchanged
		mock.ExpectCommit()

		loan, applied, err := repo.ReturnLoan(context.Background(), 1, returnedAt.Add(24*time.Hour))
		require.NoError(t, err)
		require.False(t, applied)
		require.NotNil(t, loan.ReturnDate)
		require.Equal(t, returnedAt, loan.ReturnDate.UTC())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loan not found", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`select \* from loans where id = \$1 for update`).
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows(loanColumns))
		mock.ExpectRollback()

		_, _, err := repo.ReturnLoan(context.Background(), 42, returnedAt)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpdateLoan_SwapRestoresAvailability(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	borrow := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`select \* from loans where id = \$1 for update`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(loanColumns).
			AddRow(1, "LN00001", 2, borrow, due, nil, false, now, now))
	mock.ExpectQuery(`select book_id from loan_books where loan_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"book_id"}).AddRow(3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM books WHERE id IN \(\$1\)`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// the removed book gets its copy back before the added one is taken
	mock.ExpectExec(`UPDATE books SET available = least\(available \+ 1, stock\)`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET available = available - 1`).
		WithArgs(4, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE loans SET`).
		WillReturnRows(sqlmock.NewRows(loanColumns).
			AddRow(1, "LN00001", 2, borrow, due, nil, false, now, now))
	mock.ExpectExec(`delete from loan_books where loan_id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO loan_books \(loan_id,book_id\)`).
		WithArgs(1, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`set on_loan = exists\(select 1 from loans`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.UpdateLoan(context.Background(), model.Loan{
		ID:         1,
		MemberID:   2,
		BorrowDate: borrow,
		DueDate:    due,
		BookIDs:    []int{4},
	})
	require.NoError(t, err)
	require.Equal(t, []int{4}, updated.BookIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateLoan_ClosedLoanKeepsAvailability(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	borrow := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	returnedAt := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`select \* from loans where id = \$1 for update`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(loanColumns).
			AddRow(1, "LN00001", 2, borrow, due, returnedAt, true, now, now))
	mock.ExpectQuery(`select book_id from loan_books where loan_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"book_id"}).AddRow(3))
	// no availability writes on a closed loan, straight to the row update
	mock.ExpectQuery(`UPDATE loans SET`).
		WillReturnRows(sqlmock.NewRows(loanColumns).
			AddRow(1, "LN00001", 2, borrow, due, returnedAt, true, now, now))
	mock.ExpectExec(`delete from loan_books where loan_id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO loan_books \(loan_id,book_id\)`).
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`set on_loan = exists\(select 1 from loans`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.UpdateLoan(context.Background(), model.Loan{
		ID:         1,
		MemberID:   2,
		BorrowDate: borrow,
		DueDate:    due,
		BookIDs:    []int{3},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_NextSeq(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`insert into counters \(name, seq\) values \(\$1, 1\)`).
		WithArgs("loanId").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	seq, err := repo.NextSeq(context.Background(), "loanId")
	require.NoError(t, err)
	require.EqualValues(t, 7, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}
