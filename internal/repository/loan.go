package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

// CreateLoan persists the loan and adjusts availability in one
// transaction. The decrement carries an available > 0 guard, under
// concurrent borrowing of the last copy exactly one caller wins and
// the rest roll back with ErrOutOfStock.
func (r *repository) CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error) {
	var created model.Loan
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkMemberExists(ctx, tx, l.MemberID); err != nil {
			return err
		}
		if err := checkBooksExist(ctx, tx, l.BookIDs); err != nil {
			return err
		}

		q, args, err := qb.Insert(loansTableName).
			Columns("loan_id", "member_id", "borrow_date", "due_date").
			Values(l.LoanID, l.MemberID, l.BorrowDate, l.DueDate).
			Suffix("returning *").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &created, q, args...); err != nil {
			r.log.Error("CreateLoan", zap.String("q", q), zap.Error(err))
			return err
		}

		if err := insertLoanBooks(ctx, tx, created.ID, l.BookIDs); err != nil {
			return err
		}
		if err := decrementAvailable(ctx, tx, l.BookIDs); err != nil {
			return err
		}
		if err := markMemberOnLoan(ctx, tx, l.MemberID); err != nil {
			return err
		}

		created.BookIDs = l.BookIDs
		return nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return created, nil
}

// UpdateLoan recomputes availability from the diff between the stored
// book set and the requested one, taken against the loan's state prior
// to the update. Closed loans keep their availability untouched.
func (r *repository) UpdateLoan(ctx context.Context, l model.Loan) (model.Loan, error) {
	var updated model.Loan
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		prior, err := lockLoan(ctx, tx, l.ID)
		if err != nil {
			return err
		}
		priorBookIDs, err := loanBookIDs(ctx, tx, l.ID)
		if err != nil {
			return err
		}

		if l.MemberID != prior.MemberID {
			if err := checkMemberExists(ctx, tx, l.MemberID); err != nil {
				return err
			}
		}

		open := prior.ReturnDate == nil
		if open {
			added := model.DiffIDs(l.BookIDs, priorBookIDs)
			removed := model.DiffIDs(priorBookIDs, l.BookIDs)

			if err := checkBooksExist(ctx, tx, added); err != nil {
				return err
			}
			if err := incrementAvailable(ctx, tx, removed); err != nil {
				return err
			}
			if err := decrementAvailable(ctx, tx, added); err != nil {
				return err
			}
		}

		q, args, err := qb.Update(loansTableName).
			SetMap(map[string]interface{}{
				"member_id":   l.MemberID,
				"borrow_date": l.BorrowDate,
				"due_date":    l.DueDate,
				"updated_at":  sq.Expr("now()"),
			}).
			Where(sq.Eq{"id": l.ID}).
			Suffix("returning *").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &updated, q, args...); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `delete from loan_books where loan_id = $1`, l.ID); err != nil {
			return err
		}
		if err := insertLoanBooks(ctx, tx, l.ID, l.BookIDs); err != nil {
			return err
		}

		if err := recomputeMemberOnLoan(ctx, tx, l.MemberID); err != nil {
			return err
		}
		if prior.MemberID != l.MemberID {
			if err := recomputeMemberOnLoan(ctx, tx, prior.MemberID); err != nil {
				return err
			}
		}

		updated.BookIDs = l.BookIDs
		return nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return updated, nil
}

// ReturnLoan is idempotent, returning an already-closed loan leaves
// availability untouched. The bool reports whether this call closed
// the loan.
func (r *repository) ReturnLoan(ctx context.Context, id int, returnedAt time.Time) (model.Loan, bool, error) {
	var (
		returned model.Loan
		applied  bool
	)
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		bookIDs, err := loanBookIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		loan.BookIDs = bookIDs

		if loan.ReturnDate != nil {
			returned = loan
			return nil
		}

		const q = `
update loans
set return_date = $2, status = true, updated_at = now()
where id = $1
returning *`
		if err := tx.GetContext(ctx, &returned, q, id, returnedAt); err != nil {
			return err
		}
		returned.BookIDs = bookIDs
		applied = true

		if err := incrementAvailable(ctx, tx, bookIDs); err != nil {
			return err
		}
		return recomputeMemberOnLoan(ctx, tx, loan.MemberID)
	})
	if err != nil {
		return model.Loan{}, false, err
	}
	return returned, applied, nil
}

// DeleteLoan restores availability for loans still open before
// removing the record.
func (r *repository) DeleteLoan(ctx context.Context, id int) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := lockLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		bookIDs, err := loanBookIDs(ctx, tx, id)
		if err != nil {
			return err
		}

		if loan.ReturnDate == nil {
			if err := incrementAvailable(ctx, tx, bookIDs); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `delete from loans where id = $1`, id); err != nil {
			return err
		}
		return recomputeMemberOnLoan(ctx, tx, loan.MemberID)
	})
}

func (r *repository) GetLoan(ctx context.Context, id int) (model.LoanView, error) {
	views, err := r.listLoans(ctx, sq.Eq{"l.id": id})
	if err != nil {
		return model.LoanView{}, err
	}
	if len(views) == 0 {
		return model.LoanView{}, errs.ErrNotFound
	}
	return views[0], nil
}

func (r *repository) ListLoans(ctx context.Context) ([]model.LoanView, error) {
	return r.listLoans(ctx, nil)
}

func (r *repository) listLoans(ctx context.Context, pred interface{}) ([]model.LoanView, error) {
	q := qb.Select("l.*", "m.member_id as member_code", "m.name as member_name").
		From(loansTableName + " l").
		Join(membersTableName + " m on m.id = l.member_id").
		OrderBy("l.id")
	if pred != nil {
		q = q.Where(pred)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var views []model.LoanView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}

	ids := make([]int, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}

	query, args, err = qb.Select("lb.loan_id", "b.id", "b.title", "b.author").
		From(loanBooksTableName + " lb").
		Join(booksTableName + " b on b.id = lb.book_id").
		Where(sq.Eq{"lb.loan_id": ids}).
		OrderBy("lb.loan_id", "b.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	type loanBookRow struct {
		LoanID int    `db:"loan_id"`
		ID     int    `db:"id"`
		Title  string `db:"title"`
		Author string `db:"author"`
	}
	var rows []loanBookRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	byLoan := make(map[int][]loanBookRow, len(views))
	for _, row := range rows {
		byLoan[row.LoanID] = append(byLoan[row.LoanID], row)
	}

	now := time.Now()
	for i := range views {
		for _, row := range byLoan[views[i].ID] {
			views[i].BookIDs = append(views[i].BookIDs, row.ID)
			views[i].Books = append(views[i].Books, model.BookSummary{
				ID:     row.ID,
				Title:  row.Title,
				Author: row.Author,
			})
		}
		views[i].DisplayStatus = views[i].Loan.DisplayStatus(now)
	}
	return views, nil
}

func lockLoan(ctx context.Context, tx *sqlx.Tx, id int) (model.Loan, error) {
	var loan model.Loan
	if err := tx.GetContext(ctx, &loan, `select * from loans where id = $1 for update`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func loanBookIDs(ctx context.Context, tx *sqlx.Tx, loanID int) ([]int, error) {
	var ids []int
	err := tx.SelectContext(ctx, &ids,
		`select book_id from loan_books where loan_id = $1 order by book_id`, loanID)
	return ids, err
}

func insertLoanBooks(ctx context.Context, tx *sqlx.Tx, loanID int, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	ins := qb.Insert(loanBooksTableName).Columns("loan_id", "book_id")
	for _, bookID := range bookIDs {
		ins = ins.Values(loanID, bookID)
	}
	q, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

func checkMemberExists(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`select exists(select 1 from members where id = $1)`, memberID); err != nil {
		return err
	}
	if !exists {
		return errs.ErrNotFound
	}
	return nil
}

func checkBooksExist(ctx context.Context, tx *sqlx.Tx, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	q, args, err := qb.Select("count(*)").
		From(booksTableName).
		Where(sq.Eq{"id": bookIDs}).
		ToSql()
	if err != nil {
		return err
	}
	var count int
	if err := tx.GetContext(ctx, &count, q, args...); err != nil {
		return err
	}
	if count != len(bookIDs) {
		return errs.ErrNotFound
	}
	return nil
}

func decrementAvailable(ctx context.Context, tx *sqlx.Tx, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	q, args, err := qb.Update(booksTableName).
		Set("available", sq.Expr("available - 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": bookIDs}).
		Where(sq.Gt{"available": 0}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != int64(len(bookIDs)) {
		return errs.ErrOutOfStock
	}
	return nil
}

func incrementAvailable(ctx context.Context, tx *sqlx.Tx, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	q, args, err := qb.Update(booksTableName).
		Set("available", sq.Expr("least(available + 1, stock)")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": bookIDs}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

func markMemberOnLoan(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	res, err := tx.ExecContext(ctx,
		`update members set on_loan = true, updated_at = now() where id = $1`, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// recomputeMemberOnLoan derives the flag from the remaining open loans
// instead of blindly clearing it, a member with two open loans keeps
// the flag after returning one.
func recomputeMemberOnLoan(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	const q = `
update members
set on_loan = exists(select 1 from loans l where l.member_id = members.id and l.return_date is null),
    updated_at = now()
where id = $1`
	_, err := tx.ExecContext(ctx, q, memberID)
	return err
}
