package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

func (r *repository) CreateBook(ctx context.Context, b model.Book) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "publisher", "year", "isbn", "category", "stock", "available", "location", "image").
		Values(b.Title, b.Author, b.Publisher, b.Year, b.ISBN, b.Category, b.Stock, b.Available, b.Location, b.Image).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var created model.Book
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", q), zap.Error(err))
		return model.Book{}, err
	}
	return created, nil
}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	q, args, err := qb.Select("*").
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) GetBook(ctx context.Context, id int) (model.Book, error) {
	q, args, err := qb.Select("*").
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var b model.Book
	if err := r.db.GetContext(ctx, &b, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return b, nil
}

func (r *repository) UpdateBook(ctx context.Context, b model.Book) (model.Book, error) {
	q, args, err := qb.Update(booksTableName).
		SetMap(map[string]interface{}{
			"title":      b.Title,
			"author":     b.Author,
			"publisher":  b.Publisher,
			"year":       b.Year,
			"isbn":       b.ISBN,
			"category":   b.Category,
			"stock":      b.Stock,
			"available":  b.Available,
			"location":   b.Location,
			"image":      b.Image,
			"status":     b.Status,
			"updated_at": sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": b.ID}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var updated model.Book
	if err := r.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return updated, nil
}

// DeleteBook refuses to remove a book referenced by an open loan.
func (r *repository) DeleteBook(ctx context.Context, id int) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const qOpen = `
select exists(
    select 1 from loan_books lb
    join loans l on l.id = lb.loan_id
    where lb.book_id = $1 and l.return_date is null)`

		var onLoan bool
		if err := tx.GetContext(ctx, &onLoan, qOpen, id); err != nil {
			return err
		}
		if onLoan {
			return errs.ErrBookOnLoan
		}

		if _, err := tx.ExecContext(ctx, `delete from loan_books where book_id = $1`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `delete from books where id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}
