package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
)

func (r *repository) CreateMember(ctx context.Context, m model.Member) (model.Member, error) {
	q, args, err := qb.Insert(membersTableName).
		Columns("member_id", "role", "name", "email", "password_hash", "identity_number", "profile_image").
		Values(m.MemberID, m.Role, m.Name, m.Email, m.PasswordHash, m.IdentityNumber, m.ProfileImage).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var created model.Member
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		r.log.Error("CreateMember", zap.String("q", q), zap.Error(err))
		return model.Member{}, mapConstraint(err)
	}
	return created, nil
}

func (r *repository) ListMembers(ctx context.Context) ([]model.Member, error) {
	q, args, err := qb.Select("*").
		From(membersTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var members []model.Member
	if err := r.db.SelectContext(ctx, &members, q, args...); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) GetMember(ctx context.Context, id int) (model.Member, error) {
	return r.getMemberBy(ctx, sq.Eq{"id": id})
}

func (r *repository) GetMemberByEmail(ctx context.Context, email string) (model.Member, error) {
	return r.getMemberBy(ctx, sq.Eq{"email": email})
}

func (r *repository) getMemberBy(ctx context.Context, pred sq.Eq) (model.Member, error) {
	q, args, err := qb.Select("*").
		From(membersTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var m model.Member
	if err := r.db.GetContext(ctx, &m, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrNotFound
		}
		return model.Member{}, err
	}
	return m, nil
}

func (r *repository) UpdateMember(ctx context.Context, m model.Member) (model.Member, error) {
	q, args, err := qb.Update(membersTableName).
		SetMap(map[string]interface{}{
			"role":            m.Role,
			"name":            m.Name,
			"email":           m.Email,
			"password_hash":   m.PasswordHash,
			"identity_number": m.IdentityNumber,
			"profile_image":   m.ProfileImage,
			"status":          m.Status,
			"updated_at":      sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": m.ID}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var updated model.Member
	if err := r.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrNotFound
		}
		return model.Member{}, mapConstraint(err)
	}
	return updated, nil
}

// DeactivateMember is the soft delete, members are never removed so
// loan history stays intact.
func (r *repository) DeactivateMember(ctx context.Context, id int) error {
	q, args, err := qb.Update(membersTableName).
		Set("status", false).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	q, args, err := qb.Update(membersTableName).
		Set("password_reset_token", tokenHash).
		Set("password_reset_expires", expires).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *repository) ClearResetToken(ctx context.Context, id int) error {
	q, args, err := qb.Update(membersTableName).
		Set("password_reset_token", nil).
		Set("password_reset_expires", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *repository) GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error) {
	q, args, err := qb.Select("*").
		From(membersTableName).
		Where(sq.Eq{"password_reset_token": tokenHash}).
		Where(sq.Gt{"password_reset_expires": now}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var m model.Member
	if err := r.db.GetContext(ctx, &m, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrNotFound
		}
		return model.Member{}, err
	}
	return m, nil
}

// SetPassword also clears any pending reset request.
func (r *repository) SetPassword(ctx context.Context, id int, passwordHash string) error {
	q, args, err := qb.Update(membersTableName).
		Set("password_hash", passwordHash).
		Set("password_reset_token", nil).
		Set("password_reset_expires", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
