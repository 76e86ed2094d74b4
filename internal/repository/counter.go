package repository

import (
	"context"
)

// NextSeq increments the named counter and returns the new value in a
// single statement, so concurrent callers never observe the same seq.
func (r *repository) NextSeq(ctx context.Context, name string) (int64, error) {
	const q = `
insert into counters (name, seq) values ($1, 1)
on conflict (name) do update set seq = counters.seq + 1
returning seq`

	var seq int64
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
