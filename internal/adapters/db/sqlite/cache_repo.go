package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// CacheRepo stores finished translations keyed by source payload and model,
// so re-running a file skips lines that were already answered.
type CacheRepo struct{ *Repo }

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{NewRepo(db)} }

func (r *CacheRepo) Get(ctx context.Context, sourceText, model string) (string, bool, error) {
	q := r.SQ.Select("translation").
		From("cache").
		Where(sq.Eq{"source_text": sourceText, "model": model}).
		Limit(1)
	sqlStr, args, _ := q.ToSql()
	var tr string
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&tr); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return tr, true, nil
}

func (r *CacheRepo) Put(ctx context.Context, sourceText, model, translation string) error {
	q := r.SQ.Insert("cache").
		Columns("source_text", "model", "translation").
		Values(sourceText, model, translation).
		Suffix("ON CONFLICT(source_text, model) DO UPDATE SET translation = excluded.translation")
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}
