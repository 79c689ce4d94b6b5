package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"locline/internal/domain"
)

type RunRepo struct{ *Repo }

func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{NewRepo(db)} }

func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now
	q := r.SQ.Insert("runs").
		Columns("id", "file", "output", "model", "status", "done", "total", "created_at", "updated_at").
		Values(run.ID, run.File, run.Output, run.Model, run.Status, run.Done, run.Total,
			now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RunRepo) UpdateProgress(ctx context.Context, id string, done, total int, status string) error {
	q := r.SQ.Update("runs").
		Set("done", done).
		Set("total", total).
		Set("status", status).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339)).
		Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RunRepo) Get(ctx context.Context, id string) (*domain.Run, error) {
	q := r.SQ.Select("id", "file", "output", "model", "status", "done", "total", "created_at", "updated_at").
		From("runs").
		Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepo) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	q := r.SQ.Select("id", "file", "output", "model", "status", "done", "total", "created_at", "updated_at").
		From("runs").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var created, updated string
	if err := row.Scan(&run.ID, &run.File, &run.Output, &run.Model, &run.Status,
		&run.Done, &run.Total, &created, &updated); err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, created)
	run.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &run, nil
}
