package visit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivisit/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const visitCols = `id, user_id, status, lifecycle_state, lifecycle_updated_at,
	hospital_name, desk_label, specialty, scheduled_at, notes, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.UserID, &v.Status, &v.LifecycleState, &v.LifecycleUpdatedAt,
		&v.HospitalName, &v.DeskLabel, &v.Specialty, &v.ScheduledAt, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visits (id, user_id, status, lifecycle_state, lifecycle_updated_at,
			hospital_name, desk_label, specialty, scheduled_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		v.ID, v.UserID, v.Status, v.LifecycleState, v.LifecycleUpdatedAt,
		v.HospitalName, v.DeskLabel, v.Specialty, v.ScheduledAt, v.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Visit, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visits WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Visit
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ApplyPatch(ctx context.Context, id string, p Patch) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visits SET
			hospital_name = COALESCE($2, hospital_name),
			desk_label    = COALESCE($3, desk_label),
			specialty     = COALESCE($4, specialty),
			notes         = COALESCE($5, notes),
			updated_at    = NOW()
		WHERE id = $1`,
		id, p.HospitalName, p.DeskLabel, p.Specialty, p.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SetStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE visits SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SetLifecycle(ctx context.Context, id string, state LifecycleState, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visits SET lifecycle_state=$2, lifecycle_updated_at=$3, updated_at=NOW()
		WHERE id = $1`, id, state, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
