package request

import (
	"context"
	"encoding/json"
	"fmt"

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

const requestCols = `id, request_id, user_id, service_type, hospital_id, status,
	patient, shared, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*EmergencyRequest, error) {
	var (
		req             EmergencyRequest
		patient, shared []byte
	)
	err := row.Scan(&req.ID, &req.RequestID, &req.UserID, &req.ServiceType, &req.HospitalID,
		&req.Status, &patient, &shared, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patient, &req.Patient); err != nil {
		return nil, fmt.Errorf("decode patient snapshot: %w", err)
	}
	if err := json.Unmarshal(shared, &req.Shared); err != nil {
		return nil, fmt.Errorf("decode shared snapshot: %w", err)
	}
	return &req, nil
}

func (r *repoPG) Create(ctx context.Context, req *EmergencyRequest) error {
	patient, err := json.Marshal(req.Patient)
	if err != nil {
		return fmt.Errorf("encode patient snapshot: %w", err)
	}
	shared, err := json.Marshal(req.Shared)
	if err != nil {
		return fmt.Errorf("encode shared snapshot: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency_requests (id, request_id, user_id, service_type, hospital_id, status, patient, shared)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		req.ID, req.RequestID, req.UserID, req.ServiceType, req.HospitalID, req.Status, patient, shared)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*EmergencyRequest, error) {
	req, err := r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM emergency_requests WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return r.scan(r.conn(ctx).QueryRow(ctx,
			`SELECT `+requestCols+` FROM emergency_requests WHERE request_id = $1`, id))
	}
	return req, err
}

// execWithRequestIDRetry runs the update keyed by id; when no row matches it
// retries the same statement keyed by the request_id column.
func (r *repoPG) execWithRequestIDRetry(ctx context.Context, byID, byRequestID string, args ...interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, byID, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	tag, err = r.conn(ctx).Exec(ctx, byRequestID, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, id string, u Update) error {
	const set = `SET status = COALESCE($2, status), hospital_id = COALESCE($3, hospital_id), updated_at = NOW()`
	return r.execWithRequestIDRetry(ctx,
		`UPDATE emergency_requests `+set+` WHERE id = $1`,
		`UPDATE emergency_requests `+set+` WHERE request_id = $1`,
		id, u.Status, u.HospitalID)
}

func (r *repoPG) SetStatus(ctx context.Context, id string, status Status) error {
	return r.execWithRequestIDRetry(ctx,
		`UPDATE emergency_requests SET status=$2, updated_at=NOW() WHERE id = $1`,
		`UPDATE emergency_requests SET status=$2, updated_at=NOW() WHERE request_id = $1`,
		id, status)
}

func (r *repoPG) GetActive(ctx context.Context, userID string, serviceType ServiceType) (*EmergencyRequest, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+requestCols+` FROM emergency_requests
		WHERE user_id = $1 AND service_type = $2 AND status = ANY($3)
		ORDER BY created_at DESC LIMIT 1`,
		userID, serviceType, activeStatuses))
}

func (r *repoPG) ListActive(ctx context.Context, userID string) ([]*EmergencyRequest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+requestCols+` FROM emergency_requests
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC`,
		userID, activeStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EmergencyRequest
	for rows.Next() {
		req, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
