package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, request_id, content, status, approved_by, approved_at, created_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rp Report
	err := row.Scan(&rp.ID, &rp.PatientID, &rp.RequestID, &rp.Content, &rp.Status,
		&rp.ApprovedBy, &rp.ApprovedAt, &rp.CreatedAt)
	return &rp, err
}

func (r *reportRepoPG) Create(ctx context.Context, rp *Report) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	if rp.Status == "" {
		rp.Status = StatusUnreviewed
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO reports (id, patient_id, request_id, content, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rp.ID, rp.PatientID, rp.RequestID, rp.Content, string(rp.Status),
	).Scan(&rp.CreatedAt)
	if err != nil {
		return apperr.Store("create report", err)
	}
	return nil
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rp, err := scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("report", id.String())
	}
	if err != nil {
		return nil, apperr.Store("get report", err)
	}
	return rp, nil
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID string) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM reports WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, apperr.Store("list reports", err)
	}
	defer rows.Close()
	items := []*Report{}
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, apperr.Store("scan report", err)
		}
		items = append(items, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list reports", err)
	}
	return items, nil
}

func (r *reportRepoPG) Approve(ctx context.Context, id uuid.UUID, approver string) (*Report, error) {
	rp, err := scanReport(r.conn(ctx).QueryRow(ctx, `
		UPDATE reports SET status = 'approved', approved_by = $2, approved_at = NOW()
		WHERE id = $1 AND status = 'unreviewed'
		RETURNING `+reportCols, id, approver))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("unreviewed report", id.String())
	}
	if err != nil {
		return nil, apperr.Store("approve report", err)
	}
	return rp, nil
}
