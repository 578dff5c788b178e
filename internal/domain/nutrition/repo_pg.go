package nutrition

import (
	"context"
	"errors"
	"fmt"

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

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository {
	return &requestRepoPG{pool: pool}
}

func (r *requestRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const requestCols = `id, patient_id, nutri_code, conditions, allergies, diet_restrictions,
	symptoms, medications, dietary_preferences, triggers, concerns,
	demographics, dietary_preference, status, created_at, updated_at`

const requestColsJoined = `r.id, r.patient_id, r.nutri_code, r.conditions, r.allergies, r.diet_restrictions,
	r.symptoms, r.medications, r.dietary_preferences, r.triggers, r.concerns,
	r.demographics, r.dietary_preference, r.status, r.created_at, r.updated_at`

// listColumns holds the raw TEXT of every list column. Rows written by
// older clients may carry comma-separated text instead of a JSON array.
type listColumns struct {
	conditions, allergies, dietRestrictions, symptoms, medications,
	dietaryPreferences, triggers, concerns *string
}

func (l *listColumns) dest() []any {
	return []any{&l.conditions, &l.allergies, &l.dietRestrictions, &l.symptoms,
		&l.medications, &l.dietaryPreferences, &l.triggers, &l.concerns}
}

func (l *listColumns) apply(n *NutritionRequest) {
	n.Conditions = NormalizeNullable(l.conditions)
	n.Allergies = NormalizeNullable(l.allergies)
	n.DietRestrictions = NormalizeNullable(l.dietRestrictions)
	n.Symptoms = NormalizeNullable(l.symptoms)
	n.Medications = NormalizeNullable(l.medications)
	n.DietaryPreferences = NormalizeNullable(l.dietaryPreferences)
	n.Triggers = NormalizeNullable(l.triggers)
	n.Concerns = NormalizeNullable(l.concerns)
}

func requestDest(n *NutritionRequest, lists *listColumns, extra ...any) []any {
	dest := []any{&n.ID, &n.PatientID, &n.NutriCode}
	dest = append(dest, lists.dest()...)
	dest = append(dest, &n.Demographics, &n.DietaryPreference, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	return append(dest, extra...)
}

func scanRequest(row pgx.Row) (*NutritionRequest, error) {
	var n NutritionRequest
	var lists listColumns
	if err := row.Scan(requestDest(&n, &lists)...); err != nil {
		return nil, err
	}
	lists.apply(&n)
	return &n, nil
}

func scanPending(row pgx.Row) (*PendingRequest, error) {
	var p PendingRequest
	var lists listColumns
	var name, email *string
	if err := row.Scan(requestDest(&p.NutritionRequest, &lists, &name, &email)...); err != nil {
		return nil, err
	}
	lists.apply(&p.NutritionRequest)
	p.Patient = summarize(&p.NutritionRequest, name, email)
	return &p, nil
}

func (r *requestRepoPG) Create(ctx context.Context, n *NutritionRequest) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO nutrition_requests (id, patient_id, nutri_code, conditions, allergies,
			diet_restrictions, symptoms, medications, dietary_preferences, triggers, concerns,
			demographics, dietary_preference, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		n.ID, n.PatientID, n.NutriCode,
		n.Conditions.encode(), n.Allergies.encode(), n.DietRestrictions.encode(),
		n.Symptoms.encode(), n.Medications.encode(), n.DietaryPreferences.encode(),
		n.Triggers.encode(), n.Concerns.encode(),
		n.Demographics, n.DietaryPreference, string(n.Status),
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return apperr.Store("create nutrition request", err)
	}
	return nil
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*NutritionRequest, error) {
	n, err := scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+` FROM nutrition_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapRowErr(err, "nutrition request", id.String())
	}
	return n, nil
}

func (r *requestRepoPG) ListByPatient(ctx context.Context, patientID string, statuses []Status) ([]*NutritionRequest, error) {
	query := `SELECT ` + requestCols + ` FROM nutrition_requests WHERE patient_id = $1`
	args := []any{patientID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, statusStrings(statuses))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("list nutrition requests", err)
	}
	defer rows.Close()

	items := []*NutritionRequest{}
	for rows.Next() {
		n, err := scanRequest(rows)
		if err != nil {
			return nil, apperr.Store("scan nutrition request", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list nutrition requests", err)
	}
	return items, nil
}

func (r *requestRepoPG) ListByStatus(ctx context.Context, status Status) ([]*PendingRequest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+requestColsJoined+`, u.name, u.email
		FROM nutrition_requests r
		LEFT JOIN users u ON u.id = r.patient_id
		WHERE r.status = $1
		ORDER BY r.created_at DESC`, string(status))
	if err != nil {
		return nil, apperr.Store("list nutrition requests by status", err)
	}
	defer rows.Close()

	items := []*PendingRequest{}
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, apperr.Store("scan nutrition request", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list nutrition requests by status", err)
	}
	return items, nil
}

func (r *requestRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*NutritionRequest, error) {
	n, err := scanRequest(r.conn(ctx).QueryRow(ctx, `
		UPDATE nutrition_requests SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+requestCols, id, string(to), statusStrings(from)))
	if err != nil {
		return nil, mapRowErr(err, "nutrition request", id.String())
	}
	return n, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func mapRowErr(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource, id)
	}
	return apperr.Store(fmt.Sprintf("query %s", resource), err)
}
