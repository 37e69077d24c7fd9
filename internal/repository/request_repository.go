package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// ErrNotFound is returned when no request matches the given id.
var ErrNotFound = errors.New("request not found")

// RequestFilter captures listing parameters. Nil fields are not applied.
type RequestFilter struct {
	StudentID  *string
	Status     *domain.RequestStatus
	Department *domain.Department
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	// NextSequence atomically reserves the next request number.
	NextSequence(ctx context.Context) (int64, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the postgres repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, student_name, student_id, request_text, summary, department, status,
               remarks, admin_remarks, authority_remarks, ai_confidence, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (id, student_name, student_id, request_text, summary, department, status,
            remarks, admin_remarks, authority_remarks, ai_confidence, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.ID,
		request.StudentName,
		request.StudentID,
		request.RequestText,
		request.Summary,
		request.Department,
		request.Status,
		request.Remarks,
		request.AdminRemarks,
		request.AuthorityRemarks,
		request.AIConfidence,
		request.CreatedAt,
		request.UpdatedAt,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET request_text=$1, summary=$2, department=$3, status=$4,
            remarks=$5, admin_remarks=$6, authority_remarks=$7, ai_confidence=$8, updated_at=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		request.RequestText,
		request.Summary,
		request.Department,
		request.Status,
		request.Remarks,
		request.AdminRemarks,
		request.AuthorityRemarks,
		request.AIConfidence,
		request.UpdatedAt,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id=$1`
	request, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY created_at DESC, id DESC`,
		requestColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}

func (r *requestRepository) NextSequence(ctx context.Context) (int64, error) {
	var next int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('request_number_seq')`).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var request domain.Request
	if err := row.Scan(
		&request.ID,
		&request.StudentName,
		&request.StudentID,
		&request.RequestText,
		&request.Summary,
		&request.Department,
		&request.Status,
		&request.Remarks,
		&request.AdminRemarks,
		&request.AuthorityRemarks,
		&request.AIConfidence,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}
