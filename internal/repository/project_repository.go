package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
	"github.com/ignatzorin/koihire-backend/internal/repository/common"
)

const projectColumns = `p.id, p.client_id, p.freelancer_id, p.title, p.description, p.min_budget, p.max_budget,
	p.agreed_amount, p.status, p.created_at, p.updated_at`

// ProjectRepository отвечает за проекты клиентов.
type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create сохраняет новый проект в статусе OPEN.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (client_id, title, description, min_budget, max_budget, status)
		VALUES ($1, $2, $3, $4, $5, 'OPEN')
		RETURNING id, status, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		project.ClientID, project.Title, project.Description, project.MinBudget, project.MaxBudget,
	).Scan(&project.ID, &project.Status, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

// GetByID возвращает проект.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, apperror.ErrProjectNotFound)
}

// ListForUser возвращает проекты, где пользователь клиент или исполнитель.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	err := r.db.SelectContext(ctx, &projects, `
		SELECT `+projectColumns+` FROM projects p
		WHERE p.client_id = $1 OR p.freelancer_id = $1
		ORDER BY p.updated_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project repository: list for user %w", err)
	}
	return projects, nil
}

// Hire назначает фрилансера и согласованную сумму. Срабатывает только из OPEN.
func (r *ProjectRepository) Hire(ctx context.Context, projectID, freelancerID uuid.UUID, agreedAmount decimal.Decimal) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects p SET freelancer_id = $2, agreed_amount = $3, status = 'IN_PROGRESS', updated_at = NOW()
		WHERE p.id = $1 AND p.status = 'OPEN'
		RETURNING `+projectColumns, projectID, freelancerID, agreedAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.transitionError(ctx, projectID, valueobject.ProjectStatusInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: hire %w", err)
	}
	return &project, nil
}

// UpdateStatus меняет статус, только если текущий совпадает с from.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, projectID uuid.UUID, from, to valueobject.ProjectStatus) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects p SET status = $3, updated_at = NOW()
		WHERE p.id = $1 AND p.status = $2
		RETURNING `+projectColumns, projectID, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.transitionError(ctx, projectID, to)
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: update status %w", err)
	}
	return &project, nil
}

// ListActiveForFreelancer активные проекты фрилансера с клиентом и его заметкой.
func (r *ProjectRepository) ListActiveForFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ActiveProjectRow, error) {
	statuses := make([]string, 0, len(valueobject.ActiveProjectStatuses))
	for _, s := range valueobject.ActiveProjectStatuses {
		statuses = append(statuses, string(s))
	}

	rows := make([]models.ActiveProjectRow, 0)
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+projectColumns+`,
			u.username AS client_username, u.display_name AS client_display_name,
			n.note
		FROM projects p
		JOIN users u ON u.id = p.client_id
		LEFT JOIN work_item_notes n ON n.project_id = p.id AND n.user_id = $1
		WHERE p.freelancer_id = $1 AND p.status = ANY($2)
		ORDER BY p.updated_at DESC
	`, freelancerID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("project repository: list active %w", err)
	}
	return rows, nil
}

func (r *ProjectRepository) transitionError(ctx context.Context, projectID uuid.UUID, target valueobject.ProjectStatus) error {
	var status valueobject.ProjectStatus
	err := r.db.GetContext(ctx, &status, `SELECT status FROM projects WHERE id = $1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("project repository: read status %w", err)
	}
	return apperror.InvalidTransition("проект", string(status), string(target))
}
