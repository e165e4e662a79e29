package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// ProjectRepository хранилище проектов.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error)
	Hire(ctx context.Context, projectID, freelancerID uuid.UUID, agreedAmount decimal.Decimal) (*models.Project, error)
	UpdateStatus(ctx context.Context, projectID uuid.UUID, from, to valueobject.ProjectStatus) (*models.Project, error)
}

// EscrowLookup чтение эскроу по проекту.
type EscrowLookup interface {
	GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Escrow, error)
}

// CreateProjectInput данные нового проекта.
type CreateProjectInput struct {
	Title       string
	Description string
	MinBudget   decimal.Decimal
	MaxBudget   decimal.Decimal
}

// ProjectService проекты клиентов: публикация, найм и смена статусов.
type ProjectService struct {
	projects ProjectRepository
	users    UserRepository
	escrows  EscrowLookup
	notifier Notifier
}

func NewProjectService(projects ProjectRepository, users UserRepository, escrows EscrowLookup, notifier Notifier) *ProjectService {
	return &ProjectService{projects: projects, users: users, escrows: escrows, notifier: notifier}
}

// Create публикует проект. Доступно только клиентам.
func (s *ProjectService) Create(ctx context.Context, clientID uuid.UUID, role string, in CreateProjectInput) (*models.Project, error) {
	if role != models.RoleClient {
		return nil, apperror.New(apperror.ErrCodeForbidden, "публиковать проекты могут только клиенты")
	}

	budget, err := valueobject.NewBudget(in.MinBudget, in.MaxBudget)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		ClientID:    clientID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		MinBudget:   budget.Min,
		MaxBudget:   budget.Max,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"project_id": project.ID,
		"client_id":  clientID,
	}).Info("project service: проект опубликован")
	return project, nil
}

// Get открытые проекты видны всем, остальные только участникам.
func (s *ProjectService) Get(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != valueobject.ProjectStatusOpen && !project.IsParticipant(userID) {
		return nil, apperror.ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	limit, offset = normalizePage(limit, offset)
	return s.projects.ListForUser(ctx, userID, limit, offset)
}

// Hire назначает фрилансера. Сумма должна попадать в бюджет проекта.
func (s *ProjectService) Hire(ctx context.Context, projectID, clientID, freelancerID uuid.UUID, agreedAmount decimal.Decimal) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != clientID {
		return nil, apperror.ErrProjectNotFound
	}
	if freelancerID == clientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя нанять себя на собственный проект")
	}
	if project.Status != valueobject.ProjectStatusOpen {
		return nil, apperror.InvalidTransition("проект", string(project.Status), string(valueobject.ProjectStatusInProgress))
	}

	budget := valueobject.Budget{Min: project.MinBudget, Max: project.MaxBudget}
	if !budget.IsInRange(agreedAmount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "согласованная сумма должна быть в пределах бюджета "+budget.String())
	}

	freelancer, err := s.users.GetByID(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if freelancer.Role != models.RoleFreelancer || !freelancer.IsActive {
		return nil, apperror.New(apperror.ErrCodeValidation, "пользователь не может быть исполнителем")
	}

	hired, err := s.projects.Hire(ctx, projectID, freelancerID, agreedAmount)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:    freelancerID,
		Type:      notification.TypeProjectHired,
		Title:     "Вас выбрали исполнителем",
		Message:   "Проект «" + hired.Title + "», сумма " + agreedAmount.StringFixed(2),
		ProjectID: &hired.ID,
	})
	return hired, nil
}

// ChangeStatus меняет статус вручную. COMPLETED и DISPUTED выставляются только через эскроу.
func (s *ProjectService) ChangeStatus(ctx context.Context, projectID, actorID uuid.UUID, target valueobject.ProjectStatus) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsParticipant(actorID) {
		return nil, apperror.ErrProjectNotFound
	}

	switch target {
	case valueobject.ProjectStatusCompleted, valueobject.ProjectStatusDisputed:
		return nil, apperror.New(apperror.ErrCodeInvalidStateTransition, "этот статус выставляется через операции с эскроу")
	case valueobject.ProjectStatusPendingReview:
		if !project.IsFreelancer(actorID) {
			return nil, apperror.New(apperror.ErrCodeForbidden, "отправить работу на проверку может только исполнитель")
		}
	default:
		if project.ClientID != actorID {
			return nil, apperror.New(apperror.ErrCodeForbidden, "этот статус может выставить только клиент")
		}
	}

	if !project.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition("проект", string(project.Status), string(target))
	}

	if target == valueobject.ProjectStatusCancelled {
		if err := s.ensureNoHeldFunds(ctx, projectID); err != nil {
			return nil, err
		}
	}

	updated, err := s.projects.UpdateStatus(ctx, projectID, project.Status, target)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, updated, actorID)
	return updated, nil
}

// ensureNoHeldFunds отмена с оплаченным эскроу идёт через возврат.
func (s *ProjectService) ensureNoHeldFunds(ctx context.Context, projectID uuid.UUID) error {
	escrow, err := s.escrows.GetByProjectID(ctx, projectID)
	if errors.Is(err, apperror.ErrEscrowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if escrow.Status == valueobject.EscrowStatusFunded || escrow.Status == valueobject.EscrowStatusDisputed {
		return apperror.New(apperror.ErrCodeInvalidStateTransition, "по проекту удерживаются средства, оформите возврат")
	}
	return nil
}

func (s *ProjectService) notifyStatus(ctx context.Context, project *models.Project, actorID uuid.UUID) {
	recipient := project.ClientID
	if actorID == project.ClientID {
		if project.FreelancerID == nil {
			return
		}
		recipient = *project.FreelancerID
	}

	in := NotificationInput{
		UserID:    recipient,
		ProjectID: &project.ID,
		Data:      map[string]any{"status": string(project.Status)},
	}
	switch project.Status {
	case valueobject.ProjectStatusPendingReview:
		in.Type = notification.TypeProjectSubmitted
		in.Title = "Работа отправлена на проверку"
		in.Message = "Исполнитель завершил работу над «" + project.Title + "»"
	case valueobject.ProjectStatusCancelled:
		in.Type = notification.TypeProjectCancelled
		in.Title = "Проект отменён"
		in.Message = "Проект «" + project.Title + "» отменён"
	default:
		in.Type = notification.TypeProjectStatusChanged
		in.Title = "Статус проекта изменён"
		in.Message = "Проект «" + project.Title + "» теперь в статусе " + string(project.Status)
	}
	s.notifier.Notify(ctx, in)
}
