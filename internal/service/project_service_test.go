package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, p *models.Project) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = uuid.New()
		p.Status = valueobject.ProjectStatusOpen
	}
	return args.Error(0)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectRepo) Hire(ctx context.Context, projectID, freelancerID uuid.UUID, amount decimal.Decimal) (*models.Project, error) {
	args := m.Called(ctx, projectID, freelancerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) UpdateStatus(ctx context.Context, projectID uuid.UUID, from, to valueobject.ProjectStatus) (*models.Project, error) {
	args := m.Called(ctx, projectID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

type stubEscrowLookup map[uuid.UUID]*models.Escrow

func (s stubEscrowLookup) GetByProjectID(_ context.Context, projectID uuid.UUID) (*models.Escrow, error) {
	e, ok := s[projectID]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	return e, nil
}

func openProject(clientID uuid.UUID) *models.Project {
	return &models.Project{
		ID:        uuid.New(),
		ClientID:  clientID,
		Title:     "Интернет-магазин",
		MinBudget: decimal.NewFromInt(1000),
		MaxBudget: decimal.NewFromInt(2000),
		Status:    valueobject.ProjectStatusOpen,
	}
}

func TestProjectService_Create(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, stubUsers{}, stubEscrowLookup{}, &recordingNotifier{})
	ctx := context.Background()
	clientID := uuid.New()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Project")).Return(nil).Once()

	p, err := svc.Create(ctx, clientID, models.RoleClient, CreateProjectInput{
		Title:     "  Лендинг  ",
		MinBudget: decimal.NewFromInt(1000),
		MaxBudget: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.Equal(t, "Лендинг", p.Title)
	assert.Equal(t, valueobject.ProjectStatusOpen, p.Status)

	_, err = svc.Create(ctx, clientID, models.RoleFreelancer, CreateProjectInput{})
	assert.True(t, apperror.IsForbidden(err))

	_, err = svc.Create(ctx, clientID, models.RoleClient, CreateProjectInput{
		MinBudget: decimal.NewFromInt(3000),
		MaxBudget: decimal.NewFromInt(2000),
	})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestProjectService_Hire(t *testing.T) {
	repo := new(mockProjectRepo)
	notifier := &recordingNotifier{}
	clientID := uuid.New()
	freelancer := &models.User{ID: uuid.New(), Role: models.RoleFreelancer, IsActive: true}
	svc := NewProjectService(repo, stubUsers{freelancer.ID: freelancer}, stubEscrowLookup{}, notifier)
	ctx := context.Background()

	project := openProject(clientID)
	agreed := decimal.NewFromInt(1500)
	hired := *project
	hired.Status = valueobject.ProjectStatusInProgress
	hired.FreelancerID = &freelancer.ID
	hired.AgreedAmount = decimal.NewNullDecimal(agreed)

	repo.On("GetByID", ctx, project.ID).Return(project, nil)
	repo.On("Hire", ctx, project.ID, freelancer.ID, agreed).Return(&hired, nil).Once()

	got, err := svc.Hire(ctx, project.ID, clientID, freelancer.ID, agreed)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProjectStatusInProgress, got.Status)
	assert.True(t, got.AgreedAmount.Decimal.Equal(agreed))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.TypeProjectHired, notifier.sent[0].Type)
	assert.Equal(t, freelancer.ID, notifier.sent[0].UserID)
}

func TestProjectService_Hire_Rejections(t *testing.T) {
	repo := new(mockProjectRepo)
	clientID := uuid.New()
	freelancer := &models.User{ID: uuid.New(), Role: models.RoleFreelancer, IsActive: true}
	otherClient := &models.User{ID: uuid.New(), Role: models.RoleClient, IsActive: true}
	svc := NewProjectService(repo, stubUsers{freelancer.ID: freelancer, otherClient.ID: otherClient}, stubEscrowLookup{}, &recordingNotifier{})
	ctx := context.Background()

	project := openProject(clientID)
	started := openProject(clientID)
	started.Status = valueobject.ProjectStatusInProgress
	repo.On("GetByID", ctx, project.ID).Return(project, nil)
	repo.On("GetByID", ctx, started.ID).Return(started, nil)

	_, err := svc.Hire(ctx, project.ID, uuid.New(), freelancer.ID, decimal.NewFromInt(1500))
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Hire(ctx, project.ID, clientID, freelancer.ID, decimal.NewFromInt(2500))
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Hire(ctx, project.ID, clientID, otherClient.ID, decimal.NewFromInt(1500))
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Hire(ctx, started.ID, clientID, freelancer.ID, decimal.NewFromInt(1500))
	assert.True(t, apperror.IsInvalidStateTransition(err))

	repo.AssertNotCalled(t, "Hire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_ChangeStatus(t *testing.T) {
	clientID := uuid.New()
	freelancerID := uuid.New()

	inProgress := func() *models.Project {
		p := openProject(clientID)
		p.Status = valueobject.ProjectStatusInProgress
		p.FreelancerID = &freelancerID
		return p
	}

	tests := []struct {
		name    string
		actor   uuid.UUID
		target  valueobject.ProjectStatus
		escrow  *models.Escrow
		wantErr func(error) bool
		notify  notification.Type
	}{
		{name: "исполнитель сдаёт работу", actor: freelancerID, target: valueobject.ProjectStatusPendingReview, notify: notification.TypeProjectSubmitted},
		{name: "клиент ставит на паузу", actor: clientID, target: valueobject.ProjectStatusPaused, notify: notification.TypeProjectStatusChanged},
		{name: "клиент не может сдать работу", actor: clientID, target: valueobject.ProjectStatusPendingReview, wantErr: apperror.IsForbidden},
		{name: "исполнитель не может ставить паузу", actor: freelancerID, target: valueobject.ProjectStatusPaused, wantErr: apperror.IsForbidden},
		{name: "посторонний", actor: uuid.New(), target: valueobject.ProjectStatusPaused, wantErr: apperror.IsNotFound},
		{name: "завершение только через эскроу", actor: clientID, target: valueobject.ProjectStatusCompleted, wantErr: apperror.IsInvalidStateTransition},
		{name: "недопустимый переход", actor: clientID, target: valueobject.ProjectStatusOpen, wantErr: apperror.IsInvalidStateTransition},
		{name: "отмена без эскроу", actor: clientID, target: valueobject.ProjectStatusCancelled, notify: notification.TypeProjectCancelled},
		{
			name:    "отмена с удержанными средствами",
			actor:   clientID,
			target:  valueobject.ProjectStatusCancelled,
			escrow:  &models.Escrow{Status: valueobject.EscrowStatusFunded},
			wantErr: apperror.IsInvalidStateTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockProjectRepo)
			notifier := &recordingNotifier{}
			project := inProgress()
			escrows := stubEscrowLookup{}
			if tt.escrow != nil {
				escrows[project.ID] = tt.escrow
			}
			svc := NewProjectService(repo, stubUsers{}, escrows, notifier)
			ctx := context.Background()

			repo.On("GetByID", ctx, project.ID).Return(project, nil)
			updated := *project
			updated.Status = tt.target
			repo.On("UpdateStatus", ctx, project.ID, valueobject.ProjectStatusInProgress, tt.target).Return(&updated, nil).Maybe()

			got, err := svc.ChangeStatus(ctx, project.ID, tt.actor, tt.target)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				assert.Empty(t, notifier.sent)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.target, got.Status)
			require.Len(t, notifier.sent, 1)
			assert.Equal(t, tt.notify, notifier.sent[0].Type)
			assert.NotEqual(t, tt.actor, notifier.sent[0].UserID)
		})
	}
}

func TestProjectService_Get_Visibility(t *testing.T) {
	repo := new(mockProjectRepo)
	svc := NewProjectService(repo, stubUsers{}, stubEscrowLookup{}, &recordingNotifier{})
	ctx := context.Background()
	clientID := uuid.New()

	open := openProject(clientID)
	closed := openProject(clientID)
	closed.Status = valueobject.ProjectStatusInProgress
	repo.On("GetByID", ctx, open.ID).Return(open, nil)
	repo.On("GetByID", ctx, closed.ID).Return(closed, nil)

	_, err := svc.Get(ctx, open.ID, uuid.New())
	assert.NoError(t, err)

	_, err = svc.Get(ctx, closed.ID, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Get(ctx, closed.ID, clientID)
	assert.NoError(t, err)
}
