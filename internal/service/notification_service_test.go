package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/models"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = uuid.New()
		n.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	return m.Called(userID, event, data).Error(0)
}

func TestNotificationService_Create_PersistsThenPushes(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	svc := NewNotificationService(repo, pub)
	ctx := context.Background()
	userID, orderID := uuid.New(), uuid.New()

	var order []string
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).
		Run(func(mock.Arguments) { order = append(order, "create") }).
		Return(nil).Once()
	pub.On("BroadcastToUser", userID, "notification", mock.AnythingOfType("service.NotificationView")).
		Run(func(mock.Arguments) { order = append(order, "push") }).
		Return(nil).Once()

	view, err := svc.Create(ctx, NotificationInput{
		UserID: userID,
		Type:   notification.TypeServiceOrderDelivered,
		Title:  "Заказ сдан",
		Data:   map[string]any{"orderId": orderID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "push"}, order)
	assert.Equal(t, notification.CategoryProject, view.Category)
	require.NotNil(t, view.ActionURL)
	assert.Equal(t, "/services/orders/"+orderID.String(), *view.ActionURL)
	assert.JSONEq(t, `{"orderId":"`+orderID.String()+`"}`, string(view.Data))

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestNotificationService_Create_StoreFailureSkipsPush(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	svc := NewNotificationService(repo, pub)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

	_, err := svc.Create(ctx, NotificationInput{UserID: uuid.New(), Type: notification.TypeEscrowFunded})
	require.Error(t, err)
	pub.AssertNotCalled(t, "BroadcastToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_Create_PushFailureKeepsNotification(t *testing.T) {
	repo := new(mockNotificationRepo)
	pub := new(mockPublisher)
	svc := NewNotificationService(repo, pub)
	ctx := context.Background()
	projectID := uuid.New()

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	pub.On("BroadcastToUser", mock.Anything, "notification", mock.Anything).Return(errors.New("offline")).Once()

	view, err := svc.Create(ctx, NotificationInput{UserID: uuid.New(), Type: notification.TypeEscrowFunded, ProjectID: &projectID})
	require.NoError(t, err)
	assert.Equal(t, notification.CategoryPayment, view.Category)
	require.NotNil(t, view.ActionURL)
	assert.Equal(t, "/projects/"+projectID.String(), *view.ActionURL)
}

func TestNotificationService_List_DerivesCategoryAndRoute(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()
	userID, projectID := uuid.New(), uuid.New()

	repo.On("List", ctx, userID, 20, 0, true).Return([]models.Notification{
		{ID: uuid.New(), UserID: userID, Type: string(notification.TypeNewApplication), ProjectID: &projectID},
		{ID: uuid.New(), UserID: userID, Type: string(notification.TypeProjectCancelled), ProjectID: &projectID},
		{ID: uuid.New(), UserID: userID, Type: "SOMETHING_NEW"},
	}, nil).Once()

	views, err := svc.List(ctx, userID, 0, -1, true)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, notification.CategoryApplication, views[0].Category)
	require.NotNil(t, views[0].ActionURL)
	assert.Equal(t, "/projects/"+projectID.String()+"/applications", *views[0].ActionURL)

	assert.Equal(t, notification.CategoryProject, views[1].Category)
	assert.Nil(t, views[1].ActionURL)

	assert.Equal(t, notification.CategorySystem, views[2].Category)
	assert.Nil(t, views[2].ActionURL)
	repo.AssertExpectations(t)
}

func TestNotificationService_Notify_SwallowsErrors(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

	assert.NotPanics(t, func() {
		svc.Notify(ctx, NotificationInput{UserID: uuid.New(), Type: notification.TypePayoutFailed})
	})
	repo.AssertExpectations(t)
}
