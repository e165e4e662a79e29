package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Publisher доставляет событие подключённым клиентам пользователя.
type Publisher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// Notifier используется другими сервисами для отправки уведомлений.
type Notifier interface {
	Notify(ctx context.Context, in NotificationInput)
}

// NotificationInput данные нового уведомления.
type NotificationInput struct {
	UserID        uuid.UUID
	Type          notification.Type
	Title         string
	Message       string
	ProjectID     *uuid.UUID
	ApplicationID *uuid.UUID
	Data          map[string]any
}

// NotificationView уведомление с вычисленными категорией и ссылкой.
type NotificationView struct {
	ID            uuid.UUID             `json:"id"`
	Type          string                `json:"type"`
	Category      notification.Category `json:"category"`
	Title         string                `json:"title"`
	Message       string                `json:"message"`
	ProjectID     *uuid.UUID            `json:"projectId,omitempty"`
	ApplicationID *uuid.UUID            `json:"applicationId,omitempty"`
	Data          json.RawMessage       `json:"data,omitempty"`
	ActionURL     *string               `json:"actionUrl"`
	IsRead        bool                  `json:"isRead"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// NewNotificationView добавляет к уведомлению категорию и ссылку перехода.
func NewNotificationView(n models.Notification) NotificationView {
	view := NotificationView{
		ID:            n.ID,
		Type:          n.Type,
		Category:      notification.CategoryOf(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		ProjectID:     n.ProjectID,
		ApplicationID: n.ApplicationID,
		Data:          json.RawMessage(n.Data),
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
	if route := notification.RouteOf(n.Type, notification.Payload{ProjectID: n.ProjectID, Data: json.RawMessage(n.Data)}); route != "" {
		view.ActionURL = &route
	}
	return view
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo      NotificationRepository
	publisher Publisher
}

// NewNotificationService создаёт новый сервис уведомлений. publisher может быть nil.
func NewNotificationService(repo NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Create сохраняет уведомление и отправляет его по WebSocket.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*NotificationView, error) {
	n := &models.Notification{
		UserID:        in.UserID,
		Type:          string(in.Type),
		Title:         in.Title,
		Message:       in.Message,
		ProjectID:     in.ProjectID,
		ApplicationID: in.ApplicationID,
	}
	if len(in.Data) > 0 {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal data %w", err)
		}
		n.Data = types.JSONText(raw)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	view := NewNotificationView(*n)
	if s.publisher != nil {
		if err := s.publisher.BroadcastToUser(n.UserID, "notification", view); err != nil {
			logger.Log.WithError(err).WithField("user_id", n.UserID).Warn("notification service: не удалось отправить по ws")
		}
	}
	return &view, nil
}

// Notify создаёт уведомление, ошибка только логируется. Используется после уже выполненных операций.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) {
	if _, err := s.Create(ctx, in); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"user_id": in.UserID,
			"type":    in.Type,
		}).Error("notification service: не удалось создать уведомление")
	}
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]NotificationView, error) {
	limit, offset = normalizePage(limit, offset)

	items, err := s.repo.List(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, NewNotificationView(n))
	}
	return views, nil
}

// MarkAsRead отмечает уведомление прочитанным. Обратного перехода нет.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Delete удаляет уведомление пользователя.
func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
