package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// ServiceOrderRepository пакеты услуг и заказы по ним.
type ServiceOrderRepository interface {
	CreatePackage(ctx context.Context, pkg *models.ServicePackage) error
	GetPackage(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error)
	ListPackagesByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ServicePackage, error)
	CreateOrder(ctx context.Context, clientID, packageID uuid.UUID, description string) (*models.ServiceOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ServiceOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ServiceOrderStatus) (*models.ServiceOrder, error)
}

// CreatePackageInput данные пакета услуг.
type CreatePackageInput struct {
	Title        string
	Description  string
	Price        decimal.Decimal
	DeliveryDays int
}

type orderSide int

const (
	sideFreelancer orderSide = iota + 1
	sideClient
)

// orderActors кто может перевести заказ в статус.
var orderActors = map[valueobject.ServiceOrderStatus]orderSide{
	valueobject.ServiceOrderStatusAccepted:          sideFreelancer,
	valueobject.ServiceOrderStatusInProgress:        sideFreelancer,
	valueobject.ServiceOrderStatusDelivered:         sideFreelancer,
	valueobject.ServiceOrderStatusRevisionRequested: sideClient,
	valueobject.ServiceOrderStatusCompleted:         sideClient,
}

var orderNotifications = map[valueobject.ServiceOrderStatus]struct {
	typ   notification.Type
	title string
}{
	valueobject.ServiceOrderStatusAccepted:          {notification.TypeServiceOrderAccepted, "Заказ принят"},
	valueobject.ServiceOrderStatusInProgress:        {notification.TypeServiceOrderStarted, "Работа над заказом началась"},
	valueobject.ServiceOrderStatusDelivered:         {notification.TypeServiceOrderDelivered, "Заказ сдан"},
	valueobject.ServiceOrderStatusRevisionRequested: {notification.TypeServiceOrderRevisionRequested, "Запрошена доработка"},
	valueobject.ServiceOrderStatusCompleted:         {notification.TypeServiceOrderCompleted, "Заказ завершён"},
	valueobject.ServiceOrderStatusCancelled:         {notification.TypeServiceOrderCancelled, "Заказ отменён"},
}

// ServiceOrderService пакеты услуг фрилансеров и покупка их клиентами.
type ServiceOrderService struct {
	repo     ServiceOrderRepository
	notifier Notifier
}

func NewServiceOrderService(repo ServiceOrderRepository, notifier Notifier) *ServiceOrderService {
	return &ServiceOrderService{repo: repo, notifier: notifier}
}

// CreatePackage публикует пакет. Доступно только фрилансерам.
func (s *ServiceOrderService) CreatePackage(ctx context.Context, freelancerID uuid.UUID, role string, in CreatePackageInput) (*models.ServicePackage, error) {
	if role != models.RoleFreelancer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "пакеты услуг публикуют только фрилансеры")
	}
	if !in.Price.IsPositive() {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена пакета должна быть больше нуля")
	}
	if in.DeliveryDays < 1 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок выполнения должен быть не меньше одного дня")
	}

	pkg := &models.ServicePackage{
		FreelancerID: freelancerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		DeliveryDays: in.DeliveryDays,
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *ServiceOrderService) GetPackage(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	return s.repo.GetPackage(ctx, id)
}

func (s *ServiceOrderService) ListPackages(ctx context.Context, freelancerID uuid.UUID) ([]models.ServicePackage, error) {
	return s.repo.ListPackagesByFreelancer(ctx, freelancerID)
}

// CreateOrder покупка пакета клиентом. Цена и срок фиксируются из пакета.
func (s *ServiceOrderService) CreateOrder(ctx context.Context, clientID uuid.UUID, role string, packageID uuid.UUID, description string) (*models.ServiceOrder, error) {
	if role != models.RoleClient {
		return nil, apperror.New(apperror.ErrCodeForbidden, "заказывать услуги могут только клиенты")
	}

	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, apperror.ErrPackageNotFound
	}
	if pkg.FreelancerID == clientID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственный пакет")
	}

	order, err := s.repo.CreateOrder(ctx, clientID, packageID, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:  order.FreelancerID,
		Type:    notification.TypeServiceOrderCreated,
		Title:   "Новый заказ",
		Message: "Заказан пакет «" + order.Title + "» за " + order.PackagePrice.StringFixed(2),
		Data:    map[string]any{"orderId": order.ID.String()},
	})
	return order, nil
}

// GetOrder возвращает заказ участнику.
func (s *ServiceOrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.ServiceOrder, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != userID && order.FreelancerID != userID {
		return nil, apperror.ErrServiceOrderNotFound
	}
	return order, nil
}

func (s *ServiceOrderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ServiceOrder, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// ChangeStatus переводит заказ с учётом того, кто выполняет действие.
// Отменить PENDING может любая сторона, после принятия только фрилансер.
func (s *ServiceOrderService) ChangeStatus(ctx context.Context, orderID, actorID uuid.UUID, target valueobject.ServiceOrderStatus) (*models.ServiceOrder, error) {
	order, err := s.GetOrder(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}

	side := sideClient
	if order.FreelancerID == actorID {
		side = sideFreelancer
	}

	if target == valueobject.ServiceOrderStatusCancelled {
		if order.Status != valueobject.ServiceOrderStatusPending && side != sideFreelancer {
			return nil, apperror.New(apperror.ErrCodeForbidden, "после принятия заказ может отменить только исполнитель")
		}
	} else if required, ok := orderActors[target]; ok && required != side {
		return nil, apperror.New(apperror.ErrCodeForbidden, "недостаточно прав для смены статуса заказа")
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition("заказ", string(order.Status), string(target))
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, order.Status, target)
	if err != nil {
		return nil, err
	}

	recipient := updated.ClientID
	if side == sideClient {
		recipient = updated.FreelancerID
	}
	meta := orderNotifications[target]
	s.notifier.Notify(ctx, NotificationInput{
		UserID:  recipient,
		Type:    meta.typ,
		Title:   meta.title,
		Message: "Заказ «" + updated.Title + "»: " + string(updated.Status),
		Data:    map[string]any{"orderId": updated.ID.String(), "status": string(updated.Status)},
	})
	return updated, nil
}
