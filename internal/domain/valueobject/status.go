package valueobject

import "github.com/ignatzorin/koihire-backend/internal/pkg/apperror"

// ProjectStatus статус проекта клиента.
type ProjectStatus string

const (
	ProjectStatusOpen          ProjectStatus = "OPEN"
	ProjectStatusInProgress    ProjectStatus = "IN_PROGRESS"
	ProjectStatusPendingReview ProjectStatus = "PENDING_REVIEW"
	ProjectStatusPaused        ProjectStatus = "PAUSED"
	ProjectStatusDisputed      ProjectStatus = "DISPUTED"
	ProjectStatusCompleted     ProjectStatus = "COMPLETED"
	ProjectStatusCancelled     ProjectStatus = "CANCELLED"
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusOpen:          {ProjectStatusInProgress, ProjectStatusCancelled},
	ProjectStatusInProgress:    {ProjectStatusPendingReview, ProjectStatusPaused, ProjectStatusDisputed, ProjectStatusCompleted, ProjectStatusCancelled},
	ProjectStatusPendingReview: {ProjectStatusCompleted, ProjectStatusDisputed},
	ProjectStatusPaused:        {ProjectStatusInProgress, ProjectStatusCancelled},
	ProjectStatusDisputed:      {ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled},
	ProjectStatusCompleted:     {},
	ProjectStatusCancelled:     {},
}

// ActiveProjectStatuses статусы, при которых проект попадает в ленту активной работы.
var ActiveProjectStatuses = []ProjectStatus{
	ProjectStatusInProgress,
	ProjectStatusPendingReview,
	ProjectStatusPaused,
	ProjectStatusDisputed,
}

func (s ProjectStatus) IsValid() bool {
	_, ok := projectTransitions[s]
	return ok
}

func (s ProjectStatus) CanTransitionTo(newStatus ProjectStatus) bool {
	return contains(projectTransitions[s], newStatus)
}

func (s ProjectStatus) IsActive() bool {
	return contains(ActiveProjectStatuses, s)
}

func NewProjectStatus(status string) (ProjectStatus, error) {
	s := ProjectStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус проекта")
	}
	return s, nil
}

// ServiceOrderStatus статус заказа пакета услуг.
type ServiceOrderStatus string

const (
	ServiceOrderStatusPending           ServiceOrderStatus = "PENDING"
	ServiceOrderStatusAccepted          ServiceOrderStatus = "ACCEPTED"
	ServiceOrderStatusInProgress        ServiceOrderStatus = "IN_PROGRESS"
	ServiceOrderStatusDelivered         ServiceOrderStatus = "DELIVERED"
	ServiceOrderStatusRevisionRequested ServiceOrderStatus = "REVISION_REQUESTED"
	ServiceOrderStatusCompleted         ServiceOrderStatus = "COMPLETED"
	ServiceOrderStatusCancelled         ServiceOrderStatus = "CANCELLED"
)

var serviceOrderTransitions = map[ServiceOrderStatus][]ServiceOrderStatus{
	ServiceOrderStatusPending:           {ServiceOrderStatusAccepted, ServiceOrderStatusCancelled},
	ServiceOrderStatusAccepted:          {ServiceOrderStatusInProgress, ServiceOrderStatusCancelled},
	ServiceOrderStatusInProgress:        {ServiceOrderStatusDelivered, ServiceOrderStatusCancelled},
	ServiceOrderStatusDelivered:         {ServiceOrderStatusCompleted, ServiceOrderStatusRevisionRequested},
	ServiceOrderStatusRevisionRequested: {ServiceOrderStatusInProgress, ServiceOrderStatusDelivered},
	ServiceOrderStatusCompleted:         {},
	ServiceOrderStatusCancelled:         {},
}

var ActiveServiceOrderStatuses = []ServiceOrderStatus{
	ServiceOrderStatusPending,
	ServiceOrderStatusAccepted,
	ServiceOrderStatusInProgress,
	ServiceOrderStatusDelivered,
	ServiceOrderStatusRevisionRequested,
}

func (s ServiceOrderStatus) IsValid() bool {
	_, ok := serviceOrderTransitions[s]
	return ok
}

func (s ServiceOrderStatus) CanTransitionTo(newStatus ServiceOrderStatus) bool {
	return contains(serviceOrderTransitions[s], newStatus)
}

func (s ServiceOrderStatus) IsActive() bool {
	return contains(ActiveServiceOrderStatuses, s)
}

func NewServiceOrderStatus(status string) (ServiceOrderStatus, error) {
	s := ServiceOrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа услуги")
	}
	return s, nil
}

// EscrowStatus статус эскроу по проекту.
type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "PENDING"
	EscrowStatusFunded   EscrowStatus = "FUNDED"
	EscrowStatusReleased EscrowStatus = "RELEASED"
	EscrowStatusRefunded EscrowStatus = "REFUNDED"
	EscrowStatusDisputed EscrowStatus = "DISPUTED"
)

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowStatusPending:  {EscrowStatusFunded},
	EscrowStatusFunded:   {EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusDisputed},
	EscrowStatusDisputed: {EscrowStatusRefunded},
	EscrowStatusReleased: {},
	EscrowStatusRefunded: {},
}

func (s EscrowStatus) IsValid() bool {
	_, ok := escrowTransitions[s]
	return ok
}

func (s EscrowStatus) CanTransitionTo(newStatus EscrowStatus) bool {
	return contains(escrowTransitions[s], newStatus)
}

// IsLocked возвращает true, если эскроу уже профинансирован и повторная оплата запрещена.
func (s EscrowStatus) IsLocked() bool {
	return s != EscrowStatusPending && s != ""
}

// TransactionType тип записи в журнале транзакций.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeFee        TransactionType = "FEE"
	TransactionTypeRefund     TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
