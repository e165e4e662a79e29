package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ignatzorin/koihire-backend/internal/domain/notification"
	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
	"github.com/ignatzorin/koihire-backend/internal/processor"
)

var tracer = otel.Tracer("github.com/ignatzorin/koihire-backend/internal/service")

// EscrowRepository описывает хранилище эскроу и журнала транзакций.
type EscrowRepository interface {
	UpsertPending(ctx context.Context, escrow *models.Escrow) error
	AttachPaymentIntent(ctx context.Context, escrowID uuid.UUID, intentID string) error
	Fund(ctx context.Context, escrowID uuid.UUID, intentID string) (*models.Escrow, error)
	Release(ctx context.Context, escrowID uuid.UUID) (*models.Escrow, error)
	Refund(ctx context.Context, escrowID uuid.UUID, reason string) (*models.Escrow, error)
	OpenDispute(ctx context.Context, escrowID uuid.UUID, reason string) (*models.Escrow, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Escrow, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	LifetimeEarnings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// ProjectGetter чтение проекта.
type ProjectGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// UserRepository пользователи и их платёжные аккаунты.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetConnectAccountID(ctx context.Context, userID uuid.UUID, accountID string) error
}

// PaymentProcessor внешний платёжный процессор.
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, amount int64, metadata map[string]string, idempotencyKey string) (*processor.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*processor.PaymentIntent, error)
	CreateTransfer(ctx context.Context, amount int64, destination, transferGroup, idempotencyKey string) (*processor.Transfer, error)
}

// FundingSession данные для оплаты проекта на стороне клиента.
type FundingSession struct {
	EscrowID        uuid.UUID                   `json:"escrowId"`
	PaymentIntentID string                      `json:"paymentIntentId"`
	ClientSecret    string                      `json:"clientSecret"`
	Breakdown       valueobject.ChargeBreakdown `json:"breakdown"`
}

// Earnings сумма завершённых выплат фрилансеру.
type Earnings struct {
	Lifetime decimal.Decimal `json:"lifetime"`
}

// EscrowService управляет жизненным циклом эскроу: оплата, выплата, возврат, спор.
type EscrowService struct {
	escrows   EscrowRepository
	projects  ProjectGetter
	users     UserRepository
	processor PaymentProcessor
	notifier  Notifier
}

// NewEscrowService создаёт сервис эскроу.
func NewEscrowService(escrows EscrowRepository, projects ProjectGetter, users UserRepository, processor PaymentProcessor, notifier Notifier) *EscrowService {
	return &EscrowService{
		escrows:   escrows,
		projects:  projects,
		users:     users,
		processor: processor,
		notifier:  notifier,
	}
}

// Breakdown считает разбивку списания по проекту. До найма используется максимальный бюджет.
func (s *EscrowService) Breakdown(ctx context.Context, projectID, userID uuid.UUID) (valueobject.ChargeBreakdown, error) {
	project, err := s.participantProject(ctx, projectID, userID)
	if err != nil {
		return valueobject.ChargeBreakdown{}, err
	}

	amount := project.MaxBudget
	if project.AgreedAmount.Valid {
		amount = project.AgreedAmount.Decimal
	}
	return valueobject.ComputeChargeBreakdown(amount), nil
}

// BeginFunding готовит эскроу в статусе PENDING и создаёт платёж на полную сумму с комиссией.
func (s *EscrowService) BeginFunding(ctx context.Context, projectID, payerID uuid.UUID) (_ *FundingSession, err error) {
	ctx, span := startSpan(ctx, "escrow.begin_funding", attribute.String("project.id", projectID.String()))
	defer func() { endSpan(span, err) }()

	project, err := s.clientProject(ctx, projectID, payerID)
	if err != nil {
		return nil, err
	}
	if project.FreelancerID == nil || !project.AgreedAmount.Valid {
		return nil, apperror.New(apperror.ErrCodeInvalidStateTransition, "исполнитель по проекту ещё не выбран")
	}
	if !project.Status.IsActive() {
		return nil, apperror.InvalidTransition("проект", string(project.Status), "оплачен")
	}

	existing, err := s.escrows.GetByProjectID(ctx, projectID)
	switch {
	case err == nil && existing.Status.IsLocked():
		return nil, apperror.InvalidTransition("эскроу", string(existing.Status), string(valueobject.EscrowStatusPending))
	case err != nil && !errors.Is(err, apperror.ErrEscrowNotFound):
		return nil, err
	}

	breakdown := valueobject.ComputeChargeBreakdown(project.AgreedAmount.Decimal)
	escrow := &models.Escrow{
		ProjectID:    project.ID,
		ClientID:     project.ClientID,
		FreelancerID: *project.FreelancerID,
		AgreedAmount: breakdown.AgreedAmount,
		BuyerFee:     breakdown.BuyerFee,
		Amount:       breakdown.TotalCharged,
	}
	if err := s.escrows.UpsertPending(ctx, escrow); err != nil {
		return nil, err
	}

	cents := valueobject.MinorUnits(breakdown.TotalCharged)
	intent, err := s.processor.CreatePaymentIntent(ctx, cents, map[string]string{
		"escrow_id":  escrow.ID.String(),
		"project_id": project.ID.String(),
	}, idempotencyKey("fund", escrow.ID, cents))
	if err != nil {
		return nil, err
	}

	if err := s.escrows.AttachPaymentIntent(ctx, escrow.ID, intent.ID); err != nil {
		return nil, err
	}

	return &FundingSession{
		EscrowID:        escrow.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Breakdown:       breakdown,
	}, nil
}

// FundEscrow подтверждает оплату: сверяет платёж с процессором и переводит эскроу в FUNDED.
func (s *EscrowService) FundEscrow(ctx context.Context, projectID, payerID uuid.UUID, intentID string) (_ *models.Escrow, err error) {
	ctx, span := startSpan(ctx, "escrow.fund", attribute.String("project.id", projectID.String()))
	defer func() { endSpan(span, err) }()

	if _, err := s.clientProject(ctx, projectID, payerID); err != nil {
		return nil, err
	}

	escrow, err := s.escrows.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != valueobject.EscrowStatusPending {
		return nil, apperror.InvalidTransition("эскроу", string(escrow.Status), string(valueobject.EscrowStatusFunded))
	}
	if escrow.PaymentIntentID == nil || *escrow.PaymentIntentID != intentID {
		return nil, apperror.New(apperror.ErrCodeValidation, "платёж не относится к этому проекту")
	}

	intent, err := s.processor.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Metadata["escrow_id"] != escrow.ID.String() {
		logger.Log.WithFields(map[string]interface{}{
			"escrow_id": escrow.ID,
			"intent_id": intent.ID,
		}).Warn("escrow service: платёж создан для другого эскроу")
		return nil, apperror.New(apperror.ErrCodeValidation, "платёж не относится к этому проекту")
	}
	if intent.Status != processor.IntentSucceeded {
		return nil, apperror.New(apperror.ErrCodeValidation, "платёж ещё не завершён")
	}
	if intent.Amount != valueobject.MinorUnits(escrow.Amount) {
		logger.Log.WithFields(map[string]interface{}{
			"escrow_id": escrow.ID,
			"expected":  escrow.Amount.StringFixed(2),
			"captured":  valueobject.FromMinorUnits(intent.Amount).StringFixed(2),
		}).Error("escrow service: сумма платежа не совпадает с эскроу")
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа не совпадает с суммой эскроу")
	}

	funded, err := s.escrows.Fund(ctx, escrow.ID, intentID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:    funded.FreelancerID,
		Type:      notification.TypeEscrowFunded,
		Title:     "Проект оплачен",
		Message:   "Клиент внёс " + funded.AgreedAmount.StringFixed(2) + " в эскроу, можно приступать к работе",
		ProjectID: &funded.ProjectID,
	})
	return funded, nil
}

// ReleaseEscrow выплачивает средства фрилансеру. Подтверждает только клиент проекта.
// Перевод на аккаунт фрилансера выполняется после фиксации журнала, его ошибка только логируется.
func (s *EscrowService) ReleaseEscrow(ctx context.Context, escrowID, approverID uuid.UUID) (_ *models.Escrow, err error) {
	ctx, span := startSpan(ctx, "escrow.release", attribute.String("escrow.id", escrowID.String()))
	defer func() { endSpan(span, err) }()

	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if escrow.ClientID != approverID {
		return nil, apperror.ErrEscrowNotFound
	}
	if escrow.Status != valueobject.EscrowStatusFunded {
		return nil, apperror.InvalidTransition("эскроу", string(escrow.Status), string(valueobject.EscrowStatusReleased))
	}

	released, err := s.escrows.Release(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	s.payout(ctx, released)

	s.notifier.Notify(ctx, NotificationInput{
		UserID:    released.FreelancerID,
		Type:      notification.TypeEscrowReleased,
		Title:     "Оплата получена",
		Message:   "Клиент подтвердил работу, выплата " + released.AgreedAmount.StringFixed(2),
		ProjectID: &released.ProjectID,
	})
	return released, nil
}

// RefundEscrow возвращает клиенту полную сумму. Выполняет фрилансер проекта или администратор.
func (s *EscrowService) RefundEscrow(ctx context.Context, escrowID, actorID uuid.UUID, actorRole, reason string) (_ *models.Escrow, err error) {
	ctx, span := startSpan(ctx, "escrow.refund", attribute.String("escrow.id", escrowID.String()))
	defer func() { endSpan(span, err) }()

	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	isAdmin := actorRole == models.RoleAdmin
	switch {
	case isAdmin, escrow.FreelancerID == actorID:
	case escrow.ClientID == actorID:
		return nil, apperror.New(apperror.ErrCodeForbidden, "возврат может оформить только исполнитель или администратор")
	default:
		return nil, apperror.ErrEscrowNotFound
	}

	refunded, err := s.escrows.Refund(ctx, escrowID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:    refunded.ClientID,
		Type:      notification.TypeEscrowRefunded,
		Title:     "Средства возвращены",
		Message:   "Возвращено " + refunded.Amount.StringFixed(2),
		ProjectID: &refunded.ProjectID,
	})
	return refunded, nil
}

// OpenDispute открывает спор по оплаченному эскроу. Доступно клиенту и фрилансеру.
func (s *EscrowService) OpenDispute(ctx context.Context, escrowID, actorID uuid.UUID, reason string) (_ *models.Escrow, err error) {
	ctx, span := startSpan(ctx, "escrow.dispute", attribute.String("escrow.id", escrowID.String()))
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "укажите причину спора")
	}

	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	var counterparty uuid.UUID
	switch actorID {
	case escrow.ClientID:
		counterparty = escrow.FreelancerID
	case escrow.FreelancerID:
		counterparty = escrow.ClientID
	default:
		return nil, apperror.ErrEscrowNotFound
	}

	disputed, err := s.escrows.OpenDispute(ctx, escrowID, reason)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationInput{
		UserID:    counterparty,
		Type:      notification.TypeEscrowDisputed,
		Title:     "Открыт спор по проекту",
		Message:   reason,
		ProjectID: &disputed.ProjectID,
	})
	return disputed, nil
}

// GetEscrowForProject возвращает эскроу проекта участнику сделки.
func (s *EscrowService) GetEscrowForProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.escrows.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if escrow.ClientID != userID && escrow.FreelancerID != userID {
		return nil, apperror.ErrEscrowNotFound
	}
	return escrow, nil
}

// ListTransactions журнал транзакций пользователя.
func (s *EscrowService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	limit, offset = normalizePage(limit, offset)
	return s.escrows.ListTransactions(ctx, userID, limit, offset)
}

// LifetimeEarnings сумма завершённых выплат пользователю.
func (s *EscrowService) LifetimeEarnings(ctx context.Context, userID uuid.UUID) (*Earnings, error) {
	total, err := s.escrows.LifetimeEarnings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Earnings{Lifetime: total}, nil
}

func (s *EscrowService) payout(ctx context.Context, escrow *models.Escrow) {
	log := logger.WithComponent("payout").WithFields(map[string]interface{}{
		"escrow_id":     escrow.ID,
		"freelancer_id": escrow.FreelancerID,
	})

	freelancer, err := s.users.GetByID(ctx, escrow.FreelancerID)
	if err != nil {
		log.WithError(err).Error("escrow service: не удалось загрузить фрилансера для выплаты")
		return
	}
	if freelancer.ConnectAccountID == nil || *freelancer.ConnectAccountID == "" {
		log.Warn("escrow service: у фрилансера нет платёжного аккаунта, выплата отложена")
		return
	}

	_, err = s.processor.CreateTransfer(ctx,
		valueobject.MinorUnits(escrow.AgreedAmount),
		*freelancer.ConnectAccountID,
		"escrow-"+escrow.ID.String(),
		idempotencyKey("release", escrow.ID, valueobject.MinorUnits(escrow.AgreedAmount)),
	)
	if err != nil {
		log.WithError(err).Error("escrow service: перевод фрилансеру не выполнен")
		s.notifier.Notify(ctx, NotificationInput{
			UserID:    escrow.FreelancerID,
			Type:      notification.TypePayoutFailed,
			Title:     "Перевод задерживается",
			Message:   "Выплата учтена, перевод на ваш аккаунт будет повторён поддержкой",
			ProjectID: &escrow.ProjectID,
		})
	}
}

// clientProject возвращает проект, только если userID его клиент. Иначе NotFound, чтобы не раскрывать чужие проекты.
func (s *EscrowService) clientProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != userID {
		return nil, apperror.ErrProjectNotFound
	}
	return project, nil
}

func (s *EscrowService) participantProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsParticipant(userID) {
		return nil, apperror.ErrProjectNotFound
	}
	return project, nil
}

func idempotencyKey(op string, escrowID uuid.UUID, cents int64) string {
	return op + "-" + escrowID.String() + "-" + decimal.NewFromInt(cents).String()
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
