package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/models"
	rules "github.com/ignatzorin/koihire-backend/internal/validation"
)

// RegisterRequest регистрация пользователя.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, rules.Email...),
		validation.Field(&r.Password, validation.Required.Error("пароль обязателен"), rules.Password),
		validation.Field(&r.Username, rules.Username...),
		validation.Field(&r.DisplayName, validation.RuneLength(0, 100)),
		validation.Field(&r.Role, validation.In(models.RoleClient, models.RoleFreelancer).Error("роль должна быть client или freelancer")),
	)
}

// LoginRequest вход по email и паролю.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, rules.Email...),
		validation.Field(&r.Password, validation.Required.Error("пароль обязателен")),
	)
}

// RefreshRequest обмен refresh токена.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required.Error("refresh токен обязателен")),
	)
}

// CreateProjectRequest публикация проекта клиентом.
type CreateProjectRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	MinBudget   decimal.Decimal `json:"minBudget"`
	MaxBudget   decimal.Decimal `json:"maxBudget"`
}

func (r *CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, rules.Title...),
		validation.Field(&r.Description, validation.RuneLength(0, rules.MaxDescLength)),
		validation.Field(&r.MinBudget, rules.NonNegativeAmount),
		validation.Field(&r.MaxBudget, rules.PositiveAmount),
	)
}

// HireRequest найм фрилансера на проект.
type HireRequest struct {
	FreelancerID string          `json:"freelancerId"`
	AgreedAmount decimal.Decimal `json:"agreedAmount"`
}

func (r *HireRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FreelancerID, validation.Required, is.UUID),
		validation.Field(&r.AgreedAmount, rules.PositiveAmount),
	)
}

// UpdateStatusRequest смена статуса проекта или заказа.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required.Error("статус обязателен")),
	)
}

// CreatePackageRequest создание пакета услуг.
type CreatePackageRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryDays"`
}

func (r *CreatePackageRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, rules.Title...),
		validation.Field(&r.Description, validation.RuneLength(0, rules.MaxDescLength)),
		validation.Field(&r.Price, rules.PositiveAmount),
		validation.Field(&r.DeliveryDays, validation.Required, validation.Min(1), validation.Max(365)),
	)
}

// CreateServiceOrderRequest покупка пакета.
type CreateServiceOrderRequest struct {
	PackageID   string `json:"packageId"`
	Description string `json:"description"`
}

func (r *CreateServiceOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PackageID, validation.Required, is.UUID),
		validation.Field(&r.Description, validation.RuneLength(0, rules.MaxDescLength)),
	)
}

// CreatePaymentIntentRequest начало оплаты проекта.
type CreatePaymentIntentRequest struct {
	ProjectID string `json:"projectId"`
}

func (r *CreatePaymentIntentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required.Error("projectId обязателен"), is.UUID),
	)
}

// ConfirmPaymentRequest подтверждение оплаты проекта.
type ConfirmPaymentRequest struct {
	ProjectID       string `json:"projectId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (r *ConfirmPaymentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required.Error("projectId обязателен"), is.UUID),
		validation.Field(&r.PaymentIntentID, validation.Required.Error("paymentIntentId обязателен")),
	)
}

// ReasonRequest причина возврата или спора.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (r *ReasonRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.RuneLength(0, rules.MaxReasonLength)),
	)
}

// NoteRequest текст заметки.
type NoteRequest struct {
	Note string `json:"note"`
}
