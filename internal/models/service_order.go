package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
)

// ServicePackage пакет услуг фрилансера с фиксированной ценой.
type ServicePackage struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	FreelancerID uuid.UUID       `db:"freelancer_id" json:"freelancerId"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	Price        decimal.Decimal `db:"price" json:"price"`
	DeliveryDays int             `db:"delivery_days" json:"deliveryDays"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// ServiceOrder купленный пакет. Цена копируется из пакета при создании и больше не меняется.
type ServiceOrder struct {
	ID           uuid.UUID                      `db:"id" json:"id"`
	PackageID    uuid.UUID                      `db:"package_id" json:"packageId"`
	ClientID     uuid.UUID                      `db:"client_id" json:"clientId"`
	FreelancerID uuid.UUID                      `db:"freelancer_id" json:"freelancerId"`
	Title        string                         `db:"title" json:"title"`
	Description  string                         `db:"description" json:"description"`
	PackagePrice decimal.Decimal                `db:"package_price" json:"packagePrice"`
	DeliveryDate time.Time                      `db:"delivery_date" json:"deliveryDate"`
	Status       valueobject.ServiceOrderStatus `db:"status" json:"status"`
	CreatedAt    time.Time                      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time                      `db:"updated_at" json:"updatedAt"`
}

// ActiveServiceOrderRow строка выборки активных заказов фрилансера.
type ActiveServiceOrderRow struct {
	ServiceOrder
	ClientUsername    string  `db:"client_username"`
	ClientDisplayName string  `db:"client_display_name"`
	Note              *string `db:"note"`
}
