package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
)

// Project проект, опубликованный клиентом.
type Project struct {
	ID           uuid.UUID                 `db:"id" json:"id"`
	ClientID     uuid.UUID                 `db:"client_id" json:"clientId"`
	FreelancerID *uuid.UUID                `db:"freelancer_id" json:"freelancerId,omitempty"`
	Title        string                    `db:"title" json:"title"`
	Description  string                    `db:"description" json:"description"`
	MinBudget    decimal.Decimal           `db:"min_budget" json:"minBudget"`
	MaxBudget    decimal.Decimal           `db:"max_budget" json:"maxBudget"`
	AgreedAmount decimal.NullDecimal       `db:"agreed_amount" json:"agreedAmount"`
	Status       valueobject.ProjectStatus `db:"status" json:"status"`
	CreatedAt    time.Time                 `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time                 `db:"updated_at" json:"updatedAt"`
}

// IsParticipant проверяет, является ли пользователь клиентом или исполнителем проекта.
func (p *Project) IsParticipant(userID uuid.UUID) bool {
	return p.ClientID == userID || p.IsFreelancer(userID)
}

func (p *Project) IsFreelancer(userID uuid.UUID) bool {
	return p.FreelancerID != nil && *p.FreelancerID == userID
}

// ActiveProjectRow строка выборки активных проектов фрилансера вместе с заметкой и клиентом.
type ActiveProjectRow struct {
	Project
	ClientUsername    string  `db:"client_username"`
	ClientDisplayName string  `db:"client_display_name"`
	Note              *string `db:"note"`
}
