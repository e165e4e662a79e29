package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
)

// Escrow удержание средств по проекту до подтверждения работы клиентом.
type Escrow struct {
	ID              uuid.UUID                `db:"id" json:"id"`
	ProjectID       uuid.UUID                `db:"project_id" json:"projectId"`
	ClientID        uuid.UUID                `db:"client_id" json:"clientId"`
	FreelancerID    uuid.UUID                `db:"freelancer_id" json:"freelancerId"`
	AgreedAmount    decimal.Decimal          `db:"agreed_amount" json:"agreedAmount"`
	BuyerFee        decimal.Decimal          `db:"buyer_fee" json:"buyerFee"`
	Amount          decimal.Decimal          `db:"amount" json:"amount"`
	Status          valueobject.EscrowStatus `db:"status" json:"status"`
	PaymentIntentID *string                  `db:"payment_intent_id" json:"paymentIntentId,omitempty"`
	DisputeReason   *string                  `db:"dispute_reason" json:"disputeReason,omitempty"`
	FundedAt        *time.Time               `db:"funded_at" json:"fundedAt,omitempty"`
	ReleasedAt      *time.Time               `db:"released_at" json:"releasedAt,omitempty"`
	RefundedAt      *time.Time               `db:"refunded_at" json:"refundedAt,omitempty"`
	CreatedAt       time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time                `db:"updated_at" json:"updatedAt"`
}

// Transaction запись журнала. После COMPLETED не изменяется.
type Transaction struct {
	ID          uuid.UUID                     `db:"id" json:"id"`
	UserID      uuid.UUID                     `db:"user_id" json:"userId"`
	EscrowID    *uuid.UUID                    `db:"escrow_id" json:"escrowId,omitempty"`
	Type        valueobject.TransactionType   `db:"type" json:"type"`
	Amount      decimal.Decimal               `db:"amount" json:"amount"`
	Status      valueobject.TransactionStatus `db:"status" json:"status"`
	Description string                        `db:"description" json:"description"`
	ExternalRef *string                       `db:"external_ref" json:"externalRef,omitempty"`
	CreatedAt   time.Time                     `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time                    `db:"completed_at" json:"completedAt,omitempty"`
}
