package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkItemNote личная заметка фрилансера к проекту либо заказу услуги.
type WorkItemNote struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	UserID         uuid.UUID  `db:"user_id" json:"userId"`
	ProjectID      *uuid.UUID `db:"project_id" json:"projectId,omitempty"`
	ServiceOrderID *uuid.UUID `db:"service_order_id" json:"serviceOrderId,omitempty"`
	Note           string     `db:"note" json:"note"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}
