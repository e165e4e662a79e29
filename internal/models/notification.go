package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Notification описывает событие, отправленное пользователю.
// Data хранится как JSONB, NULL из старых строк читается как {}.
type Notification struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	UserID        uuid.UUID      `db:"user_id" json:"userId"`
	Type          string         `db:"type" json:"type"`
	Title         string         `db:"title" json:"title"`
	Message       string         `db:"message" json:"message"`
	ProjectID     *uuid.UUID     `db:"project_id" json:"projectId,omitempty"`
	ApplicationID *uuid.UUID     `db:"application_id" json:"applicationId,omitempty"`
	Data          types.JSONText `db:"data" json:"data"`
	IsRead        bool           `db:"is_read" json:"isRead"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}
