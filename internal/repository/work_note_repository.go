package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
)

// ErrNoteNotFound заметки у пользователя для элемента нет.
var ErrNoteNotFound = errors.New("work item note not found")

// WorkNoteRepository хранит личные заметки фрилансера к проектам и заказам.
type WorkNoteRepository struct {
	db *sqlx.DB
}

func NewWorkNoteRepository(db *sqlx.DB) *WorkNoteRepository {
	return &WorkNoteRepository{db: db}
}

// OwnsItem проверяет, что пользователь исполнитель указанного проекта или заказа.
// Второе значение false, если элемент не существует.
func (r *WorkNoteRepository) OwnsItem(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) (owns bool, exists bool, err error) {
	table := "projects"
	if ref.Kind == valueobject.ItemKindService {
		table = "service_orders"
	}

	var freelancerID uuid.NullUUID
	err = r.db.GetContext(ctx, &freelancerID, `SELECT freelancer_id FROM `+table+` WHERE id = $1`, ref.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("work note repository: owns item %w", err)
	}
	return freelancerID.Valid && freelancerID.UUID == userID, true, nil
}

// Get возвращает заметку пользователя к элементу.
func (r *WorkNoteRepository) Get(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) (*models.WorkItemNote, error) {
	var note models.WorkItemNote
	err := r.db.GetContext(ctx, &note,
		`SELECT * FROM work_item_notes WHERE user_id = $1 AND `+ref.Column()+` = $2`, userID, ref.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("work note repository: get %w", err)
	}
	return &note, nil
}

// Upsert создаёт заметку или заменяет текст существующей. Одна заметка на пару пользователь и элемент.
func (r *WorkNoteRepository) Upsert(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef, text string) (*models.WorkItemNote, error) {
	column := ref.Column()
	var note models.WorkItemNote
	err := r.db.GetContext(ctx, &note, `
		INSERT INTO work_item_notes (user_id, `+column+`, note)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, `+column+`) DO UPDATE SET note = EXCLUDED.note, updated_at = NOW()
		RETURNING *
	`, userID, ref.ID, text)
	if err != nil {
		return nil, fmt.Errorf("work note repository: upsert %w", err)
	}
	return &note, nil
}

// Delete удаляет заметку. Повторное удаление не ошибка.
func (r *WorkNoteRepository) Delete(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM work_item_notes WHERE user_id = $1 AND `+ref.Column()+` = $2`, userID, ref.ID); err != nil {
		return fmt.Errorf("work note repository: delete %w", err)
	}
	return nil
}
