package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
)

func noteRows(id, userID uuid.UUID, projectID, orderID interface{}, text string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "project_id", "service_order_id", "note", "created_at", "updated_at"}).
		AddRow(id.String(), userID.String(), projectID, orderID, text, now, now)
}

func TestWorkNoteRepository_Upsert_ProjectUsesProjectConflictTarget(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkNoteRepository(db)
	userID, projectID := uuid.New(), uuid.New()
	ref := valueobject.WorkItemRef{Kind: valueobject.ItemKindProject, ID: projectID}

	mock.ExpectQuery(`INSERT INTO work_item_notes \(user_id, project_id, note\).*ON CONFLICT \(user_id, project_id\) DO UPDATE`).
		WithArgs(userID, projectID, "позвонить в пятницу").
		WillReturnRows(noteRows(uuid.New(), userID, projectID.String(), nil, "позвонить в пятницу"))

	note, err := repo.Upsert(context.Background(), userID, ref, "позвонить в пятницу")
	require.NoError(t, err)
	assert.Equal(t, "позвонить в пятницу", note.Note)
	require.NotNil(t, note.ProjectID)
	assert.Equal(t, projectID, *note.ProjectID)
	assert.Nil(t, note.ServiceOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkNoteRepository_Upsert_ServiceUsesOrderConflictTarget(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkNoteRepository(db)
	userID, orderID := uuid.New(), uuid.New()
	ref := valueobject.WorkItemRef{Kind: valueobject.ItemKindService, ID: orderID}

	mock.ExpectQuery(`ON CONFLICT \(user_id, service_order_id\) DO UPDATE`).
		WithArgs(userID, orderID, "v2").
		WillReturnRows(noteRows(uuid.New(), userID, nil, orderID.String(), "v2"))

	note, err := repo.Upsert(context.Background(), userID, ref, "v2")
	require.NoError(t, err)
	require.NotNil(t, note.ServiceOrderID)
	assert.Equal(t, orderID, *note.ServiceOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkNoteRepository_OwnsItem(t *testing.T) {
	userID, otherID, projectID := uuid.New(), uuid.New(), uuid.New()
	ref := valueobject.WorkItemRef{Kind: valueobject.ItemKindProject, ID: projectID}

	tests := []struct {
		name       string
		rows       *sqlmock.Rows
		wantOwns   bool
		wantExists bool
	}{
		{"владелец", sqlmock.NewRows([]string{"freelancer_id"}).AddRow(userID.String()), true, true},
		{"чужой проект", sqlmock.NewRows([]string{"freelancer_id"}).AddRow(otherID.String()), false, true},
		{"исполнитель не назначен", sqlmock.NewRows([]string{"freelancer_id"}).AddRow(nil), false, true},
		{"нет проекта", sqlmock.NewRows([]string{"freelancer_id"}), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewWorkNoteRepository(db)
			mock.ExpectQuery(`SELECT freelancer_id FROM projects WHERE id`).
				WithArgs(projectID).
				WillReturnRows(tt.rows)

			owns, exists, err := repo.OwnsItem(context.Background(), userID, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwns, owns)
			assert.Equal(t, tt.wantExists, exists)
		})
	}
}

func TestWorkNoteRepository_Get_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkNoteRepository(db)
	userID, orderID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM work_item_notes WHERE user_id = \$1 AND service_order_id = \$2`).
		WithArgs(userID, orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), userID, valueobject.WorkItemRef{Kind: valueobject.ItemKindService, ID: orderID})
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
