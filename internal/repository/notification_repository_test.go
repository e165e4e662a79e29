package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

func notificationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "type", "title", "message", "project_id", "application_id", "data", "is_read", "created_at",
	})
}

func TestNotificationRepository_Create_EmptyDataStoredAsObject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID, projectID := uuid.New(), uuid.New()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(userID, "ESCROW_FUNDED", "Проект оплачен", "", &projectID, nil, []byte("{}")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(uuid.New().String(), false, time.Now()))

	n := &models.Notification{UserID: userID, Type: "ESCROW_FUNDED", Title: "Проект оплачен", ProjectID: &projectID}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.JSONEq(t, `{}`, string(n.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_List_NullData(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, type, title, message, project_id, application_id, data, is_read, created_at FROM notifications WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID, 20, 0).
		WillReturnRows(notificationRows().
			AddRow(uuid.New().String(), userID.String(), "ESCROW_RELEASED", "Оплата получена", "", uuid.New().String(), nil, nil, false, now).
			AddRow(uuid.New().String(), userID.String(), "SERVICE_ORDER_DELIVERED", "Заказ сдан", "", nil, nil, []byte(`{"orderId":"o-1"}`), true, now))

	items, err := repo.List(context.Background(), userID, 20, 0, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	raw, err := json.Marshal(items[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":{}`)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(items[1].Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_List_UnreadOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`WHERE user_id = \$1 AND is_read = FALSE ORDER BY`).
		WithArgs(userID, 10, 5).
		WillReturnRows(notificationRows())

	items, err := repo.List(context.Background(), userID, 10, 5, true)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID, id := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkAsRead(context.Background(), userID, id))

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs(id, uuid.Nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkAsRead(context.Background(), uuid.Nil, id)
	assert.ErrorIs(t, err, apperror.ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE user_id = \$1 AND is_read = FALSE`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkAllAsRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CountUnread(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE user_id = \$1 AND is_read = FALSE`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Delete_FiltersByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	ownerID, strangerID, id := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM notifications WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, strangerID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM notifications WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, repo.Delete(context.Background(), strangerID, id), apperror.ErrNotificationNotFound)
	assert.NoError(t, repo.Delete(context.Background(), ownerID, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
