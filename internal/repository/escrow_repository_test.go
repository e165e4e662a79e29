package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

type escrowFixture struct {
	id, projectID, clientID, freelancerID uuid.UUID
}

func newEscrowFixture() escrowFixture {
	return escrowFixture{id: uuid.New(), projectID: uuid.New(), clientID: uuid.New(), freelancerID: uuid.New()}
}

func (f escrowFixture) rows(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "project_id", "client_id", "freelancer_id", "agreed_amount", "buyer_fee", "amount", "status",
		"payment_intent_id", "dispute_reason", "funded_at", "released_at", "refunded_at", "created_at", "updated_at",
	}).AddRow(
		f.id.String(), f.projectID.String(), f.clientID.String(), f.freelancerID.String(), "1500.00", "37.50", "1537.50", status,
		"pi_123", nil, now, now, nil, now, now,
	)
}

func newPendingEscrow(f escrowFixture, b valueobject.ChargeBreakdown) *models.Escrow {
	return &models.Escrow{
		ProjectID:    f.projectID,
		ClientID:     f.clientID,
		FreelancerID: f.freelancerID,
		AgreedAmount: b.AgreedAmount,
		BuyerFee:     b.BuyerFee,
		Amount:       b.TotalCharged,
	}
}

func TestEscrowRepository_Release_WritesLedgerAndCompletesProject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'RELEASED'`).
		WithArgs(f.id).
		WillReturnRows(f.rows("RELEASED"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(f.freelancerID, f.id, valueobject.TransactionTypeWithdrawal, decimal.RequireFromString("1500.00"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(f.clientID, f.id, valueobject.TransactionTypeFee, decimal.RequireFromString("37.50"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE projects SET status`).
		WithArgs(f.projectID, valueobject.ProjectStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	escrow, err := repo.Release(context.Background(), f.id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, escrow.Status)
	assert.True(t, escrow.AgreedAmount.Equal(decimal.NewFromInt(1500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Release_SecondCallWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'RELEASED'`).
		WithArgs(f.id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT status FROM escrows WHERE id`).
		WithArgs(f.id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("RELEASED"))
	mock.ExpectRollback()

	_, err := repo.Release(context.Background(), f.id)
	assert.True(t, apperror.IsInvalidStateTransition(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Release_UnknownEscrow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'RELEASED'`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT status FROM escrows WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := repo.Release(context.Background(), id)
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Fund_AlreadyFunded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'FUNDED'`).
		WithArgs(f.id, "pi_123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT status FROM escrows WHERE id`).
		WithArgs(f.id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("FUNDED"))
	mock.ExpectRollback()

	_, err := repo.Fund(context.Background(), f.id, "pi_123")
	assert.True(t, apperror.IsInvalidStateTransition(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Fund_RecordsDeposit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'FUNDED'`).
		WithArgs(f.id, "pi_123").
		WillReturnRows(f.rows("FUNDED"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(f.clientID, f.id, valueobject.TransactionTypeDeposit, decimal.RequireFromString("1537.50"), sqlmock.AnyArg(), "pi_123").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	escrow, err := repo.Fund(context.Background(), f.id, "pi_123")
	require.NoError(t, err)
	assert.True(t, escrow.Amount.Equal(decimal.RequireFromString("1537.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Refund_FromDisputed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE escrows SET status = 'REFUNDED'`).
		WithArgs(f.id, "работа не выполнена").
		WillReturnRows(f.rows("REFUNDED"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(f.clientID, f.id, valueobject.TransactionTypeRefund, decimal.RequireFromString("1537.50"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE projects SET status`).
		WithArgs(f.projectID, valueobject.ProjectStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	escrow, err := repo.Refund(context.Background(), f.id, "работа не выполнена")
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, escrow.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_UpsertPending_RejectsFundedEscrow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	f := newEscrowFixture()
	b := valueobject.ComputeChargeBreakdown(decimal.NewFromInt(1500))

	mock.ExpectQuery(`INSERT INTO escrows`).
		WithArgs(f.projectID, f.clientID, f.freelancerID, b.AgreedAmount, b.BuyerFee, b.TotalCharged).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT status FROM escrows WHERE project_id`).
		WithArgs(f.projectID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("FUNDED"))

	escrow := newPendingEscrow(f, b)
	err := repo.UpsertPending(context.Background(), escrow)
	assert.True(t, apperror.IsInvalidStateTransition(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_LifetimeEarnings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEscrowRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("3000.00"))

	total, err := repo.LifetimeEarnings(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
