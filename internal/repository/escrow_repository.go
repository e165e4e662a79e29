package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
	"github.com/ignatzorin/koihire-backend/internal/repository/common"
)

const escrowColumns = `id, project_id, client_id, freelancer_id, agreed_amount, buyer_fee, amount, status,
	payment_intent_id, dispute_reason, funded_at, released_at, refunded_at, created_at, updated_at`

const transactionColumns = `id, user_id, escrow_id, type, amount, status, description, external_ref, created_at, completed_at`

// EscrowRepository хранит эскроу и журнал транзакций.
// Каждая смена статуса эскроу это условный UPDATE по текущему статусу в одной транзакции с записями журнала.
type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// UpsertPending создаёт эскроу в статусе PENDING или обновляет суммы у ещё не оплаченного.
func (r *EscrowRepository) UpsertPending(ctx context.Context, escrow *models.Escrow) error {
	query := `
		INSERT INTO escrows (project_id, client_id, freelancer_id, agreed_amount, buyer_fee, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
		ON CONFLICT (project_id) DO UPDATE SET
			freelancer_id = EXCLUDED.freelancer_id,
			agreed_amount = EXCLUDED.agreed_amount,
			buyer_fee = EXCLUDED.buyer_fee,
			amount = EXCLUDED.amount,
			updated_at = NOW()
		WHERE escrows.status = 'PENDING'
		RETURNING ` + escrowColumns

	err := r.db.GetContext(ctx, escrow, query,
		escrow.ProjectID, escrow.ClientID, escrow.FreelancerID,
		escrow.AgreedAmount, escrow.BuyerFee, escrow.Amount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		status, statusErr := r.statusByProject(ctx, escrow.ProjectID)
		if statusErr != nil {
			return statusErr
		}
		return apperror.InvalidTransition("эскроу", string(status), string(valueobject.EscrowStatusPending))
	}
	if err != nil {
		return fmt.Errorf("escrow repository: upsert pending %w", err)
	}
	return nil
}

// AttachPaymentIntent сохраняет идентификатор платежа у эскроу в статусе PENDING.
func (r *EscrowRepository) AttachPaymentIntent(ctx context.Context, escrowID uuid.UUID, intentID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE escrows SET payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, escrowID, intentID)
	if err != nil {
		return fmt.Errorf("escrow repository: attach payment intent %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.transitionError(ctx, r.db, escrowID, valueobject.EscrowStatusPending)
	}
	return nil
}

// Fund переводит эскроу PENDING -> FUNDED и записывает DEPOSIT клиента на полную сумму списания.
func (r *EscrowRepository) Fund(ctx context.Context, escrowID uuid.UUID, intentID string) (*models.Escrow, error) {
	var escrow models.Escrow
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &escrow, `
			UPDATE escrows SET status = 'FUNDED', payment_intent_id = $2, funded_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING `+escrowColumns, escrowID, intentID)
		if errors.Is(err, sql.ErrNoRows) {
			return r.transitionError(ctx, tx, escrowID, valueobject.EscrowStatusFunded)
		}
		if err != nil {
			return fmt.Errorf("escrow repository: fund %w", err)
		}

		return insertTransaction(ctx, tx, escrow.ClientID, escrow.ID, valueobject.TransactionTypeDeposit,
			escrow.Amount, "Оплата проекта в эскроу", &intentID)
	})
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// Release переводит FUNDED -> RELEASED, записывает выплату фрилансеру, комиссию платформы и завершает проект.
// Повторный вызов не находит строку в статусе FUNDED и ничего не пишет.
func (r *EscrowRepository) Release(ctx context.Context, escrowID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &escrow, `
			UPDATE escrows SET status = 'RELEASED', released_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'FUNDED'
			RETURNING `+escrowColumns, escrowID)
		if errors.Is(err, sql.ErrNoRows) {
			return r.transitionError(ctx, tx, escrowID, valueobject.EscrowStatusReleased)
		}
		if err != nil {
			return fmt.Errorf("escrow repository: release %w", err)
		}

		if err := insertTransaction(ctx, tx, escrow.FreelancerID, escrow.ID, valueobject.TransactionTypeWithdrawal,
			escrow.AgreedAmount, "Выплата за проект", nil); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, escrow.ClientID, escrow.ID, valueobject.TransactionTypeFee,
			escrow.BuyerFee, "Сервисный сбор платформы", nil); err != nil {
			return err
		}
		return setProjectStatus(ctx, tx, escrow.ProjectID, valueobject.ProjectStatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// Refund переводит FUNDED или DISPUTED -> REFUNDED, возвращает клиенту полную сумму и отменяет проект.
func (r *EscrowRepository) Refund(ctx context.Context, escrowID uuid.UUID, reason string) (*models.Escrow, error) {
	var escrow models.Escrow
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &escrow, `
			UPDATE escrows SET status = 'REFUNDED', refunded_at = NOW(), updated_at = NOW(),
				dispute_reason = COALESCE(NULLIF($2, ''), dispute_reason)
			WHERE id = $1 AND status IN ('FUNDED', 'DISPUTED')
			RETURNING `+escrowColumns, escrowID, reason)
		if errors.Is(err, sql.ErrNoRows) {
			return r.transitionError(ctx, tx, escrowID, valueobject.EscrowStatusRefunded)
		}
		if err != nil {
			return fmt.Errorf("escrow repository: refund %w", err)
		}

		if err := insertTransaction(ctx, tx, escrow.ClientID, escrow.ID, valueobject.TransactionTypeRefund,
			escrow.Amount, "Возврат средств по проекту", nil); err != nil {
			return err
		}
		return setProjectStatus(ctx, tx, escrow.ProjectID, valueobject.ProjectStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// OpenDispute переводит FUNDED -> DISPUTED вместе с проектом.
func (r *EscrowRepository) OpenDispute(ctx context.Context, escrowID uuid.UUID, reason string) (*models.Escrow, error) {
	var escrow models.Escrow
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &escrow, `
			UPDATE escrows SET status = 'DISPUTED', dispute_reason = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'FUNDED'
			RETURNING `+escrowColumns, escrowID, reason)
		if errors.Is(err, sql.ErrNoRows) {
			return r.transitionError(ctx, tx, escrowID, valueobject.EscrowStatusDisputed)
		}
		if err != nil {
			return fmt.Errorf("escrow repository: open dispute %w", err)
		}
		return setProjectStatus(ctx, tx, escrow.ProjectID, valueobject.ProjectStatusDisputed)
	})
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

// GetByID возвращает эскроу по идентификатору.
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	return common.GetByID[models.Escrow](ctx, r.db, "escrows", id, apperror.ErrEscrowNotFound)
}

// GetByProjectID возвращает эскроу проекта.
func (r *EscrowRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT `+escrowColumns+` FROM escrows WHERE project_id = $1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("escrow repository: get by project %w", err)
	}
	return &escrow, nil
}

// ListTransactions возвращает историю транзакций пользователя.
func (r *EscrowRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	transactions := make([]models.Transaction, 0)
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("escrow repository: list transactions %w", err)
	}
	return transactions, nil
}

// LifetimeEarnings сумма завершённых выплат фрилансеру.
func (r *EscrowRepository) LifetimeEarnings(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = 'WITHDRAWAL' AND status = 'COMPLETED'
	`, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("escrow repository: lifetime earnings %w", err)
	}
	return total, nil
}

func (r *EscrowRepository) statusByProject(ctx context.Context, projectID uuid.UUID) (valueobject.EscrowStatus, error) {
	var status valueobject.EscrowStatus
	if err := r.db.GetContext(ctx, &status, `SELECT status FROM escrows WHERE project_id = $1`, projectID); err != nil {
		return "", fmt.Errorf("escrow repository: status by project %w", err)
	}
	return status, nil
}

// transitionError различает отсутствие эскроу и неподходящий текущий статус.
func (r *EscrowRepository) transitionError(ctx context.Context, q sqlx.QueryerContext, escrowID uuid.UUID, target valueobject.EscrowStatus) error {
	var status valueobject.EscrowStatus
	err := sqlx.GetContext(ctx, q, &status, `SELECT status FROM escrows WHERE id = $1`, escrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrEscrowNotFound
	}
	if err != nil {
		return fmt.Errorf("escrow repository: read status %w", err)
	}
	return apperror.InvalidTransition("эскроу", string(status), string(target))
}

func insertTransaction(
	ctx context.Context,
	tx *sqlx.Tx,
	userID, escrowID uuid.UUID,
	txType valueobject.TransactionType,
	amount decimal.Decimal,
	description string,
	externalRef *string,
) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, escrow_id, type, amount, status, description, external_ref, completed_at)
		VALUES ($1, $2, $3, $4, 'COMPLETED', $5, $6, NOW())
	`, userID, escrowID, txType, amount, description, externalRef)
	if err != nil {
		return fmt.Errorf("escrow repository: insert %s transaction %w", txType, err)
	}
	return nil
}

func setProjectStatus(ctx context.Context, tx *sqlx.Tx, projectID uuid.UUID, status valueobject.ProjectStatus) error {
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, projectID, status); err != nil {
		return fmt.Errorf("escrow repository: set project status %w", err)
	}
	return nil
}
