package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
	"github.com/ignatzorin/koihire-backend/internal/repository/common"
)

const serviceOrderColumns = `o.id, o.package_id, o.client_id, o.freelancer_id, o.title, o.description,
	o.package_price, o.delivery_date, o.status, o.created_at, o.updated_at`

// ServiceOrderRepository отвечает за пакеты услуг и заказы по ним.
type ServiceOrderRepository struct {
	db *sqlx.DB
}

func NewServiceOrderRepository(db *sqlx.DB) *ServiceOrderRepository {
	return &ServiceOrderRepository{db: db}
}

// CreatePackage сохраняет пакет услуг.
func (r *ServiceOrderRepository) CreatePackage(ctx context.Context, pkg *models.ServicePackage) error {
	query := `
		INSERT INTO service_packages (freelancer_id, title, description, price, delivery_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		pkg.FreelancerID, pkg.Title, pkg.Description, pkg.Price, pkg.DeliveryDays,
	).Scan(&pkg.ID, &pkg.IsActive, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
		return fmt.Errorf("service order repository: create package %w", err)
	}
	return nil
}

func (r *ServiceOrderRepository) GetPackage(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	return common.GetByID[models.ServicePackage](ctx, r.db, "service_packages", id, apperror.ErrPackageNotFound)
}

// ListPackagesByFreelancer активные пакеты фрилансера.
func (r *ServiceOrderRepository) ListPackagesByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ServicePackage, error) {
	packages := make([]models.ServicePackage, 0)
	err := r.db.SelectContext(ctx, &packages,
		`SELECT * FROM service_packages WHERE freelancer_id = $1 AND is_active ORDER BY created_at DESC`, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("service order repository: list packages %w", err)
	}
	return packages, nil
}

// CreateOrder оформляет заказ. Цена и срок фиксируются из пакета на момент покупки.
func (r *ServiceOrderRepository) CreateOrder(ctx context.Context, clientID, packageID uuid.UUID, description string) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := r.db.GetContext(ctx, &order, `
		INSERT INTO service_orders AS o (package_id, client_id, freelancer_id, title, description, package_price, delivery_date, status)
		SELECT sp.id, $2, sp.freelancer_id, sp.title, $3, sp.price, NOW() + make_interval(days => sp.delivery_days), 'PENDING'
		FROM service_packages sp
		WHERE sp.id = $1 AND sp.is_active
		RETURNING `+serviceOrderColumns, packageID, clientID, description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("service order repository: create order %w", err)
	}
	return &order, nil
}

func (r *ServiceOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	return common.GetByID[models.ServiceOrder](ctx, r.db, "service_orders", id, apperror.ErrServiceOrderNotFound)
}

// ListForUser заказы, где пользователь покупатель или исполнитель.
func (r *ServiceOrderRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ServiceOrder, error) {
	orders := make([]models.ServiceOrder, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+serviceOrderColumns+` FROM service_orders o
		WHERE o.client_id = $1 OR o.freelancer_id = $1
		ORDER BY o.updated_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service order repository: list for user %w", err)
	}
	return orders, nil
}

// UpdateStatus меняет статус, только если текущий совпадает с from.
func (r *ServiceOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ServiceOrderStatus) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	err := r.db.GetContext(ctx, &order, `
		UPDATE service_orders o SET status = $3, updated_at = NOW()
		WHERE o.id = $1 AND o.status = $2
		RETURNING `+serviceOrderColumns, id, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		var status valueobject.ServiceOrderStatus
		if err := r.db.GetContext(ctx, &status, `SELECT status FROM service_orders WHERE id = $1`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperror.ErrServiceOrderNotFound
			}
			return nil, fmt.Errorf("service order repository: read status %w", err)
		}
		return nil, apperror.InvalidTransition("заказ", string(status), string(to))
	}
	if err != nil {
		return nil, fmt.Errorf("service order repository: update status %w", err)
	}
	return &order, nil
}

// ListActiveForFreelancer активные заказы фрилансера с покупателем и заметкой.
func (r *ServiceOrderRepository) ListActiveForFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ActiveServiceOrderRow, error) {
	statuses := make([]string, 0, len(valueobject.ActiveServiceOrderStatuses))
	for _, s := range valueobject.ActiveServiceOrderStatuses {
		statuses = append(statuses, string(s))
	}

	rows := make([]models.ActiveServiceOrderRow, 0)
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+serviceOrderColumns+`,
			u.username AS client_username, u.display_name AS client_display_name,
			n.note
		FROM service_orders o
		JOIN users u ON u.id = o.client_id
		LEFT JOIN work_item_notes n ON n.service_order_id = o.id AND n.user_id = $1
		WHERE o.freelancer_id = $1 AND o.status = ANY($2)
		ORDER BY o.updated_at DESC
	`, freelancerID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("service order repository: list active %w", err)
	}
	return rows, nil
}
