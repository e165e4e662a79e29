package notification

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
)

var categories = map[Type]Category{
	TypeNewApplication:      CategoryApplication,
	TypeApplicationAccepted: CategoryApplication,
	TypeApplicationRejected: CategoryApplication,

	TypeProjectHired:         CategoryProject,
	TypeProjectStatusChanged: CategoryProject,
	TypeProjectSubmitted:     CategoryProject,
	TypeProjectCompleted:     CategoryProject,
	TypeProjectCancelled:     CategoryProject,

	TypeServiceOrderCreated:           CategoryProject,
	TypeServiceOrderAccepted:          CategoryProject,
	TypeServiceOrderStarted:           CategoryProject,
	TypeServiceOrderDelivered:         CategoryProject,
	TypeServiceOrderRevisionRequested: CategoryProject,
	TypeServiceOrderCompleted:         CategoryProject,
	TypeServiceOrderCancelled:         CategoryProject,

	TypeEscrowFunded:   CategoryPayment,
	TypeEscrowReleased: CategoryPayment,
	TypeEscrowRefunded: CategoryPayment,
	TypeEscrowDisputed: CategoryPayment,
	TypePayoutFailed:   CategoryPayment,
}

// Уведомления, по которым некуда переходить.
var noRoute = map[Type]struct{}{
	TypeApplicationRejected:   {},
	TypeServiceOrderCancelled: {},
	TypeProjectCancelled:      {},
}

// CategoryOf возвращает категорию, неизвестные типы попадают в system.
func CategoryOf(t string) Category {
	if c, ok := categories[Type(t)]; ok {
		return c
	}
	return CategorySystem
}

// Payload данные уведомления, от которых зависит переход.
type Payload struct {
	ProjectID *uuid.UUID
	Data      json.RawMessage
}

// RouteOf вычисляет ссылку для перехода по уведомлению. Пустая строка означает отсутствие ссылки.
// Правила проверяются по порядку, результат нигде не сохраняется.
func RouteOf(t string, p Payload) string {
	typ := Type(t)

	if _, ok := noRoute[typ]; ok {
		return ""
	}

	if strings.HasPrefix(t, "SERVICE_ORDER_") {
		if orderID := p.orderID(); orderID != "" {
			return valueobject.ServiceOrderRoute(orderID)
		}
	}

	projectID := p.projectID()
	if typ == TypeNewApplication && projectID != "" {
		return valueobject.ProjectApplicationsRoute(projectID)
	}
	if projectID != "" {
		return valueobject.ProjectRoute(projectID)
	}

	return ""
}

type payloadData struct {
	OrderID   string `json:"orderId"`
	ProjectID string `json:"projectId"`
}

func (p Payload) data() payloadData {
	var d payloadData
	if len(p.Data) > 0 {
		_ = json.Unmarshal(p.Data, &d)
	}
	return d
}

func (p Payload) orderID() string {
	return strings.TrimSpace(p.data().OrderID)
}

// projectID берётся из колонки, а при её отсутствии из data.
func (p Payload) projectID() string {
	if p.ProjectID != nil && *p.ProjectID != uuid.Nil {
		return p.ProjectID.String()
	}
	return strings.TrimSpace(p.data().ProjectID)
}
