package valueobject

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// ItemKind вид рабочего элемента фрилансера.
type ItemKind int

const (
	ItemKindProject ItemKind = iota + 1
	ItemKindService
)

// ParseItemKind принимает ровно "project" или "service".
func ParseItemKind(raw string) (ItemKind, error) {
	switch raw {
	case "project":
		return ItemKindProject, nil
	case "service":
		return ItemKindService, nil
	}
	return 0, apperror.ErrInvalidItemType
}

func (k ItemKind) String() string {
	switch k {
	case ItemKindProject:
		return "project"
	case ItemKindService:
		return "service"
	}
	return "unknown"
}

// FeedType значение поля type в ленте активной работы.
func (k ItemKind) FeedType() string {
	switch k {
	case ItemKindProject:
		return "PROJECT"
	case ItemKindService:
		return "SERVICE"
	}
	return ""
}

// WorkItemRef ссылка на проект или заказ услуги.
type WorkItemRef struct {
	Kind ItemKind
	ID   uuid.UUID
}

func NewWorkItemRef(itemType string, id uuid.UUID) (WorkItemRef, error) {
	kind, err := ParseItemKind(itemType)
	if err != nil {
		return WorkItemRef{}, err
	}
	return WorkItemRef{Kind: kind, ID: id}, nil
}

// Column колонка work_item_notes, в которой хранится ссылка.
func (r WorkItemRef) Column() string {
	if r.Kind == ItemKindService {
		return "service_order_id"
	}
	return "project_id"
}

func (r WorkItemRef) DetailsURL() string {
	if r.Kind == ItemKindService {
		return ServiceOrderRoute(r.ID.String())
	}
	return ProjectRoute(r.ID.String())
}

func (r WorkItemRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

func ProjectRoute(projectID string) string {
	return "/projects/" + projectID
}

func ProjectApplicationsRoute(projectID string) string {
	return "/projects/" + projectID + "/applications"
}

func ServiceOrderRoute(orderID string) string {
	return "/services/orders/" + orderID
}
