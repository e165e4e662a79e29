package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/models"
)

// WorkSource общий интерфейс для проекта и заказа услуги в ленте активной работы.
type WorkSource interface {
	Ref() valueobject.WorkItemRef
	ToWorkItem() ActiveWorkItem
}

// WorkClient клиент, на которого работает фрилансер.
type WorkClient struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
}

// ActiveWorkItem элемент объединённой ленты.
type ActiveWorkItem struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Client      WorkClient      `json:"client"`
	Deadline    *time.Time      `json:"deadline"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Note        *string         `json:"note"`
	DetailsURL  string          `json:"detailsUrl"`
}

// WorkCounts агрегированные счётчики ленты.
type WorkCounts struct {
	Projects int `json:"projects"`
	Services int `json:"services"`
	Total    int `json:"total"`
}

// ActiveWork результат агрегации.
type ActiveWork struct {
	Items  []ActiveWorkItem `json:"items"`
	Counts WorkCounts       `json:"counts"`
}

// ProjectWork адаптер строки проекта к WorkSource.
type ProjectWork struct {
	Row models.ActiveProjectRow
}

func (p ProjectWork) Ref() valueobject.WorkItemRef {
	return valueobject.WorkItemRef{Kind: valueobject.ItemKindProject, ID: p.Row.ID}
}

// ToWorkItem: сумма равна согласованной, а если её нет, максимальному бюджету. Дедлайна у проектов нет.
func (p ProjectWork) ToWorkItem() ActiveWorkItem {
	amount := p.Row.MaxBudget
	if p.Row.AgreedAmount.Valid {
		amount = p.Row.AgreedAmount.Decimal
	}
	ref := p.Ref()
	return ActiveWorkItem{
		ID:          p.Row.ID,
		Type:        ref.Kind.FeedType(),
		Title:       p.Row.Title,
		Description: p.Row.Description,
		Status:      string(p.Row.Status),
		Amount:      amount,
		Client: WorkClient{
			ID:          p.Row.ClientID,
			Username:    p.Row.ClientUsername,
			DisplayName: p.Row.ClientDisplayName,
		},
		UpdatedAt:  p.Row.UpdatedAt,
		Note:       p.Row.Note,
		DetailsURL: ref.DetailsURL(),
	}
}

// ServiceWork адаптер строки заказа услуги к WorkSource.
type ServiceWork struct {
	Row models.ActiveServiceOrderRow
}

func (s ServiceWork) Ref() valueobject.WorkItemRef {
	return valueobject.WorkItemRef{Kind: valueobject.ItemKindService, ID: s.Row.ID}
}

func (s ServiceWork) ToWorkItem() ActiveWorkItem {
	ref := s.Ref()
	deadline := s.Row.DeliveryDate
	return ActiveWorkItem{
		ID:          s.Row.ID,
		Type:        ref.Kind.FeedType(),
		Title:       s.Row.Title,
		Description: s.Row.Description,
		Status:      string(s.Row.Status),
		Amount:      s.Row.PackagePrice,
		Client: WorkClient{
			ID:          s.Row.ClientID,
			Username:    s.Row.ClientUsername,
			DisplayName: s.Row.ClientDisplayName,
		},
		Deadline:   &deadline,
		UpdatedAt:  s.Row.UpdatedAt,
		Note:       s.Row.Note,
		DetailsURL: ref.DetailsURL(),
	}
}

// MergeActiveWork стабильно сортирует элементы по updatedAt по убыванию.
// Вызывающий передаёт проекты перед заказами, поэтому при равных метках проект идёт первым.
func MergeActiveWork(sources []WorkSource) ActiveWork {
	items := make([]ActiveWorkItem, 0, len(sources))
	var counts WorkCounts
	for _, src := range sources {
		switch src.Ref().Kind {
		case valueobject.ItemKindProject:
			counts.Projects++
		case valueobject.ItemKindService:
			counts.Services++
		}
		items = append(items, src.ToWorkItem())
	}
	counts.Total = len(items)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})

	return ActiveWork{Items: items, Counts: counts}
}
