package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/domain/entity"
	"github.com/ignatzorin/koihire-backend/internal/domain/valueobject"
	"github.com/ignatzorin/koihire-backend/internal/goroutine"
	"github.com/ignatzorin/koihire-backend/internal/models"
	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
	"github.com/ignatzorin/koihire-backend/internal/repository"
	rules "github.com/ignatzorin/koihire-backend/internal/validation"
)

// WorkFilter какие элементы включать в ленту.
type WorkFilter string

const (
	WorkFilterAll      WorkFilter = "all"
	WorkFilterProjects WorkFilter = "projects"
	WorkFilterServices WorkFilter = "services"
)

// ParseWorkFilter пустое значение означает all.
func ParseWorkFilter(raw string) (WorkFilter, error) {
	switch f := WorkFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return WorkFilterAll, nil
	case WorkFilterAll, WorkFilterProjects, WorkFilterServices:
		return f, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "type должен быть all, projects или services")
}

// ActiveProjectReader активные проекты фрилансера с заметками.
type ActiveProjectReader interface {
	ListActiveForFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ActiveProjectRow, error)
}

// ActiveServiceOrderReader активные заказы услуг фрилансера с заметками.
type ActiveServiceOrderReader interface {
	ListActiveForFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.ActiveServiceOrderRow, error)
}

// WorkNoteRepository хранилище заметок.
type WorkNoteRepository interface {
	OwnsItem(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) (bool, bool, error)
	Get(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) (*models.WorkItemNote, error)
	Upsert(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef, text string) (*models.WorkItemNote, error)
	Delete(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) error
}

// WorkService лента активной работы фрилансера и личные заметки к ней.
type WorkService struct {
	projects ActiveProjectReader
	orders   ActiveServiceOrderReader
	notes    WorkNoteRepository
}

func NewWorkService(projects ActiveProjectReader, orders ActiveServiceOrderReader, notes WorkNoteRepository) *WorkService {
	return &WorkService{projects: projects, orders: orders, notes: notes}
}

// ListActiveWork собирает проекты и заказы в одну ленту. При фильтре all обе выборки идут параллельно.
func (s *WorkService) ListActiveWork(ctx context.Context, freelancerID uuid.UUID, filter WorkFilter) (*entity.ActiveWork, error) {
	var projectsCh <-chan goroutine.Result[[]models.ActiveProjectRow]
	var ordersCh <-chan goroutine.Result[[]models.ActiveServiceOrderRow]

	if filter != WorkFilterServices {
		projectsCh = goroutine.Async(ctx, func(ctx context.Context) ([]models.ActiveProjectRow, error) {
			return s.projects.ListActiveForFreelancer(ctx, freelancerID)
		})
	}
	if filter != WorkFilterProjects {
		ordersCh = goroutine.Async(ctx, func(ctx context.Context) ([]models.ActiveServiceOrderRow, error) {
			return s.orders.ListActiveForFreelancer(ctx, freelancerID)
		})
	}

	sources := make([]entity.WorkSource, 0)

	// Проекты добавляются первыми независимо от порядка завершения выборок.
	if projectsCh != nil {
		res := <-projectsCh
		if res.Err != nil {
			return nil, res.Err
		}
		for _, row := range res.Value {
			sources = append(sources, entity.ProjectWork{Row: row})
		}
	}
	if ordersCh != nil {
		res := <-ordersCh
		if res.Err != nil {
			return nil, res.Err
		}
		for _, row := range res.Value {
			sources = append(sources, entity.ServiceWork{Row: row})
		}
	}

	work := entity.MergeActiveWork(sources)
	return &work, nil
}

// GetNote возвращает заметку или nil, если её нет.
func (s *WorkService) GetNote(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) (*models.WorkItemNote, error) {
	if err := s.ensureOwner(ctx, userID, ref); err != nil {
		return nil, err
	}

	note, err := s.notes.Get(ctx, userID, ref)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// SetNote создаёт или обновляет заметку. Владение проверяется до записи.
func (s *WorkService) SetNote(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef, text string) (*models.WorkItemNote, error) {
	if err := s.ensureOwner(ctx, userID, ref); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if err := validation.Validate(text, rules.NoteText...); err != nil {
		return nil, apperror.Validation(err)
	}

	return s.notes.Upsert(ctx, userID, ref, text)
}

// DeleteNote удаляет заметку. Отсутствие заметки не ошибка.
func (s *WorkService) DeleteNote(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) error {
	if err := s.ensureOwner(ctx, userID, ref); err != nil {
		return err
	}
	return s.notes.Delete(ctx, userID, ref)
}

// ensureOwner не различает чужой и несуществующий элемент.
func (s *WorkService) ensureOwner(ctx context.Context, userID uuid.UUID, ref valueobject.WorkItemRef) error {
	owns, exists, err := s.notes.OwnsItem(ctx, userID, ref)
	if err != nil {
		return err
	}
	if !exists || !owns {
		return apperror.ErrWorkItemNotFound
	}
	return nil
}
