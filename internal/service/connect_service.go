package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/koihire-backend/internal/cache"
	"github.com/ignatzorin/koihire-backend/internal/logger"
	"github.com/ignatzorin/koihire-backend/internal/processor"
)

// ConnectProcessor операции процессора с подключёнными аккаунтами.
type ConnectProcessor interface {
	CreateAccount(ctx context.Context, email string) (*processor.Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*processor.AccountLink, error)
	GetAccount(ctx context.Context, accountID string) (*processor.Account, error)
}

// ConnectStatus состояние платёжного аккаунта пользователя.
type ConnectStatus struct {
	Connected        bool   `json:"connected"`
	AccountID        string `json:"accountId,omitempty"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
}

// Onboarding результат создания аккаунта.
type Onboarding struct {
	AccountID     string `json:"accountId"`
	OnboardingURL string `json:"onboardingUrl"`
}

// ConnectService подключает фрилансеров к процессору для получения выплат.
type ConnectService struct {
	users      UserRepository
	processor  ConnectProcessor
	cache      cache.Cache
	ttl        time.Duration
	refreshURL string
	returnURL  string
}

// NewConnectService создаёт сервис подключения аккаунтов.
func NewConnectService(users UserRepository, processor ConnectProcessor, c cache.Cache, ttl time.Duration, refreshURL, returnURL string) *ConnectService {
	return &ConnectService{
		users:      users,
		processor:  processor,
		cache:      c,
		ttl:        ttl,
		refreshURL: refreshURL,
		returnURL:  returnURL,
	}
}

// CreateAccount переиспользует сохранённый аккаунт или создаёт новый и возвращает ссылку на онбординг.
func (s *ConnectService) CreateAccount(ctx context.Context, userID uuid.UUID) (*Onboarding, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var accountID string
	if user.ConnectAccountID != nil && *user.ConnectAccountID != "" {
		accountID = *user.ConnectAccountID
	} else {
		account, err := s.processor.CreateAccount(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetConnectAccountID(ctx, userID, account.ID); err != nil {
			return nil, err
		}
		accountID = account.ID
		logger.Log.WithFields(map[string]interface{}{
			"user_id":    userID,
			"account_id": accountID,
		}).Info("connect service: создан платёжный аккаунт")
	}

	s.invalidate(ctx, userID)

	link, err := s.processor.CreateAccountLink(ctx, accountID, s.refreshURL, s.returnURL)
	if err != nil {
		return nil, err
	}
	return &Onboarding{AccountID: accountID, OnboardingURL: link.URL}, nil
}

// Status возвращает состояние аккаунта, кешируя ответ процессора.
func (s *ConnectService) Status(ctx context.Context, userID uuid.UUID) (*ConnectStatus, error) {
	key := cache.ConnectStatusKey(userID.String())

	var cached ConnectStatus
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Log.WithError(err).Warn("connect service: кеш недоступен")
	} else if found {
		return &cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &ConnectStatus{}
	if user.ConnectAccountID != nil && *user.ConnectAccountID != "" {
		account, err := s.processor.GetAccount(ctx, *user.ConnectAccountID)
		if err != nil {
			return nil, err
		}
		status = &ConnectStatus{
			Connected:        true,
			AccountID:        account.ID,
			DetailsSubmitted: account.DetailsSubmitted,
			ChargesEnabled:   account.ChargesEnabled,
			PayoutsEnabled:   account.PayoutsEnabled,
		}
	}

	if err := s.cache.Set(ctx, key, status, s.ttl); err != nil {
		logger.Log.WithError(err).Warn("connect service: не удалось сохранить статус в кеш")
	}
	return status, nil
}

func (s *ConnectService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.ConnectStatusKey(userID.String())); err != nil {
		logger.Log.WithError(err).Warn("connect service: не удалось сбросить кеш статуса")
	}
}
