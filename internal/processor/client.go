package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignatzorin/koihire-backend/internal/pkg/apperror"
)

// Статусы платёжного намерения у процессора.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentProcessing            = "processing"
)

// Account подключённый аккаунт получателя выплат.
type Account struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

// AccountLink одноразовая ссылка на онбординг.
type AccountLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// PaymentIntent намерение оплаты. Amount в минимальных единицах валюты.
type PaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// Transfer перевод на подключённый аккаунт.
type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Destination string `json:"destination"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client минимальный клиент REST API платёжного процессора (form-encoded запросы, Bearer ключ).
type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, secretKey, currency string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Currency валюта платежей.
func (c *Client) Currency() string {
	return c.currency
}

// CreateAccount создаёт express аккаунт для выплат фрилансеру.
func (c *Client) CreateAccount(ctx context.Context, email string) (*Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)
	form.Set("capabilities[transfers][requested]", "true")

	var account Account
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", form, "", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccountLink создаёт ссылку на онбординг аккаунта.
func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.do(ctx, http.MethodPost, "/v1/account_links", form, "", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// GetAccount возвращает состояние аккаунта.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountID), nil, "", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreatePaymentIntent создаёт намерение оплаты. idempotencyKey защищает от дублей при повторах.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, metadata map[string]string, idempotencyKey string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", c.currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, idempotencyKey, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetPaymentIntent читает намерение оплаты.
func (c *Client) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, "", &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateTransfer переводит средства на подключённый аккаунт.
func (c *Client) CreateTransfer(ctx context.Context, amount int64, destination, transferGroup, idempotencyKey string) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", c.currency)
	form.Set("destination", destination)
	if transferGroup != "" {
		form.Set("transfer_group", transferGroup)
	}

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", form, idempotencyKey, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("processor: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Upstream(err, "платёжный сервис недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		cause := fmt.Errorf("processor: %s %s: код ответа %d: %s", method, path, resp.StatusCode, envelope.Error.Message)
		return apperror.Upstream(cause, "ошибка платёжного сервиса")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Upstream(fmt.Errorf("processor: decode %s: %w", path, err), "некорректный ответ платёжного сервиса")
	}
	return nil
}
