package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrCodeConflict               ErrorCode = "CONFLICT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidItemType        ErrorCode = "INVALID_ITEM_TYPE"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeUpstreamFailure        ErrorCode = "UPSTREAM_FAILURE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с сентинелами после Wrap.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation оборачивает ошибку валидации входных данных, сохраняя её текст для клиента.
func Validation(err error) *AppError {
	return Wrap(err, ErrCodeValidation, err.Error())
}

// Upstream оборачивает ошибку внешнего сервиса.
func Upstream(err error, message string) *AppError {
	return Wrap(err, ErrCodeUpstreamFailure, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidItemType:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidStateTransition:
		return http.StatusConflict
	case ErrCodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsInvalidStateTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidStateTransition
}

var (
	ErrProjectNotFound      = New(ErrCodeNotFound, "проект не найден")
	ErrServiceOrderNotFound = New(ErrCodeNotFound, "заказ услуги не найден")
	ErrPackageNotFound      = New(ErrCodeNotFound, "пакет услуги не найден")
	ErrEscrowNotFound       = New(ErrCodeNotFound, "эскроу не найден")
	ErrWorkItemNotFound     = New(ErrCodeNotFound, "рабочий элемент не найден")
	ErrNotificationNotFound = New(ErrCodeNotFound, "уведомление не найдено")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrInvalidItemType      = New(ErrCodeInvalidItemType, "тип элемента должен быть project или service")
	ErrEmailTaken           = New(ErrCodeConflict, "email уже зарегистрирован")
)

// InvalidTransition описывает запрещённый переход статуса.
func InvalidTransition(entity string, from, to string) *AppError {
	return New(ErrCodeInvalidStateTransition, fmt.Sprintf("невозможно перевести %s из статуса %s в %s", entity, from, to))
}
