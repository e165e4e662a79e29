package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ignatzorin/koihire-backend/internal/logger"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				rh.logger.Errorf("Panic in goroutine: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// DefaultRecoveryHandler пишет паники в общий logrus логгер.
var DefaultRecoveryHandler = NewRecoveryHandler(logger.Log)

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// Result результат асинхронного вызова.
type Result[T any] struct {
	Value T
	Err   error
}

// Async выполняет fn в отдельной горутине и отдаёт результат в буферизованный канал.
// Паника превращается в ошибку, так что читатель канала никогда не зависает.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("Panic in async call: %v\nStack trace:\n%s", r, debug.Stack())
				out <- Result[T]{Err: fmt.Errorf("goroutine: panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}
