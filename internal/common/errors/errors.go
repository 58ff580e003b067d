package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeInvalidID  ErrorCode = "INVALID_ID"

	// Ошибки гивов
	ErrCodeGiveawayNotFound   ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeGiveawayWrongGuild ErrorCode = "GIVEAWAY_WRONG_GUILD"
	ErrCodeGiveawayNotActive  ErrorCode = "GIVEAWAY_NOT_ACTIVE"
	ErrCodeGiveawayActive     ErrorCode = "GIVEAWAY_STILL_ACTIVE"
	ErrCodeGiveawayExpired    ErrorCode = "GIVEAWAY_EXPIRED"
	ErrCodeAlreadyJoined      ErrorCode = "ALREADY_JOINED"
	ErrCodeWinnersUnchanged   ErrorCode = "WINNER_COUNT_UNCHANGED"

	// Ошибки исключений
	ErrCodeAlreadyExcluded ErrorCode = "ALREADY_EXCLUDED"

	// Инфраструктура
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeDiscordAPI    ErrorCode = "DISCORD_API_ERROR"
)

// AppError представляет типизированную ошибку приложения
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

// Error возвращает строковое представление ошибки
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap возвращает причину ошибки
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so callers can use errors.Is with a sentinel built by New.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsNotFound проверяет, является ли ошибка ошибкой "не найдено"
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeGiveawayNotFound ||
		e.Code == ErrCodeGiveawayWrongGuild
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeInvalidID
}

// IsConflict reports state conflicts: the record exists but is in the wrong lifecycle state.
func (e *AppError) IsConflict() bool {
	switch e.Code {
	case ErrCodeConflict, ErrCodeGiveawayNotActive, ErrCodeGiveawayActive,
		ErrCodeGiveawayExpired, ErrCodeAlreadyJoined, ErrCodeWinnersUnchanged,
		ErrCodeAlreadyExcluded:
		return true
	}
	return false
}

// IsInternal проверяет, является ли ошибка внутренней ошибкой
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeDiscordAPI
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail добавляет детальную информацию к ошибке
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID добавляет ID запроса к ошибке
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New создает новую ошибку приложения
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf оборачивает существующую ошибку с форматированием
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// NewValidationError создает ошибку валидации
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewInvalidIDError reports an identifier that could not be parsed.
func NewInvalidIDError(raw string) *AppError {
	return New(ErrCodeInvalidID, fmt.Sprintf("Invalid ID: %s", raw)).
		WithDetail("id", raw)
}

// NewGiveawayNotFoundError создает ошибку "гив не найден"
func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewWrongGuildError is returned when a giveaway exists but belongs to another guild.
// It reads as "not found" to the caller.
func NewWrongGuildError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayWrongGuild, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewStateError создает ошибку состояния гива
func NewStateError(code ErrorCode, giveawayID, message string) *AppError {
	return New(code, message).WithDetail("giveaway_id", giveawayID)
}

// NewDatabaseError создает ошибку базы данных
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewCacheError создает ошибку кэша
func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewDiscordAPIError wraps a failed Discord REST call.
func NewDiscordAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDiscordAPI, fmt.Sprintf("Discord API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// IsAppError проверяет, является ли ошибка AppError
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError приводит ошибку к AppError
func AsAppError(err error) (*AppError, bool) {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
