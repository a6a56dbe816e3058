package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFlatNotFound    = errors.New("flat not found")
	ErrUnknownDealType = errors.New("deal type has no platform code")
	ErrUnknownSource   = errors.New("source has no mapping")

	ErrNoMatchingTargets = errors.New("no configured crawler matches the requested sources and deal types")
)

// ValidationError - запись с площадки непригодна для обработки
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError - сокращение для билдеров площадок
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
