package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrNotFound          = errors.New("not found")
	ErrNotApproved       = errors.New("identity is not approved yet")
	ErrBadCredential     = errors.New("bad credential")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation общий признак всех *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError ошибка входных данных; операция ничего не изменила.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is позволяет errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// storeErr переводит gorm.ErrRecordNotFound в ErrNotFound, остальное оборачивает.
func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
