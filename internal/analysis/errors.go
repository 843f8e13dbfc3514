package analysis

import (
	"errors"
	"fmt"

	"github.com/jgoulah/gridprofile/pkg/models"
)

var (
	// ErrValidation matches any *ValidationError
	ErrValidation = errors.New("invalid usage input")
	// ErrInsufficientData matches any *InsufficientDataError
	ErrInsufficientData = errors.New("insufficient usage data")
)

// ValidationError reports malformed input. Nothing is computed when it is returned.
type ValidationError struct {
	Field   string
	Period  *models.Period
	Message string
}

func (e *ValidationError) Error() string {
	if e.Period != nil {
		return fmt.Sprintf("invalid %s for %s: %s", e.Field, e.Period, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientDataError reports an empty input series
type InsufficientDataError struct {
	Message string
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
