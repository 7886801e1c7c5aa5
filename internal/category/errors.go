package category

import "fmt"

// Reason identifies why a category was rejected.
type Reason string

const (
	ReasonEmptyName   Reason = "empty_name"
	ReasonDuplicateID Reason = "duplicate_id"
)

// ValidationError reports user input that cannot become a category.
type ValidationError struct {
	Reason Reason
	Value  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyName:
		return "category: name cannot be empty"
	case ReasonDuplicateID:
		return fmt.Sprintf("category: %q already exists", e.Value)
	default:
		return fmt.Sprintf("category: invalid input (%s)", e.Reason)
	}
}

// Is matches any ValidationError with the same Reason, so callers can use
// errors.Is(err, ErrEmptyName).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

var (
	ErrEmptyName   = &ValidationError{Reason: ReasonEmptyName}
	ErrDuplicateID = &ValidationError{Reason: ReasonDuplicateID}
)
