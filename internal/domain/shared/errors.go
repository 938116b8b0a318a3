package shared

// ValidationError indicates missing or malformed caller input. It is always
// recoverable by correcting the request and maps to a 400 at the API edge.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	// An empty target message matches any validation error
	return t.Message == "" || t.Message == e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) ValidationError {
	return ValidationError{Message: message}
}
