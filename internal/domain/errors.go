package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

// ErrInvalidData marks a validation failure. It is recorded to the validation
// log and never surfaces as anything other than this typed error.
func ErrInvalidData(msg string) *AppError {
	return &AppError{Code: "INVALID_DATA", Message: msg, Status: 400}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

// ErrReferential marks alias cycles, FK mismatches, and duplicate canonicals.
func ErrReferential(msg string) *AppError {
	return &AppError{Code: "REFERENTIAL_VIOLATION", Message: msg, Status: 409}
}

// ErrIO marks a persistence transient; callers may retry.
func ErrIO(msg string, cause error) *AppError {
	return &AppError{Code: "IO_FAILURE", Message: msg, Status: 500, Cause: cause}
}

// ErrUpstream marks an external scraper/API failure; the engine degrades and
// the next cycle retries.
func ErrUpstream(msg string, cause error) *AppError {
	return &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: msg, Status: 502, Cause: cause}
}

// ErrFatal marks detected corruption; the process exits.
func ErrFatal(msg string, cause error) *AppError {
	return &AppError{Code: "FATAL", Message: msg, Status: 500, Cause: cause}
}
