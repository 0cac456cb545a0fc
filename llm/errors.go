package llm

import (
	"fmt"
)

// ErrorType classifies an invocation failure.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeRequest
	ErrorTypeAPI
	ErrorTypeResponse
	ErrorTypeValidation
)

// InvokeError is the failure variant every Invoker returns. Callers of
// the tuning roles receive it unmodified; the roles never inspect it.
type InvokeError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *InvokeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

func (e *InvokeError) TypeString() string {
	switch e.Type {
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeAPI:
		return "APIError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeValidation:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// NewInvokeError creates a new InvokeError.
func NewInvokeError(errType ErrorType, message string, err error) *InvokeError {
	return &InvokeError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}
