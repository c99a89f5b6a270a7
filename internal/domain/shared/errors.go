package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput   = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidPeriod  = NewDomainError("INVALID_PERIOD", "Reporting period is invalid")
	ErrInvalidBasis   = NewDomainError("INVALID_BASIS", "Accounting basis must be accrual or cash")
	ErrUnknownAccount = NewDomainError("UNKNOWN_ACCOUNT", "Account code not present in the chart of accounts")
)
