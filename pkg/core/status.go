package core

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found
	ErrCategoryTimeout                         // Handshake or wait gave up
	ErrCategoryConnection                      // Device unreachable
	ErrCategoryDevice                          // Device answered with an error
	ErrCategoryProtocol                        // Response could not be interpreted
	ErrCategoryConfig                          // Invalid configuration or input
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryProtocol:
		return "protocol"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// IsFatal returns true if retrying the same call cannot change the outcome
func (c ErrorCategory) IsFatal() bool {
	switch c {
	case ErrCategoryProtocol, ErrCategoryConfig:
		return true
	default:
		return false
	}
}
