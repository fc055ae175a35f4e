package email

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnknownAction
	KindTransport
	// KindInternal covers rendering and code generation failures.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnknownAction:
		return "unknown_action"
	case KindTransport:
		return "transport"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

var (
	ErrValidation    = errors.New("email: validation failed")
	ErrUnknownAction = errors.New("email: unknown action")
	ErrTransport     = errors.New("email: transport failed")
	ErrInternal      = errors.New("email: internal error")
)

const (
	msgMissingFields = "Missing required fields"
	msgEmailRequired = "Email is required"
	msgInvalidBody   = "Invalid request body"
	msgInvalidItems  = "Invalid order items"
)

// Error is returned by every Dispatcher operation. Message is safe to show
// to the caller; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch e.Kind {
	case KindValidation:
		errs = append(errs, ErrValidation)
	case KindUnknownAction:
		errs = append(errs, ErrUnknownAction)
	case KindTransport:
		errs = append(errs, ErrTransport)
	case KindInternal:
		errs = append(errs, ErrInternal)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}
