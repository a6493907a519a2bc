package custody

import "fmt"

// Error is a custody program failure with a stable numeric code, so clients
// can map a failed transaction back to its cause.
type Error struct {
	Code    uint32
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("custody: %s (code %d)", e.Message, e.Code)
}

func newError(code uint32, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrNotASigner            = newError(0, "required authorizing account did not sign")
	ErrAddressMismatch       = newError(1, "custody account does not match the derived address")
	ErrTransferBuilderFailed = newError(2, "could not build transfer instruction")
	ErrDelegateBuilderFailed = newError(3, "could not build delegate instruction")
	ErrAuthorityMismatch     = newError(4, "custody authority does not derive from owner")
	ErrMalformedCommand      = newError(5, "malformed command")
	ErrDerivationExhausted   = newError(6, "no bump yields an off-curve custody address")
	ErrNotEnoughAccounts     = newError(7, "not enough accounts supplied")
	ErrUnexpectedAccount     = newError(8, "unexpected account in fixed position")
	ErrAlreadyInitialized    = newError(9, "custody record already initialized")
	ErrUninitialized         = newError(10, "custody record not initialized")
	ErrInvalidRecord         = newError(11, "custody record is invalid")
)

var errorsByCode = map[uint32]*Error{}

func init() {
	for _, err := range []*Error{
		ErrNotASigner, ErrAddressMismatch, ErrTransferBuilderFailed, ErrDelegateBuilderFailed,
		ErrAuthorityMismatch, ErrMalformedCommand, ErrDerivationExhausted, ErrNotEnoughAccounts,
		ErrUnexpectedAccount, ErrAlreadyInitialized, ErrUninitialized, ErrInvalidRecord,
	} {
		errorsByCode[err.Code] = err
	}
}

// ErrorFromCode returns the sentinel registered for code.
func ErrorFromCode(code uint32) (*Error, bool) {
	err, ok := errorsByCode[code]
	return err, ok
}
