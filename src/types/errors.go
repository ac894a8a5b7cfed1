package types

import "fmt"

// Error taxonomy shared by the booking, voucher, commission and session
// cores. Handlers map these to HTTP statuses with errors.As so callers get
// a specific message without inspecting stack traces.

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [%v] not found", e.Entity, e.ID)
}

type InactiveEntityError struct {
	Entity string
	ID     any
}

func (e *InactiveEntityError) Error() string {
	return fmt.Sprintf("%s [%v] is inactive", e.Entity, e.ID)
}

type InvalidVoucherError struct {
	Code   string
	Reason string
}

func (e *InvalidVoucherError) Error() string {
	return fmt.Sprintf("voucher [%s] is invalid: %s", e.Code, e.Reason)
}

type ExpiredError struct {
	Entity string
	ID     any
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s [%v] has expired", e.Entity, e.ID)
}

type ConflictError struct {
	Entity string
	ID     any
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s [%v]: %s", e.Entity, e.ID, e.Reason)
}

// PersistenceError wraps a storage failure surfaced after any rollback
// attempt has completed. The triggering error is preserved for Unwrap.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %s", e.Op, e.Err.Error())
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
