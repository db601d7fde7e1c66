package refund

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/pkg/workflow"
)

var (
	ErrNotFound               = errors.New("refund request not found")
	ErrConcurrentModification = contract.ErrVersionConflict
	ErrRetryLimitReached      = errors.New("refund retry limit reached")
	ErrUnauthorized           = errors.New("caller is not authenticated")
	ErrForbidden              = errors.New("caller lacks privilege for this operation")
)

// ValidationError lists every field that failed intake validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// InvalidTransitionError wraps the machine error with the record's current state.
type InvalidTransitionError struct {
	RefundID string
	Current  entity.RefundStatus
	cause    *workflow.InvalidTransitionError
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("refund %s: %s", e.RefundID, e.cause.Error())
}

func (e *InvalidTransitionError) Unwrap() error {
	return e.cause
}

func invalidTransition(r *entity.Refund, to string) *InvalidTransitionError {
	next := Machine.Next(r.Status)
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, string(s))
	}
	return &InvalidTransitionError{
		RefundID: r.ID.String(),
		Current:  r.Status,
		cause:    &workflow.InvalidTransitionError{From: string(r.Status), To: to, Allowed: allowed},
	}
}

// retryOnly rejects a manual approval of a failed record. The failed → approved edge
// belongs to Retry, so it is left out of the allowed list.
func retryOnly(r *entity.Refund) *InvalidTransitionError {
	e := invalidTransition(r, string(entity.RefundStatusApproved))
	e.cause.Allowed = slices.DeleteFunc(e.cause.Allowed, func(s string) bool {
		return s == string(entity.RefundStatusApproved)
	})
	return e
}

// Allowed returns the statuses reachable from the current one.
func (e *InvalidTransitionError) Allowed() []string {
	return append([]string(nil), e.cause.Allowed...)
}

// GatewayError is a failed money movement. Retryable marks transient failures.
// Indeterminate marks failures where the gateway may still have moved the money,
// such as timeouts and transport errors; the next attempt must reuse the same key.
type GatewayError struct {
	Provider      string
	Code          string
	Message       string
	Retryable     bool
	Indeterminate bool
	Err           error
}

func (e *GatewayError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "retryable"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s gateway error (%s, code %s): %s", e.Provider, kind, e.Code, msg)
	}
	return fmt.Sprintf("%s gateway error (%s): %s", e.Provider, kind, msg)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AuthorizationError is surfaced at the boundary only; it never reaches a ledger.
type AuthorizationError struct {
	Operation string
	Err       error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s: %v", e.Operation, e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// AsGatewayError classifies any error returned by an adapter. Unknown errors are
// treated as retryable transport failures.
func AsGatewayError(provider string, err error) *GatewayError {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &GatewayError{Provider: provider, Message: err.Error(), Retryable: true, Indeterminate: true, Err: err}
}
