package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindLinkTokenFetchFailed   ErrorKind = "LinkTokenFetchFailed"
	KindTokenExchangeFailed    ErrorKind = "TokenExchangeFailed"
	KindAccountFetchFailed     ErrorKind = "AccountFetchFailed"
	KindTransactionFetchFailed ErrorKind = "TransactionFetchFailed"
	KindSummaryFetchFailed     ErrorKind = "SummaryFetchFailed"
	KindAccountLookupMiss      ErrorKind = "AccountLookupMiss"
)

// Error tags a failure with its kind. Two errors match under errors.Is when
// the target carries no cause and the kinds agree, so the Err* sentinels
// below can be used to classify any wrapped failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

var (
	ErrLinkTokenFetchFailed   = &Error{Kind: KindLinkTokenFetchFailed}
	ErrTokenExchangeFailed    = &Error{Kind: KindTokenExchangeFailed}
	ErrAccountFetchFailed     = &Error{Kind: KindAccountFetchFailed}
	ErrTransactionFetchFailed = &Error{Kind: KindTransactionFetchFailed}
	ErrSummaryFetchFailed     = &Error{Kind: KindSummaryFetchFailed}
	ErrAccountLookupMiss      = &Error{Kind: KindAccountLookupMiss}
)

var (
	ErrInvalidState     = errors.New("invalid state")
	ErrEmptyAccessToken = errors.New("access token is required")
	ErrNotReady         = errors.New("access token not ready")
)

// Errorf builds a kinded error wrapping a formatted cause.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
