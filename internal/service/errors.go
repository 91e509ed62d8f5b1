package service

import (
	"errors"
	"fmt"
)

// Kind classifies a typed failure. Every operation in this package returns
// failures as values of *Error; only storage unavailability propagates as a
// plain wrapped error, which callers surface as a server error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindEmptyCart
	KindPaymentDeclined
	KindGatewayInvalid
	KindUnauthorized
	KindBadSignature
	KindMalformedEvent
	KindModeMismatch
)

// Error is a typed failure result carrying the kind, the offending field for
// validation and malformed-event failures, and human-readable detail.
type Error struct {
	Kind   Kind
	Field  string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s (%s)", kindLabel(e.Kind), e.Field, e.Detail)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", kindLabel(e.Kind), e.Field)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", kindLabel(e.Kind), e.Detail)
	default:
		return kindLabel(e.Kind)
	}
}

func kindLabel(k Kind) string {
	switch k {
	case KindValidation:
		return "missing required field"
	case KindEmptyCart:
		return "cart is empty"
	case KindPaymentDeclined:
		return "payment declined"
	case KindGatewayInvalid:
		return "gateway response invalid"
	case KindUnauthorized:
		return "access denied"
	case KindBadSignature:
		return "signature verification failed"
	case KindMalformedEvent:
		return "malformed event"
	case KindModeMismatch:
		return "event mode does not match environment"
	default:
		return "internal error"
	}
}

// KindOf extracts the failure kind from an error chain. Plain errors report
// KindUnknown.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnknown
}

func validationError(field string) *Error {
	return &Error{Kind: KindValidation, Field: field}
}

func emptyCartError() *Error {
	return &Error{Kind: KindEmptyCart}
}

func paymentDeclinedError(detail string) *Error {
	return &Error{Kind: KindPaymentDeclined, Detail: detail}
}

func gatewayInvalidError(detail string) *Error {
	return &Error{Kind: KindGatewayInvalid, Detail: detail}
}

func unauthorizedError() *Error {
	return &Error{Kind: KindUnauthorized}
}

func badSignatureError(detail string) *Error {
	return &Error{Kind: KindBadSignature, Detail: detail}
}

func malformedEventError(field string) *Error {
	return &Error{Kind: KindMalformedEvent, Field: field}
}

func modeMismatchError(detail string) *Error {
	return &Error{Kind: KindModeMismatch, Detail: detail}
}
