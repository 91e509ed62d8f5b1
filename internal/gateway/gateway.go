package gateway

import (
	"context"
	"encoding/json"
	"errors"
)

// ChargeRequest describes a single charge attempt. Exactly one of SourceToken
// (a one-time client-side token) or CustomerRef (a stored payment method) must
// be set.
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	Description string
	Metadata    map[string]string
	SourceToken string
	CustomerRef string
}

// ChargeResult carries the identifiers the core requires before it may trust
// a charge. Raw is the gateway's response body verbatim, recorded in the
// audit ledger.
type ChargeResult struct {
	ChargeID      string
	SettlementRef string
	Raw           json.RawMessage
}

// Event is a decoded, signature-verified webhook notification.
type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Livemode bool      `json:"livemode"`
	Data     EventData `json:"data"`
	Raw      []byte    `json:"-"`
}

// EventData wraps the event's nested object.
type EventData struct {
	Object *ChargeObject `json:"object"`
}

// ChargeObject is the charge nested inside a webhook event. Metadata carries
// the order id stamped on the original charge request.
type ChargeObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// ChargeError is a decline or failure reported by the gateway, carrying its
// human-readable detail.
type ChargeError struct {
	Message string
}

func (e *ChargeError) Error() string {
	return e.Message
}

// Errors surfaced by the client.
var (
	// ErrInvalidResponse means the gateway answered without a usable charge
	// identifier and settlement reference. The caller must treat it exactly
	// like a decline: an ambiguous response cannot be trusted.
	ErrInvalidResponse = errors.New("gateway response missing charge identifiers")

	// ErrBadSignature means a webhook payload failed authenticity
	// verification.
	ErrBadSignature = errors.New("webhook signature verification failed")
)

// Gateway is the contract the order core drives. Every call is treated as
// fallible; callers never assume success without inspecting the returned
// identifiers.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	CreateStoredMethod(ctx context.Context, token, ownerEmail string) (string, error)
	UpdateStoredMethod(ctx context.Context, ref, token string) error
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
