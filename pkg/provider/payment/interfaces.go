package payment

import (
	"context"
)

// Gateway is this system's view of one external payment rail.
type Gateway interface {
	// Method is the contribution payment method this gateway settles.
	Method() string

	// Initiate begins a payment. Amounts are already in minor units.
	Initiate(
		ctx context.Context,
		params *InitiateParams,
	) (*InitiateResponse, error)

	// Verify polls the provider for the state of reference. A payment that
	// is still pending is a result, not an error.
	Verify(
		ctx context.Context,
		reference string,
	) (*Verification, error)

	// ParseWebhook authenticates and decodes a provider callback. Events the
	// gateway does not act on yield (nil, nil).
	ParseWebhook(
		ctx context.Context,
		payload []byte,
		signature string,
	) (*Verification, error)
}

// Registry resolves gateways by payment method.
type Registry interface {
	Gateway(method string) (Gateway, bool)
}
