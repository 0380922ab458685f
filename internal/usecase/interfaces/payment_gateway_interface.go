package interfaces

import (
	"context"

	"fortunepay/internal/domain/entities"
)

// CreateOrderRequest is the generic order the lifecycle controller hands to
// a gateway adapter. Notify/Return URLs are built from the inbound request's
// externally visible origin, never hardcoded, because the provider calls
// back on the public address.
type CreateOrderRequest struct {
	OrderID     string
	Amount      float64
	Description string
	NotifyURL   string
	ReturnURL   string
	ClientIP    string
}

// CreateOrderResult is what the client needs to start paying. Exactly one of
// PayURL/PayHTML is set: PayURL is a redirect target or a QR code_url,
// PayHTML is an auto-submitting form document for form-post gateways.
type CreateOrderResult struct {
	PayURL  string
	PayHTML string
}

// NotifyPayload is the raw provider callback before verification. Params
// holds flattened form/query fields for signed-parameter providers; Body is
// the untouched request body for JSON/AEAD providers.
type NotifyPayload struct {
	Body    []byte
	Params  map[string]string
	Headers map[string]string
}

// NotifyResult is the adapter's verdict on a callback. OrderID and
// ProviderTradeNo are only trustworthy when the adapter returned no error,
// i.e. after signature verification or AEAD decryption succeeded.
type NotifyResult struct {
	OrderID         string
	ProviderTradeNo string
	Amount          string
	Paid            bool
}

// IPaymentGateway abstracts one payment provider (WeChat Native QR, the two
// signed-redirect aggregators, the form-post gateway).
//
// Adapters must fail order creation with an explicit error when required
// configuration is missing; they never fabricate a pay URL. VerifyNotify
// fails closed: any signature/decryption problem is an error and nothing in
// the payload may be trusted.
type IPaymentGateway interface {
	Method() entities.PayMethod
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResult, error)
	VerifyNotify(ctx context.Context, payload NotifyPayload) (NotifyResult, error)
}
