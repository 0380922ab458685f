package entities

import "time"

// OrderStatus is the settlement state of a payment order.
//
// The machine is intentionally two-state and monotonic: an order is created
// pending and moves to paid exactly once, driven by a verified provider
// callback. Abandoned orders simply stay pending for the life of the store.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// PayMethod identifies which gateway adapter handles an order.
type PayMethod string

const (
	PayMethodNative      PayMethod = "native"
	PayMethodAggregatorA PayMethod = "aggregator_a"
	PayMethodAggregatorB PayMethod = "aggregator_b"
	PayMethodForm        PayMethod = "form"
)

func (m PayMethod) Valid() bool {
	switch m {
	case PayMethodNative, PayMethodAggregatorA, PayMethodAggregatorB, PayMethodForm:
		return true
	}
	return false
}

// OrderType determines the settlement side effect: report orders unlock a
// single report, vip orders extend the buyer's entitlement window.
type OrderType string

const (
	OrderTypeReport OrderType = "report"
	OrderTypeVip    OrderType = "vip"
)

// Order is one payment attempt against a provider.
//
// Storage model (DynamoDB variant):
//   - PK: id
//
// The id doubles as the provider-facing out_trade_no, so it must be
// unguessable; providers echo it back in the asynchronous notify.
// Amount is always resolved from the server-side price tables, never taken
// from the client.
type Order struct {
	ID     string      `json:"id"`
	Amount float64     `json:"amount"`
	Status OrderStatus `json:"status"`
	Method PayMethod   `json:"method"`
	Type   OrderType   `json:"type"`
	Plan   VipPlanID   `json:"plan,omitempty"`
	UserID string      `json:"user_id,omitempty"`

	// ProviderTradeNo is the provider-side transaction id captured from the
	// verified callback, kept for reconciliation/audit.
	ProviderTradeNo string `json:"provider_trade_no,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}
