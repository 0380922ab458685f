package interfaces

import (
	"context"
	"errors"

	"fortunepay/internal/domain/entities"
)

// Sentinels shared by all store implementations so callers can use
// errors.Is without knowing which backend is wired in.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderIDCollision = errors.New("order id already exists")
)

// IOrderRepository abstracts order persistence (in-memory or DynamoDB).
//
// MarkPaid is the settlement linearization point: concurrent callbacks for
// the same order (provider retry storms) serialize on the order key, and
// exactly one caller observes wasAlreadyPaid == false. Callers use that flag
// to apply entitlement side effects at most once.
type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	MarkPaid(ctx context.Context, id string, providerTradeNo string) (order entities.Order, wasAlreadyPaid bool, err error)
}
