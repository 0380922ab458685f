package repository

import (
	"context"
	"sync"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"
)

// Store sentinels live next to the port so every backend reports the same
// errors.
var (
	ErrOrderIDCollision = interfaces.ErrOrderIDCollision
	ErrOrderNotFound    = interfaces.ErrOrderNotFound
)

// OrderMemoryRepository is the default order store: a mutex-guarded map
// that lives for the process lifetime. MarkPaid runs entirely under the
// lock, so concurrent callbacks for the same order serialize and exactly
// one of them observes the pending→paid transition.
type OrderMemoryRepository struct {
	mu     sync.Mutex
	orders map[string]entities.Order
}

var _ interfaces.IOrderRepository = (*OrderMemoryRepository)(nil)

func NewOrderMemoryRepository() *OrderMemoryRepository {
	return &OrderMemoryRepository{orders: make(map[string]entities.Order)}
}

func (r *OrderMemoryRepository) Create(_ context.Context, o entities.Order) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return entities.Order{}, ErrOrderIDCollision
	}
	r.orders[o.ID] = o
	return o, nil
}

func (r *OrderMemoryRepository) GetByID(_ context.Context, id string) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return entities.Order{}, nil
	}
	return o, nil
}

func (r *OrderMemoryRepository) MarkPaid(_ context.Context, id string, providerTradeNo string) (entities.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return entities.Order{}, false, ErrOrderNotFound
	}
	if o.Status == entities.OrderStatusPaid {
		return o, true, nil
	}

	now := time.Now().UTC()
	o.Status = entities.OrderStatusPaid
	o.PaidAt = &now
	o.ProviderTradeNo = providerTradeNo
	r.orders[id] = o
	return o, false, nil
}
