package interfaces

import (
	"context"
	"time"

	"fortunepay/internal/domain/entities"
)

// IUserRepository abstracts the external user/entitlement store.
//
// The service only needs lookup (primary id with phone fallback, since some
// legacy orders carry a phone number instead of a user id) and the VIP
// window update.
type IUserRepository interface {
	GetByID(ctx context.Context, id string) (entities.User, error)
	GetByPhone(ctx context.Context, phone string) (entities.User, error)
	UpdateVip(ctx context.Context, id string, expiresAt time.Time) (entities.User, error)
}
