package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUnknownVipPlan = errors.New("unknown vip plan")
	ErrInvalidUserID  = errors.New("invalid user id")
)

// IEntitlementUseCase applies the VIP side effect of a settled order.
type IEntitlementUseCase interface {
	Extend(ctx context.Context, userID string, plan entities.VipPlanID) (time.Time, error)
}

type EntitlementUseCase struct {
	users interfaces.IUserRepository
	now   func() time.Time
}

var _ IEntitlementUseCase = (*EntitlementUseCase)(nil)

func NewEntitlementUseCase(users interfaces.IUserRepository) *EntitlementUseCase {
	return &EntitlementUseCase{users: users, now: time.Now}
}

// Extend moves the user's VIP window forward by the plan duration, anchored
// at max(now, current expiry). Stacked purchases therefore extend the window
// and never shorten it; an expired or absent window anchors at now.
//
// The user id is resolved by primary id first, then by phone number, since
// older orders recorded the buyer's phone instead of an account id.
func (u *EntitlementUseCase) Extend(ctx context.Context, userID string, plan entities.VipPlanID) (time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return time.Time{}, ErrInvalidUserID
	}
	p, ok := entities.LookupVipPlan(plan)
	if !ok {
		return time.Time{}, ErrUnknownVipPlan
	}

	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if user.ID == "" {
		user, err = u.users.GetByPhone(ctx, userID)
		if err != nil {
			return time.Time{}, err
		}
	}
	if user.ID == "" {
		log.Printf("[entitlement][usecase] user not found user_id=%s", userID)
		return time.Time{}, ErrUserNotFound
	}

	now := u.now().UTC()
	base := now
	if user.VipActiveAt(now) {
		base = user.VipExpiresAt.UTC()
	}
	newExpiry := base.AddDate(0, 0, p.DurationDays)

	if _, err := u.users.UpdateVip(ctx, user.ID, newExpiry); err != nil {
		return time.Time{}, err
	}
	log.Printf("[entitlement][usecase] vip extended user_id=%s plan=%s expires_at=%s", user.ID, plan, newExpiry.Format(time.RFC3339))
	return newExpiry, nil
}
