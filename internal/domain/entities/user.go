package entities

import "time"

// User is the slice of the account model this service reads and writes:
// the VIP entitlement window. Everything else about the account (auth,
// profile, report history) belongs to other services.
//
// Storage model (DynamoDB variant):
//   - PK: id
//   - GSI1 (phone-index): phone
//
// Entitlement invariant: after a VIP settlement,
// vip_expires_at = max(now, previous vip_expires_at) + plan duration, so
// stacked purchases extend rather than shorten the window.
type User struct {
	ID           string     `json:"id"`
	Phone        string     `json:"phone,omitempty"`
	IsVip        bool       `json:"is_vip"`
	VipExpiresAt *time.Time `json:"vip_expires_at,omitempty"`
}

// VipActiveAt reports whether the entitlement window covers t.
func (u User) VipActiveAt(t time.Time) bool {
	return u.IsVip && u.VipExpiresAt != nil && u.VipExpiresAt.After(t)
}
