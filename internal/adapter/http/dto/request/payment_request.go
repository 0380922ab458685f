package request

// PaymentCreateRequest is the payload for the order-creation route.
//
// There is deliberately no amount field: prices come from the server-side
// tables and nothing the client sends can change them. `plan` and `user_id`
// are required only for vip orders.
type PaymentCreateRequest struct {
	Method string `json:"method" binding:"required"`
	Type   string `json:"type" binding:"required"`
	Plan   string `json:"plan"`
	UserID string `json:"user_id"`
}
