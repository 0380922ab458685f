package response

import (
	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase"
)

type PaymentCreateResponse struct {
	Success bool    `json:"success"`
	OrderID string  `json:"order_id"`
	PayURL  string  `json:"pay_url,omitempty"`
	PayHTML string  `json:"pay_html,omitempty"`
	Amount  float64 `json:"amount"`
}

func FromCreateOrderOutput(out usecase.CreateOrderOutput) PaymentCreateResponse {
	return PaymentCreateResponse{
		Success: true,
		OrderID: out.OrderID,
		PayURL:  out.PayURL,
		PayHTML: out.PayHTML,
		Amount:  out.Amount,
	}
}

type PaymentStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

func FromOrderStatus(status entities.OrderStatus) PaymentStatusResponse {
	return PaymentStatusResponse{Success: true, Status: string(status)}
}
