package routes

import (
	"fortunepay/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathPayments = "/payment"
)

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	payments := rg.Group(PathPayments)
	{
		payments.POST("/create", paymentHandler.CreateOrder)
		payments.GET("/status/:order_id", paymentHandler.GetStatus)

		// Providers differ on callback verb: the redirect gateways may come
		// back as GET with query params, the rest POST a body.
		payments.POST("/notify/:provider", paymentHandler.Notify)
		payments.GET("/notify/:provider", paymentHandler.Notify)
	}
}
