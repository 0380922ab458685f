package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	request "fortunepay/internal/adapter/http/dto/request"
	response "fortunepay/internal/adapter/http/dto/response"
	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase"
	"fortunepay/internal/usecase/interfaces"
	"fortunepay/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidPaymentPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)

// PaymentHandler adapts HTTP to the order lifecycle controller: creation,
// status polling, and the provider notify endpoints.
//
// The notify responses are deliberately provider-shaped rather than RESTful:
// the aggregators expect plain-text "success"/"fail" with HTTP 200 either
// way, WeChat expects an empty 200 on success and a 5xx to trigger a retry.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// CreateOrder creates a pending order against the requested gateway.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var payload request.PaymentCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[payment][handler] create invalid payload err=%v", err)
		c.JSON(errInvalidPaymentPayload.HTTPStatus, errInvalidPaymentPayload.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] create start method=%s type=%s plan=%s", payload.Method, payload.Type, payload.Plan)

	out, err := h.usecase.Create(c.Request.Context(), usecase.CreateOrderInput{
		Method:   entities.PayMethod(payload.Method),
		Type:     entities.OrderType(payload.Type),
		Plan:     entities.VipPlanID(payload.Plan),
		UserID:   payload.UserID,
		BaseURL:  requestBaseURL(c),
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		log.Printf("[payment][handler] create failed method=%s err=%v", payload.Method, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] create success order_id=%s method=%s", out.OrderID, payload.Method)

	c.JSON(http.StatusOK, response.FromCreateOrderOutput(out))
}

// GetStatus is the polling read used while the client waits for settlement.
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	status, err := h.usecase.GetStatus(c.Request.Context(), orderID)
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromOrderStatus(status))
}

// Notify receives the asynchronous provider callback. The provider name in
// the path selects the gateway adapter; the ack body follows that provider's
// retry contract.
func (h *PaymentHandler) Notify(c *gin.Context) {
	provider := entities.PayMethod(c.Param("provider"))
	if !provider.Valid() {
		log.Printf("[payment][handler] notify unknown provider=%s", c.Param("provider"))
		ackFailure(c, provider)
		return
	}

	payload, err := readNotifyPayload(c)
	if err != nil {
		log.Printf("[payment][handler] notify unreadable payload provider=%s err=%v", provider, err)
		ackFailure(c, provider)
		return
	}

	if err := h.usecase.HandleNotify(c.Request.Context(), provider, payload); err != nil {
		log.Printf("[payment][handler] notify rejected provider=%s err=%v", provider, err)
		ackFailure(c, provider)
		return
	}
	ackSuccess(c, provider)
}

func readNotifyPayload(c *gin.Context) (interfaces.NotifyPayload, error) {
	body, err := c.GetRawData()
	if err != nil {
		return interfaces.NotifyPayload{}, err
	}

	params := map[string]string{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	if strings.Contains(c.ContentType(), "application/x-www-form-urlencoded") {
		form, err := parseFormBody(body)
		if err != nil {
			return interfaces.NotifyPayload{}, err
		}
		for k, v := range form {
			params[k] = v
		}
	}

	headers := map[string]string{}
	for _, k := range []string{"Wechatpay-Timestamp", "Wechatpay-Nonce", "Wechatpay-Signature", "Wechatpay-Serial"} {
		if v := c.GetHeader(k); v != "" {
			headers[k] = v
		}
	}

	return interfaces.NotifyPayload{Body: body, Params: params, Headers: headers}, nil
}

func parseFormBody(body []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params, nil
}

// ackSuccess/ackFailure speak each provider's acknowledgement dialect.
func ackSuccess(c *gin.Context, provider entities.PayMethod) {
	if provider == entities.PayMethodNative {
		c.Status(http.StatusOK)
		return
	}
	c.String(http.StatusOK, "success")
}

func ackFailure(c *gin.Context, provider entities.PayMethod) {
	if provider == entities.PayMethodNative {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "FAIL", "message": "notification handling failed"})
		return
	}
	c.String(http.StatusOK, "fail")
}

// requestBaseURL reconstructs the externally visible origin the provider
// must call back on, honoring reverse-proxy forwarded headers.
func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidPayMethod),
		errors.Is(err, usecase.ErrInvalidOrderType),
		errors.Is(err, usecase.ErrInvalidVipPlan),
		errors.Is(err, usecase.ErrMissingUserID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrGatewayNotConfigured):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAVAILABLE", "Payment method unavailable", http.StatusInternalServerError)
	case errors.Is(err, context.DeadlineExceeded):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_TIMEOUT", "Payment provider timed out, please retry", http.StatusInternalServerError)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
