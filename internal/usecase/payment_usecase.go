package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrInvalidPayMethod     = errors.New("invalid pay method")
	ErrInvalidOrderType     = errors.New("invalid order type")
	ErrInvalidVipPlan       = errors.New("invalid vip plan")
	ErrMissingUserID        = errors.New("vip order requires user_id")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrOrderNotFound        = interfaces.ErrOrderNotFound
	ErrNotifyRejected       = errors.New("notify verification rejected")
)

// Bound on the outbound create-order call so one slow provider cannot stall
// the request pool. The order is persisted only after the provider call
// succeeds, so a timeout leaves nothing behind.
const createOrderTimeout = 8 * time.Second

// CreateOrderInput is what the front door collects from the client plus the
// request's externally visible origin. Amount is deliberately absent: the
// price is always resolved server-side.
type CreateOrderInput struct {
	Method   entities.PayMethod
	Type     entities.OrderType
	Plan     entities.VipPlanID
	UserID   string
	BaseURL  string
	ClientIP string
}

type CreateOrderOutput struct {
	OrderID string
	PayURL  string
	PayHTML string
	Amount  float64
}

// IPaymentUseCase is the order lifecycle controller: creation against a
// gateway, status polling, and settlement of verified callbacks.
//
// HandleNotify's error contract doubles as the ack decision: a nil error
// means "acknowledge success to the provider" (including idempotent
// redeliveries and the deliberate entitlement-failure swallow), a non-nil
// error means "acknowledge failure so the provider retries or gives up".
type IPaymentUseCase interface {
	Create(ctx context.Context, in CreateOrderInput) (CreateOrderOutput, error)
	GetStatus(ctx context.Context, orderID string) (entities.OrderStatus, error)
	HandleNotify(ctx context.Context, method entities.PayMethod, payload interfaces.NotifyPayload) error
}

type PaymentUseCase struct {
	orders      interfaces.IOrderRepository
	gateways    map[entities.PayMethod]interfaces.IPaymentGateway
	entitlement IEntitlementUseCase
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(orders interfaces.IOrderRepository, gateways []interfaces.IPaymentGateway, entitlement IEntitlementUseCase) *PaymentUseCase {
	byMethod := make(map[entities.PayMethod]interfaces.IPaymentGateway, len(gateways))
	for _, g := range gateways {
		if g != nil {
			byMethod[g.Method()] = g
		}
	}
	return &PaymentUseCase{orders: orders, gateways: byMethod, entitlement: entitlement}
}

func (u *PaymentUseCase) Create(ctx context.Context, in CreateOrderInput) (CreateOrderOutput, error) {
	if !in.Method.Valid() {
		return CreateOrderOutput{}, ErrInvalidPayMethod
	}

	amount, description, err := resolvePrice(in)
	if err != nil {
		return CreateOrderOutput{}, err
	}

	gateway, ok := u.gateways[in.Method]
	if !ok {
		log.Printf("[payment][usecase] gateway unavailable method=%s", in.Method)
		return CreateOrderOutput{}, ErrGatewayNotConfigured
	}

	orderID := strings.ReplaceAll(uuid.NewString(), "-", "")
	baseURL := strings.TrimRight(in.BaseURL, "/")
	log.Printf("[payment][usecase] create start order_id=%s method=%s type=%s amount=%.2f", orderID, in.Method, in.Type, amount)

	callCtx, cancel := context.WithTimeout(ctx, createOrderTimeout)
	defer cancel()

	result, err := gateway.CreateOrder(callCtx, interfaces.CreateOrderRequest{
		OrderID:     orderID,
		Amount:      amount,
		Description: description,
		NotifyURL:   baseURL + "/v1/payment/notify/" + string(in.Method),
		ReturnURL:   baseURL + "/pay/result?order_id=" + orderID,
		ClientIP:    in.ClientIP,
	})
	if err != nil {
		// Nothing is persisted: an order that never reached the provider
		// must not linger as pending.
		log.Printf("[payment][usecase] gateway create failed order_id=%s method=%s err=%v", orderID, in.Method, err)
		return CreateOrderOutput{}, err
	}

	order := entities.Order{
		ID:        orderID,
		Amount:    amount,
		Status:    entities.OrderStatusPending,
		Method:    in.Method,
		Type:      in.Type,
		Plan:      in.Plan,
		UserID:    strings.TrimSpace(in.UserID),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := u.orders.Create(ctx, order); err != nil {
		log.Printf("[payment][usecase] order persist failed order_id=%s err=%v", orderID, err)
		return CreateOrderOutput{}, err
	}
	log.Printf("[payment][usecase] create success order_id=%s method=%s", orderID, in.Method)

	return CreateOrderOutput{
		OrderID: orderID,
		PayURL:  result.PayURL,
		PayHTML: result.PayHTML,
		Amount:  amount,
	}, nil
}

func resolvePrice(in CreateOrderInput) (float64, string, error) {
	switch in.Type {
	case entities.OrderTypeReport:
		return entities.ReportPrice, entities.ReportDescription, nil
	case entities.OrderTypeVip:
		if strings.TrimSpace(in.UserID) == "" {
			return 0, "", ErrMissingUserID
		}
		plan, ok := entities.LookupVipPlan(in.Plan)
		if !ok {
			return 0, "", ErrInvalidVipPlan
		}
		return plan.Amount, plan.Description, nil
	default:
		return 0, "", ErrInvalidOrderType
	}
}

func (u *PaymentUseCase) GetStatus(ctx context.Context, orderID string) (entities.OrderStatus, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", ErrOrderNotFound
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.ID == "" {
		return "", ErrOrderNotFound
	}
	return order.Status, nil
}

func (u *PaymentUseCase) HandleNotify(ctx context.Context, method entities.PayMethod, payload interfaces.NotifyPayload) error {
	gateway, ok := u.gateways[method]
	if !ok {
		log.Printf("[payment][usecase] notify for unavailable gateway method=%s", method)
		return ErrGatewayNotConfigured
	}

	result, err := gateway.VerifyNotify(ctx, payload)
	if err != nil {
		// Security-relevant: tampering, or a key mismatch on our side.
		log.Printf("[payment][usecase] notify verification failed method=%s err=%v", method, err)
		return errors.Join(ErrNotifyRejected, err)
	}
	if !result.Paid {
		// Verified but not a success state; nothing to settle, ack so the
		// provider stops resending this particular event.
		log.Printf("[payment][usecase] notify verified but unpaid method=%s order_id=%s", method, result.OrderID)
		return nil
	}

	order, wasAlreadyPaid, err := u.orders.MarkPaid(ctx, result.OrderID, result.ProviderTradeNo)
	if err != nil {
		if errors.Is(err, interfaces.ErrOrderNotFound) {
			log.Printf("[payment][usecase] notify for unknown order method=%s order_id=%s", method, result.OrderID)
			return ErrOrderNotFound
		}
		log.Printf("[payment][usecase] mark-paid failed method=%s order_id=%s err=%v", method, result.OrderID, err)
		return err
	}
	if wasAlreadyPaid {
		log.Printf("[payment][usecase] duplicate settlement ignored method=%s order_id=%s", method, order.ID)
		return nil
	}
	log.Printf("[payment][usecase] order settled method=%s order_id=%s provider_trade_no=%s", method, order.ID, result.ProviderTradeNo)

	if order.Type == entities.OrderTypeVip {
		if _, err := u.entitlement.Extend(ctx, order.UserID, order.Plan); err != nil {
			// Money captured, entitlement not granted. Still ack success to
			// stop the provider's retry storm; this line is the operational
			// alert ops reconcile from.
			log.Printf("[payment][usecase] ALERT entitlement-failure order_id=%s user_id=%s plan=%s err=%v", order.ID, order.UserID, order.Plan, err)
			return nil
		}
		log.Printf("[payment][usecase] entitlement applied order_id=%s user_id=%s plan=%s", order.ID, order.UserID, order.Plan)
	}
	return nil
}
