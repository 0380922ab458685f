package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"
)

var (
	ErrEpayNotConfigured = errors.New("epay gateway not configured")
	ErrEpayBadSignature  = errors.New("epay notify signature verification failed")
)

// EpayGateway is the first redirect aggregator. It never calls the provider
// during order creation: the pay URL is the aggregator's hosted checkout
// with the MD5-signed parameters attached, and the browser is redirected
// there. Settlement arrives as a GET or POST with urlencoded params signed
// the same way.
type EpayGateway struct {
	apiURL string
	pid    string
	key    string
}

var _ interfaces.IPaymentGateway = (*EpayGateway)(nil)

// NewEpayGateway reads EPAY_API_URL, EPAY_PID and EPAY_KEY.
func NewEpayGateway() (*EpayGateway, error) {
	g := &EpayGateway{
		apiURL: strings.TrimRight(strings.TrimSpace(os.Getenv("EPAY_API_URL")), "/"),
		pid:    strings.TrimSpace(os.Getenv("EPAY_PID")),
		key:    strings.TrimSpace(os.Getenv("EPAY_KEY")),
	}
	if g.apiURL == "" || g.pid == "" || g.key == "" {
		log.Printf("[payment][gateway][epay] missing EPAY_API_URL/EPAY_PID/EPAY_KEY")
		return nil, ErrEpayNotConfigured
	}
	return g, nil
}

func (g *EpayGateway) Method() entities.PayMethod { return entities.PayMethodAggregatorA }

func (g *EpayGateway) CreateOrder(_ context.Context, req interfaces.CreateOrderRequest) (interfaces.CreateOrderResult, error) {
	if g == nil || g.key == "" {
		return interfaces.CreateOrderResult{}, ErrEpayNotConfigured
	}

	params := map[string]string{
		"pid":          g.pid,
		"out_trade_no": req.OrderID,
		"money":        fmt.Sprintf("%.2f", req.Amount),
		"name":         req.Description,
		"notify_url":   req.NotifyURL,
		"return_url":   req.ReturnURL,
	}
	params["sign"] = Sign(params, g.key, SignAlgoMD5)
	params["sign_type"] = "MD5"

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	payURL := g.apiURL + "/submit.php?" + q.Encode()
	log.Printf("[payment][gateway][epay] checkout url built order_id=%s", req.OrderID)

	return interfaces.CreateOrderResult{PayURL: payURL}, nil
}

func (g *EpayGateway) VerifyNotify(_ context.Context, payload interfaces.NotifyPayload) (interfaces.NotifyResult, error) {
	if g == nil || !Verify(payload.Params, g.key, SignAlgoMD5) {
		return interfaces.NotifyResult{}, ErrEpayBadSignature
	}

	orderID := payload.Params["out_trade_no"]
	if orderID == "" {
		return interfaces.NotifyResult{}, errors.New("epay notify missing out_trade_no")
	}

	return interfaces.NotifyResult{
		OrderID:         orderID,
		ProviderTradeNo: payload.Params["trade_no"],
		Amount:          payload.Params["money"],
		Paid:            payload.Params["trade_status"] == "TRADE_SUCCESS",
	}, nil
}
