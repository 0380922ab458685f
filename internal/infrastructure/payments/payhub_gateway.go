package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"

	"github.com/go-resty/resty/v2"
)

var (
	ErrPayhubNotConfigured = errors.New("payhub gateway not configured")
	ErrPayhubBadSignature  = errors.New("payhub notify signature verification failed")
)

// Outbound create-order bound; a slow aggregator must not stall the request
// pool, and on timeout the caller surfaces a retryable error without
// persisting anything.
const payhubTimeout = 5 * time.Second

// PayhubGateway is the second redirect aggregator. Unlike epay, order
// creation is an outbound JSON API call; the aggregator responds with its
// own hosted checkout URL. Requests and callbacks are signed HMAC-SHA256
// over the same canonical string convention.
type PayhubGateway struct {
	http       *resty.Client
	apiURL     string
	merchantID string
	secret     string
}

var _ interfaces.IPaymentGateway = (*PayhubGateway)(nil)

// NewPayhubGateway reads PAYHUB_API_URL, PAYHUB_MERCHANT_ID, PAYHUB_SECRET.
func NewPayhubGateway() (*PayhubGateway, error) {
	g := &PayhubGateway{
		apiURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("PAYHUB_API_URL")), "/"),
		merchantID: strings.TrimSpace(os.Getenv("PAYHUB_MERCHANT_ID")),
		secret:     strings.TrimSpace(os.Getenv("PAYHUB_SECRET")),
	}
	if g.apiURL == "" || g.merchantID == "" || g.secret == "" {
		log.Printf("[payment][gateway][payhub] missing PAYHUB_API_URL/PAYHUB_MERCHANT_ID/PAYHUB_SECRET")
		return nil, ErrPayhubNotConfigured
	}
	g.http = resty.New().SetTimeout(payhubTimeout)
	return g, nil
}

func (g *PayhubGateway) Method() entities.PayMethod { return entities.PayMethodAggregatorB }

type payhubCreateResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	PayURL  string `json:"pay_url"`
}

func (g *PayhubGateway) CreateOrder(ctx context.Context, req interfaces.CreateOrderRequest) (interfaces.CreateOrderResult, error) {
	if g == nil || g.secret == "" {
		return interfaces.CreateOrderResult{}, ErrPayhubNotConfigured
	}

	params := map[string]string{
		"merchant_id":  g.merchantID,
		"out_trade_no": req.OrderID,
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"subject":      req.Description,
		"notify_url":   req.NotifyURL,
		"return_url":   req.ReturnURL,
	}
	params["sign"] = Sign(params, g.secret, SignAlgoHMACSHA256)

	log.Printf("[payment][gateway][payhub] create start order_id=%s", req.OrderID)
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		SetResult(&payhubCreateResponse{}).
		Post(g.apiURL + "/api/v1/orders")
	if err != nil {
		log.Printf("[payment][gateway][payhub] create failed order_id=%s err=%v", req.OrderID, err)
		return interfaces.CreateOrderResult{}, err
	}

	out, ok := resp.Result().(*payhubCreateResponse)
	if !ok || resp.StatusCode() != 200 {
		log.Printf("[payment][gateway][payhub] create unexpected response order_id=%s status=%d", req.OrderID, resp.StatusCode())
		return interfaces.CreateOrderResult{}, fmt.Errorf("payhub create order: http %d", resp.StatusCode())
	}
	if out.Code != 0 || out.PayURL == "" {
		log.Printf("[payment][gateway][payhub] create rejected order_id=%s code=%d message=%q", req.OrderID, out.Code, out.Message)
		return interfaces.CreateOrderResult{}, fmt.Errorf("payhub create order rejected: code=%d %s", out.Code, out.Message)
	}
	log.Printf("[payment][gateway][payhub] create success order_id=%s", req.OrderID)

	return interfaces.CreateOrderResult{PayURL: out.PayURL}, nil
}

func (g *PayhubGateway) VerifyNotify(_ context.Context, payload interfaces.NotifyPayload) (interfaces.NotifyResult, error) {
	params, err := flattenJSONParams(payload.Body)
	if err != nil {
		return interfaces.NotifyResult{}, fmt.Errorf("payhub notify body: %w", err)
	}

	if g == nil || !Verify(params, g.secret, SignAlgoHMACSHA256) {
		return interfaces.NotifyResult{}, ErrPayhubBadSignature
	}

	orderID := params["out_trade_no"]
	if orderID == "" {
		return interfaces.NotifyResult{}, errors.New("payhub notify missing out_trade_no")
	}

	return interfaces.NotifyResult{
		OrderID:         orderID,
		ProviderTradeNo: params["trade_no"],
		Amount:          params["amount"],
		Paid:            params["status"] == "paid",
	}, nil
}

// flattenJSONParams converts a flat JSON object into the string map the
// signature codec operates on. Numbers keep their exact wire representation
// so the canonical string matches what the provider signed.
func flattenJSONParams(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params[k] = val
		case json.Number:
			params[k] = val.String()
		case bool:
			params[k] = fmt.Sprintf("%t", val)
		case nil:
			// skip; empty values are excluded from the canonical string anyway
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			params[k] = string(b)
		}
	}
	return params, nil
}
