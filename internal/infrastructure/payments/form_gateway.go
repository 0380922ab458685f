package payments

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"sort"
	"strings"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"
)

var (
	ErrFormPayNotConfigured = errors.New("form gateway not configured")
	ErrFormPayBadSignature  = errors.New("form gateway notify signature verification failed")
)

// FormPayGateway targets providers that only accept a browser form POST to
// their checkout page. CreateOrder returns a self-submitting HTML document
// with the signed fields; the frontend injects it and the browser navigates
// to the provider. Callbacks are urlencoded form posts verified with the
// shared codec.
type FormPayGateway struct {
	gatewayURL string
	partnerID  string
	key        string
}

var _ interfaces.IPaymentGateway = (*FormPayGateway)(nil)

// NewFormPayGateway reads FORMPAY_GATEWAY_URL, FORMPAY_PARTNER_ID,
// FORMPAY_KEY.
func NewFormPayGateway() (*FormPayGateway, error) {
	g := &FormPayGateway{
		gatewayURL: strings.TrimSpace(os.Getenv("FORMPAY_GATEWAY_URL")),
		partnerID:  strings.TrimSpace(os.Getenv("FORMPAY_PARTNER_ID")),
		key:        strings.TrimSpace(os.Getenv("FORMPAY_KEY")),
	}
	if g.gatewayURL == "" || g.partnerID == "" || g.key == "" {
		log.Printf("[payment][gateway][formpay] missing FORMPAY_GATEWAY_URL/FORMPAY_PARTNER_ID/FORMPAY_KEY")
		return nil, ErrFormPayNotConfigured
	}
	return g, nil
}

func (g *FormPayGateway) Method() entities.PayMethod { return entities.PayMethodForm }

func (g *FormPayGateway) CreateOrder(_ context.Context, req interfaces.CreateOrderRequest) (interfaces.CreateOrderResult, error) {
	if g == nil || g.key == "" {
		return interfaces.CreateOrderResult{}, ErrFormPayNotConfigured
	}

	params := map[string]string{
		"partner":      g.partnerID,
		"out_trade_no": req.OrderID,
		"total_fee":    fmt.Sprintf("%.2f", req.Amount),
		"subject":      req.Description,
		"notify_url":   req.NotifyURL,
		"return_url":   req.ReturnURL,
	}
	params["sign"] = Sign(params, g.key, SignAlgoMD5)
	params["sign_type"] = "MD5"

	log.Printf("[payment][gateway][formpay] pay form built order_id=%s", req.OrderID)
	return interfaces.CreateOrderResult{PayHTML: buildAutoSubmitForm(g.gatewayURL, params)}, nil
}

func (g *FormPayGateway) VerifyNotify(_ context.Context, payload interfaces.NotifyPayload) (interfaces.NotifyResult, error) {
	if g == nil || !Verify(payload.Params, g.key, SignAlgoMD5) {
		return interfaces.NotifyResult{}, ErrFormPayBadSignature
	}

	orderID := payload.Params["out_trade_no"]
	if orderID == "" {
		return interfaces.NotifyResult{}, errors.New("formpay notify missing out_trade_no")
	}

	return interfaces.NotifyResult{
		OrderID:         orderID,
		ProviderTradeNo: payload.Params["trade_no"],
		Amount:          payload.Params["total_fee"],
		Paid:            payload.Params["trade_status"] == "TRADE_SUCCESS",
	}, nil
}

func buildAutoSubmitForm(action string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<form id="paysubmit" method="post" action="`)
	b.WriteString(html.EscapeString(action))
	b.WriteString("\">\n")
	for _, k := range keys {
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(html.EscapeString(k))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(params[k]))
		b.WriteString("\"/>\n")
	}
	b.WriteString("</form>\n<script>document.getElementById('paysubmit').submit();</script>")
	return b.String()
}
