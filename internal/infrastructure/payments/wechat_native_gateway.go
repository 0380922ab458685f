package payments

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase/interfaces"

	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/native"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

var (
	ErrWeChatNotConfigured   = errors.New("wechat pay gateway not configured")
	ErrWeChatNotifyDecrypt   = errors.New("wechat pay notify decryption failed")
	ErrWeChatNotifyMalformed = errors.New("wechat pay notify payload malformed")
)

// Merchant private key search order; the first readable location wins.
// Env content/path take precedence over either.
var wechatPrivateKeyPaths = []string{
	"./certs/apiclient_key.pem",
	"/etc/fortunepay/certs/apiclient_key.pem",
}

// WeChatNativeGateway implements the Native (QR push) flow of WeChat Pay
// APIv3: Prepay returns a code_url the frontend renders as a QR code, and
// the asynchronous notify carries an AEAD-encrypted transaction resource
// that must be decrypted with the APIv3 key before out_trade_no can be
// trusted.
type WeChatNativeGateway struct {
	svc      *native.NativeApiService
	appID    string
	mchID    string
	apiV3Key string
}

var _ interfaces.IPaymentGateway = (*WeChatNativeGateway)(nil)

// NewWeChatNativeGateway builds the gateway from environment configuration:
// WECHAT_APP_ID, WECHAT_MCH_ID, WECHAT_MCH_SERIAL_NO, WECHAT_API_V3_KEY and
// the merchant private key (WECHAT_PRIVATE_KEY inline PEM,
// WECHAT_PRIVATE_KEY_PATH, or the default cert locations). Any missing piece
// is a constructor error; the caller registers the provider as unavailable
// and the rest of the service keeps running.
func NewWeChatNativeGateway(ctx context.Context) (*WeChatNativeGateway, error) {
	appID := strings.TrimSpace(os.Getenv("WECHAT_APP_ID"))
	mchID := strings.TrimSpace(os.Getenv("WECHAT_MCH_ID"))
	serialNo := strings.TrimSpace(os.Getenv("WECHAT_MCH_SERIAL_NO"))
	apiV3Key := strings.TrimSpace(os.Getenv("WECHAT_API_V3_KEY"))
	if appID == "" || mchID == "" || serialNo == "" || apiV3Key == "" {
		log.Printf("[payment][gateway][wechat] missing WECHAT_APP_ID/WECHAT_MCH_ID/WECHAT_MCH_SERIAL_NO/WECHAT_API_V3_KEY")
		return nil, ErrWeChatNotConfigured
	}

	privateKey, err := loadWeChatPrivateKey()
	if err != nil {
		log.Printf("[payment][gateway][wechat] failed loading merchant private key err=%v", err)
		return nil, fmt.Errorf("%w: %v", ErrWeChatNotConfigured, err)
	}

	client, err := core.NewClient(ctx, option.WithWechatPayAutoAuthCipher(mchID, serialNo, privateKey, apiV3Key))
	if err != nil {
		log.Printf("[payment][gateway][wechat] failed creating sdk client err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway][wechat] client initialized mch_id=%s", mchID)

	return &WeChatNativeGateway{
		svc:      &native.NativeApiService{Client: client},
		appID:    appID,
		mchID:    mchID,
		apiV3Key: apiV3Key,
	}, nil
}

func (g *WeChatNativeGateway) Method() entities.PayMethod { return entities.PayMethodNative }

func (g *WeChatNativeGateway) CreateOrder(ctx context.Context, req interfaces.CreateOrderRequest) (interfaces.CreateOrderResult, error) {
	if g == nil || g.svc == nil {
		return interfaces.CreateOrderResult{}, ErrWeChatNotConfigured
	}
	log.Printf("[payment][gateway][wechat] prepay start order_id=%s amount=%.2f", req.OrderID, req.Amount)

	resp, _, err := g.svc.Prepay(ctx, native.PrepayRequest{
		Appid:       core.String(g.appID),
		Mchid:       core.String(g.mchID),
		Description: core.String(req.Description),
		OutTradeNo:  core.String(req.OrderID),
		NotifyUrl:   core.String(req.NotifyURL),
		Amount: &native.Amount{
			Total:    core.Int64(yuanToFen(req.Amount)),
			Currency: core.String("CNY"),
		},
	})
	if err != nil {
		log.Printf("[payment][gateway][wechat] prepay failed order_id=%s err=%v", req.OrderID, err)
		return interfaces.CreateOrderResult{}, err
	}
	if resp == nil || resp.CodeUrl == nil || *resp.CodeUrl == "" {
		log.Printf("[payment][gateway][wechat] prepay returned no code_url order_id=%s", req.OrderID)
		return interfaces.CreateOrderResult{}, errors.New("wechat pay prepay returned no code_url")
	}
	log.Printf("[payment][gateway][wechat] prepay success order_id=%s", req.OrderID)

	return interfaces.CreateOrderResult{PayURL: *resp.CodeUrl}, nil
}

// wechatNotifyEnvelope is the outer APIv3 notification; the transaction
// itself is inside the AEAD-encrypted resource.
type wechatNotifyEnvelope struct {
	EventType string `json:"event_type"`
	Resource  struct {
		Algorithm      string `json:"algorithm"`
		Ciphertext     string `json:"ciphertext"`
		AssociatedData string `json:"associated_data"`
		Nonce          string `json:"nonce"`
	} `json:"resource"`
}

type wechatTransaction struct {
	OutTradeNo    string `json:"out_trade_no"`
	TransactionID string `json:"transaction_id"`
	TradeState    string `json:"trade_state"`
	Amount        struct {
		Total int64 `json:"total"`
	} `json:"amount"`
}

func (g *WeChatNativeGateway) VerifyNotify(_ context.Context, payload interfaces.NotifyPayload) (interfaces.NotifyResult, error) {
	if g == nil || g.apiV3Key == "" {
		return interfaces.NotifyResult{}, ErrWeChatNotConfigured
	}

	var env wechatNotifyEnvelope
	if err := json.Unmarshal(payload.Body, &env); err != nil {
		log.Printf("[payment][gateway][wechat] notify unmarshal failed err=%v", err)
		return interfaces.NotifyResult{}, ErrWeChatNotifyMalformed
	}
	if env.Resource.Ciphertext == "" || env.Resource.Nonce == "" {
		log.Printf("[payment][gateway][wechat] notify missing encrypted resource event_type=%s", env.EventType)
		return interfaces.NotifyResult{}, ErrWeChatNotifyMalformed
	}

	plain, err := utils.DecryptAES256GCM(g.apiV3Key, env.Resource.AssociatedData, env.Resource.Nonce, env.Resource.Ciphertext)
	if err != nil {
		log.Printf("[payment][gateway][wechat] notify decrypt failed err=%v", err)
		return interfaces.NotifyResult{}, ErrWeChatNotifyDecrypt
	}

	var tx wechatTransaction
	if err := json.Unmarshal([]byte(plain), &tx); err != nil {
		log.Printf("[payment][gateway][wechat] decrypted transaction unmarshal failed err=%v", err)
		return interfaces.NotifyResult{}, ErrWeChatNotifyMalformed
	}
	if tx.OutTradeNo == "" {
		return interfaces.NotifyResult{}, ErrWeChatNotifyMalformed
	}

	return interfaces.NotifyResult{
		OrderID:         tx.OutTradeNo,
		ProviderTradeNo: tx.TransactionID,
		Amount:          fenToYuanString(tx.Amount.Total),
		Paid:            tx.TradeState == "SUCCESS",
	}, nil
}

func loadWeChatPrivateKey() (*rsa.PrivateKey, error) {
	if pem := os.Getenv("WECHAT_PRIVATE_KEY"); strings.TrimSpace(pem) != "" {
		return utils.LoadPrivateKey(pem)
	}
	if path := strings.TrimSpace(os.Getenv("WECHAT_PRIVATE_KEY_PATH")); path != "" {
		return utils.LoadPrivateKeyWithPath(path)
	}
	for _, path := range wechatPrivateKeyPaths {
		if _, err := os.Stat(path); err == nil {
			return utils.LoadPrivateKeyWithPath(path)
		}
	}
	return nil, errors.New("no merchant private key found (set WECHAT_PRIVATE_KEY or WECHAT_PRIVATE_KEY_PATH)")
}

func yuanToFen(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fenToYuanString(fen int64) string {
	return strconv.FormatFloat(float64(fen)/100, 'f', 2, 64)
}
