package payments

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"fortunepay/internal/usecase/interfaces"
)

const testAPIV3Key = "0123456789abcdef0123456789abcdef" // 32 bytes

// encryptNotifyResource mirrors the provider side of the APIv3 AEAD scheme
// so VerifyNotify can be exercised without live credentials.
func encryptNotifyResource(t *testing.T, key string, tx map[string]any) []byte {
	t.Helper()

	plain, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal transaction: %v", err)
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("gcm: %v", err)
	}
	nonce := []byte("test-nonce-1") // 12 bytes
	sealed := gcm.Seal(nil, nonce, plain, []byte("transaction"))

	body, err := json.Marshal(map[string]any{
		"event_type":    "TRANSACTION.SUCCESS",
		"resource_type": "encrypt-resource",
		"resource": map[string]string{
			"algorithm":       "AEAD_AES_256_GCM",
			"ciphertext":      base64.StdEncoding.EncodeToString(sealed),
			"associated_data": "transaction",
			"nonce":           string(nonce),
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

func TestWeChatNativeGateway_VerifyNotify_DecryptsResource(t *testing.T) {
	g := &WeChatNativeGateway{apiV3Key: testAPIV3Key}

	body := encryptNotifyResource(t, testAPIV3Key, map[string]any{
		"out_trade_no":   "ord-4",
		"transaction_id": "4200001",
		"trade_state":    "SUCCESS",
		"amount":         map[string]any{"total": 1660},
	})

	res, err := g.VerifyNotify(context.Background(), interfaces.NotifyPayload{Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Paid || res.OrderID != "ord-4" || res.ProviderTradeNo != "4200001" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Amount != "16.60" {
		t.Fatalf("unexpected amount: %q", res.Amount)
	}
}

func TestWeChatNativeGateway_VerifyNotify_NotPaidState(t *testing.T) {
	g := &WeChatNativeGateway{apiV3Key: testAPIV3Key}

	body := encryptNotifyResource(t, testAPIV3Key, map[string]any{
		"out_trade_no": "ord-4",
		"trade_state":  "PAYERROR",
	})

	res, err := g.VerifyNotify(context.Background(), interfaces.NotifyPayload{Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Paid {
		t.Fatal("PAYERROR must not be reported as paid")
	}
}

func TestWeChatNativeGateway_VerifyNotify_WrongKey(t *testing.T) {
	g := &WeChatNativeGateway{apiV3Key: "ffffffffffffffffffffffffffffffff"}

	body := encryptNotifyResource(t, testAPIV3Key, map[string]any{
		"out_trade_no": "ord-4",
		"trade_state":  "SUCCESS",
	})

	if _, err := g.VerifyNotify(context.Background(), interfaces.NotifyPayload{Body: body}); !errors.Is(err, ErrWeChatNotifyDecrypt) {
		t.Fatalf("expected ErrWeChatNotifyDecrypt, got %v", err)
	}
}

func TestWeChatNativeGateway_VerifyNotify_Malformed(t *testing.T) {
	g := &WeChatNativeGateway{apiV3Key: testAPIV3Key}

	t.Run("not json", func(t *testing.T) {
		if _, err := g.VerifyNotify(context.Background(), interfaces.NotifyPayload{Body: []byte("{")}); !errors.Is(err, ErrWeChatNotifyMalformed) {
			t.Fatalf("expected ErrWeChatNotifyMalformed, got %v", err)
		}
	})

	t.Run("no resource", func(t *testing.T) {
		if _, err := g.VerifyNotify(context.Background(), interfaces.NotifyPayload{Body: []byte(`{"event_type":"TRANSACTION.SUCCESS"}`)}); !errors.Is(err, ErrWeChatNotifyMalformed) {
			t.Fatalf("expected ErrWeChatNotifyMalformed, got %v", err)
		}
	})
}

func TestNewWeChatNativeGateway_NotConfigured(t *testing.T) {
	t.Setenv("WECHAT_APP_ID", "")
	t.Setenv("WECHAT_MCH_ID", "")
	t.Setenv("WECHAT_MCH_SERIAL_NO", "")
	t.Setenv("WECHAT_API_V3_KEY", "")

	if _, err := NewWeChatNativeGateway(context.Background()); !errors.Is(err, ErrWeChatNotConfigured) {
		t.Fatalf("expected ErrWeChatNotConfigured, got %v", err)
	}
}

func TestYuanFenConversion(t *testing.T) {
	if yuanToFen(16.60) != 1660 {
		t.Fatalf("expected 1660, got %d", yuanToFen(16.60))
	}
	if fenToYuanString(990) != "9.90" {
		t.Fatalf("expected 9.90, got %s", fenToYuanString(990))
	}
}
