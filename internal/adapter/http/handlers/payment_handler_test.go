package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fortunepay/internal/adapter/http/handlers/mocks"
	"fortunepay/internal/domain/entities"
	"fortunepay/internal/usecase"
	"fortunepay/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func newPaymentRouter(h *PaymentHandler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/payment/create", h.CreateOrder)
	r.GET("/v1/payment/status/:order_id", h.GetStatus)
	r.POST("/v1/payment/notify/:provider", h.Notify)
	r.GET("/v1/payment/notify/:provider", h.Notify)
	return r
}

func TestPaymentHandler_CreateOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/create", bytes.NewBufferString(`{"method":"native"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("forwarded headers shape the notify origin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		var gotInput usecase.CreateOrderInput
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, in usecase.CreateOrderInput) (usecase.CreateOrderOutput, error) {
				gotInput = in
				return usecase.CreateOrderOutput{OrderID: "ord-1", PayURL: "weixin://wxpay/abc", Amount: 16.60}, nil
			})

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/create", bytes.NewBufferString(`{"method":"native","type":"report"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Forwarded-Host", "fortune.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}
		if gotInput.BaseURL != "https://fortune.example.com" {
			t.Fatalf("unexpected base url: %s", gotInput.BaseURL)
		}

		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["order_id"] != "ord-1" || body["amount"] != 16.60 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("gateway unavailable maps to 500", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(usecase.CreateOrderOutput{}, usecase.ErrGatewayNotConfigured)

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/create", bytes.NewBufferString(`{"method":"native","type":"report"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "PAYMENT_PROVIDER_UNAVAILABLE") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("vip validation maps to 400", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(usecase.CreateOrderOutput{}, usecase.ErrMissingUserID)

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/create", bytes.NewBufferString(`{"method":"form","type":"vip","plan":"monthly"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestPaymentHandler_GetStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().GetStatus(gomock.Any(), "ord-1").Return(entities.OrderStatusPending, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/payment/status/ord-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["status"] != "pending" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().GetStatus(gomock.Any(), "ghost").Return(entities.OrderStatus(""), usecase.ErrOrderNotFound)

		req := httptest.NewRequest(http.MethodGet, "/v1/payment/status/ghost", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestPaymentHandler_Notify(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("aggregator success ack", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		var gotPayload interfaces.NotifyPayload
		uc.EXPECT().HandleNotify(gomock.Any(), entities.PayMethodAggregatorA, gomock.Any()).DoAndReturn(
			func(_ any, _ entities.PayMethod, payload interfaces.NotifyPayload) error {
				gotPayload = payload
				return nil
			})

		form := "out_trade_no=ord-1&trade_status=TRADE_SUCCESS&sign=ABC"
		req := httptest.NewRequest(http.MethodPost, "/v1/payment/notify/aggregator_a", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "success" {
			t.Fatalf("expected 200 success, got %d %q", w.Code, w.Body.String())
		}
		if gotPayload.Params["out_trade_no"] != "ord-1" || gotPayload.Params["sign"] != "ABC" {
			t.Fatalf("form fields not flattened: %v", gotPayload.Params)
		}
	})

	t.Run("aggregator GET callback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().HandleNotify(gomock.Any(), entities.PayMethodAggregatorA, gomock.Any()).DoAndReturn(
			func(_ any, _ entities.PayMethod, payload interfaces.NotifyPayload) error {
				if payload.Params["out_trade_no"] != "ord-1" {
					t.Errorf("query fields not flattened: %v", payload.Params)
				}
				return nil
			})

		req := httptest.NewRequest(http.MethodGet, "/v1/payment/notify/aggregator_a?out_trade_no=ord-1&trade_status=TRADE_SUCCESS&sign=ABC", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "success" {
			t.Fatalf("expected 200 success, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("aggregator failure ack is 200 fail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().HandleNotify(gomock.Any(), entities.PayMethodAggregatorB, gomock.Any()).Return(usecase.ErrNotifyRejected)

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/notify/aggregator_b", bytes.NewBufferString(`{"sign":"BOGUS"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "fail" {
			t.Fatalf("expected 200 fail, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("wechat success ack is empty 200", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().HandleNotify(gomock.Any(), entities.PayMethodNative, gomock.Any()).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/notify/native", bytes.NewBufferString(`{"resource":{}}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.Len() != 0 {
			t.Fatalf("expected empty 200, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("wechat failure ack is 500 so provider retries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		uc.EXPECT().HandleNotify(gomock.Any(), entities.PayMethodNative, gomock.Any()).Return(errors.New("decrypt failed"))

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/notify/native", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIPaymentUseCase(ctrl)
		r := newPaymentRouter(NewPaymentHandler(uc))

		req := httptest.NewRequest(http.MethodPost, "/v1/payment/notify/paypal", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "fail" {
			t.Fatalf("expected 200 fail, got %d %q", w.Code, w.Body.String())
		}
	})
}
