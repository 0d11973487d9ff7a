package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"foodorder/internal/domain/pricing"
	"foodorder/internal/usecase"

	"github.com/google/uuid"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Gateway は決済プロバイダのチェックアウトを模した実装。
// セッションを発行し、Stripe形式のwebhookを読む。
type Gateway struct {
	checkoutBaseURL string
	webhookSecret   string
}

func NewGateway(feURL string, webhookSecret string) *Gateway {
	return &Gateway{
		checkoutBaseURL: strings.TrimRight(feURL, "/") + "/checkout",
		webhookSecret:   webhookSecret,
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutSessionRequest) (usecase.CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return usecase.CheckoutSession{}, err
	}
	if req.OrderID <= 0 {
		return usecase.CheckoutSession{}, fmt.Errorf("create checkout session: invalid order id %d", req.OrderID)
	}

	id := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	q := url.Values{}
	q.Set("session_id", id)
	q.Set("order_id", strconv.FormatInt(req.OrderID, 10))
	q.Set("amount", req.Summary.TotalDisplay)
	q.Set("success_url", req.SuccessURL)
	q.Set("cancel_url", req.CancelURL)

	return usecase.CheckoutSession{
		ID:  id,
		URL: g.checkoutBaseURL + "?" + q.Encode(),
	}, nil
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal *int64            `json:"amount_total"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook は署名を確認してイベントを取り出す（secretが空なら確認しない）
func (g *Gateway) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	if g.webhookSecret != "" && !g.validSignature(payload, signature) {
		return usecase.PaymentEvent{}, ErrInvalidSignature
	}

	var body webhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if body.Type == "" {
		return usecase.PaymentEvent{}, fmt.Errorf("%w: missing type", ErrInvalidPayload)
	}

	ev := usecase.PaymentEvent{
		Type:      body.Type,
		SessionID: body.Data.Object.ID,
	}
	if body.Type != usecase.PaymentEventCheckoutCompleted {
		return ev, nil
	}

	orderID, err := strconv.ParseInt(body.Data.Object.Metadata["orderId"], 10, 64)
	if err != nil || orderID <= 0 {
		return usecase.PaymentEvent{}, fmt.Errorf("%w: metadata.orderId", ErrInvalidPayload)
	}
	ev.OrderID = orderID

	if body.Data.Object.AmountTotal != nil {
		if *body.Data.Object.AmountTotal < 0 {
			return usecase.PaymentEvent{}, fmt.Errorf("%w: amount_total", ErrInvalidPayload)
		}
		amount := pricing.Minor(*body.Data.Object.AmountTotal)
		ev.AmountTotal = &amount
	}
	return ev, nil
}

// Sign はwebhook本文の署名（HMAC-SHA256のhex）を返す
func (g *Gateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *Gateway) validSignature(payload []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(g.Sign(payload))
	return hmac.Equal(got, want)
}
