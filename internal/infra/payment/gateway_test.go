package payment_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"foodorder/internal/domain/pricing"
	"foodorder/internal/infra/payment"
	"foodorder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completedPayload = `{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":1450,"metadata":{"orderId":"42","restaurantId":"3"}}}}`

func TestCreateCheckoutSession(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173/", "")

	sess, err := g.CreateCheckoutSession(context.Background(), usecase.CheckoutSessionRequest{
		OrderID:    42,
		Summary:    pricing.Summary{TotalDisplay: "14.50"},
		SuccessURL: "http://localhost:5173/order-status?success=true",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sess.ID, "cs_"))
	u, err := url.Parse(sess.URL)
	require.NoError(t, err)
	assert.Equal(t, "/checkout", u.Path)
	assert.Equal(t, sess.ID, u.Query().Get("session_id"))
	assert.Equal(t, "42", u.Query().Get("order_id"))
	assert.Equal(t, "14.50", u.Query().Get("amount"))
}

func TestCreateCheckoutSession_InvalidOrder(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "")
	_, err := g.CreateCheckoutSession(context.Background(), usecase.CheckoutSessionRequest{})
	assert.Error(t, err)
}

func TestParseWebhook_Completed(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "")

	ev, err := g.ParseWebhook([]byte(completedPayload), "")
	require.NoError(t, err)

	assert.Equal(t, usecase.PaymentEventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, int64(42), ev.OrderID)
	require.NotNil(t, ev.AmountTotal)
	assert.Equal(t, pricing.Minor(1450), *ev.AmountTotal)
}

func TestParseWebhook_OtherEventIgnoresMetadata(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "")

	ev, err := g.ParseWebhook([]byte(`{"type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`), "")
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", ev.Type)
	assert.Zero(t, ev.OrderID)
}

func TestParseWebhook_Invalid(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "")

	_, err := g.ParseWebhook([]byte(`not json`), "")
	assert.ErrorIs(t, err, payment.ErrInvalidPayload)

	_, err = g.ParseWebhook([]byte(`{"type":"checkout.session.completed","data":{"object":{"metadata":{}}}}`), "")
	assert.ErrorIs(t, err, payment.ErrInvalidPayload)
}

func TestParseWebhook_Signature(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "whsec_test")
	body := []byte(completedPayload)

	_, err := g.ParseWebhook(body, "")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	_, err = g.ParseWebhook(body, "deadbeef")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	ev, err := g.ParseWebhook(body, g.Sign(body))
	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.OrderID)
}

func TestParseWebhook_NegativeAmountRejected(t *testing.T) {
	g := payment.NewGateway("http://localhost:5173", "whsec_test")
	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":-500,"metadata":{"orderId":"42"}}}}`)

	_, err := g.ParseWebhook(body, g.Sign(body))
	assert.ErrorIs(t, err, payment.ErrInvalidPayload)
	assert.ErrorContains(t, err, "amount_total")

	zero := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":0,"metadata":{"orderId":"42"}}}}`)
	ev, err := g.ParseWebhook(zero, g.Sign(zero))
	require.NoError(t, err)
	require.NotNil(t, ev.AmountTotal)
	assert.Equal(t, pricing.Minor(0), *ev.AmountTotal)
}
