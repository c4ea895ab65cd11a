package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/resumeforge/resumeforge-backend/internal/config"
	"github.com/resumeforge/resumeforge-backend/internal/controller"
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/internal/service"
	"github.com/resumeforge/resumeforge-backend/pkg/payment"
	"github.com/resumeforge/resumeforge-backend/pkg/utils"
)

const testWebhookSecret = "whsec_handler_test"

type fakeSubmissionStore struct {
	submissions map[string]*models.Submission
	markCalls   []string
	markErr     error
}

func newFakeStore(subs ...*models.Submission) *fakeSubmissionStore {
	store := &fakeSubmissionStore{submissions: map[string]*models.Submission{}}
	for _, sub := range subs {
		store.submissions[sub.ID] = sub
	}
	return store
}

func (f *fakeSubmissionStore) GetByID(id string) (*models.Submission, error) {
	sub, ok := f.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeSubmissionStore) MarkPaymentCompleted(id, stripeSessionID string) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	f.markCalls = append(f.markCalls, id)
	sub, ok := f.submissions[id]
	if !ok || sub.PaymentStatus == models.PaymentStatusCompleted {
		return false, nil
	}
	sub.PaymentStatus = models.PaymentStatusCompleted
	sub.StripeSessionID = stripeSessionID
	return true, nil
}

type fakeCheckoutClient struct {
	gotParams *stripe.CheckoutSessionParams
	session   *stripe.CheckoutSession
	err       error
	calls     int
}

func (f *fakeCheckoutClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeCheckoutClient) VerifyWebhook(payload []byte, signatureHeader string) (*stripe.Event, error) {
	return payment.NewClient("sk_test_key", testWebhookSecret).VerifyWebhook(payload, signatureHeader)
}

func testConfig() *config.Config {
	return &config.Config{
		Stripe: config.StripeConfig{
			AppID:                 "resumeforge",
			AckOnReconcileFailure: true,
		},
		Product: config.ProductConfig{
			Name:        "ResumeForge CV",
			Currency:    "usd",
			AmountCents: 990,
		},
		Plans: map[string]models.PlanDefinition{
			config.PlanTrial: {
				Type:    config.PlanTrial,
				Mode:    models.PlanModeOneTime,
				PriceID: "price_trial",
			},
			config.PlanMonthly: {
				Type:    config.PlanMonthly,
				Mode:    models.PlanModeRecurring,
				PriceID: "price_monthly",
			},
		},
	}
}

func newTestApp(cfg *config.Config, client service.CheckoutClient, store service.SubmissionStore) *fiber.App {
	paymentService := service.NewPaymentService(cfg, client, store, nil, zap.NewNop())
	paymentController := controller.NewPaymentController(paymentService)
	paymentHandler := NewPaymentHandler(paymentController, cfg, utils.NewValidator())

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)
	api.Post("/payments/checkout", paymentHandler.CreateCheckoutSession)
	api.Post("/payments/checkout/plan", paymentHandler.CreatePlanCheckoutSession)
	api.Get("/payments/plans", paymentHandler.GetPlans)
	return app
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedCheckoutPayload(t *testing.T, sessionID string, metadata map[string]string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":     "evt_test_1",
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       sessionID,
				"object":   "checkout.session",
				"metadata": metadata,
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal webhook payload: %v", err)
	}
	return payload
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode response body %q: %v", raw, err)
	}
	return body
}

func TestCreatePlanCheckoutEndToEnd(t *testing.T) {
	client := &fakeCheckoutClient{session: &stripe.CheckoutSession{
		ID:  "cs_test_1",
		URL: "https://checkout.stripe.com/c/cs_test_1",
	}}
	app := newTestApp(testConfig(), client, newFakeStore())

	resp := postJSON(t, app, "/api/payments/checkout/plan", map[string]string{
		"plan_type":     "monthly",
		"submission_id": "sub_42",
		"success_url":   "https://x/ok",
		"cancel_url":    "https://x/cancel",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["url"])

	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *client.gotParams.Mode)
	assert.Equal(t, "price_monthly", *client.gotParams.LineItems[0].Price)
	assert.Equal(t, "sub_42", client.gotParams.Params.Metadata["submission_id"])
	assert.Equal(t, "resumeforge", client.gotParams.Params.Metadata["app_id"])
}

func TestCreatePlanCheckoutUnknownPlan(t *testing.T) {
	client := &fakeCheckoutClient{}
	app := newTestApp(testConfig(), client, newFakeStore())

	resp := postJSON(t, app, "/api/payments/checkout/plan", map[string]string{
		"plan_type":     "yearly",
		"submission_id": "sub_42",
		"success_url":   "https://x/ok",
		"cancel_url":    "https://x/cancel",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, client.calls, "provider must not be contacted for an unknown plan")
}

func TestCreateCheckoutMissingFields(t *testing.T) {
	client := &fakeCheckoutClient{}
	app := newTestApp(testConfig(), client, newFakeStore())

	resp := postJSON(t, app, "/api/payments/checkout", map[string]string{
		"submission_id": "sub_42",
		"cancel_url":    "https://x/cancel",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, client.calls)
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	client := &fakeCheckoutClient{err: fmt.Errorf("No such price: price_x")}
	app := newTestApp(testConfig(), client, newFakeStore())

	resp := postJSON(t, app, "/api/payments/checkout", map[string]string{
		"submission_id": "sub_42",
		"success_url":   "https://x/ok",
		"cancel_url":    "https://x/cancel",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "No such price")
}

func TestWebhookHappyPath(t *testing.T) {
	store := newFakeStore(&models.Submission{
		ID:            "sub_42",
		Email:         "jo@example.com",
		PaymentStatus: models.PaymentStatusPending,
	})
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, store)

	payload := completedCheckoutPayload(t, "cs_test_1", map[string]string{
		"app_id":        "resumeforge",
		"submission_id": "sub_42",
	})
	resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["received"])

	assert.Equal(t, []string{"sub_42"}, store.markCalls)
	assert.Equal(t, models.PaymentStatusCompleted, store.submissions["sub_42"].PaymentStatus)
	assert.Equal(t, "cs_test_1", store.submissions["sub_42"].StripeSessionID)
}

func TestWebhookInvalidSignature(t *testing.T) {
	store := newFakeStore(&models.Submission{
		ID:            "sub_42",
		PaymentStatus: models.PaymentStatusPending,
	})
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, store)

	payload := completedCheckoutPayload(t, "cs_test_1", map[string]string{
		"submission_id": "sub_42",
	})

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing header", signature: ""},
		{name: "wrong secret", signature: signPayload(payload, "whsec_other", time.Now())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postWebhook(t, app, payload, tt.signature)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, "Invalid signature", body["error"])
		})
	}

	assert.Empty(t, store.markCalls, "no backend update may happen before verification")
	assert.Equal(t, models.PaymentStatusPending, store.submissions["sub_42"].PaymentStatus)
}

func TestWebhookDoubleDeliveryIsIdempotent(t *testing.T) {
	store := newFakeStore(&models.Submission{
		ID:            "sub_42",
		PaymentStatus: models.PaymentStatusPending,
	})
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, store)

	payload := completedCheckoutPayload(t, "cs_test_1", map[string]string{
		"submission_id": "sub_42",
	})

	for i := 0; i < 2; i++ {
		resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, models.PaymentStatusCompleted, store.submissions["sub_42"].PaymentStatus)
}

func TestWebhookOtherEventTypesAcknowledged(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, store)

	payload, err := json.Marshal(map[string]interface{}{
		"id":     "evt_test_9",
		"object": "event",
		"type":   "customer.subscription.updated",
		"data":   map[string]interface{}{"object": map[string]interface{}{}},
	})
	assert.NoError(t, err)

	resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["received"])
	assert.Empty(t, store.markCalls)
}

func TestWebhookMissingSubmissionIDAcknowledged(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, store)

	payload := completedCheckoutPayload(t, "cs_test_1", map[string]string{
		"app_id": "resumeforge",
	})
	resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, store.markCalls)
}

func TestWebhookReconcileFailurePolicy(t *testing.T) {
	payload := completedCheckoutPayload(t, "cs_test_1", map[string]string{
		"submission_id": "sub_42",
	})

	t.Run("ack policy acknowledges", func(t *testing.T) {
		store := newFakeStore()
		store.markErr = fmt.Errorf("backend unavailable")
		cfg := testConfig()
		cfg.Stripe.AckOnReconcileFailure = true
		app := newTestApp(cfg, &fakeCheckoutClient{}, store)

		resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("retry policy fails the delivery", func(t *testing.T) {
		store := newFakeStore()
		store.markErr = fmt.Errorf("backend unavailable")
		cfg := testConfig()
		cfg.Stripe.AckOnReconcileFailure = false
		app := newTestApp(cfg, &fakeCheckoutClient{}, store)

		resp := postWebhook(t, app, payload, signPayload(payload, testWebhookSecret, time.Now()))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetPlans(t *testing.T) {
	app := newTestApp(testConfig(), &fakeCheckoutClient{}, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/plans", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 2)
}
