package test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alias-sync-service/internal/api"
	"alias-sync-service/internal/models"
)

// MockEventProcessor implements the event processor interface for testing
type MockEventProcessor struct {
	mock.Mock
}

func (m *MockEventProcessor) HandleEvent(ctx context.Context, event *models.InventoryLevelEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func postWebhook(router http.Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/inventory-levels", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookHandler_HealthCheck(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "healthy")
}

func TestWebhookHandler_ValidEvent(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	processor.On("HandleEvent", mock.Anything, &models.InventoryLevelEvent{
		InventoryItemID: 111,
		LocationID:      99,
		Available:       4,
	}).Return(nil).Once()

	recorder := postWebhook(router, []byte(`{"inventory_item_id":111,"location_id":99,"available":4}`), nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	processor.AssertExpectations(t)
}

func TestWebhookHandler_InvalidPayload(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	recorder := postWebhook(router, []byte(`{"inventory_item_id":`), nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	processor.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestWebhookHandler_MissingItemIDRejected(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	recorder := postWebhook(router, []byte(`{"location_id":99,"available":4}`), nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	processor.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestWebhookHandler_ProcessingFailure(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	processor.On("HandleEvent", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	recorder := postWebhook(router, []byte(`{"inventory_item_id":111,"location_id":99,"available":4}`), nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Processing Failed")
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	const secret = "shhh"
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, secret).SetupRoutes()

	body := []byte(`{"inventory_item_id":111,"location_id":99,"available":4}`)

	// No signature header.
	recorder := postWebhook(router, body, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Wrong signature.
	recorder = postWebhook(router, body, map[string]string{
		"X-Shopify-Hmac-Sha256": "bm90LWEtcmVhbC1zaWduYXR1cmU=",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	processor.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)

	// Valid signature over the exact body.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	processor.On("HandleEvent", mock.Anything, mock.Anything).Return(nil).Once()

	recorder = postWebhook(router, body, map[string]string{
		"X-Shopify-Hmac-Sha256": signature,
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
	processor.AssertExpectations(t)
}

func TestWebhookHandler_JournalEndpointAbsentWhenDisabled(t *testing.T) {
	processor := new(MockEventProcessor)
	router := api.NewWebhookHandler(processor, nil, "").SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/journal", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
